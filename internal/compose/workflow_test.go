package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/wamsg/internal/carrier"
	"github.com/jask/wamsg/internal/database"
	"github.com/jask/wamsg/internal/database/repository"
	"github.com/jask/wamsg/internal/llm"
	"github.com/jask/wamsg/internal/validate"
)

// fakeProvider records the last request and returns canned results.
type fakeProvider struct {
	lastCompose llm.ComposeRequest
	lastImprove llm.ImproveRequest
	text        string
	err         error
	calls       int
}

func (f *fakeProvider) GenerateFromBrief(_ context.Context, req llm.ComposeRequest) (string, error) {
	f.calls++
	f.lastCompose = req
	return f.text, f.err
}

func (f *fakeProvider) ImproveExisting(_ context.Context, req llm.ImproveRequest) (string, error) {
	f.calls++
	f.lastImprove = req
	return f.text, f.err
}

// fakeDispatcher records the dispatched order.
type fakeDispatcher struct {
	lastTo   string
	lastBody string
	sid      string
	err      error
	calls    int
}

func (f *fakeDispatcher) Send(_ context.Context, to, body string) (string, error) {
	f.calls++
	f.lastTo = to
	f.lastBody = body
	return f.sid, f.err
}

func validCreds() carrier.Credentials {
	return carrier.Credentials{AccountSID: "ACxxx", AuthToken: "tok", From: "whatsapp:+14155238886"}
}

func newTestSession(t *testing.T) (*Session, *repository.SentMessageRepo) {
	t.Helper()
	db, err := database.Open(database.InMemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	repo := repository.NewSentMessageRepo(db)
	return NewSession(repo), repo
}

// run one generate round-trip through the split-phase API, the way the event
// loop drives it.
func generate(ctx context.Context, s *Session, p *fakeProvider, req llm.ComposeRequest) error {
	if err := s.BeginGenerate(req); err != nil {
		return err
	}
	text, err := p.GenerateFromBrief(ctx, req)
	return s.FinishGenerate(text, err)
}

func send(ctx context.Context, s *Session, d *fakeDispatcher) (*repository.SentMessage, error) {
	order, err := s.BeginSend()
	if err != nil {
		return nil, err
	}
	sid, err := d.Send(ctx, order.ToNormalized, order.Body)
	return s.FinishSend(ctx, sid, err)
}

func TestGenerateFromBriefSuccess(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	sess, _ := newTestSession(t)
	provider := &fakeProvider{text: "Hi Sam, lunch on Friday?"}
	sess.Provider = provider

	require.NoError(t, sess.StartDraft(ModeBrief))
	req := llm.ComposeRequest{Brief: "remind Sam about Friday lunch", Tone: llm.ToneFriendly}
	require.NoError(t, generate(ctx, sess, provider, req))

	require.Equal(t, StateEditable, sess.State())
	require.Equal(t, OriginGenerated, sess.Draft().Origin)
	require.Equal(t, EditorAI, sess.Draft().LastModifiedBy)
	require.Equal(t, "Hi Sam, lunch on Friday?", sess.Draft().Text)
	require.Equal(t, "remind Sam about Friday lunch", provider.lastCompose.Brief)
	require.Equal(t, llm.ToneFriendly, provider.lastCompose.Tone)
	require.False(t, provider.lastCompose.WantEmoji)
	require.NoError(t, sess.LastError())
}

func TestGenerateFailureKeepsDraft(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	sess, _ := newTestSession(t)
	provider := &fakeProvider{text: "first draft"}
	sess.Provider = provider

	require.NoError(t, sess.StartDraft(ModeBrief))
	require.NoError(t, generate(ctx, sess, provider, llm.ComposeRequest{Brief: "say hi"}))
	before := sess.Draft()

	provider.err = errors.New("rate limited")
	err := generate(ctx, sess, provider, llm.ComposeRequest{Brief: "say hi again"})
	require.Error(t, err)
	require.Equal(t, StateEditable, sess.State())
	require.Equal(t, before, sess.Draft())
	require.ErrorContains(t, sess.LastError(), "rate limited")
}

func TestGenerateGuards(t *testing.T) {
	t.Parallel()

	sess, _ := newTestSession(t)

	// no provider configured
	require.NoError(t, sess.StartDraft(ModeBrief))
	require.ErrorIs(t, sess.BeginGenerate(llm.ComposeRequest{Brief: "x"}), ErrAIUnavailable)

	sess.Provider = &fakeProvider{}
	require.ErrorIs(t, sess.BeginGenerate(llm.ComposeRequest{Brief: "  "}), ErrEmptyBrief)

	// wrong mode
	require.NoError(t, sess.StartDraft(ModeAuthored))
	require.ErrorIs(t, sess.BeginGenerate(llm.ComposeRequest{Brief: "x"}), ErrWrongMode)
	require.ErrorIs(t, sess.BeginImprove(llm.ImproveRequest{Original: ""}), ErrNoDraft)

	// one call in flight at a time
	require.NoError(t, sess.StartDraft(ModeBrief))
	require.NoError(t, sess.BeginGenerate(llm.ComposeRequest{Brief: "x"}))
	require.ErrorIs(t, sess.BeginGenerate(llm.ComposeRequest{Brief: "x"}), ErrBusy)
	require.ErrorIs(t, sess.EditDraft("typed mid-flight"), ErrBusy)
	_, err := sess.BeginSend()
	require.ErrorIs(t, err, ErrBusy)
}

func TestImproveExisting(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	sess, _ := newTestSession(t)
	provider := &fakeProvider{text: "Hi Sam - see you Friday!"}
	sess.Provider = provider

	require.NoError(t, sess.StartDraft(ModeAuthored))
	require.NoError(t, sess.EditDraft("hey sam friday lunch ya?"))
	require.Equal(t, StateEditable, sess.State())
	require.Equal(t, OriginUserWritten, sess.Draft().Origin)

	req := llm.ImproveRequest{Original: sess.Draft().Text, Tone: llm.ToneCasual, Shorten: true}
	require.NoError(t, sess.BeginImprove(req))
	text, err := provider.ImproveExisting(ctx, req)
	require.NoError(t, sess.FinishImprove(text, err))

	require.Equal(t, OriginImproved, sess.Draft().Origin)
	require.Equal(t, "Hi Sam - see you Friday!", sess.Draft().Text)
	require.True(t, provider.lastImprove.Shorten)
}

func TestAuthoredModeSkipsAIEntirely(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	sess, repo := newTestSession(t)
	dispatcher := &fakeDispatcher{sid: "SM123"}
	sess.Carrier = dispatcher
	sess.Creds = validCreds()

	require.NoError(t, sess.StartDraft(ModeAuthored))
	require.NoError(t, sess.EditDraft("Hi Sam, see you Friday!"))
	sess.SetRecipient("+15551234567")
	sess.SetReady(true)
	require.True(t, sess.CanSend())

	rec, err := send(ctx, sess, dispatcher)
	require.NoError(t, err)
	require.NotNil(t, rec)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSendSuccessAppendsOneRecordAndResets(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	sess, repo := newTestSession(t)
	dispatcher := &fakeDispatcher{sid: "SM0042"}
	sess.Carrier = dispatcher
	sess.Creds = validCreds()

	require.NoError(t, sess.StartDraft(ModeAuthored))
	require.NoError(t, sess.EditDraft("Hi Sam, see you Friday!"))
	sess.SetRecipient(" +15551234567 ")
	sess.SetReady(true)

	rec, err := send(ctx, sess, dispatcher)
	require.NoError(t, err)
	require.Equal(t, "whatsapp:+15551234567", dispatcher.lastTo)
	require.Equal(t, "Hi Sam, see you Friday!", dispatcher.lastBody)
	require.Equal(t, "SM0042", rec.ProviderSID)
	require.Equal(t, "+15551234567", rec.ToDisplay)
	require.Equal(t, "whatsapp:+15551234567", rec.ToNormalized)
	require.NotEmpty(t, rec.ID)

	// draft cleared, session back to idle, ready flag dropped
	require.Equal(t, StateIdle, sess.State())
	require.Equal(t, Draft{}, sess.Draft())
	require.False(t, sess.Ready())

	list, err := repo.ListMostRecentFirst(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Hi Sam, see you Friday!", list[0].Body)
	require.Equal(t, "SM0042", list[0].ProviderSID)
}

func TestSendFailureKeepsEverything(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	sess, repo := newTestSession(t)
	dispatcher := &fakeDispatcher{err: errors.New("twilio: send: unapproved template")}
	sess.Carrier = dispatcher
	sess.Creds = validCreds()

	require.NoError(t, sess.StartDraft(ModeAuthored))
	require.NoError(t, sess.EditDraft("Hi Sam, see you Friday!"))
	sess.SetRecipient("+15551234567")
	sess.SetReady(true)

	rec, err := send(ctx, sess, dispatcher)
	require.Nil(t, rec)
	require.ErrorContains(t, err, "unapproved template")

	require.Equal(t, StateEditable, sess.State())
	require.Equal(t, "Hi Sam, see you Friday!", sess.Draft().Text)
	require.ErrorContains(t, sess.LastError(), "unapproved template")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSendBlockedBeforeAnyNetworkCall(t *testing.T) {
	t.Parallel()

	sess, _ := newTestSession(t)
	dispatcher := &fakeDispatcher{sid: "SM1"}
	sess.Carrier = dispatcher
	sess.Creds = validCreds()

	require.NoError(t, sess.StartDraft(ModeAuthored))
	require.NoError(t, sess.EditDraft("hello"))
	sess.SetReady(true)

	// recipient without country code
	sess.SetRecipient("5551234567")
	_, err := sess.BeginSend()
	require.ErrorIs(t, err, validate.ErrMissingCountryCode)
	require.Zero(t, dispatcher.calls)

	// incomplete credentials
	sess.SetRecipient("+15551234567")
	sess.Creds = carrier.Credentials{AccountSID: "ACxxx"}
	_, err = sess.BeginSend()
	require.ErrorIs(t, err, validate.ErrMissingAuthToken)
	require.ErrorIs(t, err, validate.ErrMissingSender)
	require.Zero(t, dispatcher.calls)

	// missing carrier capability is a configuration error, not a crash
	sess.Creds = validCreds()
	sess.Carrier = nil
	_, err = sess.BeginSend()
	require.ErrorIs(t, err, ErrCarrierUnavailable)

	// readiness confirmation still required
	sess.Carrier = dispatcher
	sess.SetReady(false)
	_, err = sess.BeginSend()
	require.ErrorIs(t, err, ErrNotReady)
	require.Zero(t, dispatcher.calls)
}

func TestCanSendPredicate(t *testing.T) {
	t.Parallel()

	sess, _ := newTestSession(t)
	require.False(t, sess.CanSend())

	require.NoError(t, sess.StartDraft(ModeAuthored))
	require.NoError(t, sess.EditDraft("hello"))
	require.False(t, sess.CanSend())

	sess.SetRecipient("+15551234567")
	require.False(t, sess.CanSend())

	sess.SetReady(true)
	require.True(t, sess.CanSend())

	require.NoError(t, sess.EditDraft("   "))
	require.False(t, sess.CanSend())
	require.Equal(t, StateDrafting, sess.State())
}

func TestResetClearsDraftState(t *testing.T) {
	t.Parallel()

	sess, _ := newTestSession(t)
	require.NoError(t, sess.StartDraft(ModeAuthored))
	require.NoError(t, sess.EditDraft("keep me? no"))
	sess.SetRecipient("+15551234567")
	sess.SetReady(true)

	require.NoError(t, sess.Reset())
	require.Equal(t, StateIdle, sess.State())
	require.Equal(t, Draft{}, sess.Draft())
	require.False(t, sess.Ready())
	// recipient survives a reset; only the draft is abandoned
	require.Equal(t, "+15551234567", sess.Recipient())
}
