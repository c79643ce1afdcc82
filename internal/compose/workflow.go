// Package compose implements the message workflow: the state machine that
// carries a draft from a brief or raw text through AI assistance, validation,
// and carrier dispatch, and records confirmed sends in the history log.
//
// The API is split-phase so an event loop can drive it: Begin* validates and
// marks the call in flight, the caller performs the blocking network call,
// Finish* applies the outcome. A Session is not safe for concurrent use; the
// driving loop applies one event at a time, and the AwaitingAI/Sending states
// reject a second Begin while one call is outstanding.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/wamsg/internal/carrier"
	"github.com/jask/wamsg/internal/database"
	"github.com/jask/wamsg/internal/database/repository"
	"github.com/jask/wamsg/internal/llm"
	"github.com/jask/wamsg/internal/validate"
)

// State names where the current draft sits in its lifecycle.
type State string

const (
	StateIdle       State = "idle"        // no draft
	StateDrafting   State = "drafting"    // input entered, no sendable text yet
	StateAwaitingAI State = "awaiting_ai" // one AI call in flight
	StateEditable   State = "editable"    // draft text present, user may edit and send
	StateSending    State = "sending"     // one dispatch in flight
)

// Mode selects the authoring path: Brief drives GenerateFromBrief, Authored
// starts from user text and may optionally run ImproveExisting. In Authored
// mode AI is skippable entirely.
type Mode string

const (
	ModeBrief    Mode = "brief"
	ModeAuthored Mode = "authored"
)

// Origin records how the current draft text came to be.
type Origin string

const (
	OriginNone        Origin = ""
	OriginGenerated   Origin = "generated_from_brief"
	OriginUserWritten Origin = "user_written"
	OriginImproved    Origin = "ai_improved"
)

// Editor identifies who touched the draft last.
type Editor string

const (
	EditorNone Editor = ""
	EditorUser Editor = "user"
	EditorAI   Editor = "ai"
)

// Draft is the in-progress message. It is cleared after a successful send and
// kept intact on every failure path so user text is never lost.
type Draft struct {
	Text           string
	Origin         Origin
	LastModifiedBy Editor
}

// DispatchOrder is what BeginSend hands the caller: the validated, normalized
// inputs for exactly one carrier call.
type DispatchOrder struct {
	ToDisplay    string
	ToNormalized string
	Body         string
}

var (
	ErrBusy               = errors.New("compose: a call is already in flight")
	ErrWrongMode          = errors.New("compose: operation not available in this authoring mode")
	ErrAIUnavailable      = errors.New("compose: AI drafting is not configured")
	ErrCarrierUnavailable = errors.New("compose: carrier is not configured")
	ErrEmptyBrief         = errors.New("compose: brief is empty")
	ErrNoDraft            = errors.New("compose: no draft text")
	ErrNotReady           = errors.New("compose: message not marked ready to send")
	ErrNotAwaiting        = errors.New("compose: no AI call in flight")
	ErrNotSending         = errors.New("compose: no dispatch in flight")
)

// Session is one user's workflow instance. The collaborators may be absent
// until their credentials exist; every path treats a missing one as a
// configuration error rather than a nil dereference.
type Session struct {
	Provider llm.DraftProvider
	Carrier  carrier.Dispatcher
	Creds    carrier.Credentials
	History  *repository.SentMessageRepo

	state     State
	mode      Mode
	draft     Draft
	recipient string
	ready     bool
	lastErr   error

	pendingOrder DispatchOrder
}

func NewSession(history *repository.SentMessageRepo) *Session {
	return &Session{state: StateIdle, mode: ModeBrief, History: history}
}

func (s *Session) State() State      { return s.state }
func (s *Session) Mode() Mode        { return s.mode }
func (s *Session) Draft() Draft      { return s.draft }
func (s *Session) Recipient() string { return s.recipient }
func (s *Session) Ready() bool       { return s.ready }

// LastError reports the error attached to the current state, if any. Errors
// are surfaced here instead of being swallowed; nothing retries automatically.
func (s *Session) LastError() error { return s.lastErr }

func (s *Session) busy() bool {
	return s.state == StateAwaitingAI || s.state == StateSending
}

// StartDraft begins a new message in the given mode, abandoning any current
// editable draft.
func (s *Session) StartDraft(mode Mode) error {
	if s.busy() {
		return ErrBusy
	}
	s.mode = mode
	s.state = StateDrafting
	s.draft = Draft{}
	s.lastErr = nil
	return nil
}

// SetRecipient records the raw recipient. Format validation happens at send
// time; this only feeds the readiness predicate.
func (s *Session) SetRecipient(raw string) { s.recipient = raw }

// SetReady flips the explicit ready-to-send confirmation supplied by the user.
func (s *Session) SetReady(ready bool) { s.ready = ready }

// EditDraft applies a user edit to the draft text. Non-blank text makes the
// draft sendable; clearing it drops back to drafting.
func (s *Session) EditDraft(text string) error {
	if s.busy() {
		return ErrBusy
	}
	s.draft.Text = text
	s.draft.LastModifiedBy = EditorUser
	if s.draft.Origin == OriginNone {
		s.draft.Origin = OriginUserWritten
	}
	if strings.TrimSpace(text) == "" {
		s.state = StateDrafting
	} else {
		s.state = StateEditable
	}
	return nil
}

// BeginGenerate validates a brief-driven generation attempt and marks the AI
// call in flight. Allowed only in brief mode; a retry after a failed call is
// allowed from Editable.
func (s *Session) BeginGenerate(req llm.ComposeRequest) error {
	if s.busy() {
		return ErrBusy
	}
	if s.mode != ModeBrief {
		return ErrWrongMode
	}
	if s.Provider == nil {
		return ErrAIUnavailable
	}
	if strings.TrimSpace(req.Brief) == "" {
		return ErrEmptyBrief
	}
	s.state = StateAwaitingAI
	s.lastErr = nil
	return nil
}

// FinishGenerate applies the outcome of a generation call. Failure lands in
// Editable with the draft unchanged and the error attached.
func (s *Session) FinishGenerate(text string, err error) error {
	return s.finishAI(OriginGenerated, text, err)
}

// BeginImprove validates an improve-existing attempt and marks the AI call in
// flight. Allowed only in authored mode with non-blank draft text.
func (s *Session) BeginImprove(req llm.ImproveRequest) error {
	if s.busy() {
		return ErrBusy
	}
	if s.mode != ModeAuthored {
		return ErrWrongMode
	}
	if s.Provider == nil {
		return ErrAIUnavailable
	}
	if strings.TrimSpace(req.Original) == "" {
		return ErrNoDraft
	}
	s.state = StateAwaitingAI
	s.lastErr = nil
	return nil
}

// FinishImprove applies the outcome of an improve call.
func (s *Session) FinishImprove(text string, err error) error {
	return s.finishAI(OriginImproved, text, err)
}

func (s *Session) finishAI(origin Origin, text string, err error) error {
	if s.state != StateAwaitingAI {
		return ErrNotAwaiting
	}
	s.state = StateEditable
	if err != nil {
		s.lastErr = err
		return err
	}
	s.draft = Draft{Text: text, Origin: origin, LastModifiedBy: EditorAI}
	s.lastErr = nil
	return nil
}

// CanSend is the advisory readiness predicate gating the send action. It is
// re-evaluated on every input change and is not a security boundary: BeginSend
// re-checks everything through the validators.
func (s *Session) CanSend() bool {
	return s.ready &&
		strings.TrimSpace(s.draft.Text) != "" &&
		strings.TrimSpace(s.recipient) != ""
}

// BeginSend re-runs credential and recipient validation, then marks the
// dispatch in flight and returns the order for exactly one carrier call.
// No network is touched here; every failure is local and recoverable.
func (s *Session) BeginSend() (DispatchOrder, error) {
	if s.busy() {
		return DispatchOrder{}, ErrBusy
	}
	if s.Carrier == nil {
		return DispatchOrder{}, ErrCarrierUnavailable
	}
	if err := validate.CarrierConfig(s.Creds); err != nil {
		return DispatchOrder{}, err
	}
	to, err := validate.Recipient(s.recipient)
	if err != nil {
		return DispatchOrder{}, err
	}
	body := strings.TrimSpace(s.draft.Text)
	if body == "" {
		return DispatchOrder{}, ErrNoDraft
	}
	if !s.ready {
		return DispatchOrder{}, ErrNotReady
	}
	s.pendingOrder = DispatchOrder{
		ToDisplay:    strings.TrimSpace(s.recipient),
		ToNormalized: to,
		Body:         body,
	}
	s.state = StateSending
	s.lastErr = nil
	return s.pendingOrder, nil
}

// FinishSend applies the dispatch outcome. A message counts as sent if and
// only if the carrier returned a message SID: then exactly one record is
// appended to the history log, the draft is cleared, and the session returns
// to Idle. On failure the draft stays intact and the state drops to Editable.
func (s *Session) FinishSend(ctx context.Context, sid string, sendErr error) (*repository.SentMessage, error) {
	if s.state != StateSending {
		return nil, ErrNotSending
	}
	if sendErr != nil {
		s.state = StateEditable
		s.lastErr = sendErr
		return nil, sendErr
	}

	rec := repository.SentMessage{
		ID:           uuid.NewString(),
		ToDisplay:    s.pendingOrder.ToDisplay,
		ToNormalized: s.pendingOrder.ToNormalized,
		Body:         s.pendingOrder.Body,
		ProviderSID:  sid,
		SentAt:       database.Now(),
	}

	// The carrier confirmed the send, so the session resets regardless of
	// whether the history write succeeds.
	var histErr error
	if s.History != nil {
		if err := s.History.Append(ctx, rec); err != nil {
			histErr = fmt.Errorf("compose: record sent message: %w", err)
		}
	}
	s.draft = Draft{}
	s.ready = false
	s.pendingOrder = DispatchOrder{}
	s.state = StateIdle
	s.lastErr = histErr
	return &rec, histErr
}

// Reset is the explicit "new message" action: it clears the draft and any
// attached error but keeps mode, recipient, and credentials.
func (s *Session) Reset() error {
	if s.busy() {
		return ErrBusy
	}
	s.draft = Draft{}
	s.ready = false
	s.lastErr = nil
	s.state = StateIdle
	return nil
}
