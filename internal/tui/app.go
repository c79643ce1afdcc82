package tui

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/wamsg/internal/carrier"
	"github.com/jask/wamsg/internal/compose"
	"github.com/jask/wamsg/internal/config"
	"github.com/jask/wamsg/internal/database/repository"
	"github.com/jask/wamsg/internal/llm"
	"github.com/jask/wamsg/internal/secrets"
	"github.com/jask/wamsg/internal/validate"
)

// App ties the compose workflow, history log, and settings into one
// bubbletea model. All session mutation happens in Update; tea.Cmd closures
// only perform the blocking network calls and report back via messages.
type App struct {
	ctx     context.Context
	cfg     config.Config
	session *compose.Session
	repo    *repository.SentMessageRepo

	tab tabID

	// compose form
	recipient textinput.Model
	brief     textarea.Model
	extras    textinput.Model
	message   textarea.Model
	toneIdx   int
	emoji     bool
	shorten   bool
	focus     int

	// history
	history    []repository.SentMessage
	histCursor int

	// settings form
	settings      []textinput.Model
	settingsFocus int

	status string
}

type tabID int

const (
	tabCompose tabID = iota
	tabHistory
	tabSettings
)

// settings field order
const (
	setOpenAIKey = iota
	setAccountSID
	setAuthToken
	setFrom
)

func New(ctx context.Context, cfg config.Config, sess *compose.Session, repo *repository.SentMessageRepo) *App {
	recipient := textinput.New()
	recipient.Placeholder = "+15551234567"
	recipient.Prompt = ""
	recipient.CharLimit = 32
	recipient.Focus()

	brief := textarea.New()
	brief.Placeholder = "What do you want to say? (goal/context)"
	brief.SetHeight(4)
	brief.ShowLineNumbers = false

	extras := textinput.New()
	extras.Placeholder = "Deadlines, links, constraints, etc. (optional)"
	extras.Prompt = ""

	message := textarea.New()
	message.Placeholder = "Message text"
	message.SetHeight(6)
	message.ShowLineNumbers = false

	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		apiKey = cfg.LLM.APIKey
	}

	settings := make([]textinput.Model, 4)
	settings[setOpenAIKey] = textinput.New()
	settings[setOpenAIKey].Placeholder = "OpenAI API Key"
	settings[setOpenAIKey].Prompt = ""
	settings[setOpenAIKey].EchoMode = textinput.EchoPassword
	settings[setOpenAIKey].SetValue(apiKey)
	settings[setAccountSID] = textinput.New()
	settings[setAccountSID].Placeholder = "Twilio Account SID"
	settings[setAccountSID].Prompt = ""
	settings[setAccountSID].SetValue(sess.Creds.AccountSID)
	settings[setAuthToken] = textinput.New()
	settings[setAuthToken].Placeholder = "Twilio Auth Token"
	settings[setAuthToken].Prompt = ""
	settings[setAuthToken].EchoMode = textinput.EchoPassword
	settings[setAuthToken].SetValue(sess.Creds.AuthToken)
	settings[setFrom] = textinput.New()
	settings[setFrom].Placeholder = "whatsapp:+14155238886"
	settings[setFrom].Prompt = ""
	settings[setFrom].SetValue(sess.Creds.From)

	return &App{
		ctx:       ctx,
		cfg:       cfg,
		session:   sess,
		repo:      repo,
		recipient: recipient,
		brief:     brief,
		extras:    extras,
		message:   message,
		settings:  settings,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadHistory()
}

// messages
type generatedMsg struct {
	text string
	err  error
}

type improvedMsg struct {
	text string
	err  error
}

type sentMsg struct {
	sid string
	err error
}

type historyMsg []repository.SentMessage

type errMsg struct{ error }

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		list, err := a.repo.ListMostRecentFirst(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return historyMsg(list)
	}
}

func (a *App) generateCmd(req llm.ComposeRequest) tea.Cmd {
	provider := a.session.Provider
	return func() tea.Msg {
		text, err := provider.GenerateFromBrief(a.ctx, req)
		return generatedMsg{text: text, err: err}
	}
}

func (a *App) improveCmd(req llm.ImproveRequest) tea.Cmd {
	provider := a.session.Provider
	return func() tea.Msg {
		text, err := provider.ImproveExisting(a.ctx, req)
		return improvedMsg{text: text, err: err}
	}
}

func (a *App) sendCmd(order compose.DispatchOrder) tea.Cmd {
	dispatcher := a.session.Carrier
	return func() tea.Msg {
		sid, err := dispatcher.Send(a.ctx, order.ToNormalized, order.Body)
		return sentMsg{sid: sid, err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.message.SetWidth(min(m.Width-4, 72))
		a.brief.SetWidth(min(m.Width-4, 72))
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(m)

	case generatedMsg:
		if err := a.session.FinishGenerate(m.text, m.err); err != nil {
			a.status = "AI generation failed: " + err.Error()
			return a, nil
		}
		a.message.SetValue(a.session.Draft().Text)
		a.status = "draft ready - edit freely, mark ready (ctrl+y), then send (ctrl+s)"
		return a, nil

	case improvedMsg:
		if err := a.session.FinishImprove(m.text, m.err); err != nil {
			a.status = "AI improvement failed: " + err.Error()
			return a, nil
		}
		a.message.SetValue(a.session.Draft().Text)
		a.status = "message improved"
		return a, nil

	case sentMsg:
		rec, err := a.session.FinishSend(a.ctx, m.sid, m.err)
		if rec == nil {
			a.status = "failed to send WhatsApp message: " + err.Error()
			return a, nil
		}
		a.message.SetValue("")
		a.status = "message sent! SID: " + rec.ProviderSID
		if err != nil {
			a.status += " (history write failed: " + err.Error() + ")"
		}
		return a, a.loadHistory()

	case historyMsg:
		a.history = []repository.SentMessage(m)
		if a.histCursor >= len(a.history) {
			a.histCursor = 0
		}
		return a, nil

	case errMsg:
		a.status = "error: " + m.Error()
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "f2":
		a.tab = tabCompose
		return a, nil
	case "f3":
		a.tab = tabHistory
		return a, a.loadHistory()
	case "f4":
		a.tab = tabSettings
		a.settings[a.settingsFocus].Focus()
		return a, nil
	}

	switch a.tab {
	case tabCompose:
		return a.handleComposeKey(m)
	case tabHistory:
		return a.handleHistoryKey(m)
	default:
		return a.handleSettingsKey(m)
	}
}

func (a *App) handleComposeKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	busy := a.session.State() == compose.StateAwaitingAI || a.session.State() == compose.StateSending

	switch m.String() {
	case "ctrl+x":
		if busy {
			return a, nil
		}
		mode := compose.ModeAuthored
		if a.session.Mode() == compose.ModeAuthored {
			mode = compose.ModeBrief
		}
		if err := a.session.StartDraft(mode); err != nil {
			a.status = err.Error()
			return a, nil
		}
		a.message.SetValue("")
		a.toneIdx = 0
		a.focus = 0
		a.applyFocus()
		a.status = ""
		return a, nil
	case "ctrl+n":
		if err := a.session.Reset(); err != nil {
			a.status = err.Error()
			return a, nil
		}
		a.message.SetValue("")
		a.brief.SetValue("")
		a.extras.SetValue("")
		a.status = "new message"
		return a, nil
	case "ctrl+t":
		a.toneIdx = (a.toneIdx + 1) % len(a.tones())
		return a, nil
	case "ctrl+e":
		a.emoji = !a.emoji
		return a, nil
	case "ctrl+b":
		a.shorten = !a.shorten
		return a, nil
	case "ctrl+y":
		a.session.SetReady(!a.session.Ready())
		return a, nil
	case "tab", "shift+tab":
		if m.String() == "tab" {
			a.focus = (a.focus + 1) % len(a.composeFields())
		} else {
			a.focus = (a.focus - 1 + len(a.composeFields())) % len(a.composeFields())
		}
		a.applyFocus()
		return a, nil
	case "ctrl+g":
		if busy {
			a.status = "still working..."
			return a, nil
		}
		req := llm.ComposeRequest{
			Brief:     a.brief.Value(),
			Tone:      a.currentTone(),
			Extras:    a.extras.Value(),
			WantEmoji: a.emoji,
		}
		if err := a.session.BeginGenerate(req); err != nil {
			a.status = err.Error()
			return a, nil
		}
		a.status = "thinking..."
		return a, a.generateCmd(req)
	case "ctrl+r":
		if busy {
			a.status = "still working..."
			return a, nil
		}
		req := llm.ImproveRequest{
			Original: a.message.Value(),
			Tone:     a.currentTone(),
			Shorten:  a.shorten,
		}
		if err := a.session.BeginImprove(req); err != nil {
			a.status = err.Error()
			return a, nil
		}
		a.status = "improving..."
		return a, a.improveCmd(req)
	case "ctrl+s":
		if busy {
			a.status = "still working..."
			return a, nil
		}
		order, err := a.session.BeginSend()
		if err != nil {
			a.status = err.Error()
			return a, nil
		}
		a.status = "sending via WhatsApp..."
		return a, a.sendCmd(order)
	}

	if busy {
		return a, nil
	}
	return a, a.updateComposeInput(m)
}

// updateComposeInput routes the keystroke to the focused field and mirrors
// the result into the session so the readiness predicate stays current.
func (a *App) updateComposeInput(m tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.composeFields()[a.focus] {
	case fieldRecipient:
		a.recipient, cmd = a.recipient.Update(m)
		a.session.SetRecipient(a.recipient.Value())
	case fieldBrief:
		a.brief, cmd = a.brief.Update(m)
		if a.session.State() == compose.StateIdle && strings.TrimSpace(a.brief.Value()) != "" {
			_ = a.session.StartDraft(compose.ModeBrief)
		}
	case fieldExtras:
		a.extras, cmd = a.extras.Update(m)
	case fieldMessage:
		a.message, cmd = a.message.Update(m)
		_ = a.session.EditDraft(a.message.Value())
	}
	return cmd
}

type composeField int

const (
	fieldRecipient composeField = iota
	fieldBrief
	fieldExtras
	fieldMessage
)

func (a *App) composeFields() []composeField {
	if a.session.Mode() == compose.ModeAuthored {
		return []composeField{fieldRecipient, fieldMessage}
	}
	return []composeField{fieldRecipient, fieldBrief, fieldExtras, fieldMessage}
}

func (a *App) applyFocus() {
	a.recipient.Blur()
	a.brief.Blur()
	a.extras.Blur()
	a.message.Blur()
	switch a.composeFields()[a.focus] {
	case fieldRecipient:
		a.recipient.Focus()
	case fieldBrief:
		a.brief.Focus()
	case fieldExtras:
		a.extras.Focus()
	case fieldMessage:
		a.message.Focus()
	}
}

func (a *App) tones() []llm.Tone {
	if a.session.Mode() == compose.ModeAuthored {
		return llm.ImproveTones()
	}
	return llm.ComposeTones()
}

func (a *App) currentTone() llm.Tone {
	tones := a.tones()
	if a.toneIdx >= len(tones) {
		return tones[0]
	}
	return tones[a.toneIdx]
}

func (a *App) handleHistoryKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "up", "k":
		if a.histCursor > 0 {
			a.histCursor--
		}
	case "down", "j":
		if a.histCursor < len(a.history)-1 {
			a.histCursor++
		}
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleSettingsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "tab", "down":
		a.settings[a.settingsFocus].Blur()
		a.settingsFocus = (a.settingsFocus + 1) % len(a.settings)
		a.settings[a.settingsFocus].Focus()
		return a, nil
	case "shift+tab", "up":
		a.settings[a.settingsFocus].Blur()
		a.settingsFocus = (a.settingsFocus - 1 + len(a.settings)) % len(a.settings)
		a.settings[a.settingsFocus].Focus()
		return a, nil
	case "enter":
		a.saveSettings()
		return a, nil
	}
	var cmd tea.Cmd
	a.settings[a.settingsFocus], cmd = a.settings[a.settingsFocus].Update(m)
	return a, cmd
}

// saveSettings persists non-secret fields to the config file, secrets to the
// secret store, and rebuilds the AI and carrier capabilities. A capability
// stays absent until its credentials are complete.
func (a *App) saveSettings() {
	apiKey := strings.TrimSpace(a.settings[setOpenAIKey].Value())
	creds := carrier.Credentials{
		AccountSID: strings.TrimSpace(a.settings[setAccountSID].Value()),
		AuthToken:  strings.TrimSpace(a.settings[setAuthToken].Value()),
		From:       strings.TrimSpace(a.settings[setFrom].Value()),
	}

	a.cfg.Twilio.AccountSID = creds.AccountSID
	a.cfg.Twilio.From = creds.From
	if err := config.Save(a.cfg); err != nil {
		a.status = "save config: " + err.Error()
		return
	}
	if apiKey != "" {
		_ = secrets.Store("openai", apiKey)
	}
	if creds.AuthToken != "" {
		_ = secrets.Store("twilio", creds.AuthToken)
	}

	if apiKey != "" {
		a.session.Provider = llm.NewOpenAIProvider(apiKey)
	} else {
		a.session.Provider = nil
	}
	a.session.Creds = creds
	if validate.CarrierConfig(creds) == nil {
		a.session.Carrier = carrier.NewTwilioDispatcher(creds)
	} else {
		a.session.Carrier = nil
	}
	a.status = "settings saved"
}
