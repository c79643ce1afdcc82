package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/wamsg/internal/compose"
)

// styles
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	tabStyle       = lipgloss.NewStyle().Faint(true)
	labelStyle     = lipgloss.NewStyle().Bold(true)
	helpStyle      = lipgloss.NewStyle().Faint(true)
	onStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offStyle       = lipgloss.NewStyle().Faint(true)
)

func (a *App) View() string {
	var body string
	switch a.tab {
	case tabHistory:
		body = a.renderHistory()
	case tabSettings:
		body = a.renderSettings()
	default:
		body = a.renderCompose()
	}
	out := a.renderTabs() + "\n" + body
	if a.status != "" {
		out += "\n\n" + a.status
	}
	return out
}

func (a *App) renderTabs() string {
	names := []string{"Compose [F2]", "History [F3]", "Settings [F4]"}
	parts := make([]string, len(names))
	for i, n := range names {
		if tabID(i) == a.tab {
			parts[i] = activeTabStyle.Render(n)
		} else {
			parts[i] = tabStyle.Render(n)
		}
	}
	return titleStyle.Render("WhatsApp Message Agent") + "\n" + strings.Join(parts, "  ")
}

func (a *App) renderCompose() string {
	var b strings.Builder

	modeLabel := "I have a brief (use AI)"
	if a.session.Mode() == compose.ModeAuthored {
		modeLabel = "I already wrote it (optional AI improve)"
	}
	b.WriteString(labelStyle.Render("Mode: ") + modeLabel + helpStyle.Render("  (ctrl+x switch)"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("To: ") + a.recipient.View())
	b.WriteString("\n\n")

	if a.session.Mode() == compose.ModeBrief {
		b.WriteString(labelStyle.Render("Brief") + "\n" + a.brief.View() + "\n\n")
		b.WriteString(labelStyle.Render("Extras: ") + a.extras.View() + "\n\n")
	}

	b.WriteString(labelStyle.Render("Tone: ") + string(a.currentTone()) + helpStyle.Render("  (ctrl+t cycle)"))
	b.WriteString("\n")
	if a.session.Mode() == compose.ModeBrief {
		b.WriteString(labelStyle.Render("Emoji: ") + a.renderToggle(a.emoji) + helpStyle.Render("  (ctrl+e)"))
	} else {
		b.WriteString(labelStyle.Render("Shorten: ") + a.renderToggle(a.shorten) + helpStyle.Render("  (ctrl+b)"))
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Message (editable)") + "\n" + a.message.View())
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%d chars", len(strings.TrimSpace(a.message.Value()))))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Ready to send: ") + a.renderToggle(a.session.Ready()) + helpStyle.Render("  (ctrl+y)"))
	b.WriteString("  " + labelStyle.Render("State: ") + string(a.session.State()))
	if !a.sendEnabled() {
		b.WriteString(helpStyle.Render("  send disabled"))
	}
	b.WriteString("\n\n")

	help := "[tab] next field  [ctrl+s] send  [ctrl+n] new  [ctrl+c] quit"
	if a.session.Mode() == compose.ModeBrief {
		help = "[ctrl+g] generate with AI  " + help
	} else {
		help = "[ctrl+r] improve with AI  " + help
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (a *App) sendEnabled() bool {
	return a.session.CanSend()
}

func (a *App) renderToggle(on bool) string {
	if on {
		return onStyle.Render("yes")
	}
	return offStyle.Render("no")
}

func (a *App) renderHistory() string {
	if len(a.history) == 0 {
		return "No messages sent yet."
	}
	var b strings.Builder
	for i, m := range a.history {
		marker := " "
		if i == a.histCursor {
			marker = "▶"
		}
		b.WriteString(fmt.Sprintf("%s %d. To: %s | SID: %s | %s\n",
			marker, i+1, m.ToDisplay, m.ProviderSID, m.SentAt.Format(a.timeFormat())))
	}
	sel := a.history[a.histCursor]
	b.WriteString("\n" + labelStyle.Render("Body") + "\n" + sel.Body + "\n\n")
	b.WriteString(helpStyle.Render("[up/down] select  [q] quit"))
	return b.String()
}

func (a *App) timeFormat() string {
	if a.cfg.UI.TimeFormat != "" {
		return a.cfg.UI.TimeFormat
	}
	return "02/01 15:04"
}

func (a *App) renderSettings() string {
	var b strings.Builder
	labels := []string{"OpenAI API Key", "Twilio Account SID", "Twilio Auth Token", "Twilio WhatsApp From"}
	for i, in := range a.settings {
		marker := "  "
		if i == a.settingsFocus {
			marker = "> "
		}
		b.WriteString(marker + labelStyle.Render(labels[i]+": ") + in.View() + "\n")
	}
	b.WriteString("\n")
	if a.session.Provider == nil {
		b.WriteString("Provide your OpenAI API key to enable AI message crafting.\n")
	}
	if a.session.Carrier == nil {
		b.WriteString("Complete the Twilio fields to enable sending.\n")
	}
	b.WriteString("\n" + helpStyle.Render("[tab] next field  [enter] save  [ctrl+c] quit"))
	return b.String()
}
