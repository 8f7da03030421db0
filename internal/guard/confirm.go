package guard

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AutoConfirmer answers every prompt with the same value (used by --yes).
type AutoConfirmer struct {
	Answer bool
}

func (a AutoConfirmer) Confirm(context.Context, string) (bool, error) {
	return a.Answer, nil
}

var (
	promptWarningStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#C0392B")).
				Padding(0, 1)

	promptDetailStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A0A0A0"))

	promptSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1)

	promptIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0")).
			Padding(0, 1)

	promptHintStyle = lipgloss.NewStyle().
			Faint(true)
)

// confirmModel is the bubbletea model behind PromptConfirmer.
// "No" is preselected so an accidental enter never deletes anything.
type confirmModel struct {
	message  string
	detail   string
	yes      bool
	answered bool
}

func newConfirmModel(message, detail string) confirmModel {
	return confirmModel{message: message, detail: detail}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.yes, m.answered = true, true
		return m, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		m.yes, m.answered = false, true
		return m, tea.Quit
	case "enter":
		m.answered = true
		return m, tea.Quit
	case "left", "right", "tab", "h", "l":
		m.yes = !m.yes
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}

	var b strings.Builder
	b.WriteString(promptWarningStyle.Render(m.message))
	b.WriteString("\n")
	if m.detail != "" {
		b.WriteString(promptDetailStyle.Render(m.detail))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	yes, no := promptIdleStyle.Render("Yes"), promptSelectedStyle.Render("No")
	if m.yes {
		yes, no = promptSelectedStyle.Render("Yes"), promptIdleStyle.Render("No")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, yes, " ", no))
	b.WriteString("\n")
	b.WriteString(promptHintStyle.Render("y: Yes • n/esc: No • ←/→: Toggle • enter: Submit"))
	b.WriteString("\n")
	return b.String()
}

// PromptConfirmer asks on a terminal with a small bubbletea program.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer

	// Detail is shown under the warning, e.g. the form being submitted.
	Detail string
}

func (p PromptConfirmer) Confirm(ctx context.Context, message string) (bool, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(newConfirmModel(message, p.Detail), opts...).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	m, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("confirmation prompt: unexpected model %T", final)
	}
	return m.answered && m.yes, nil
}
