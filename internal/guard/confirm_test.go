package guard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m confirmModel, key string) (confirmModel, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(confirmModel), cmd
}

func TestConfirmModel_Update(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		wantYes  bool
		wantDone bool
	}{
		{name: "Y Confirms", keys: []string{"y"}, wantYes: true, wantDone: true},
		{name: "N Declines", keys: []string{"n"}, wantYes: false, wantDone: true},
		{name: "Esc Declines", keys: []string{"esc"}, wantYes: false, wantDone: true},
		{name: "Enter Defaults To No", keys: []string{"enter"}, wantYes: false, wantDone: true},
		{name: "Toggle Then Enter", keys: []string{"left", "enter"}, wantYes: true, wantDone: true},
		{name: "Toggle Twice Then Enter", keys: []string{"tab", "tab", "enter"}, wantYes: false, wantDone: true},
		{name: "Unrelated Key Keeps Waiting", keys: []string{"x"}, wantYes: false, wantDone: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newConfirmModel(WarningMessage, "POST /trips/1/delete")
			var cmd tea.Cmd
			for _, key := range tt.keys {
				m, cmd = press(m, key)
			}

			if m.answered != tt.wantDone {
				t.Errorf("answered = %v, want %v", m.answered, tt.wantDone)
			}
			if m.answered && m.yes != tt.wantYes {
				t.Errorf("yes = %v, want %v", m.yes, tt.wantYes)
			}
			if tt.wantDone && cmd == nil {
				t.Error("expected a quit command once answered")
			}
		})
	}
}

func TestConfirmModel_View(t *testing.T) {
	m := newConfirmModel(WarningMessage, "POST /trips/1/delete")
	view := m.View()
	for _, want := range []string{WarningMessage, "POST /trips/1/delete", "Yes", "No"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m, _ = press(m, "y")
	if m.View() != "" {
		t.Errorf("View() after answer = %q, want empty", m.View())
	}
}

func TestPromptConfirmer_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "Typed Yes", input: "y", want: true},
		{name: "Typed No", input: "n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := PromptConfirmer{In: strings.NewReader(tt.input), Out: &out}

			got, err := p.Confirm(t.Context(), WarningMessage)
			if err != nil {
				t.Fatalf("Confirm() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
		})
	}
}
