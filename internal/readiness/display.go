package readiness

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7D56F4")).
	Bold(true)

// TerminalStatus writes each progress update as a styled line.
type TerminalStatus struct {
	Out io.Writer

	mu   sync.Mutex
	last string
}

// NewTerminalStatus returns a display writing to out.
func NewTerminalStatus(out io.Writer) *TerminalStatus {
	return &TerminalStatus{Out: out}
}

func (t *TerminalStatus) SetText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = text
	fmt.Fprintln(t.Out, statusStyle.Render(text))
}

// Text returns the last text shown.
func (t *TerminalStatus) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// PrintNavigator "navigates" by printing the absolute target URL.
// Useful for scripts: `open "$(wanderly wait --navigator print)"`.
type PrintNavigator struct {
	BaseURL string
	Out     io.Writer
}

func (n PrintNavigator) Navigate(_ context.Context, path string) error {
	target, err := ResolveURL(n.BaseURL, path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(n.Out, target)
	return err
}

// BrowserNavigator opens the target URL with the operating system's default browser.
type BrowserNavigator struct {
	BaseURL string

	// command builds the opener; replaced in tests.
	command func(url string) *exec.Cmd
}

// Navigate starts the opener detached from ctx so the browser outlives the poll run.
func (n BrowserNavigator) Navigate(_ context.Context, path string) error {
	target, err := ResolveURL(n.BaseURL, path)
	if err != nil {
		return err
	}
	build := n.command
	if build == nil {
		build = openCommand
	}
	if err := build(target).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func openCommand(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}
