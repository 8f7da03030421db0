package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#7D56F4")).
	Padding(1, 5).
	MarginBottom(1).
	Align(lipgloss.Center).
	Border(lipgloss.RoundedBorder())

var (
	submittedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ECC71"))
	keptStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A0A0A0"))
)

func printBanner(w io.Writer, mode string) {
	banner := fmt.Sprintf("Wanderly - %s \n\nVersion: %s\nBuild Date: %s", mode, WanderlyVersion, WanderlyDate)
	fmt.Fprintln(w, headerStyle.Render(banner))
}
