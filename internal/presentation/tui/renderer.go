package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders assistant markdown.
// On a terminal it uses glamour with a style matching the background;
// otherwise the markdown is returned unchanged.
func NewRenderer(f *os.File) func(string) (string, error) {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	width := 100
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
		width = w - 4
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
