package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the NullVoyager ASCII art banner with the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Sunset gradient, top to bottom
	lines := []struct{ text, color string }{
		{" _   _       _ _ __     __                               ", "#38bdf8"},
		{"| \\ | |_   _| | |\\ \\   / /__  _   _  __ _  __ _  ___ _ __ ", "#60a5fa"},
		{"|  \\| | | | | | | \\ \\ / / _ \\| | | |/ _` |/ _` |/ _ \\ '__|", "#818cf8"},
		{"| |\\  | |_| | | |  \\ V / (_) | |_| | (_| | (_| |  __/ |   ", "#a78bfa"},
		{"|_| \\_|\\__,_|_|_|   \\_/ \\___/ \\__, |\\__,_|\\__, |\\___|_|   ", "#f472b6"},
		{"                               |___/       |___/           ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  your travel concierge  v"+version).Faint())
	fmt.Fprintln(w)
}
