// Package spinner draws a single-line terminal progress indicator.
package spinner

import (
	"fmt"
	"io"
)

// frames animate a braille arrow
var frames = []string{
	"⣀⣀", "⣄⣀", "⣤⣀", "⣦⣄", "⣶⣤", "⣿⣦", "⣿⣷", "⣿⣿",
	"⣿⣿", "⣷⣿", "⣦⣿", "⣤⣷", "⣄⣦", "⣀⣤", "⣀⣄", "⣀⣀",
}

// Spinner redraws one status line on w.
type Spinner struct {
	w       io.Writer
	index   int
	lastLen int
	started bool
}

// New creates a spinner writing to w.
func New(w io.Writer) *Spinner {
	return &Spinner{w: w}
}

// Update advances to the next frame and redraws the line with status.
func (s *Spinner) Update(status string) {
	if !s.started {
		// Hide cursor
		fmt.Fprint(s.w, "\033[?25l")
		s.started = true
	}

	line := frames[s.index] + " " + status
	pad := max(s.lastLen-len(line), 0)
	fmt.Fprintf(s.w, "\r%s%*s", line, pad, "")
	s.lastLen = len(line)

	s.index = (s.index + 1) % len(frames)
}

// Done clears the line and shows the cursor again. It is a no-op when
// Update was never called.
func (s *Spinner) Done() {
	if !s.started {
		return
	}
	fmt.Fprintf(s.w, "\r%*s\r", s.lastLen, "")
	fmt.Fprint(s.w, "\033[?25h")
	s.started = false
	s.lastLen = 0
}
