package host

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render("info")
	warnLabel  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")).Render("warn")
	errorLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")).Render("error")
)

// Terminal is a Notifier that prints one styled line per message.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Info(message string)  { t.print(infoLabel, message) }
func (t *Terminal) Warn(message string)  { t.print(warnLabel, message) }
func (t *Terminal) Error(message string) { t.print(errorLabel, message) }

func (t *Terminal) print(label, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "%s %s\n", label, message)
}
