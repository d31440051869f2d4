package commands

import (
	"os"

	"golang.org/x/term"

	"github.com/diogo/megamente/internal/api"
	"github.com/diogo/megamente/internal/chat"
	"github.com/diogo/megamente/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(orch *chat.Orchestrator, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Gateway replaces the Gemini gateway when set.
	Gateway api.Gateway

	// TUI is the terminal user interface.
	TUI TUIInterface

	// IsTerminal reports whether stdout is an interactive terminal.
	IsTerminal func() bool

	// TerminalWidth returns the current width of stdout.
	TerminalWidth func() int
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(orch *chat.Orchestrator, opts tui.Options) error {
	return tui.RunChat(orch, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:           &DefaultTUI{},
		IsTerminal:    isStdoutTTY,
		TerminalWidth: getTerminalWidth,
	}
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
