package lineedit

import (
	"io"
	"os"

	"github.com/abiosoft/readline"
)

// Terminal switches an input device in and out of raw mode.
type Terminal interface {
	// IsTerminal reports whether the device is a terminal at all.
	IsTerminal() bool
	// MakeRaw disables canonical input and echo. The returned function puts
	// the device back into the mode it was in before the call.
	MakeRaw() (restore func() error, err error)
}

// FdTerminal is a Terminal backed by a file descriptor, usually stdin.
type FdTerminal struct {
	Fd int
}

var _ Terminal = FdTerminal{}

// IsTerminal implements Terminal.IsTerminal.
func (t FdTerminal) IsTerminal() bool {
	return readline.IsTerminal(t.Fd)
}

// MakeRaw implements Terminal.MakeRaw.
func (t FdTerminal) MakeRaw() (func() error, error) {
	return makeRaw(t.Fd)
}

// TerminalFor returns the Terminal behind r. Readers that aren't files are
// never terminals.
func TerminalFor(r io.Reader) Terminal {
	if f, ok := r.(*os.File); ok {
		return FdTerminal{Fd: int(f.Fd())}
	}
	return notTerminal{}
}

type notTerminal struct{}

func (notTerminal) IsTerminal() bool {
	return false
}

func (notTerminal) MakeRaw() (func() error, error) {
	return func() error { return nil }, nil
}
