// Package lineedit reads a single line from a terminal in raw mode with
// cursor-aware editing.
//
// Supported keys:
//
//	printable     insert at the cursor
//	Backspace     delete the rune before the cursor
//	Delete        delete the rune under the cursor
//	Left, Right   move the cursor
//	Enter         submit the line
//	Ctrl-D        end of input when the line is empty
//
// The line has a fixed capacity. Input past the capacity is rejected and the
// terminal bell is rung rather than growing or truncating the line.
package lineedit

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// DefaultCapacity is the maximum line length used when none is configured.
const DefaultCapacity = 1024

const (
	keyCtrlD     = 0x04
	keyCtrlH     = 0x08
	keyEscape    = 0x1b
	keyBackspace = 0x7f

	clearLine = "\r\x1b[K"
	bell      = "\a"
)

// Editor reads lines from In, echoing edits to Out.
type Editor struct {
	In       io.Reader
	Out      io.Writer
	Terminal Terminal
	// Prompt is rendered before the line on every redraw.
	Prompt func() string
	// Capacity limits the number of runes in a line.
	Capacity int
}

// New creates an editor with the default capacity and no prompt.
func New(in io.Reader, out io.Writer, term Terminal) *Editor {
	return &Editor{
		In:       in,
		Out:      out,
		Terminal: term,
		Capacity: DefaultCapacity,
	}
}

// ReadLine reads one line without the trailing newline.
//
// On end of input the partial line is discarded and ReadLine returns an empty
// string with io.EOF. The terminal mode in effect before the call is restored
// before ReadLine returns, including when it panics.
func (e *Editor) ReadLine() (line string, err error) {
	interactive := e.Terminal != nil && e.Terminal.IsTerminal()
	if interactive {
		var restore func() error
		restore, err = e.Terminal.MakeRaw()
		if err != nil {
			return "", err
		}
		defer func() {
			if restoreErr := restore(); restoreErr != nil && err == nil {
				err = fmt.Errorf("couldn't restore terminal: %w", restoreErr)
			}
		}()
	}

	capacity := e.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	buf := NewBuffer(capacity)
	io.WriteString(e.Out, e.prompt())

	for {
		r, err := e.readRune()
		if err != nil {
			io.WriteString(e.Out, "\n")
			return "", err
		}

		changed := false
		switch r {
		case '\r', '\n':
			io.WriteString(e.Out, "\n")
			return buf.String(), nil

		case keyCtrlD:
			if buf.Len() == 0 {
				io.WriteString(e.Out, "\n")
				return "", io.EOF
			}

		case keyBackspace, keyCtrlH:
			changed = buf.Backspace()

		case keyEscape:
			changed, err = e.readEscape(buf)
			if err != nil {
				io.WriteString(e.Out, "\n")
				return "", err
			}

		default:
			if !unicode.IsPrint(r) {
				continue
			}
			if !buf.Insert(r) {
				io.WriteString(e.Out, bell)
				continue
			}
			changed = true
		}

		if changed && interactive {
			e.redraw(buf)
		}
	}
}

func (e *Editor) prompt() string {
	if e.Prompt == nil {
		return ""
	}
	return e.Prompt()
}

// redraw repaints the whole line and puts the cursor back where it belongs.
func (e *Editor) redraw(buf *Buffer) {
	var sb strings.Builder
	sb.WriteString(clearLine)
	sb.WriteString(e.prompt())
	sb.WriteString(buf.String())
	if back := runewidth.StringWidth(buf.Tail()); back > 0 {
		fmt.Fprintf(&sb, "\x1b[%dD", back)
	}
	io.WriteString(e.Out, sb.String())
}

// readEscape consumes an escape sequence and applies it to the buffer.
// Sequences that aren't understood are dropped.
func (e *Editor) readEscape(buf *Buffer) (bool, error) {
	introducer, err := e.readRune()
	if err != nil {
		return false, err
	}

	switch introducer {
	case '[':
		// CSI: parameter and intermediate bytes followed by a final byte.
		var params strings.Builder
		for {
			r, err := e.readRune()
			if err != nil {
				return false, err
			}
			if r >= 0x40 && r <= 0x7e {
				return applyCSI(buf, params.String(), r), nil
			}
			params.WriteRune(r)
		}

	case 'O':
		// SS3, sent for arrows in application cursor mode.
		final, err := e.readRune()
		if err != nil {
			return false, err
		}
		return applyCSI(buf, "", final), nil

	default:
		return false, nil
	}
}

func applyCSI(buf *Buffer, params string, final rune) bool {
	switch {
	case params == "" && final == 'C':
		return buf.Right()
	case params == "" && final == 'D':
		return buf.Left()
	case params == "3" && final == '~':
		return buf.Delete()
	default:
		return false
	}
}

// readRune reads exactly one UTF-8 encoded rune without buffering ahead, so
// bytes typed after Enter stay available to programs the shell starts.
func (e *Editor) readRune() (rune, error) {
	var encoded [utf8.UTFMax]byte
	n := 0

	for {
		if _, err := io.ReadFull(e.In, encoded[n:n+1]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				err = io.EOF
			}
			return 0, err
		}
		n++

		if utf8.FullRune(encoded[:n]) || n == utf8.UTFMax {
			r, _ := utf8.DecodeRune(encoded[:n])
			return r, nil
		}
	}
}
