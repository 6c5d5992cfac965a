package lineedit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// makeRaw only clears ICANON and ECHO. Signal generation and output
// processing stay on so ^C still reaches the foreground process group and
// "\n" still moves to the start of the next line.
func makeRaw(fd int) (func() error, error) {
	orig, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("couldn't read terminal mode: %w", err)
	}

	raw := *orig
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, fmt.Errorf("couldn't set raw mode: %w", err)
	}

	return func() error {
		return unix.IoctlSetTermios(fd, unix.TCSETS, orig)
	}, nil
}
