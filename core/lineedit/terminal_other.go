//go:build !linux
// +build !linux

package lineedit

import (
	"fmt"

	"github.com/abiosoft/readline"
)

func makeRaw(fd int) (func() error, error) {
	state, err := readline.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("couldn't set raw mode: %w", err)
	}

	return func() error {
		return readline.Restore(fd, state)
	}, nil
}
