// Package history persists submitted command lines.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// History is an append-only log of command lines, one per line of a file.
type History struct {
	fs   afero.Fs
	path string
}

// New creates a history stored at path within fs. The file is created on the
// first Append.
func New(fs afero.Fs, path string) *History {
	return &History{fs: fs, path: path}
}

// Append records a line. Blank lines aren't recorded. Embedded newlines are
// replaced with spaces so every entry stays on one line of the file.
func (h *History) Append(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	line = strings.NewReplacer("\r", " ", "\n", " ").Replace(line)

	fd, err := h.fs.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("couldn't open history: %w", err)
	}
	defer fd.Close()

	if _, err := fmt.Fprintln(fd, line); err != nil {
		return fmt.Errorf("couldn't write history: %w", err)
	}
	return nil
}

// Lines returns every recorded line, oldest first. A history that was never
// written is empty.
func (h *History) Lines() ([]string, error) {
	fd, err := h.fs.Open(h.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("couldn't open history: %w", err)
	}
	defer fd.Close()

	var out []string
	reader := bufio.NewReader(fd)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			out = append(out, strings.TrimSuffix(line, "\n"))
		}
		switch {
		case errors.Is(err, io.EOF):
			return out, nil
		case err != nil:
			return out, fmt.Errorf("couldn't read history: %w", err)
		}
	}
}

// Clear removes every recorded line.
func (h *History) Clear() error {
	fd, err := h.fs.OpenFile(h.path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("couldn't clear history: %w", err)
	}
	return fd.Close()
}
