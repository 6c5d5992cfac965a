package vos

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Paths resolves user supplied paths against a home directory.
type Paths struct {
	Home string
}

// ExpandHome replaces a leading "~" with the home directory.
func (p Paths) ExpandHome(path string) string {
	switch {
	case path == "~":
		return p.Home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(p.Home, path[2:])
	default:
		return path
	}
}

// CollapseHome replaces the home directory prefix of path with "~".
func (p Paths) CollapseHome(path string) string {
	if p.Home == "" || p.Home == "/" {
		return path
	}
	switch {
	case path == p.Home:
		return "~"
	case strings.HasPrefix(path, p.Home+"/"):
		return "~" + strings.TrimPrefix(path, p.Home)
	default:
		return path
	}
}

// Resolve expands "~" and returns the absolute path with all symbolic links
// evaluated. It fails if any component doesn't exist.
func (p Paths) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(p.ExpandHome(path))
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Exists reports whether the path resolves.
func (p Paths) Exists(path string) bool {
	_, err := p.Resolve(path)
	return err == nil
}

// IsFile reports whether the path resolves to a regular file.
func (p Paths) IsFile(path string) bool {
	fi, ok := p.stat(path)
	return ok && fi.Mode().IsRegular()
}

// IsDirectory reports whether the path resolves to a directory.
func (p Paths) IsDirectory(path string) bool {
	fi, ok := p.stat(path)
	return ok && fi.IsDir()
}

// IsReadable reports whether the current user may read the path.
func (p Paths) IsReadable(path string) bool {
	return p.access(path, unix.R_OK)
}

// IsWriteable reports whether the current user may write the path.
func (p Paths) IsWriteable(path string) bool {
	return p.access(path, unix.W_OK)
}

func (p Paths) stat(path string) (os.FileInfo, bool) {
	resolved, err := p.Resolve(path)
	if err != nil {
		return nil, false
	}
	fi, err := os.Stat(resolved)
	if err != nil {
		return nil, false
	}
	return fi, true
}

func (p Paths) access(path string, mode uint32) bool {
	resolved, err := p.Resolve(path)
	if err != nil {
		return false
	}
	return unix.Access(resolved, mode) == nil
}
