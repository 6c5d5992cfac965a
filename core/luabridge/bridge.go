// Package luabridge embeds a Lua interpreter and exposes the shell to scripts
// through a global "lush" table.
package luabridge

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/josephlewis42/lush/core/vos"
	lua "github.com/yuin/gopher-lua"
)

// ErrScriptNotFound is returned when a script isn't in the working directory
// or the scripts directory.
var ErrScriptNotFound = errors.New("script not found")

// TableName is the global scripts use to reach the shell.
const TableName = "lush"

// Host is the part of the shell scripts can drive.
type Host interface {
	// Exec runs a command line as if it had been typed and reports whether
	// every stage started.
	Exec(line string) bool
	// Getwd returns the working directory.
	Getwd() string
	// SetDebug turns debug reporting on or off.
	SetDebug(on bool)
	// Cd changes the working directory and reports whether it succeeded.
	Cd(path string) bool
}

// Bridge is a Lua interpreter bound to a Host.
type Bridge struct {
	state *lua.LState
	host  Host
	paths vos.Paths

	// ScriptsDir is searched for scripts that aren't in the working
	// directory.
	ScriptsDir string
}

// New creates a bridge with the standard Lua libraries and the "lush" table
// loaded.
func New(host Host, paths vos.Paths, scriptsDir string) *Bridge {
	b := &Bridge{
		state:      lua.NewState(),
		host:       host,
		paths:      paths,
		ScriptsDir: scriptsDir,
	}
	b.state.SetGlobal(TableName, b.state.SetFuncs(b.state.NewTable(), b.functions()))
	return b
}

// Close releases the interpreter.
func (b *Bridge) Close() {
	b.state.Close()
}

// Resolve finds the script called name, first relative to the working
// directory and then in ScriptsDir.
func (b *Bridge) Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrScriptNotFound
	}

	candidates := []string{b.paths.ExpandHome(name)}
	if b.ScriptsDir != "" && !filepath.IsAbs(name) {
		candidates = append(candidates, filepath.Join(b.ScriptsDir, name))
	}

	for _, candidate := range candidates {
		if b.paths.IsFile(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s: %w", name, ErrScriptNotFound)
}

// RunScript resolves name and runs it, returning the path that was run.
func (b *Bridge) RunScript(name string) (string, error) {
	path, err := b.Resolve(name)
	if err != nil {
		return "", err
	}
	return path, b.RunFile(path)
}

// RunFile runs the Lua file at path.
func (b *Bridge) RunFile(path string) error {
	return b.state.DoFile(path)
}

// RunString runs a chunk of Lua source.
func (b *Bridge) RunString(source string) error {
	return b.state.DoString(source)
}

func (b *Bridge) functions() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"exec":        b.exec,
		"getcwd":      b.getcwd,
		"debug":       b.debug,
		"cd":          b.cd,
		"exists":      b.pathQuery(b.paths.Exists),
		"isFile":      b.pathQuery(b.paths.IsFile),
		"isDirectory": b.pathQuery(b.paths.IsDirectory),
		"isReadable":  b.pathQuery(b.paths.IsReadable),
		"isWriteable": b.pathQuery(b.paths.IsWriteable),
	}
}

func (b *Bridge) exec(L *lua.LState) int {
	L.Push(lua.LBool(b.host.Exec(L.CheckString(1))))
	return 1
}

func (b *Bridge) getcwd(L *lua.LState) int {
	L.Push(lua.LString(b.host.Getwd()))
	return 1
}

func (b *Bridge) debug(L *lua.LState) int {
	b.host.SetDebug(L.CheckBool(1))
	return 0
}

func (b *Bridge) cd(L *lua.LState) int {
	L.Push(lua.LBool(b.host.Cd(L.CheckString(1))))
	return 1
}

// pathQuery adapts a path predicate, anything that isn't a string is false.
func (b *Bridge) pathQuery(query func(string) bool) lua.LGFunction {
	return func(L *lua.LState) int {
		path, ok := L.Get(1).(lua.LString)
		L.Push(lua.LBool(ok && query(string(path))))
		return 1
	}
}
