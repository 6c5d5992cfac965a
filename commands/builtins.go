package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/josephlewis42/lush/core/logger"
	"github.com/josephlewis42/lush/core/shell"
)

// Version of the shell reported by help.
const Version = "0.1.0"

// ShellBuiltin is a command that runs inside the shell process. It receives
// the whole pipeline it was invoked from.
type ShellBuiltin interface {
	Main(s *Shell, p shell.Pipeline) int
}

type ShellBuiltinFunc func(s *Shell, p shell.Pipeline) int

func (f ShellBuiltinFunc) Main(s *Shell, p shell.Pipeline) int {
	return f(s, p)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinEntry names a builtin.
type BuiltinEntry struct {
	Name    string
	Short   string
	Builtin ShellBuiltin
}

// BuiltinTable is an ordered list of builtins.
type BuiltinTable []BuiltinEntry

// Lookup finds the builtin with the given name.
func (t BuiltinTable) Lookup(name string) (ShellBuiltin, bool) {
	for _, entry := range t {
		if entry.Name == name {
			return entry.Builtin, true
		}
	}
	return nil, false
}

// Names lists builtin names in table order.
func (t BuiltinTable) Names() []string {
	var out []string
	for _, entry := range t {
		out = append(out, entry.Name)
	}
	return out
}

// AllBuiltins holds all registered shell builtins in the order help lists
// them.
var AllBuiltins BuiltinTable

func addBuiltin(name, short string, builtin ShellBuiltinFunc) {
	AllBuiltins = append(AllBuiltins, BuiltinEntry{Name: name, Short: short, Builtin: builtin})
}

// Cd is the cd shell builtin
func Cd(s *Shell, p shell.Pipeline) int {
	args := p[0]
	cmd := &SimpleCommand{
		Use:   "cd [DIR]",
		Short: "Change the working directory. DIR defaults to your home directory.",
	}

	return cmd.Run(s, args, func() int {
		dir := "~"
		switch rest := cmd.Flags().Args(); len(rest) {
		case 0:
		case 1:
			dir = rest[0]
		default:
			fmt.Fprintf(s.Stderr, "%s: too many arguments\n", args[0])
			return 1
		}

		if err := s.chdir(dir); err != nil {
			fmt.Fprintf(s.Stderr, "%s: %v\n", args[0], err)
			return 1
		}
		return 0
	})
}

// Help prints usage for the shell or a single builtin.
func Help(s *Shell, p shell.Pipeline) int {
	cmd := &SimpleCommand{
		Use:   "help [BUILTIN]",
		Short: "Show how to use the shell or a builtin.",
	}

	return cmd.Run(s, p[0], func() int {
		if rest := cmd.Flags().Args(); len(rest) > 0 {
			builtin, ok := s.Builtins.Lookup(rest[0])
			if !ok {
				fmt.Fprintf(s.Stderr, "help: no builtin named %q\n", rest[0])
				return 1
			}
			return builtin.Main(s, shell.Pipeline{{rest[0], "--help"}})
		}

		w := s.Stdout
		fmt.Fprintf(w, "lush, the Lunar Shell, version %s\n", Version)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Usage: COMMAND [ARG]... [| COMMAND [ARG]...]...")
		fmt.Fprintln(w)
		fmt.Fprintln(w, `Arguments are separated by whitespace. Text in "double quotes" is kept`)
		fmt.Fprintln(w, "together and $NAME is replaced by the environment variable NAME.")
		fmt.Fprintln(w, "Type `help BUILTIN' to find out more about a builtin.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Builtins:")
		for _, entry := range s.Builtins {
			fmt.Fprintf(w, "  %-8s %s\n", entry.Name, entry.Short)
		}

		return 0
	})
}

// Exit quits the shell
func Exit(s *Shell, p shell.Pipeline) int {
	cmd := &SimpleCommand{
		Use:   "exit",
		Short: "Leave the shell.",
	}

	return cmd.Run(s, p[0], func() int {
		s.Quit = true
		return 0
	})
}

// Time runs the rest of the pipeline as external programs and reports how
// long it took.
func Time(s *Shell, p shell.Pipeline) int {
	cmd := &SimpleCommand{
		Use:   "time COMMAND [ARG]... [| COMMAND [ARG]...]...",
		Short: "Run a pipeline and report the elapsed wall clock time.",
	}

	return cmd.Run(s, p[0], func() int {
		forwarded := make(shell.Pipeline, len(p))
		copy(forwarded, p)
		forwarded[0] = cmd.Flags().Args()

		start := time.Now()
		spawned := s.runExternal(forwarded, &logger.RunCommand{})
		elapsed := time.Since(start)

		fmt.Fprintf(s.Stdout, "Time: %.3f milliseconds\n", float64(elapsed)/float64(time.Millisecond))
		if !spawned {
			return 1
		}
		return 0
	})
}

// Source runs a Lua script.
func Source(s *Shell, p shell.Pipeline) int {
	args := p[0]
	cmd := &SimpleCommand{
		Use:   fmt.Sprintf("%s SCRIPT", args[0]),
		Short: "Run a Lua script from the working directory or the scripts directory.",
	}

	return cmd.Run(s, args, func() int {
		rest := cmd.Flags().Args()
		if len(rest) != 1 {
			fmt.Fprintf(s.Stderr, "usage: %s SCRIPT\n", args[0])
			return 1
		}

		return s.RunScript(rest[0])
	})
}

// RunScript runs the named script and returns its exit status.
func (s *Shell) RunScript(name string) int {
	path, err := s.Scripts.RunScript(name)

	event := &logger.Script{Name: name, Path: path}
	if err != nil {
		event.Error = err.Error()
	}
	s.recordEvent(event)

	if err != nil {
		s.Logger.Println(err)
		return 1
	}
	return 0
}

// EvalScript runs a chunk of Lua source as if it were a script.
func (s *Shell) EvalScript(source string) int {
	err := s.Scripts.RunString(source)

	event := &logger.Script{Name: "-e"}
	if err != nil {
		event.Error = err.Error()
	}
	s.recordEvent(event)

	if err != nil {
		s.Logger.Println(err)
		return 1
	}
	return 0
}

// Debug shows or sets whether the outcome of each command is reported.
func Debug(s *Shell, p shell.Pipeline) int {
	args := p[0]
	cmd := &SimpleCommand{
		Use:   "debug [on|off]",
		Short: "Show or set whether the outcome of every command is reported.",
	}

	return cmd.Run(s, args, func() int {
		rest := cmd.Flags().Args()
		switch {
		case len(rest) == 0:
			state := "off"
			if s.Session.Debug {
				state = "on"
			}
			fmt.Fprintf(s.Stdout, "debug is %s\n", state)
			return 0
		case len(rest) > 1:
			fmt.Fprintf(s.Stderr, "%s: too many arguments\n", args[0])
			return 1
		}

		switch strings.ToLower(rest[0]) {
		case "on", "true", "1":
			s.SetDebug(true)
		case "off", "false", "0":
			s.SetDebug(false)
		default:
			fmt.Fprintf(s.Stderr, "%s: expected on or off, got %q\n", args[0], rest[0])
			return 1
		}
		return 0
	})
}

// History displays or clears the command history.
func History(s *Shell, p shell.Pipeline) int {
	cmd := &SimpleCommand{
		Use:   "history [-c]",
		Short: "Display the history list with line numbers.",
	}
	clear := cmd.Flags().Bool('c', "clear the history by deleting all entries")

	return cmd.Run(s, p[0], func() int {
		if s.History == nil {
			fmt.Fprintln(s.Stderr, "history: no history file is configured")
			return 1
		}

		if *clear {
			if err := s.History.Clear(); err != nil {
				fmt.Fprintf(s.Stderr, "history: %v\n", err)
				return 1
			}
			return 0
		}

		lines, err := s.History.Lines()
		if err != nil {
			fmt.Fprintf(s.Stderr, "history: %v\n", err)
			return 1
		}
		for i, line := range lines {
			fmt.Fprintf(s.Stdout, "% 5d  %s\n", i+1, line)
		}
		return 0
	})
}

func init() {
	addBuiltin("cd", "change the working directory", Cd)
	addBuiltin("help", "show this help", Help)
	addBuiltin("exit", "leave the shell", Exit)
	addBuiltin("time", "run a pipeline and report how long it took", Time)
	addBuiltin("source", "run a Lua script", Source)
	addBuiltin("lush", "run a Lua script, same as source", Source)
	addBuiltin("debug", "show or set command outcome reporting", Debug)
	addBuiltin("history", "show or clear the command history", History)
}
