package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/josephlewis42/lush/core/history"
	"github.com/josephlewis42/lush/core/lineedit"
	"github.com/josephlewis42/lush/core/logger"
	"github.com/josephlewis42/lush/core/luabridge"
	"github.com/josephlewis42/lush/core/pipeline"
	"github.com/josephlewis42/lush/core/session"
	"github.com/josephlewis42/lush/core/shell"
	"github.com/josephlewis42/lush/core/vos"
)

// ShellOptions holds everything a Shell is built from. Zero values fall back
// to the process's streams and environment.
type ShellOptions struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Identity *vos.Identity
	Session  *session.State
	Env      vos.Env

	// History records submitted lines, nil disables it.
	History *history.History
	// Events receives session events, nil disables them.
	Events *logger.Logger

	ScriptsDir   string
	LineCapacity int
	PromptColor  bool
}

type Shell struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Identity *vos.Identity
	Session  *session.State
	Env      vos.Env
	Builtins BuiltinTable
	Executor *pipeline.Executor
	Editor   *lineedit.Editor
	History  *history.History
	Events   *logger.SessionLogger
	Scripts  *luabridge.Bridge
	Logger   *log.Logger

	color   ColorPrinter
	lastRet int
	// eventsFailed is set after the first event that couldn't be recorded.
	eventsFailed bool
	// fatal is set when the shell can't continue, e.g. the OS is out of
	// processes or file descriptors.
	fatal error

	// Set to true to quit the shell
	Quit bool
}

var _ luabridge.Host = (*Shell)(nil)

// NewShell creates a shell, call Close when done with it.
func NewShell(opts ShellOptions) *Shell {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Identity == nil {
		opts.Identity = &vos.Identity{Username: "user", Hostname: "localhost", HomeDir: "/"}
	}
	if opts.Session == nil {
		opts.Session = session.New(false)
	}
	if opts.Env == nil {
		opts.Env = vos.OSEnv{}
	}
	if opts.Events == nil {
		opts.Events = logger.NewNopLogger()
	}

	s := &Shell{
		Stdin:    opts.Stdin,
		Stdout:   opts.Stdout,
		Stderr:   opts.Stderr,
		Identity: opts.Identity,
		Session:  opts.Session,
		Env:      opts.Env,
		Builtins: AllBuiltins,
		History:  opts.History,
		Events:   opts.Events.NewSession(opts.Session.ID),
	}

	term := lineedit.TerminalFor(s.Stdin)
	s.color = ColorPrinter{Enabled: opts.PromptColor && term.IsTerminal()}
	s.Logger = newErrorLogger(s.Stderr, s.color)

	s.Executor = &pipeline.Executor{
		Stdin:   s.Stdin,
		Stdout:  s.Stdout,
		Stderr:  s.Stderr,
		Session: s.Session,
		Logger:  s.Logger,
	}

	s.Editor = lineedit.New(s.Stdin, s.Stdout, term)
	s.Editor.Prompt = s.prompt
	if opts.LineCapacity > 0 {
		s.Editor.Capacity = opts.LineCapacity
	}

	s.Scripts = luabridge.New(s, s.paths(), opts.ScriptsDir)

	return s
}

// newErrorLogger creates the logger shell errors are reported through, the
// prefix is red when color is enabled.
func newErrorLogger(w io.Writer, c ColorPrinter) *log.Logger {
	return log.New(w, c.Sprintf(ColorBoldRed, "lush:")+" ", 0)
}

// recordEvent writes an event to the event log. Only the first failure is
// reported.
func (s *Shell) recordEvent(event logger.LogType) {
	if err := s.Events.Record(event); err != nil && !s.eventsFailed {
		s.eventsFailed = true
		s.Logger.Printf("couldn't record event: %v", err)
	}
}

// Close releases the scripting engine.
func (s *Shell) Close() {
	s.Scripts.Close()
}

func (s *Shell) paths() vos.Paths {
	return s.Identity.Paths()
}

func (s *Shell) prompt() string {
	userHost := fmt.Sprintf("%s@%s", s.Identity.Username, s.Identity.Hostname)
	cwd := s.paths().CollapseHome(s.Getwd())

	return fmt.Sprintf("[%s:%s] ",
		s.color.Sprintf(ColorBoldGreen, "%s", userHost),
		s.color.Sprintf(ColorBoldBlue, "%s", cwd))
}

// RunInteractive reads and runs lines until exit is called or input ends.
//
// An error is returned if the terminal fails or the shell can no longer start
// processes.
func (s *Shell) RunInteractive() error {
	stop := pipeline.CatchInterrupts()
	defer stop()

	s.recordEvent(&logger.SessionStart{
		Username:    s.Identity.Username,
		Hostname:    s.Identity.Hostname,
		Cwd:         s.Getwd(),
		Interactive: s.Editor.Terminal.IsTerminal(),
	})

	for !s.Quit {
		line, err := s.Editor.ReadLine()
		switch {
		case errors.Is(err, io.EOF):
			return s.end("eof", nil)
		case err != nil:
			return s.end("error", err)
		}

		s.Exec(line)
		if s.fatal != nil {
			return s.end("error", s.fatal)
		}
	}

	return s.end("exit", nil)
}

func (s *Shell) end(reason string, err error) error {
	event := &logger.SessionEnd{Reason: reason}
	if err != nil {
		event.Error = err.Error()
	}
	s.recordEvent(event)
	return err
}

// RunLine runs a single line and returns its exit status.
func (s *Shell) RunLine(line string) (int, error) {
	stop := pipeline.CatchInterrupts()
	defer stop()

	s.Exec(line)
	return s.lastRet, s.fatal
}

// Exec parses and dispatches a line as if it had been typed. It reports
// whether the line was understood and, for external programs, every stage
// started, or for builtins the builtin succeeded.
func (s *Shell) Exec(line string) bool {
	success, ran := s.exec(line)

	if ran && s.Session.Debug {
		outcome := "success"
		if !success {
			outcome = "failed"
		}
		fmt.Fprintf(s.Stdout, "Executed: %s, %s\n", line, outcome)
	}

	return success
}

// exec reports whether the line succeeded and whether it contained anything
// to run.
func (s *Shell) exec(line string) (success bool, ran bool) {
	if s.History != nil {
		if err := s.History.Append(line); err != nil {
			s.Logger.Println(err)
		}
	}

	p, err := shell.Parse(line, s.Env)
	if err != nil {
		s.Logger.Println(err)
		s.recordEvent(&logger.ParseError{Line: line, Error: err.Error()})
		s.lastRet = 2
		return false, true
	}

	if p.IsEmpty() {
		return true, false
	}

	event := &logger.RunCommand{Line: line}
	for _, stage := range p {
		event.Pipeline = append(event.Pipeline, stage)
	}

	start := time.Now()
	success = s.dispatch(p, event)
	event.DurationMicros = time.Since(start).Microseconds()
	s.recordEvent(event)

	return success, true
}

// Dispatch runs a pipeline, preferring builtins to external programs, and
// returns the exit status.
func (s *Shell) Dispatch(p shell.Pipeline) int {
	s.dispatch(p, &logger.RunCommand{})
	return s.lastRet
}

func (s *Shell) dispatch(p shell.Pipeline, event *logger.RunCommand) bool {
	if p.IsEmpty() {
		s.lastRet = 0
		return true
	}

	if builtin, ok := s.Builtins.Lookup(p[0].Name()); ok {
		event.Builtin = true
		s.lastRet = builtin.Main(s, p)
		return s.lastRet == 0
	}

	return s.runExternal(p, event)
}

// runExternal starts the pipeline as OS processes.
func (s *Shell) runExternal(p shell.Pipeline, event *logger.RunCommand) bool {
	result, err := s.Executor.Run(p)
	if result != nil {
		event.ExitCodes = result.ExitCodes
	}
	if err != nil {
		s.Logger.Println(err)
		event.Error = err.Error()
		if errors.Is(err, pipeline.ErrResourceExhausted) {
			s.fatal = err
		}
		s.lastRet = 1
		return false
	}

	s.lastRet = result.Last()
	return true
}

// Getwd implements luabridge.Host.
func (s *Shell) Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "?"
	}
	return wd
}

// SetDebug implements luabridge.Host.
func (s *Shell) SetDebug(on bool) {
	s.Session.Debug = on
}

// Cd implements luabridge.Host.
func (s *Shell) Cd(path string) bool {
	return s.chdir(path) == nil
}

// chdir changes to path after expanding "~" and resolving symbolic links.
func (s *Shell) chdir(path string) error {
	resolved, err := s.paths().Resolve(path)
	if err == nil {
		err = os.Chdir(resolved)
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
