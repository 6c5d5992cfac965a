// Package pipeline runs a parsed pipeline as a chain of OS processes
// connected by pipes.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"syscall"

	"github.com/josephlewis42/lush/core/session"
	"github.com/josephlewis42/lush/core/shell"
)

// ErrResourceExhausted matches spawn errors caused by running out of file
// descriptors, processes or memory. The shell can't meaningfully continue
// after one of these.
var ErrResourceExhausted = errors.New("resources exhausted")

const (
	// ExitNotFound is the status recorded for a stage whose program
	// couldn't be found.
	ExitNotFound = 127
	// ExitNotExecutable is the status recorded for a stage whose program
	// exists but couldn't be executed.
	ExitNotExecutable = 126
	// ExitNotStarted is the status recorded for stages skipped after a spawn
	// error.
	ExitNotStarted = -1
)

// Result holds the exit status of each stage, in stage order. A child killed
// by a signal is reported as 128 plus the signal number.
//
// Whether a pipeline succeeded depends only on all stages being spawned,
// which Run reports through its error. Exit statuses are informational.
type Result struct {
	ExitCodes []int
}

// Last returns the exit status of the final stage.
func (r *Result) Last() int {
	if r == nil || len(r.ExitCodes) == 0 {
		return 0
	}
	return r.ExitCodes[len(r.ExitCodes)-1]
}

// Executor starts pipelines. The zero value uses the process's standard
// streams.
type Executor struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Session enables per-stage status logging when debugging.
	Session *session.State
	// Logger receives diagnostics, it defaults to the standard logger.
	Logger *log.Logger
}

// NewExecutor creates an executor wired to the process's standard streams.
func NewExecutor(sess *session.State, logger *log.Logger) *Executor {
	return &Executor{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Session: sess,
		Logger:  logger,
	}
}

// Run starts every stage, waits for each in stage order and returns once all
// of them have exited. Every pipe opened for the pipeline is closed before
// Run returns.
//
// A stage whose program can't be found or executed is reported on Stderr and
// doesn't affect the other stages or the returned error. Any other failure
// to create a pipe or process stops the remaining stages from starting and is
// returned.
func (e *Executor) Run(p shell.Pipeline) (*Result, error) {
	if p.IsEmpty() {
		return &Result{}, nil
	}

	pipes, err := openPipes(len(p) - 1)
	if err != nil {
		return nil, err
	}
	defer pipes.closeAll()

	result := &Result{ExitCodes: make([]int, len(p))}
	cmds := make([]*exec.Cmd, len(p))
	var spawnErr error

	for i, stage := range p {
		last := i == len(p)-1

		cmd := exec.Command(stage[0], stage[1:]...)
		cmd.Stderr = e.stderr()
		if i == 0 {
			cmd.Stdin = e.stdin()
		} else {
			cmd.Stdin = pipes[i-1].r
		}
		if last {
			cmd.Stdout = e.stdout()
		} else {
			cmd.Stdout = pipes[i].w
		}

		startErr := cmd.Start()

		// The child holds its own copies now, keeping the parent's write end
		// open would stop the next stage from ever seeing EOF.
		if i > 0 {
			pipes[i-1].closeRead()
		}
		if !last {
			pipes[i].closeWrite()
		}

		if startErr != nil {
			if code, ok := execFailure(startErr); ok {
				fmt.Fprintf(e.stderr(), "lush: %s: %v\n", stage.Name(), startErr)
				result.ExitCodes[i] = code
				continue
			}

			spawnErr = spawnError(stage.Name(), startErr)
			for j := i; j < len(p); j++ {
				result.ExitCodes[j] = ExitNotStarted
			}
			break
		}

		cmds[i] = cmd
	}

	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		result.ExitCodes[i] = exitCode(cmd.Wait())
	}

	if e.Session != nil && e.Session.Debug {
		for i, code := range result.ExitCodes {
			e.logger().Printf("stage %d %q exited with status %d", i, p[i].Name(), code)
		}
	}

	return result, spawnErr
}

func (e *Executor) stdin() io.Reader {
	if e.Stdin == nil {
		return os.Stdin
	}
	return e.Stdin
}

func (e *Executor) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Executor) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}

func (e *Executor) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

// execFailure reports whether err means the program itself couldn't be run,
// as opposed to the OS failing to create the process.
func execFailure(err error) (int, bool) {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ExitNotFound, true
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.ENOEXEC), errors.Is(err, syscall.EISDIR):
		return ExitNotExecutable, true
	default:
		return 0, false
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
		return exitErr.ExitCode()
	}

	return 1
}

type exhaustedError struct {
	err error
}

func (e *exhaustedError) Error() string {
	return e.err.Error()
}

func (e *exhaustedError) Unwrap() error {
	return e.err
}

func (e *exhaustedError) Is(target error) bool {
	return target == ErrResourceExhausted
}

func isExhaustion(err error) bool {
	for _, errno := range []syscall.Errno{syscall.EMFILE, syscall.ENFILE, syscall.ENOMEM, syscall.EAGAIN} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

func spawnError(name string, err error) error {
	wrapped := fmt.Errorf("couldn't start %s: %w", name, err)
	if isExhaustion(err) {
		return &exhaustedError{wrapped}
	}
	return wrapped
}
