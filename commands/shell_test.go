package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/josephlewis42/lush/core/history"
	"github.com/josephlewis42/lush/core/logger"
	"github.com/josephlewis42/lush/core/session"
	"github.com/josephlewis42/lush/core/shell"
	"github.com/josephlewis42/lush/core/vos"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func newTestShell(t *testing.T, stdin string) (*Shell, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	home, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	s := NewShell(ShellOptions{
		Stdin:      strings.NewReader(stdin),
		Stdout:     stdout,
		Stderr:     stderr,
		Identity:   &vos.Identity{Username: "moon", Hostname: "base", HomeDir: home},
		Session:    session.New(false),
		Env:        vos.NewMapEnvFromEnvList([]string{"GREETING=hello"}),
		History:    history.New(afero.NewMemMapFs(), "history"),
		ScriptsDir: filepath.Join(home, "scripts"),
	})
	t.Cleanup(s.Close)
	chdir(t, home)

	return s, stdout, stderr
}

func chdir(t *testing.T, dir string) {
	t.Helper()

	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Chdir(old)
	})
}

// pipeInput feeds the shell from a pipe so programs it starts share the
// shell's input file rather than draining a reader.
func pipeInput(t *testing.T, s *Shell, input string) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })

	if _, err := w.WriteString(input); err != nil {
		t.Fatal(err)
	}
	w.Close()

	s.Stdin = r
	s.Executor.Stdin = r
	s.Editor.In = r
}

func pipelineOf(args ...string) shell.Pipeline {
	return shell.Pipeline{args}
}

func home(s *Shell) string {
	return s.Identity.HomeDir
}

func TestShell_Exec(t *testing.T) {
	cases := map[string]struct {
		line    string
		success bool
		stdout  string
		stderr  string
	}{
		"empty":          {line: "", success: true},
		"blank":          {line: " \t ", success: true},
		"external":       {line: "echo hi", success: true, stdout: "hi\n"},
		"pipeline":       {line: "echo hi | tr a-z A-Z", success: true, stdout: "HI\n"},
		"variables":      {line: `echo "$GREETING" $GREETING $UNSET world`, success: true, stdout: "$GREETING hello world\n"},
		"quotes":         {line: `echo "a   b"c`, success: true, stdout: "a   bc\n"},
		"parse error":    {line: `echo "hi`, stderr: "lush: expected end of quoted string\n"},
		"empty stage":    {line: "echo hi | | cat", stderr: "lush: stage 2: empty command in pipeline\n"},
		"not found":      {line: "lush-no-such-program", success: true, stderr: "lush: lush-no-such-program: "},
		"failing status": {line: "false", success: true},
		"builtin":        {line: "debug", success: true, stdout: "debug is off\n"},
		"builtin fails":  {line: "cd /nonexistent", stderr: "cd: /nonexistent: no such file or directory\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s, stdout, stderr := newTestShell(t, "")

			success := s.Exec(tc.line)

			assert.Equal(t, tc.success, success)
			assert.Equal(t, tc.stdout, stdout.String())
			assert.True(t, strings.HasPrefix(stderr.String(), tc.stderr), "stderr: %q", stderr.String())
		})
	}
}

func TestShell_Exec_debug(t *testing.T) {
	s, stdout, _ := newTestShell(t, "")
	s.SetDebug(true)

	s.Exec("true")
	s.Exec("")
	s.Exec(" \t ")
	s.Exec(`echo "unterminated`)
	s.Exec("debug off")
	s.Exec("true")

	assert.Equal(t, "Executed: true, success\n"+
		"Executed: echo \"unterminated, failed\n", stdout.String())
	assert.False(t, s.Session.Debug)
}

func TestShell_Exec_history(t *testing.T) {
	s, stdout, _ := newTestShell(t, "")

	s.Exec("true")
	s.Exec("")
	s.Exec(`echo "oops`)
	s.Exec("history")

	assert.Equal(t, "    1  true\n    2  echo \"oops\n    3  history\n", stdout.String())

	stdout.Reset()
	s.Exec("history -c")
	s.Exec("history")
	assert.Equal(t, "    1  history\n", stdout.String())
}

func TestShell_Exec_noHistory(t *testing.T) {
	s, _, stderr := newTestShell(t, "")
	s.History = nil

	assert.False(t, s.Exec("history"))
	assert.Contains(t, stderr.String(), "no history file")
}

func TestCd(t *testing.T) {
	cases := map[string]struct {
		line   string
		dir    func(home string) string
		status int
		stderr string
	}{
		"no argument": {
			line: "cd",
			dir:  func(home string) string { return home },
		},
		"tilde": {
			line: "cd ~",
			dir:  func(home string) string { return home },
		},
		"tilde subdir": {
			line: "cd ~/sub",
			dir:  func(home string) string { return filepath.Join(home, "sub") },
		},
		"symlink is resolved": {
			line: "cd ~/link",
			dir:  func(home string) string { return filepath.Join(home, "sub") },
		},
		"missing": {
			line:   "cd /nonexistent",
			status: 1,
			stderr: "cd: /nonexistent: no such file or directory\n",
		},
		"file": {
			line:   "cd ~/file",
			status: 1,
			stderr: "cd: ~/file: not a directory\n",
		},
		"too many arguments": {
			line:   "cd a b",
			status: 1,
			stderr: "cd: too many arguments\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s, _, stderr := newTestShell(t, "")
			h := home(s)
			assert.Nil(t, os.Mkdir(filepath.Join(h, "sub"), 0755))
			assert.Nil(t, os.Symlink(filepath.Join(h, "sub"), filepath.Join(h, "link")))
			assert.Nil(t, os.WriteFile(filepath.Join(h, "file"), nil, 0644))
			// Start somewhere that isn't any of the expected destinations.
			chdir(t, "/")

			s.Exec(tc.line)

			assert.Equal(t, tc.status, s.lastRet)
			assert.Equal(t, tc.stderr, stderr.String())
			if tc.dir != nil {
				assert.Equal(t, tc.dir(h), s.Getwd())
			} else {
				assert.Equal(t, "/", s.Getwd())
			}
		})
	}
}

func TestCd_ignoresHomeVariable(t *testing.T) {
	s, _, _ := newTestShell(t, "")
	t.Setenv("HOME", "/")
	s.Env = vos.OSEnv{}
	chdir(t, "/")

	s.Exec("cd")

	assert.Equal(t, home(s), s.Getwd())
}

func TestCd_relative(t *testing.T) {
	s, _, _ := newTestShell(t, "")
	sub := filepath.Join(home(s), "sub")
	assert.Nil(t, os.Mkdir(sub, 0755))
	chdir(t, sub)

	assert.True(t, s.Exec("cd .."))
	assert.Equal(t, home(s), s.Getwd())

	assert.True(t, s.Exec("cd sub"))
	assert.Equal(t, sub, s.Getwd())
}

func TestDispatch_builtinsWin(t *testing.T) {
	s, _, _ := newTestShell(t, "")
	bin := t.TempDir()
	marker := filepath.Join(bin, "ran")
	script := "#!/bin/sh\ntouch " + marker + "\n"
	assert.Nil(t, os.WriteFile(filepath.Join(bin, "cd"), []byte(script), 0755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	chdir(t, "/")

	status := s.Dispatch(pipelineOf("cd", "~"))

	assert.Equal(t, 0, status)
	assert.Equal(t, home(s), s.Getwd())
	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "the cd executable ran")
}

func TestTime(t *testing.T) {
	s, stdout, _ := newTestShell(t, "")

	status := s.Dispatch(shell.Pipeline{{"time", "echo", "hi"}, {"tr", "a-z", "A-Z"}})

	assert.Equal(t, 0, status)
	assert.Regexp(t, regexp.MustCompile(`\AHI\nTime: \d+\.\d{3} milliseconds\n\z`), stdout.String())
}

func TestTime_status(t *testing.T) {
	s, stdout, _ := newTestShell(t, "")

	assert.Equal(t, 0, s.Dispatch(pipelineOf("time", "false")))
	assert.Regexp(t, `^Time: \d+\.\d{3} milliseconds\n$`, stdout.String())
}

func TestTime_matchesUntimed(t *testing.T) {
	cases := []string{"true", "false", "echo hi | false", "lush-no-such-program"}

	for _, line := range cases {
		t.Run(line, func(t *testing.T) {
			s, _, _ := newTestShell(t, "")

			assert.Equal(t, s.Exec(line), s.Exec("time "+line))
		})
	}
}

func TestTime_skipsBuiltins(t *testing.T) {
	s, _, stderr := newTestShell(t, "")

	s.Exec("time exit")

	assert.False(t, s.Quit)
	assert.Contains(t, stderr.String(), "lush: exit: ")
}

func TestTime_nothing(t *testing.T) {
	s, stdout, _ := newTestShell(t, "")

	assert.Equal(t, 0, s.Dispatch(pipelineOf("time")))
	assert.Regexp(t, `^Time: \d+\.\d{3} milliseconds\n$`, stdout.String())
}

func TestExit(t *testing.T) {
	s, _, _ := newTestShell(t, "")

	assert.True(t, s.Exec("exit"))
	assert.True(t, s.Quit)
}

func TestHelp(t *testing.T) {
	s, stdout, stderr := newTestShell(t, "")

	assert.Equal(t, 0, s.Dispatch(pipelineOf("help", "cd")))
	assert.True(t, strings.HasPrefix(stdout.String(), "usage: cd [DIR]\n"))

	assert.Equal(t, 1, s.Dispatch(pipelineOf("help", "nope")))
	assert.Equal(t, "help: no builtin named \"nope\"\n", stderr.String())
}

func TestDebug(t *testing.T) {
	cases := map[string]struct {
		line     string
		initial  bool
		expected bool
		status   int
	}{
		"on":        {line: "debug on", expected: true},
		"true":      {line: "debug TRUE", expected: true},
		"off":       {line: "debug off", initial: true},
		"zero":      {line: "debug 0", initial: true},
		"query":     {line: "debug", initial: true, expected: true},
		"invalid":   {line: "debug maybe", initial: true, expected: true, status: 1},
		"too many":  {line: "debug on off", status: 1},
		"help flag": {line: "debug --help"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s, _, _ := newTestShell(t, "")
			s.Session.Debug = tc.initial

			s.Dispatch(pipelineOf(strings.Fields(tc.line)...))

			assert.Equal(t, tc.status, s.lastRet)
			assert.Equal(t, tc.expected, s.Session.Debug)
		})
	}
}

func TestSource(t *testing.T) {
	s, stdout, stderr := newTestShell(t, "")
	scripts := filepath.Join(home(s), "scripts")
	assert.Nil(t, os.Mkdir(scripts, 0755))
	assert.Nil(t, os.Mkdir(filepath.Join(home(s), "sub"), 0755))
	assert.Nil(t, os.WriteFile(filepath.Join(scripts, "setup.lua"), []byte(`
		lush.debug(true)
		if lush.cd("~/sub") then
			lush.exec("echo moved")
		end
	`), 0644))

	for _, name := range []string{"source", "lush"} {
		t.Run(name, func(t *testing.T) {
			chdir(t, "/")
			stdout.Reset()
			stderr.Reset()
			s.Session.Debug = false

			assert.True(t, s.Exec(name+" setup.lua"))

			assert.True(t, s.Session.Debug)
			assert.Equal(t, filepath.Join(home(s), "sub"), s.Getwd())
			assert.Equal(t, "moved\nExecuted: echo moved, success\nExecuted: "+name+" setup.lua, success\n", stdout.String())
			assert.Equal(t, "lush: stage 0 \"echo\" exited with status 0\n", stderr.String())
		})
	}
}

func TestSource_notFound(t *testing.T) {
	s, _, stderr := newTestShell(t, "")

	assert.False(t, s.Exec("source missing.lua"))
	assert.Equal(t, "lush: missing.lua: script not found\n", stderr.String())
	assert.False(t, s.Quit)
}

func TestSource_usage(t *testing.T) {
	s, _, stderr := newTestShell(t, "")

	assert.False(t, s.Exec("source"))
	assert.Equal(t, "usage: source SCRIPT\n", stderr.String())
}

func TestShell_prompt(t *testing.T) {
	s, _, _ := newTestShell(t, "")
	sub := filepath.Join(home(s), "sub")
	assert.Nil(t, os.Mkdir(sub, 0755))

	assert.Equal(t, "[moon@base:~] ", s.prompt())

	chdir(t, sub)
	assert.Equal(t, "[moon@base:~/sub] ", s.prompt())

	chdir(t, "/")
	assert.Equal(t, "[moon@base:/] ", s.prompt())
}

func TestShell_RunInteractive(t *testing.T) {
	s, stdout, stderr := newTestShell(t, "")
	pipeInput(t, s, "echo one\n\necho \"two\nexit\necho three\n")

	assert.Nil(t, s.RunInteractive())

	assert.True(t, s.Quit)
	assert.Contains(t, stdout.String(), "one\n")
	assert.NotContains(t, stdout.String(), "three")
	assert.Equal(t, "lush: expected end of quoted string\n", stderr.String())
	assert.Equal(t, 4, strings.Count(stdout.String(), "[moon@base:~] "))
}

func TestShell_RunInteractive_eof(t *testing.T) {
	s, stdout, _ := newTestShell(t, "echo partial")

	assert.Nil(t, s.RunInteractive())

	assert.False(t, s.Quit)
	assert.Equal(t, "[moon@base:~] \n", stdout.String())
}

func TestShell_RunLine(t *testing.T) {
	s, stdout, _ := newTestShell(t, "")

	status, err := s.RunLine("echo hi | tr a-z A-Z")
	assert.Nil(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "HI\n", stdout.String())

	status, err = s.RunLine("false")
	assert.Nil(t, err)
	assert.Equal(t, 1, status)
}

func TestShell_events(t *testing.T) {
	events := &bytes.Buffer{}
	s, _, _ := newTestShell(t, "")
	pipeInput(t, s, "echo hi\ncd /\n\"\nsource nope.lua\nexit\n")
	s.Events = logger.NewJsonLinesLogRecorder(events).NewSession(s.Session.ID)

	assert.Nil(t, s.RunInteractive())

	report := logger.NewReport()
	var sessionIDs []string
	assert.Nil(t, logger.ReadJSONLinesLog(events, func(le *logger.LogEntry) {
		report.Update(le)
		sessionIDs = append(sessionIDs, le.SessionID)
	}))

	assert.Equal(t, 1, report.Sessions)
	assert.Equal(t, 4, report.RunCommand.Count)
	assert.Equal(t, 1, report.RunCommand.CommandNames.Get("echo"))
	assert.Equal(t, 1, report.ParseErrors.Get("expected end of quoted string"))
	assert.Equal(t, 1, report.Scripts.Names.Get("nope.lua"))
	assert.Equal(t, 1, report.SessionEnds.Get("exit"))
	for _, id := range sessionIDs {
		assert.Equal(t, s.Session.ID, id)
	}
}

func TestShell_events_recordFailure(t *testing.T) {
	s, _, stderr := newTestShell(t, "")
	failing := &logger.Logger{Record: func(*logger.LogEntry) error {
		return errors.New("disk full")
	}}
	s.Events = failing.NewSession(s.Session.ID)

	assert.True(t, s.Exec("true"))
	assert.True(t, s.Exec("true"))
	s.Exec(`echo "unterminated`)

	assert.Equal(t, 1, strings.Count(stderr.String(), "couldn't record event: disk full"))
}

func TestNewErrorLogger(t *testing.T) {
	out := &bytes.Buffer{}
	newErrorLogger(out, ColorPrinter{}).Println("oops")
	assert.Equal(t, "lush: oops\n", out.String())

	ColorBoldRed.EnableColor()
	defer ColorBoldRed.DisableColor()

	out.Reset()
	newErrorLogger(out, ColorPrinter{Enabled: true}).Println("oops")
	assert.Equal(t, ColorBoldRed.Sprint("lush:")+" oops\n", out.String())
}

func TestBuiltinTable(t *testing.T) {
	assert.Equal(t, []string{"cd", "help", "exit", "time", "source", "lush", "debug", "history"}, AllBuiltins.Names())

	_, ok := AllBuiltins.Lookup("cd")
	assert.True(t, ok)
	_, ok = AllBuiltins.Lookup("ls")
	assert.False(t, ok)
}
