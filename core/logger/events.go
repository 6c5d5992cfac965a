package logger

// LogEntry is a single event. Exactly one of the event fields is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	SessionStart *SessionStart `json:"session_start,omitempty"`
	RunCommand   *RunCommand   `json:"run_command,omitempty"`
	ParseError   *ParseError   `json:"parse_error,omitempty"`
	Script       *Script       `json:"script,omitempty"`
	SessionEnd   *SessionEnd   `json:"session_end,omitempty"`
}

// LogType is implemented by every event that can be recorded.
type LogType interface {
	setOn(le *LogEntry)
}

// GetLogType returns the event held by the entry or nil if it has none.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.SessionStart != nil:
		return le.SessionStart
	case le.RunCommand != nil:
		return le.RunCommand
	case le.ParseError != nil:
		return le.ParseError
	case le.Script != nil:
		return le.Script
	case le.SessionEnd != nil:
		return le.SessionEnd
	default:
		return nil
	}
}

// SessionStart is recorded once when the shell starts reading input.
type SessionStart struct {
	Username    string `json:"username"`
	Hostname    string `json:"hostname"`
	Cwd         string `json:"cwd"`
	Interactive bool   `json:"interactive"`
}

func (e *SessionStart) setOn(le *LogEntry) { le.SessionStart = e }

// RunCommand is recorded for every non-empty pipeline that was dispatched.
type RunCommand struct {
	Line           string     `json:"line"`
	Pipeline       [][]string `json:"pipeline"`
	Builtin        bool       `json:"builtin,omitempty"`
	ExitCodes      []int      `json:"exit_codes,omitempty"`
	Error          string     `json:"error,omitempty"`
	DurationMicros int64      `json:"duration_micros"`
}

func (e *RunCommand) setOn(le *LogEntry) { le.RunCommand = e }

// ParseError is recorded when a line couldn't be tokenized.
type ParseError struct {
	Line  string `json:"line"`
	Error string `json:"error"`
}

func (e *ParseError) setOn(le *LogEntry) { le.ParseError = e }

// Script is recorded when a script is run.
type Script struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

func (e *Script) setOn(le *LogEntry) { le.Script = e }

// SessionEnd is recorded when the shell stops reading input.
type SessionEnd struct {
	// Reason is one of "exit", "eof" or "error".
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

func (e *SessionEnd) setOn(le *LogEntry) { le.SessionEnd = e }
