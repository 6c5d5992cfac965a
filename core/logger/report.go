package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		Failures: NewPathCounter("command", "status"),
	}
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	Sessions       int        `json:"sessions"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	RunCommand  RunCommandReport `json:"run_command_report"`
	ParseErrors StrCounter       `json:"parse_errors"`
	Scripts     ScriptReport     `json:"script_report"`
	SessionEnds StrCounter       `json:"session_ends"`
	Failures    *PathCounter     `json:"failures"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	if r.Failures == nil {
		r.Failures = NewPathCounter("command", "status")
	}

	switch event := le.GetLogType().(type) {
	case *SessionStart:
		r.Sessions++
	case *RunCommand:
		r.RunCommand.update(event)
		r.recordFailures(event)
	case *ParseError:
		r.ParseErrors.Increment(event.Error)
	case *Script:
		r.Scripts.update(event)
	case *SessionEnd:
		r.SessionEnds.Increment(event.Reason)
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

func (r *Report) recordFailures(rc *RunCommand) {
	for i, code := range rc.ExitCodes {
		if code == 0 || i >= len(rc.Pipeline) || len(rc.Pipeline[i]) == 0 {
			continue
		}
		r.Failures.Increment(rc.Pipeline[i][0], strconv.Itoa(code))
	}
}

type RunCommandReport struct {
	// Number of pipelines run.
	Count int `json:"count"`
	// Name of each command in every stage.
	CommandNames StrCounter `json:"command_names"`
	// Number of stages per pipeline.
	StageCounts StrCounter `json:"stage_counts"`
	// Errors that stopped a pipeline from starting.
	Errors StrCounter `json:"errors"`
}

func (r *RunCommandReport) update(rc *RunCommand) {
	r.Count++
	r.StageCounts.Increment(strconv.Itoa(len(rc.Pipeline)))
	for _, stage := range rc.Pipeline {
		if len(stage) > 0 {
			r.CommandNames.Increment(stage[0])
		}
	}
	if rc.Error != "" {
		r.Errors.Increment(rc.Error)
	}
}

type ScriptReport struct {
	Names  StrCounter `json:"names"`
	Errors StrCounter `json:"errors"`
}

func (r *ScriptReport) update(s *Script) {
	r.Names.Increment(s.Name)
	if s.Error != "" {
		r.Errors.Increment(s.Error)
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for the given key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	if s.internal == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of times a tuple of strings was seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
