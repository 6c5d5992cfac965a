// Package shell turns a command line into a pipeline of argument vectors.
//
// The grammar is small: stages are separated by "|", arguments
// by whitespace, double quotes group text verbatim and "$NAME" outside of
// quotes is replaced by the environment value of NAME. There is no escape
// character.
package shell

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/josephlewis42/lush/core/vos"
)

var (
	// ErrUnterminatedQuote is returned when a stage ends inside a quoted segment.
	ErrUnterminatedQuote = errors.New("expected end of quoted string")

	// ErrEmptyStage is returned when a pipeline has a stage with no command.
	ErrEmptyStage = errors.New("empty command in pipeline")
)

const (
	pipeChar  = '|'
	quoteChar = '"'
	varChar   = '$'

	trimSet = " \t\r\n"
)

// Stage is a single command of a pipeline, the first argument is the command
// name.
type Stage []string

// Name returns the command name or "" for an empty stage.
func (s Stage) Name() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Pipeline is an ordered list of stages connected by pipes.
type Pipeline []Stage

// IsEmpty is true for the no-op pipeline produced by a blank line.
func (p Pipeline) IsEmpty() bool {
	return len(p) == 0 || len(p[0]) == 0
}

// String renders the pipeline for diagnostics.
func (p Pipeline) String() string {
	var stages []string
	for _, stage := range p {
		stages = append(stages, fmt.Sprintf("%q", []string(stage)))
	}
	return strings.Join(stages, " | ")
}

// Parse splits line into a pipeline. A blank line produces a pipeline with a
// single empty stage. No partial pipeline is ever returned with an error.
func Parse(line string, env vos.Env) (Pipeline, error) {
	segments, err := splitPipes(line)
	if err != nil {
		return nil, err
	}

	out := make(Pipeline, 0, len(segments))
	for i, segment := range segments {
		stage, err := splitArgs(strings.Trim(segment, trimSet), env)
		if err != nil {
			return nil, err
		}

		if len(stage) == 0 {
			if len(segments) == 1 {
				return Pipeline{Stage{}}, nil
			}
			return nil, fmt.Errorf("stage %d: %w", i+1, ErrEmptyStage)
		}

		out = append(out, stage)
	}

	return out, nil
}

// splitPipes partitions the line on pipe characters outside of quotes.
func splitPipes(line string) ([]string, error) {
	var segments []string
	inQuote := false
	start := 0

	for i, r := range line {
		switch {
		case r == quoteChar:
			inQuote = !inQuote
		case r == pipeChar && !inQuote:
			segments = append(segments, line[start:i])
			start = i + 1
		}
	}

	if inQuote {
		return nil, ErrUnterminatedQuote
	}

	return append(segments, line[start:]), nil
}

type argSplitter struct {
	args []string
	word strings.Builder
	// pending is set once the current word should be emitted even if empty.
	pending bool
}

func (a *argSplitter) append(s string) {
	a.word.WriteString(s)
	a.pending = true
}

func (a *argSplitter) flush() {
	if a.pending {
		a.args = append(a.args, a.word.String())
	}
	a.word.Reset()
	a.pending = false
}

func isDelim(r rune) bool {
	return unicode.IsSpace(r)
}

// splitArgs breaks a single trimmed stage into arguments.
func splitArgs(stage string, env vos.Env) (Stage, error) {
	var splitter argSplitter
	runes := []rune(stage)
	inQuote := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case inQuote:
			if r == quoteChar {
				inQuote = false
				continue
			}
			splitter.append(string(r))

		case r == quoteChar:
			inQuote = true

		case isDelim(r):
			splitter.flush()

		case r == varChar && i+1 < len(runes) && !isDelim(runes[i+1]) && runes[i+1] != quoteChar:
			end := i + 1
			for end < len(runes) && !isDelim(runes[end]) && runes[end] != quoteChar {
				end++
			}

			// Unset variables contribute nothing, a word made only of them is
			// dropped rather than becoming an empty argument.
			if val, ok := env.LookupEnv(string(runes[i+1 : end])); ok {
				splitter.append(val)
			}
			i = end - 1

		default:
			splitter.append(string(r))
		}
	}

	if inQuote {
		return nil, ErrUnterminatedQuote
	}
	splitter.flush()

	return Stage(splitter.args), nil
}
