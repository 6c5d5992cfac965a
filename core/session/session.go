// Package session holds the state that lives as long as the shell process.
package session

import (
	"github.com/google/uuid"
)

// State is shared by reference between the dispatcher, the pipeline executor
// and the scripting bridge. It is only mutated from the controlling goroutine.
type State struct {
	// ID identifies the session in the event log.
	ID string
	// Debug makes the shell report the outcome of every executed line.
	Debug bool
}

// New creates session state with a fresh ID.
func New(debug bool) *State {
	return &State{
		ID:    uuid.NewString(),
		Debug: debug,
	}
}
