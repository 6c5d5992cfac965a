package vos

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Env looks up environment variables for expansion.
type Env interface {
	// LookupEnv returns the value of the variable and whether it was set.
	LookupEnv(key string) (string, bool)
}

// OSEnv reads variables from the process environment.
type OSEnv struct{}

var _ Env = OSEnv{}

// LookupEnv implements Env.LookupEnv.
func (OSEnv) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFromEnvList creates an environment from KEY=VALUE pairs.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		out.Setenv(key, value)
	}

	return out
}

// MapEnv implements an in-memory Env.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

var _ Env = (*MapEnv)(nil)

// Setenv sets the value of a variable.
func (m *MapEnv) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// Unsetenv removes a variable.
func (m *MapEnv) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// LookupEnv implements Env.LookupEnv.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Environ returns the variables as sorted KEY=VALUE pairs.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	var env []string
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	return env
}
