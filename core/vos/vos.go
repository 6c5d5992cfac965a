// Package vos wraps the parts of the host OS the shell depends on: the
// environment, the invoking user's identity and path queries.
package vos

import (
	"fmt"
	"os"
	"os/user"
)

// Identity describes the user running the shell.
type Identity struct {
	Username string
	HomeDir  string
	Hostname string
}

// CurrentIdentity looks the invoking user up in the system user database.
// $HOME is not consulted so a modified environment can't redirect "~".
func CurrentIdentity() (*Identity, error) {
	u, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("couldn't look up current user: %w", err)
	}

	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}

	return &Identity{
		Username: u.Username,
		HomeDir:  u.HomeDir,
		Hostname: host,
	}, nil
}

// Paths returns path helpers rooted at the identity's home directory.
func (i *Identity) Paths() Paths {
	return Paths{Home: i.HomeDir}
}
