package ctl

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies who pushed a schedule, for the audit log.
type Actor struct {
	// Hostname is the pushing machine.
	Hostname string
	// Username is the local account name.
	Username string
}

// String renders the conventional user@host form.
func (a *Actor) String() string {
	return a.Username + "@" + a.Hostname
}

// DetectActor gathers host and user information for the audit trail.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}
