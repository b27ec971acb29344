package config

import (
	"errors"
	"sync"
)

// Process-wide default repository. Explicit dependency passing is the
// normal pattern; this holder exists only for the outermost composition
// point (CLI main) and enforces single assignment.
var (
	defaultMu   sync.Mutex
	defaultRepo *Repository
)

// ErrDefaultAlreadySet is returned by a second SetDefault call.
var ErrDefaultAlreadySet = errors.New("config: default repository already set")

// SetDefault installs the process default exactly once.
func SetDefault(r *Repository) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRepo != nil {
		return ErrDefaultAlreadySet
	}
	defaultRepo = r
	return nil
}

// Default returns the process default repository, if one was set.
func Default() (*Repository, bool) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRepo, defaultRepo != nil
}

// resetDefault clears the holder (tests only).
func resetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRepo = nil
}
