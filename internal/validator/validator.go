// Package validator applies per-section schema policy to a loaded
// repository: required keys, types, value ranges, and filesystem-path
// checks delegated to secpath with the matching policy preset. Every
// assertion is a no-op when its section is entirely absent; a present but
// malformed section fails at load time rather than at first use.
package validator

import (
	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/secpath"
)

// Option adjusts how filesystem checks run (tests inject a fake inspector).
type Option func(*checker)

type checker struct {
	secOpts []secpath.Option
	// skipFS suppresses directory/file existence checks while keeping the
	// structural rules; the doctor uses it for advisory-only passes.
	skipFS bool
}

// WithSecpathOptions forwards inspector/jail options to secpath.
func WithSecpathOptions(opts ...secpath.Option) Option {
	return func(c *checker) { c.secOpts = opts }
}

// WithoutFilesystemChecks keeps the schema rules but skips on-disk policy
// enforcement.
func WithoutFilesystemChecks() Option {
	return func(c *checker) { c.skipFS = true }
}

func newChecker(opts []Option) *checker {
	c := &checker{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AssertLoaded is the battery run on every loaded repository: the
// trust/web3 validator always, the rest only when their section exists.
// (Each assertion already no-ops on an absent section, so calling all of
// them preserves that contract.)
func AssertLoaded(repo *config.Repository) error {
	if err := AssertWeb3Config(repo); err != nil {
		return err
	}
	if err := AssertHTTPConfig(repo); err != nil {
		return err
	}
	if err := AssertDBConfig(repo); err != nil {
		return err
	}
	if err := AssertCryptoConfig(repo); err != nil {
		return err
	}
	return AssertObservabilityConfig(repo)
}
