// Package bootstrap discovers the runtime config file across a prioritized
// candidate list and loads the first one that passes policy.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/validator"
)

// ScanResult reports one discovery pass. Callers can distinguish "nothing
// existed" (empty Rejected) from "something existed but every candidate
// failed validation" (non-empty Rejected).
type ScanResult struct {
	Repo         *config.Repository `json:"-"`
	SelectedPath string             `json:"selected_path,omitempty"`
	Rejected     map[string]string  `json:"rejected,omitempty"`
	Tried        []string           `json:"tried"`
}

// Option adjusts a discovery pass.
type Option func(*scanner)

type scanner struct {
	loadOpts     []config.LoadOption
	selfValidate bool
}

// WithLoadOptions passes options through to config.FromJSONFile.
func WithLoadOptions(opts ...config.LoadOption) Option {
	return func(s *scanner) { s.loadOpts = append(s.loadOpts, opts...) }
}

// WithoutSelfValidation skips the schema validator battery (tests only;
// production loads always self-validate).
func WithoutSelfValidation() Option {
	return func(s *scanner) { s.selfValidate = false }
}

func newScanner(opts []Option) *scanner {
	s := &scanner{selfValidate: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *scanner) load(path string) (*config.Repository, error) {
	opts := s.loadOpts
	if s.selfValidate {
		opts = append(opts[:len(opts):len(opts)], config.WithSectionValidator(validator.AssertLoaded))
	}
	return config.FromJSONFile(path, opts...)
}

// DefaultCandidatePaths builds the platform-appropriate ordered list,
// highest-trust locations first: system config dir, container secret
// mounts, then user config homes.
func DefaultCandidatePaths() []string {
	if runtime.GOOS == "windows" {
		var out []string
		if pd := os.Getenv("ProgramData"); pd != "" {
			out = append(out, filepath.Join(pd, "cfgtrust", "runtime.json"))
		}
		if dir, err := os.UserConfigDir(); err == nil {
			out = append(out, filepath.Join(dir, "cfgtrust", "runtime.json"))
		}
		return out
	}

	out := []string{
		"/etc/cfgtrust/runtime.json",
		"/etc/cfgtrust/cfgtrust.runtime.json",
		"/run/secrets/cfgtrust/runtime.json",
		"/run/secrets/cfgtrust.runtime.json",
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		out = append(out, filepath.Join(xdg, "cfgtrust", "runtime.json"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		out = append(out,
			filepath.Join(home, ".config", "cfgtrust", "runtime.json"),
			filepath.Join(home, ".cfgtrust", "runtime.json"))
	}
	return out
}

// Scan iterates candidates in order and returns on the first file that
// loads and validates (first-match-wins). Validation failures are recorded
// per path; missing files are only recorded as tried.
func Scan(paths []string, opts ...Option) ScanResult {
	s := newScanner(opts)
	result := ScanResult{Rejected: map[string]string{}}

	for _, path := range paths {
		result.Tried = append(result.Tried, path)

		if _, err := os.Lstat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			result.Rejected[path] = fmt.Sprintf("cannot stat: %v", err)
			continue
		}

		repo, err := s.load(path)
		if err != nil {
			result.Rejected[path] = err.Error()
			continue
		}
		result.Repo = repo
		result.SelectedPath = path
		return result
	}
	return result
}

// Load is Scan with a loud failure: when no candidate succeeds the error
// names every rejected path and its specific reason.
func Load(paths []string, opts ...Option) (ScanResult, error) {
	result := Scan(paths, opts...)
	if result.Repo != nil {
		return result, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "bootstrap: no usable runtime config among %d candidate(s):", len(result.Tried))
	for _, path := range result.Tried {
		if reason, ok := result.Rejected[path]; ok {
			fmt.Fprintf(&b, "\n  %s: %s", path, reason)
		} else {
			fmt.Fprintf(&b, "\n  %s: not present", path)
		}
	}
	return result, errors.New(b.String())
}

// TryLoad is the soft variant: nil repository instead of an error.
func TryLoad(paths []string, opts ...Option) *config.Repository {
	return Scan(paths, opts...).Repo
}

// LoadFile loads one explicit path with the full self-validation battery.
// All production load paths (CLI --config, discovery) funnel through here
// or Scan, so a loaded repository is always schema-validated.
func LoadFile(path string, opts ...Option) (*config.Repository, error) {
	return newScanner(opts).load(path)
}
