package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/secpath"
)

// Repository is an immutable dot-notation view over a decoded JSON config
// document. It tracks the originating file path so relative path values
// inside the document resolve against the file's directory, never the
// process working directory.
type Repository struct {
	root       Value
	sourcePath string // "" for in-memory repositories
}

// LoadOption adjusts FromJSONFile behavior.
type LoadOption func(*loadConfig)

type loadConfig struct {
	policy       secpath.FilePolicy
	secOpts      []secpath.Option
	docRoot      func() string
	sectionCheck func(*Repository) error
}

// WithFilePolicy overrides the default strict file policy.
func WithFilePolicy(p secpath.FilePolicy) LoadOption {
	return func(c *loadConfig) { c.policy = p }
}

// WithSecpathOptions passes inspector/jail options down to secpath.
func WithSecpathOptions(opts ...secpath.Option) LoadOption {
	return func(c *loadConfig) { c.secOpts = opts }
}

// WithDocumentRoot overrides document-root detection (tests, embedders).
func WithDocumentRoot(fn func() string) LoadOption {
	return func(c *loadConfig) { c.docRoot = fn }
}

// WithSectionValidator installs the schema validation hook run after decode.
// The bootstrap layer always installs the full validator battery here;
// FromJSONFile itself stays free of an import cycle on the validator.
func WithSectionValidator(fn func(*Repository) error) LoadOption {
	return func(c *loadConfig) { c.sectionCheck = fn }
}

// FromMap wraps an in-memory document. No source path, no validation; meant
// for tests and programmatic construction.
func FromMap(data map[string]any) (*Repository, error) {
	root, err := FromAny(data)
	if err != nil {
		return nil, fmt.Errorf("config: invalid document: %w", err)
	}
	return &Repository{root: root}, nil
}

// FromJSONFile loads, security-checks, and decodes a config file.
// Fail-closed: relative paths, wrapper schemes, traversal segments, and
// web-servable locations are rejected before the file is even opened.
// Section schema validation runs only through the WithSectionValidator
// hook; bootstrap installs the full battery on every production load, so
// load through bootstrap (or install the hook) unless an unvalidated
// repository is deliberately wanted.
func FromJSONFile(path string, opts ...LoadOption) (*Repository, error) {
	cfg := loadConfig{
		policy:  secpath.StrictFile(),
		docRoot: DetectDocumentRoot,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := secpath.ScreenPath(path); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		return nil, &secpath.SecurityError{Path: path, Policy: cfg.policy.Name, Reason: "config path must be absolute"}
	}
	if root := cfg.docRoot(); InsideDocumentRoot(path, root) {
		return nil, &secpath.SecurityError{Path: path, Policy: cfg.policy.Name,
			Reason: fmt.Sprintf("config file resides inside web document root %s", root)}
	}

	if err := secpath.AssertSecureReadableFile(path, cfg.policy, cfg.secOpts...); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config: %s: top-level JSON value must be an object", path)
	}

	root, err := FromAny(obj)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	repo := &Repository{root: root, sourcePath: filepath.Clean(path)}
	if cfg.sectionCheck != nil {
		if err := cfg.sectionCheck(repo); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// SourcePath returns the file the repository was loaded from, or "" for
// in-memory instances.
func (r *Repository) SourcePath() string { return r.sourcePath }

// Root returns the document root value.
func (r *Repository) Root() Value { return r.root }

// Has reports whether a dotted key exists.
func (r *Repository) Has(dotted string) bool {
	_, ok := r.root.At(dotted)
	return ok
}

// Lookup returns the Value at a dotted key.
func (r *Repository) Lookup(dotted string) (Value, bool) {
	return r.root.At(dotted)
}

// Get walks a dotted key and returns the raw value, or def the moment a
// segment is missing or a non-object intervenes. It never fails.
func (r *Repository) Get(dotted string, def any) any {
	v, ok := r.root.At(dotted)
	if !ok {
		return def
	}
	return v.ToAny()
}

// RequireString returns the non-empty string at the dotted key.
func (r *Repository) RequireString(dotted string) (string, error) {
	v, ok := r.root.At(dotted)
	if !ok {
		return "", fmt.Errorf("config: required key %q is missing", dotted)
	}
	s, err := v.AsString()
	if err != nil {
		return "", fmt.Errorf("config: key %q: %w", dotted, err)
	}
	if s == "" {
		return "", fmt.Errorf("config: required key %q is empty", dotted)
	}
	return s, nil
}

var digitsRe = regexp.MustCompile(`^[0-9]+$`)

// RequireInt returns the integer at the dotted key. A string of only digits
// is tolerated, defensive against producers emitting numeric strings.
func (r *Repository) RequireInt(dotted string) (int64, error) {
	v, ok := r.root.At(dotted)
	if !ok {
		return 0, fmt.Errorf("config: required key %q is missing", dotted)
	}
	if v.Kind() == KindString {
		s, _ := v.AsString()
		if !digitsRe.MatchString(s) {
			return 0, fmt.Errorf("config: key %q: string %q is not an integer", dotted, s)
		}
		var n int64
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return 0, fmt.Errorf("config: key %q: %w", dotted, err)
		}
		return n, nil
	}
	n, err := v.AsInt()
	if err != nil {
		return 0, fmt.Errorf("config: key %q: %w", dotted, err)
	}
	return n, nil
}

var driveLetterRe = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// ResolvePath resolves a filesystem path value from inside the document.
// Absolute values pass through; relative values join against the source
// file's directory. Two processes with different working directories
// loading the same file must resolve identical absolute paths.
func (r *Repository) ResolvePath(value string) (string, error) {
	if strings.ContainsRune(value, 0) {
		return "", errors.New("config: path value contains NUL byte")
	}
	if err := secpath.ScreenPath(value); err != nil {
		return "", err
	}
	if filepath.IsAbs(value) || driveLetterRe.MatchString(value) {
		return value, nil
	}
	if r.sourcePath == "" {
		return "", fmt.Errorf("config: cannot resolve relative path %q without a source file", value)
	}
	return filepath.Join(filepath.Dir(r.sourcePath), value), nil
}

// ToMap returns a deep copy of the document.
func (r *Repository) ToMap() map[string]any {
	out, _ := r.root.ToAny().(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	return out
}
