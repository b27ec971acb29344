package installer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/bootstrap"
	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/secpath"
	"github.com/wI2L/jsondiff"
)

// InstallResult describes what Init did.
type InstallResult struct {
	Path string `json:"path"`
	// Reused is true when a valid config already existed and was kept.
	Reused bool `json:"reused"`
	// Drift lists differences between the kept config and the requested
	// payload. Empty when Reused is false or the contents match.
	Drift        []string `json:"drift,omitempty"`
	BytesWritten int      `json:"bytesWritten,omitempty"`
}

// Init writes payload as a runtime config at path. The write is atomic:
// content lands in a same-directory temp file with mode 0600 and is
// renamed over the target, so a failure never leaves a partial or
// insecure file at path. An existing valid config is kept unless force
// is set; an existing invalid one is an error without force.
func Init(payload map[string]any, path string, force bool, opts ...Option) (InstallResult, error) {
	p := newPlanner(opts)
	res := InstallResult{Path: path}

	if err := secpath.ScreenPath(path); err != nil {
		return res, fmt.Errorf("installer: %w", err)
	}
	if !filepath.IsAbs(path) {
		return res, fmt.Errorf("installer: target must be an absolute path, got %q", path)
	}
	if config.InsideDocumentRoot(path, p.docRoot) {
		return res, fmt.Errorf("installer: refusing to write config inside the web document root (%s)", p.docRoot)
	}

	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return res, fmt.Errorf("installer: create parent directory: %w", err)
	}
	if err := secpath.AssertNoAncestorSymlink(path, p.secOpts()...); err != nil {
		return res, fmt.Errorf("installer: %w", err)
	}

	desired, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return res, fmt.Errorf("installer: encode payload: %w", err)
	}
	desired = append(desired, '\n')

	if !force {
		if _, err := os.Lstat(path); err == nil {
			return reuseExisting(path, desired, p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("installer: inspect %s: %w", path, err)
		}
	}

	n, err := writeAtomic(path, desired)
	if err != nil {
		return res, err
	}
	res.BytesWritten = n

	if err := secpath.AssertSecureReadableFile(path, secpath.StrictFile(), p.secOpts()...); err != nil {
		os.Remove(path)
		return InstallResult{Path: path}, fmt.Errorf("installer: written file fails secure checks: %w", err)
	}
	return res, nil
}

// InitRecommended scans the default candidate locations and installs the
// payload at the best one. When the best candidate fails at write time it
// falls through the remaining viable candidates in score order; only when
// every candidate is exhausted does it error, naming each path and its
// specific rejection reason.
func InitRecommended(payload map[string]any, force bool, opts ...Option) (InstallResult, error) {
	rec := RecommendWritePath(bootstrap.DefaultCandidatePaths(), opts...)

	var viable []Candidate
	for _, cand := range rec.Candidates {
		if cand.Status != StatusRejected {
			viable = append(viable, cand)
		}
	}
	// Ties keep scan order, matching RecommendWritePath.
	sort.SliceStable(viable, func(i, j int) bool { return viable[i].Score > viable[j].Score })

	var lines []string
	for _, cand := range viable {
		res, err := Init(payload, cand.Path, force, opts...)
		if err == nil {
			return res, nil
		}
		lines = append(lines, fmt.Sprintf("  %s: %v", cand.Path, err))
	}
	for _, cand := range rec.Candidates {
		if cand.Status == StatusRejected {
			lines = append(lines, fmt.Sprintf("  %s: %s", cand.Path, cand.Reason))
		}
	}
	return InstallResult{}, fmt.Errorf("installer: no usable config location:\n%s", strings.Join(lines, "\n"))
}

// reuseExisting keeps an already-installed config if it still passes the
// strict checks and parses, reporting drift against the requested payload.
func reuseExisting(path string, desired []byte, p *planner) (InstallResult, error) {
	res := InstallResult{Path: path}

	if err := secpath.AssertSecureReadableFile(path, secpath.StrictFile(), p.secOpts()...); err != nil {
		return res, fmt.Errorf("installer: existing config at %s fails secure checks (use force to replace): %w", path, err)
	}
	existing, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("installer: read existing config: %w", err)
	}
	var probe map[string]any
	if err := json.Unmarshal(existing, &probe); err != nil {
		return res, fmt.Errorf("installer: existing config at %s is not a JSON object (use force to replace): %w", path, err)
	}

	res.Reused = true
	patch, err := jsondiff.CompareJSON(existing, desired)
	if err == nil {
		res.Drift = describeDrift(patch)
	}
	return res, nil
}

func writeAtomic(path string, data []byte) (int, error) {
	parent := filepath.Dir(path)
	tmp, err := os.CreateTemp(parent, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("installer: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("installer: chmod temp file: %w", err)
	}
	n, err := tmp.Write(data)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("installer: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("installer: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("installer: rename into place: %w", err)
	}
	// Rename preserves the temp mode, but umask-hostile platforms exist.
	if err := os.Chmod(path, 0o600); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("installer: chmod installed file: %w", err)
	}
	return n, nil
}

// describeDrift flattens a JSON patch into stable, human-readable lines.
func describeDrift(patch jsondiff.Patch) []string {
	if len(patch) == 0 {
		return nil
	}
	var lines []string
	seen := make(map[string]bool)
	for _, op := range patch {
		var line string
		switch op.Type {
		case jsondiff.OperationAdd:
			line = fmt.Sprintf("missing key %s", op.Path)
		case jsondiff.OperationRemove:
			line = fmt.Sprintf("extra key %s", op.Path)
		case jsondiff.OperationReplace:
			line = fmt.Sprintf("differing value at %s", op.Path)
		default:
			continue
		}
		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}
	return lines
}
