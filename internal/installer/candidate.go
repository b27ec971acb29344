// Package installer picks a home for the runtime config and writes it
// without ever leaving a half-written or loosely-permissioned file behind.
package installer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/secpath"
)

type CandidateStatus string

const (
	// StatusWritable means the path does not exist yet but can be created.
	StatusWritable CandidateStatus = "writable"
	// StatusReusable means a secure config already lives at the path.
	StatusReusable CandidateStatus = "reusable"
	StatusRejected CandidateStatus = "rejected"
)

// Candidate is one scored location from a write-path recommendation.
type Candidate struct {
	Path   string          `json:"path"`
	Status CandidateStatus `json:"status"`
	Score  int             `json:"score,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

type Recommendation struct {
	Best       *Candidate  `json:"best,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// Scores are a relative ordering heuristic. Callers may rely on system
// locations outranking user locations and user locations outranking the
// rest, but not on the numeric values themselves.
const (
	scoreSystem = 100
	scoreUser   = 60
	scoreOther  = 30

	reuseBonus     = 25
	stickyDemotion = 20
	wslPenalty     = 40
	tempPenalty    = 50
)

var wslMountRe = regexp.MustCompile(`^/mnt/[a-zA-Z]/`)

var tempPrefixes = []string{"/tmp/", "/var/tmp/", "/dev/shm/"}

type Option func(*planner)

type planner struct {
	ins      secpath.Inspector
	docRoot  string
	writable func(string) bool
}

// WithInspector substitutes the filesystem view used for scoring and for
// the secure-path checks on existing candidates.
func WithInspector(ins secpath.Inspector) Option {
	return func(p *planner) { p.ins = ins }
}

// WithDocumentRoot overrides the detected web document root.
func WithDocumentRoot(root string) Option {
	return func(p *planner) { p.docRoot = root }
}

// WithWritableProbe substitutes the directory writability probe.
func WithWritableProbe(probe func(string) bool) Option {
	return func(p *planner) { p.writable = probe }
}

func newPlanner(opts []Option) *planner {
	p := &planner{
		ins:      secpath.OS(),
		docRoot:  config.DetectDocumentRoot(),
		writable: secpath.Writable,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *planner) secOpts() []secpath.Option {
	return []secpath.Option{secpath.WithInspector(p.ins)}
}

// RecommendWritePath scores every candidate path and picks the best
// non-rejected one. Ties keep the earlier candidate, so callers control
// preference through list order.
func RecommendWritePath(paths []string, opts ...Option) Recommendation {
	p := newPlanner(opts)

	rec := Recommendation{Candidates: make([]Candidate, 0, len(paths))}
	best := -1
	for i, path := range paths {
		cand := p.score(path)
		rec.Candidates = append(rec.Candidates, cand)
		if cand.Status == StatusRejected {
			continue
		}
		if best < 0 || cand.Score > rec.Candidates[best].Score {
			best = i
		}
	}
	if best >= 0 {
		rec.Best = &rec.Candidates[best]
	}
	return rec
}

func (p *planner) score(path string) Candidate {
	cand := Candidate{Path: path}

	if err := secpath.ScreenPath(path); err != nil {
		return rejected(cand, err.Error())
	}
	if !filepath.IsAbs(path) {
		return rejected(cand, "not an absolute path")
	}
	if config.InsideDocumentRoot(path, p.docRoot) {
		return rejected(cand, "inside the web document root")
	}

	score, class := baseScore(path)
	cand.Score = score

	info, err := p.ins.Lstat(path)
	switch {
	case err == nil && info.Mode()&fs.ModeSymlink != 0:
		return rejected(cand, "existing path is a symlink")
	case err == nil && info.IsDir():
		return rejected(cand, "existing path is a directory")
	case err == nil:
		if serr := secpath.AssertSecureReadableFile(path, secpath.StrictFile(), p.secOpts()...); serr != nil {
			return rejected(cand, fmt.Sprintf("existing file fails secure checks: %v", serr))
		}
		cand.Status = StatusReusable
		cand.Score += reuseBonus
		cand.Reason = fmt.Sprintf("existing secure config (%s location)", class)
	case errors.Is(err, fs.ErrNotExist):
		anc, aerr := p.nearestExistingAncestor(path)
		if aerr != nil {
			return rejected(cand, aerr.Error())
		}
		if !p.writable(anc) {
			return rejected(cand, fmt.Sprintf("nearest existing ancestor %s is not writable", anc))
		}
		demoted, derr := p.inspectAncestorPerms(anc)
		if derr != nil {
			return rejected(cand, derr.Error())
		}
		cand.Status = StatusWritable
		cand.Reason = fmt.Sprintf("creatable under %s (%s location)", anc, class)
		if demoted {
			cand.Score -= stickyDemotion
			cand.Reason += "; shared sticky directory in ancestry"
		}
	default:
		return rejected(cand, fmt.Sprintf("cannot inspect: %v", err))
	}

	if wslMountRe.MatchString(path) {
		cand.Score -= wslPenalty
		cand.Reason += "; on a WSL drive mount"
	}
	if isTempLocation(path) {
		cand.Score -= tempPenalty
		cand.Reason += "; in a temporary directory"
	}
	if cand.Score < 0 {
		cand.Score = 0
	}
	return cand
}

func rejected(cand Candidate, reason string) Candidate {
	cand.Status = StatusRejected
	cand.Score = 0
	cand.Reason = reason
	return cand
}

func baseScore(path string) (int, string) {
	switch {
	case strings.HasPrefix(path, "/etc/"), strings.HasPrefix(path, "/run/secrets/"):
		return scoreSystem, "system"
	case underUserConfig(path):
		return scoreUser, "user"
	default:
		return scoreOther, "other"
	}
}

func underUserConfig(path string) bool {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		for _, sub := range []string{".config", ".cfgtrust"} {
			if strings.HasPrefix(path, filepath.Join(home, sub)+string(filepath.Separator)) {
				return true
			}
		}
	}
	return false
}

func isTempLocation(path string) bool {
	for _, prefix := range tempPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	// /run is tmpfs, but /run/secrets is a managed secrets mount.
	if strings.HasPrefix(path, "/run/") && !strings.HasPrefix(path, "/run/secrets/") {
		return true
	}
	return false
}

// nearestExistingAncestor walks toward the root until a directory exists.
func (p *planner) nearestExistingAncestor(path string) (string, error) {
	dir := filepath.Dir(path)
	for {
		info, err := p.ins.Lstat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("ancestor %s exists but is not a directory", dir)
			}
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("cannot inspect ancestor %s: %v", dir, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		dir = parent
	}
}

// inspectAncestorPerms reports whether the ancestor is a shared sticky
// directory (demote) and rejects group or world writability without the
// sticky bit.
func (p *planner) inspectAncestorPerms(dir string) (bool, error) {
	info, err := p.ins.Lstat(dir)
	if err != nil {
		return false, fmt.Errorf("cannot inspect %s: %v", dir, err)
	}
	mode := info.Mode()
	if mode.Perm()&0o022 == 0 {
		return false, nil
	}
	if mode&fs.ModeSticky != 0 {
		return true, nil
	}
	return false, fmt.Errorf("ancestor %s is writable by others (%04o) without the sticky bit", dir, secpath.OctalMode(mode))
}
