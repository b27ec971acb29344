package doctor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/models"
)

// sensitiveKeys are config values that name filesystem locations. The
// sensitive flag marks key material and sockets, where a bad location is
// an error rather than a warning.
var sensitiveKeys = []struct {
	key       string
	sensitive bool
}{
	{"crypto.keys_dir", true},
	{"crypto.agent.socket_path", true},
	{"db.agent.socket_path", true},
	{"trust.integrity.root_dir", false},
	{"trust.integrity.manifest", false},
	{"trust.web3.tx_outbox_dir", false},
	{"observability.receipt_path", false},
}

var wslMountRe = regexp.MustCompile(`^/mnt/[a-zA-Z]/`)

var tempPrefixes = []string{"/tmp/", "/var/tmp/", "/dev/shm/"}

// inspectPathLocations flags security-relevant paths that live somewhere
// a hostile neighbour can reach: world-shared temp space, WSL drive
// mounts, or the web document root.
func (i *inspector) inspectPathLocations(repo *config.Repository, report *models.Report) {
	for _, sk := range sensitiveKeys {
		raw, ok := repo.Get(sk.key, nil).(string)
		if !ok || raw == "" {
			continue
		}
		path := raw
		if resolved, err := repo.ResolvePath(raw); err == nil {
			path = resolved
		}

		if problem := locationProblem(path, i.docRoot); problem != "" {
			severity := models.SeverityWarn
			if sk.sensitive {
				severity = models.SeverityError
			}
			report.Add(models.Finding{
				Severity: severity,
				Code:     "location." + sk.key,
				Message:  fmt.Sprintf("%s points at %s, which is %s", sk.key, path, problem),
				Meta:     map[string]string{"path": path},
			})
		}
	}
}

func locationProblem(path, docRoot string) string {
	for _, prefix := range tempPrefixes {
		if strings.HasPrefix(path, prefix) {
			return "a world-shared temporary directory"
		}
	}
	if strings.HasPrefix(path, "/run/") && !strings.HasPrefix(path, "/run/secrets/") &&
		!strings.HasPrefix(path, "/run/cfgtrust/") {
		return "a volatile tmpfs shared with other services"
	}
	if wslMountRe.MatchString(path) {
		return "a WSL drive mount with Windows permission semantics"
	}
	if config.InsideDocumentRoot(path, docRoot) {
		return "inside the web document root"
	}
	return ""
}
