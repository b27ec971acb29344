package policy

import (
	"sort"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/config"
)

// Facts is the derived context for CEL rules. Rules get the raw tree as
// "cfg" and this digest as "facts", so common checks do not need to
// defend against missing intermediate keys.
type Facts struct {
	HasTrust       bool     `json:"hasTrust"`
	EndpointCount  int      `json:"endpointCount"`
	PlainEndpoints []string `json:"plainEndpoints"` // non-https RPC endpoints
	Quorum         int      `json:"quorum"`
	MaxStaleSec    int      `json:"maxStaleSec"`
	Mode           string   `json:"mode"`
	HasOutbox      bool     `json:"hasOutbox"`
	HasCryptoAgent bool     `json:"hasCryptoAgent"`
	HasDBAgent     bool     `json:"hasDBAgent"`
	HasDB          bool     `json:"hasDB"`
	WildcardHosts  []string `json:"wildcardHosts"`
	LogLevel       string   `json:"logLevel"`
}

// BuildFacts from a loaded repository (deterministic)
func BuildFacts(repo *config.Repository) Facts {
	f := Facts{
		HasTrust:       repo.Has("trust"),
		HasOutbox:      repo.Has("trust.web3.tx_outbox_dir"),
		HasCryptoAgent: repo.Has("crypto.agent.socket_path"),
		HasDBAgent:     repo.Has("db.agent.socket_path"),
		HasDB:          repo.Has("db"),
		PlainEndpoints: []string{},
		WildcardHosts:  []string{},
	}

	if v, ok := repo.Get("trust.web3.rpc_quorum", nil).(float64); ok {
		f.Quorum = int(v)
	}
	if v, ok := repo.Get("trust.web3.max_stale_sec", nil).(float64); ok {
		f.MaxStaleSec = int(v)
	}
	if v, ok := repo.Get("trust.web3.mode", nil).(string); ok {
		f.Mode = v
	}
	if v, ok := repo.Get("observability.log.level", nil).(string); ok {
		f.LogLevel = v
	}

	if eps, ok := repo.Get("trust.web3.rpc_endpoints", nil).([]any); ok {
		f.EndpointCount = len(eps)
		for _, ep := range eps {
			if s, ok := ep.(string); ok && !strings.HasPrefix(s, "https://") {
				f.PlainEndpoints = append(f.PlainEndpoints, s)
			}
		}
	}

	if hosts, ok := repo.Get("http.allowed_hosts", nil).([]any); ok {
		for _, h := range hosts {
			if s, ok := h.(string); ok && strings.HasPrefix(s, "*.") {
				f.WildcardHosts = append(f.WildcardHosts, s)
			}
		}
	}

	// Deterministic ordering for rule output
	sort.Strings(f.PlainEndpoints)
	sort.Strings(f.WildcardHosts)

	return f
}

// ToMap for CEL
func (f Facts) ToMap() map[string]any {
	return map[string]any{
		"hasTrust":       f.HasTrust,
		"endpointCount":  f.EndpointCount,
		"plainEndpoints": toAnySlice(f.PlainEndpoints),
		"quorum":         f.Quorum,
		"maxStaleSec":    f.MaxStaleSec,
		"mode":           f.Mode,
		"hasOutbox":      f.HasOutbox,
		"hasCryptoAgent": f.HasCryptoAgent,
		"hasDBAgent":     f.HasDBAgent,
		"hasDB":          f.HasDB,
		"wildcardHosts":  toAnySlice(f.WildcardHosts),
		"logLevel":       f.LogLevel,
	}
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
