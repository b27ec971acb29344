package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cfgtrust/cfgtrust/internal/config"
)

func mustRepo(t *testing.T, data map[string]any) *config.Repository {
	t.Helper()
	repo, err := config.FromMap(data)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	return repo
}

func secureDir(t *testing.T, perm os.FileMode) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "d")
	if err := os.Mkdir(dir, perm); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(dir, perm); err != nil {
		t.Fatal(err)
	}
	return dir
}

func secureFile(t *testing.T, perm os.FileMode, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatal(err)
	}
	return path
}

func web3Section(overrides map[string]any) map[string]any {
	web3 := map[string]any{
		"chain_id":      float64(1),
		"rpc_endpoints": []any{"https://rpc.example.org"},
		"rpc_quorum":    float64(1),
		"max_stale_sec": float64(300),
		"mode":          "full",
	}
	for k, v := range overrides {
		if v == nil {
			delete(web3, k)
		} else {
			web3[k] = v
		}
	}
	return web3
}

func trustSection(t *testing.T, web3Overrides map[string]any) map[string]any {
	return map[string]any{
		"web3": web3Section(web3Overrides),
		"integrity": map[string]any{
			"root_dir": secureDir(t, 0o755),
			"manifest": secureFile(t, 0o644, "{}"),
		},
	}
}

func TestAssertLoaded_EmptyConfigPasses(t *testing.T) {
	if err := AssertLoaded(mustRepo(t, map[string]any{})); err != nil {
		t.Fatalf("empty config rejected: %v", err)
	}
}

func TestAssertWeb3Config_Valid(t *testing.T) {
	repo := mustRepo(t, map[string]any{"trust": trustSection(t, nil)})
	if err := AssertWeb3Config(repo); err != nil {
		t.Fatalf("valid trust section rejected: %v", err)
	}
}

func TestAssertWeb3Config_SchemaErrors(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantPart  string
	}{
		{"zero chain id", map[string]any{"chain_id": float64(0)}, "chain_id"},
		{"negative chain id", map[string]any{"chain_id": float64(-5)}, "chain_id"},
		{"missing endpoints", map[string]any{"rpc_endpoints": nil}, "rpc_endpoints"},
		{"empty endpoints", map[string]any{"rpc_endpoints": []any{}}, "rpc_endpoints"},
		{"ftp endpoint", map[string]any{"rpc_endpoints": []any{"ftp://x"}}, "scheme"},
		{"http non-loopback", map[string]any{"rpc_endpoints": []any{"http://rpc.example.org"}}, "loopback"},
		{"quorum zero", map[string]any{"rpc_quorum": float64(0)}, "rpc_quorum"},
		{"quorum above endpoints", map[string]any{"rpc_quorum": float64(2)}, "rpc_quorum"},
		{"stale zero", map[string]any{"max_stale_sec": float64(0)}, "max_stale_sec"},
		{"stale above day", map[string]any{"max_stale_sec": float64(90000)}, "max_stale_sec"},
		{"bad mode", map[string]any{"mode": "partial"}, "mode"},
		{"short address", map[string]any{"contracts": map[string]any{"registry": "0x1234"}}, "EVM"},
		{"zero address", map[string]any{"contracts": map[string]any{"registry": "0x" + strings.Repeat("0", 40)}}, "zero address"},
		{"bad attestation ref", map[string]any{"attestation_ref": "not a ref!!"}, "attestation_ref"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mustRepo(t, map[string]any{"trust": trustSection(t, tt.overrides)})
			err := AssertWeb3Config(repo)
			if err == nil {
				t.Fatal("invalid section accepted")
			}
			if !strings.Contains(err.Error(), tt.wantPart) {
				t.Errorf("error %q missing %q", err, tt.wantPart)
			}
		})
	}
}

func TestAssertWeb3Config_AcceptsLoopbackHTTPAndQuorumBounds(t *testing.T) {
	repo := mustRepo(t, map[string]any{"trust": trustSection(t, map[string]any{
		"rpc_endpoints": []any{"http://127.0.0.1:8545", "http://localhost:8545", "http://[::1]:8545", "https://rpc.example.org"},
		"rpc_quorum":    float64(4),
	})})
	if err := AssertWeb3Config(repo); err != nil {
		t.Fatalf("loopback http endpoints rejected: %v", err)
	}
}

func TestAssertWeb3Config_ValidContractAndRef(t *testing.T) {
	repo := mustRepo(t, map[string]any{"trust": trustSection(t, map[string]any{
		"contracts":       map[string]any{"registry": "0x52908400098527886E0F7030069857D2E4169EE7"},
		"attestation_ref": "ghcr.io/example/attest:v1.2.0",
	})})
	if err := AssertWeb3Config(repo); err != nil {
		t.Fatalf("valid contract/ref rejected: %v", err)
	}
}

func TestAssertWeb3Config_IntegrityRequired(t *testing.T) {
	repo := mustRepo(t, map[string]any{"trust": map[string]any{"web3": web3Section(nil)}})
	err := AssertWeb3Config(repo)
	if err == nil || !strings.Contains(err.Error(), "integrity") {
		t.Fatalf("missing integrity accepted: %v", err)
	}
}

func TestAssertWeb3Config_IntegrityMustBeAbsolute(t *testing.T) {
	repo := mustRepo(t, map[string]any{"trust": map[string]any{
		"web3": web3Section(nil),
		"integrity": map[string]any{
			"root_dir": "relative/dir",
			"manifest": "/abs/manifest.json",
		},
	}})
	err := AssertWeb3Config(repo, WithoutFilesystemChecks())
	if err == nil || !strings.Contains(err.Error(), "absolute") {
		t.Fatalf("relative integrity root accepted: %v", err)
	}
}

func TestAssertWeb3Config_OutboxMustBeSecure(t *testing.T) {
	worldWritable := secureDir(t, 0o777)
	repo := mustRepo(t, map[string]any{"trust": trustSection(t, map[string]any{
		"tx_outbox_dir": worldWritable,
	})})
	if err := AssertWeb3Config(repo); err == nil {
		t.Fatal("world-writable outbox accepted")
	}

	repo = mustRepo(t, map[string]any{"trust": trustSection(t, map[string]any{
		"tx_outbox_dir": secureDir(t, 0o770),
	})})
	if err := AssertWeb3Config(repo); err != nil {
		t.Fatalf("group-writable outbox rejected: %v", err)
	}
}

func TestAssertCryptoConfig(t *testing.T) {
	t.Run("absent section is a no-op", func(t *testing.T) {
		if err := AssertCryptoConfig(mustRepo(t, map[string]any{})); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("keys_dir required without agent", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{"crypto": map[string]any{}})
		err := AssertCryptoConfig(repo)
		if err == nil || !strings.Contains(err.Error(), "keys_dir") {
			t.Fatalf("missing keys_dir accepted: %v", err)
		}
	})

	t.Run("valid keys_dir", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{"crypto": map[string]any{"keys_dir": secureDir(t, 0o700)}})
		if err := AssertCryptoConfig(repo); err != nil {
			t.Fatalf("valid keys_dir rejected: %v", err)
		}
	})

	t.Run("open keys_dir rejected", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{"crypto": map[string]any{"keys_dir": secureDir(t, 0o755)}})
		if err := AssertCryptoConfig(repo); err == nil {
			t.Fatal("world-readable keys_dir accepted")
		}
	})

	t.Run("agent mode skips keys_dir enforcement", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{"crypto": map[string]any{
			"agent":    map[string]any{"socket_path": "/run/cfgtrust/agent.sock"},
			"keys_dir": "/nonexistent/keys",
		}})
		if err := AssertCryptoConfig(repo); err != nil {
			t.Fatalf("agent mode rejected: %v", err)
		}
	})

	t.Run("agent mode still screens keys_dir", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{"crypto": map[string]any{
			"agent":    map[string]any{"socket_path": "/run/cfgtrust/agent.sock"},
			"keys_dir": "../escape",
		}})
		if err := AssertCryptoConfig(repo); err == nil {
			t.Fatal("traversal keys_dir accepted in agent mode")
		}
	})

	t.Run("manifest must be public-readable-safe", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{"crypto": map[string]any{
			"keys_dir": secureDir(t, 0o700),
			"manifest": secureFile(t, 0o646, "{}"),
		}})
		if err := AssertCryptoConfig(repo); err == nil {
			t.Fatal("world-writable manifest accepted")
		}
	})
}

func TestAssertHTTPConfig(t *testing.T) {
	valid := map[string]any{"http": map[string]any{
		"trusted_proxies": []any{"10.0.0.1", "192.168.0.0/16", "fd00::/8", "::1"},
		"allowed_hosts":   []any{"example.org", "*.example.org", "example.org:8443", "[::1]", "[::1]:443", "api-1.internal"},
	}}
	if err := AssertHTTPConfig(mustRepo(t, valid)); err != nil {
		t.Fatalf("valid http section rejected: %v", err)
	}

	tests := []struct {
		name string
		data map[string]any
	}{
		{"bad proxy", map[string]any{"http": map[string]any{"trusted_proxies": []any{"not-an-ip"}}}},
		{"url host", map[string]any{"http": map[string]any{"allowed_hosts": []any{"https://example.org"}}}},
		{"empty host", map[string]any{"http": map[string]any{"allowed_hosts": []any{""}}}},
		{"port zero", map[string]any{"http": map[string]any{"allowed_hosts": []any{"example.org:0"}}}},
		{"port too big", map[string]any{"http": map[string]any{"allowed_hosts": []any{"example.org:70000"}}}},
		{"bad ipv6", map[string]any{"http": map[string]any{"allowed_hosts": []any{"[zz::1]"}}}},
		{"proxy list wrong type", map[string]any{"http": map[string]any{"trusted_proxies": "10.0.0.1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := AssertHTTPConfig(mustRepo(t, tt.data)); err == nil {
				t.Error("invalid http section accepted")
			}
		})
	}
}

func TestAssertDBConfig(t *testing.T) {
	t.Run("lenient without trust", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{"db": map[string]any{"dsn": "postgres://u:p@h/db", "port": float64(5432)}})
		if err := AssertDBConfig(repo); err != nil {
			t.Fatalf("db without trust rejected: %v", err)
		}
	})

	t.Run("bad port", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{"db": map[string]any{"port": float64(0)}})
		if err := AssertDBConfig(repo); err == nil {
			t.Fatal("port 0 accepted")
		}
	})

	t.Run("agent socket required under trust", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{
			"trust": map[string]any{},
			"db":    map[string]any{"host": "localhost"},
		})
		err := AssertDBConfig(repo)
		if err == nil || !strings.Contains(err.Error(), "socket_path") {
			t.Fatalf("missing agent socket accepted: %v", err)
		}
	})

	t.Run("inline credentials forbidden under trust", func(t *testing.T) {
		for _, key := range inlineCredentialKeys {
			repo := mustRepo(t, map[string]any{
				"trust": map[string]any{},
				"db": map[string]any{
					"agent": map[string]any{"socket_path": "/run/cfgtrust/db.sock"},
					key:     "secret",
				},
			})
			if err := AssertDBConfig(repo); err == nil {
				t.Errorf("inline %s accepted under trust", key)
			}
		}
	})

	t.Run("agent-routed db under trust passes", func(t *testing.T) {
		repo := mustRepo(t, map[string]any{
			"trust": map[string]any{},
			"db": map[string]any{
				"agent": map[string]any{"socket_path": "/run/cfgtrust/db.sock"},
				"host":  "localhost",
			},
		})
		if err := AssertDBConfig(repo); err != nil {
			t.Fatalf("agent-routed db rejected: %v", err)
		}
	})
}

func TestAssertObservabilityConfig(t *testing.T) {
	good := map[string]any{"observability": map[string]any{
		"log":          map[string]any{"level": "info", "format": "jsonl"},
		"receipt_path": "/var/lib/cfgtrust/receipts.jsonl",
	}}
	if err := AssertObservabilityConfig(mustRepo(t, good)); err != nil {
		t.Fatalf("valid observability rejected: %v", err)
	}

	bad := []map[string]any{
		{"observability": map[string]any{"log": map[string]any{"level": "verbose"}}},
		{"observability": map[string]any{"log": map[string]any{"format": "xml"}}},
		{"observability": map[string]any{"receipt_path": "../escape.jsonl"}},
	}
	for i, data := range bad {
		if err := AssertObservabilityConfig(mustRepo(t, data)); err == nil {
			t.Errorf("case %d: invalid observability accepted", i)
		}
	}
}
