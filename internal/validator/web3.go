package validator

import (
	"fmt"
	"net/netip"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/secpath"
	"github.com/google/go-containerregistry/pkg/name"
)

const maxStaleCeiling = 86400 // one day

var evmAddrRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// AssertWeb3Config validates the trust kernel section (trust.web3 plus
// trust.integrity). The on-chain commitment only means something if the
// local anchors it references are themselves tamper-resistant, so the
// integrity root and manifest are mandatory once trust is configured.
func AssertWeb3Config(repo *config.Repository, opts ...Option) error {
	if !repo.Has("trust") {
		return nil
	}
	c := newChecker(opts)

	if !repo.Has("trust.web3") {
		return fmt.Errorf("validator: trust section present but trust.web3 is missing")
	}

	chainID, err := repo.RequireInt("trust.web3.chain_id")
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if chainID <= 0 {
		return fmt.Errorf("validator: trust.web3.chain_id must be positive, got %d", chainID)
	}

	endpoints, err := stringList(repo, "trust.web3.rpc_endpoints")
	if err != nil {
		return err
	}
	if len(endpoints) == 0 {
		return fmt.Errorf("validator: trust.web3.rpc_endpoints must be a non-empty list")
	}
	for i, ep := range endpoints {
		if err := checkRPCEndpoint(ep); err != nil {
			return fmt.Errorf("validator: trust.web3.rpc_endpoints[%d]: %w", i, err)
		}
	}

	quorum, err := repo.RequireInt("trust.web3.rpc_quorum")
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if quorum < 1 || quorum > int64(len(endpoints)) {
		return fmt.Errorf("validator: trust.web3.rpc_quorum must be in [1, %d], got %d", len(endpoints), quorum)
	}

	stale, err := repo.RequireInt("trust.web3.max_stale_sec")
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if stale < 1 || stale > maxStaleCeiling {
		return fmt.Errorf("validator: trust.web3.max_stale_sec must be in [1, %d], got %d", maxStaleCeiling, stale)
	}

	mode, err := repo.RequireString("trust.web3.mode")
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if mode != "root_uri" && mode != "full" {
		return fmt.Errorf("validator: trust.web3.mode must be root_uri or full, got %q", mode)
	}

	if contracts, ok := repo.Lookup("trust.web3.contracts"); ok {
		obj, err := contracts.AsObject()
		if err != nil {
			return fmt.Errorf("validator: trust.web3.contracts: %w", err)
		}
		for key, v := range obj {
			addr, err := v.AsString()
			if err != nil {
				return fmt.Errorf("validator: trust.web3.contracts.%s: %w", key, err)
			}
			if err := checkEVMAddress(addr); err != nil {
				return fmt.Errorf("validator: trust.web3.contracts.%s: %w", key, err)
			}
		}
	}

	if ref, ok := repo.Get("trust.web3.attestation_ref", nil).(string); ok {
		if _, err := name.ParseReference(ref, name.StrictValidation); err != nil {
			return fmt.Errorf("validator: trust.web3.attestation_ref: %w", err)
		}
	}

	if outbox, ok := repo.Get("trust.web3.tx_outbox_dir", nil).(string); ok {
		resolved, err := repo.ResolvePath(outbox)
		if err != nil {
			return fmt.Errorf("validator: trust.web3.tx_outbox_dir: %w", err)
		}
		if !c.skipFS {
			if err := secpath.AssertSecureDir(resolved, secpath.TxOutboxDir(), c.secOpts...); err != nil {
				return fmt.Errorf("validator: trust.web3.tx_outbox_dir: %w", err)
			}
			if !secpath.Writable(resolved) {
				return fmt.Errorf("validator: trust.web3.tx_outbox_dir: %s is not writable", resolved)
			}
		}
	}

	return assertIntegrity(repo, c)
}

func assertIntegrity(repo *config.Repository, c *checker) error {
	rootDir, err := repo.RequireString("trust.integrity.root_dir")
	if err != nil {
		return fmt.Errorf("validator: trust.integrity.root_dir is required with an active trust kernel: %w", err)
	}
	if !filepath.IsAbs(rootDir) {
		return fmt.Errorf("validator: trust.integrity.root_dir must be absolute, got %q", rootDir)
	}
	manifest, err := repo.RequireString("trust.integrity.manifest")
	if err != nil {
		return fmt.Errorf("validator: trust.integrity.manifest is required with an active trust kernel: %w", err)
	}
	if !filepath.IsAbs(manifest) {
		return fmt.Errorf("validator: trust.integrity.manifest must be absolute, got %q", manifest)
	}
	if !c.skipFS {
		if err := secpath.AssertSecureDir(rootDir, secpath.IntegrityRootDir(), c.secOpts...); err != nil {
			return fmt.Errorf("validator: trust.integrity.root_dir: %w", err)
		}
		if err := secpath.AssertSecureReadableFile(manifest, secpath.IntegrityManifestFile(), c.secOpts...); err != nil {
			return fmt.Errorf("validator: trust.integrity.manifest: %w", err)
		}
	}
	return nil
}

// checkRPCEndpoint accepts https anywhere and plain http only toward
// loopback hosts (local nodes and tests).
func checkRPCEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		if u.Host == "" {
			return fmt.Errorf("missing host in %q", raw)
		}
		return nil
	case "http":
		host := u.Hostname()
		if host == "localhost" {
			return nil
		}
		if addr, err := netip.ParseAddr(host); err == nil && addr.IsLoopback() {
			return nil
		}
		return fmt.Errorf("http endpoints are restricted to loopback hosts, got %q", host)
	default:
		return fmt.Errorf("scheme %q is not allowed (use https, or http to loopback)", u.Scheme)
	}
}

func checkEVMAddress(addr string) error {
	if !evmAddrRe.MatchString(addr) {
		return fmt.Errorf("not an EVM address: %q", addr)
	}
	if strings.Trim(addr[2:], "0") == "" {
		return fmt.Errorf("zero address is not a valid contract")
	}
	return nil
}

// stringList reads an optional list-of-strings key; a missing key yields nil.
func stringList(repo *config.Repository, key string) ([]string, error) {
	v, ok := repo.Lookup(key)
	if !ok {
		return nil, nil
	}
	arr, err := v.AsArray()
	if err != nil {
		return nil, fmt.Errorf("validator: %s: %w", key, err)
	}
	out := make([]string, len(arr))
	for i, el := range arr {
		s, err := el.AsString()
		if err != nil {
			return nil, fmt.Errorf("validator: %s[%d]: %w", key, i, err)
		}
		out[i] = s
	}
	return out, nil
}
