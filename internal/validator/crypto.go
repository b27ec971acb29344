package validator

import (
	"fmt"

	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/secpath"
)

// AssertCryptoConfig validates the crypto section. In agent mode (a secrets
// agent socket is configured) the keys directory may be deliberately
// unreadable by this process, so only structural screening applies to it.
func AssertCryptoConfig(repo *config.Repository, opts ...Option) error {
	if !repo.Has("crypto") {
		return nil
	}
	c := newChecker(opts)

	agentSocket, _ := repo.Get("crypto.agent.socket_path", "").(string)
	agentMode := agentSocket != ""

	if agentMode {
		if err := secpath.ScreenPath(agentSocket); err != nil {
			return fmt.Errorf("validator: crypto.agent.socket_path: %w", err)
		}
		if keysDir, ok := repo.Get("crypto.keys_dir", nil).(string); ok {
			if err := secpath.ScreenPath(keysDir); err != nil {
				return fmt.Errorf("validator: crypto.keys_dir: %w", err)
			}
		}
	} else {
		keysDir, err := repo.RequireString("crypto.keys_dir")
		if err != nil {
			return fmt.Errorf("validator: crypto.keys_dir is required without an agent socket: %w", err)
		}
		resolved, err := repo.ResolvePath(keysDir)
		if err != nil {
			return fmt.Errorf("validator: crypto.keys_dir: %w", err)
		}
		if !c.skipFS {
			if err := secpath.AssertSecureDir(resolved, secpath.SecretsDir(), c.secOpts...); err != nil {
				return fmt.Errorf("validator: crypto.keys_dir: %w", err)
			}
		}
	}

	if manifest, ok := repo.Get("crypto.manifest", nil).(string); ok {
		resolved, err := repo.ResolvePath(manifest)
		if err != nil {
			return fmt.Errorf("validator: crypto.manifest: %w", err)
		}
		if !c.skipFS {
			if err := secpath.AssertSecureReadableFile(resolved, secpath.PublicReadableFile(), c.secOpts...); err != nil {
				return fmt.Errorf("validator: crypto.manifest: %w", err)
			}
		}
	}
	return nil
}
