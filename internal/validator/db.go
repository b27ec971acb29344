package validator

import (
	"fmt"
	"path/filepath"

	"github.com/cfgtrust/cfgtrust/internal/config"
)

// inlineCredentialKeys must not appear under db when a trust kernel is
// active: credentials flow through the secrets-agent boundary instead of
// the config file.
var inlineCredentialKeys = []string{"dsn", "password", "user", "username"}

// AssertDBConfig validates the db section. Without a trust kernel it is
// lenient (type checks only); with one, the agent socket becomes mandatory
// and inline credentials are forbidden.
func AssertDBConfig(repo *config.Repository, _ ...Option) error {
	if !repo.Has("db") {
		return nil
	}

	if repo.Has("db.port") {
		port, err := repo.RequireInt("db.port")
		if err != nil {
			return fmt.Errorf("validator: %w", err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("validator: db.port must be in [1, 65535], got %d", port)
		}
	}

	if !repo.Has("trust") {
		return nil
	}

	socket, err := repo.RequireString("db.agent.socket_path")
	if err != nil {
		return fmt.Errorf("validator: db.agent.socket_path is required with an active trust kernel: %w", err)
	}
	if !filepath.IsAbs(socket) {
		return fmt.Errorf("validator: db.agent.socket_path must be absolute, got %q", socket)
	}

	for _, key := range inlineCredentialKeys {
		if repo.Has("db." + key) {
			return fmt.Errorf("validator: db.%s is forbidden with an active trust kernel; route credentials through the secrets agent", key)
		}
	}
	return nil
}
