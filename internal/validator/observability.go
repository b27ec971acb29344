package validator

import (
	"fmt"

	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/secpath"
)

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"pretty": true, "jsonl": true}
)

// AssertObservabilityConfig validates the observability section.
func AssertObservabilityConfig(repo *config.Repository, _ ...Option) error {
	if !repo.Has("observability") {
		return nil
	}

	if repo.Has("observability.log.level") {
		level, err := repo.RequireString("observability.log.level")
		if err != nil {
			return fmt.Errorf("validator: %w", err)
		}
		if !logLevels[level] {
			return fmt.Errorf("validator: observability.log.level %q is not one of debug/info/warn/error", level)
		}
	}

	if repo.Has("observability.log.format") {
		format, err := repo.RequireString("observability.log.format")
		if err != nil {
			return fmt.Errorf("validator: %w", err)
		}
		if !logFormats[format] {
			return fmt.Errorf("validator: observability.log.format %q is not one of pretty/jsonl", format)
		}
	}

	if receiptPath, ok := repo.Get("observability.receipt_path", nil).(string); ok {
		if err := secpath.ScreenPath(receiptPath); err != nil {
			return fmt.Errorf("validator: observability.receipt_path: %w", err)
		}
	}
	return nil
}
