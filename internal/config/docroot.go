package config

import (
	"os"
	"path/filepath"
	"strings"
)

// documentRootEnvKeys are the web-server-provided hints, in lookup order.
var documentRootEnvKeys = []string{"DOCUMENT_ROOT", "CONTEXT_DOCUMENT_ROOT"}

// DetectDocumentRoot returns the web document root the surrounding server
// advertises, or "" when none is configured. A config file holding secrets
// must never resolve inside it.
func DetectDocumentRoot() string {
	for _, key := range documentRootEnvKeys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// InsideDocumentRoot reports whether path resolves (after symlink
// resolution, when possible) under docRoot. Empty docRoot never matches.
func InsideDocumentRoot(path, docRoot string) bool {
	if docRoot == "" {
		return false
	}
	p := resolveBestEffort(path)
	root := resolveBestEffort(docRoot)
	if p == root {
		return true
	}
	return strings.HasPrefix(p, root+string(filepath.Separator))
}

// resolveBestEffort resolves symlinks when the path exists; otherwise it
// falls back to lexical cleaning so not-yet-created paths still compare.
func resolveBestEffort(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return filepath.Clean(resolved)
	}
	return filepath.Clean(path)
}
