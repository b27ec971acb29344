package secpath

import (
	"regexp"
	"strings"
)

// schemeRe matches stream-wrapper style prefixes (php://, file://, s3://...).
var schemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

// ScreenPath rejects structurally dangerous path strings before any
// filesystem access: empty paths, embedded NUL bytes (truncation attacks),
// wrapper scheme prefixes, and `..` traversal segments.
func ScreenPath(path string) error {
	if path == "" {
		return violation(path, 0, "", "empty path")
	}
	if strings.ContainsRune(path, 0) {
		return violation("(nul byte)", 0, "", "path contains NUL byte")
	}
	if schemeRe.MatchString(path) {
		return violation(path, 0, "", "path uses a stream-wrapper scheme")
	}
	for _, seg := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return violation(path, 0, "", "path contains a traversal segment")
		}
	}
	return nil
}
