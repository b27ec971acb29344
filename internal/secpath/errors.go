package secpath

import (
	"fmt"
	"io/fs"
)

// SecurityError reports a path that failed policy. It carries the offending
// mode in octal and the policy name so an operator can fix permissions
// without guessing, but never file contents.
type SecurityError struct {
	Path   string
	Mode   fs.FileMode // zero when not applicable
	Policy string
	Reason string
}

func (e *SecurityError) Error() string {
	if e.Mode != 0 {
		return fmt.Sprintf("secpath: %s: %s (mode %04o, policy %s)", e.Reason, e.Path, OctalMode(e.Mode), e.Policy)
	}
	if e.Policy != "" {
		return fmt.Sprintf("secpath: %s: %s (policy %s)", e.Reason, e.Path, e.Policy)
	}
	return fmt.Sprintf("secpath: %s: %s", e.Reason, e.Path)
}

// OctalMode renders a mode the way ls/chmod users expect: permission bits
// plus the setuid/setgid/sticky extension digit.
func OctalMode(m fs.FileMode) uint32 {
	o := uint32(m.Perm())
	if m&fs.ModeSetuid != 0 {
		o |= 0o4000
	}
	if m&fs.ModeSetgid != 0 {
		o |= 0o2000
	}
	if m&fs.ModeSticky != 0 {
		o |= 0o1000
	}
	return o
}

func violation(path string, mode fs.FileMode, policy, reason string) *SecurityError {
	return &SecurityError{Path: path, Mode: mode, Policy: policy, Reason: reason}
}
