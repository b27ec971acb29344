//go:build unix

package secpath

import "golang.org/x/sys/unix"

// Writable reports whether the current process may write inside path.
// access(2) respects effective uid/gid, which matches how the installer
// will actually behave.
func Writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
