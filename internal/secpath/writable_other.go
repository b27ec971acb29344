//go:build !unix

package secpath

import "os"

// Writable probes by creating and removing a scratch file; platforms
// without access(2) semantics get the empirical answer.
func Writable(path string) bool {
	f, err := os.CreateTemp(path, ".cfgtrust-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
