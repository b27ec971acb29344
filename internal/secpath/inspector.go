package secpath

import (
	"io/fs"
	"os"
	"runtime"
)

// Inspector abstracts the handful of OS facts the validators consume. The
// production implementation talks to the real filesystem; tests inject a
// deterministic fake instead of swapping process-level behavior.
type Inspector interface {
	Stat(path string) (fs.FileInfo, error)
	Lstat(path string) (fs.FileInfo, error)
	// Readable reports whether the current process can open path for reading.
	Readable(path string) bool
	// OwnerUID returns the owning uid for info, or ok=false when the
	// platform does not expose one.
	OwnerUID(info fs.FileInfo) (int, bool)
	// EffectiveUID returns the process euid, or ok=false on platforms
	// without POSIX identity semantics.
	EffectiveUID() (int, bool)
}

// OS returns the real-filesystem Inspector.
func OS() Inspector { return osInspector{} }

type osInspector struct{}

func (osInspector) Stat(path string) (fs.FileInfo, error)  { return os.Stat(path) }
func (osInspector) Lstat(path string) (fs.FileInfo, error) { return os.Lstat(path) }

func (osInspector) Readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func (osInspector) OwnerUID(info fs.FileInfo) (int, bool) {
	return ownerUID(info)
}

func (osInspector) EffectiveUID() (int, bool) {
	if runtime.GOOS == "windows" {
		return 0, false
	}
	return os.Geteuid(), true
}

// permissionBitsMeaningful reports whether POSIX permission/ownership
// semantics exist on this platform. When false the bit and owner checks are
// skipped entirely; structural, symlink, and size checks still run. This is
// a documented fallback, not a silent success path.
func permissionBitsMeaningful() bool {
	return runtime.GOOS != "windows"
}
