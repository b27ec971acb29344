package secpath

import (
	"io/fs"
	"path/filepath"
	"sort"
	"time"
)

// FakeInspector is a deterministic in-memory Inspector for tests. Entries
// are registered per absolute path; lookups never touch the real filesystem.
type FakeInspector struct {
	entries map[string]*FakeEntry
	euid    int
	euidOK  bool
}

// FakeEntry describes one fake filesystem object.
type FakeEntry struct {
	Mode     fs.FileMode // include fs.ModeDir / fs.ModeSymlink / fs.ModeSticky as needed
	Size     int64
	UID      int
	Target   string // symlink target, informational only
	Unread   bool   // force Readable() == false
	NoOwner  bool   // force OwnerUID ok=false
	linkDest *FakeEntry
}

// NewFakeInspector returns a fake with the given effective uid.
func NewFakeInspector(euid int) *FakeInspector {
	return &FakeInspector{
		entries: map[string]*FakeEntry{},
		euid:    euid,
		euidOK:  true,
	}
}

// WithoutIdentity makes EffectiveUID report ok=false (non-POSIX platform).
func (f *FakeInspector) WithoutIdentity() *FakeInspector {
	f.euidOK = false
	return f
}

// AddDir registers a directory.
func (f *FakeInspector) AddDir(path string, perm fs.FileMode, uid int) *FakeInspector {
	f.entries[filepath.Clean(path)] = &FakeEntry{Mode: fs.ModeDir | perm, UID: uid}
	return f
}

// AddFile registers a regular file.
func (f *FakeInspector) AddFile(path string, perm fs.FileMode, uid int, size int64) *FakeInspector {
	f.entries[filepath.Clean(path)] = &FakeEntry{Mode: perm, UID: uid, Size: size}
	return f
}

// AddSymlink registers a symlink; Stat resolves to target's entry if present.
func (f *FakeInspector) AddSymlink(path, target string) *FakeInspector {
	e := &FakeEntry{Mode: fs.ModeSymlink | 0o777, Target: target}
	if dest, ok := f.entries[filepath.Clean(target)]; ok {
		e.linkDest = dest
	}
	f.entries[filepath.Clean(path)] = e
	return f
}

// Add registers an arbitrary entry.
func (f *FakeInspector) Add(path string, e FakeEntry) *FakeInspector {
	f.entries[filepath.Clean(path)] = &e
	return f
}

func (f *FakeInspector) lookup(path string) (*FakeEntry, error) {
	if e, ok := f.entries[filepath.Clean(path)]; ok {
		return e, nil
	}
	return nil, fs.ErrNotExist
}

// Lstat implements Inspector.
func (f *FakeInspector) Lstat(path string) (fs.FileInfo, error) {
	e, err := f.lookup(path)
	if err != nil {
		return nil, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}
	return fakeInfo{name: filepath.Base(path), entry: e}, nil
}

// Stat implements Inspector; symlinks resolve to their registered target.
func (f *FakeInspector) Stat(path string) (fs.FileInfo, error) {
	e, err := f.lookup(path)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	if e.Mode&fs.ModeSymlink != 0 {
		if e.linkDest == nil {
			if dest, ok := f.entries[filepath.Clean(e.Target)]; ok {
				e.linkDest = dest
			} else {
				return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
			}
		}
		return fakeInfo{name: filepath.Base(path), entry: e.linkDest}, nil
	}
	return fakeInfo{name: filepath.Base(path), entry: e}, nil
}

// Readable implements Inspector.
func (f *FakeInspector) Readable(path string) bool {
	e, err := f.lookup(path)
	if err != nil {
		return false
	}
	return !e.Unread
}

// OwnerUID implements Inspector.
func (f *FakeInspector) OwnerUID(info fs.FileInfo) (int, bool) {
	fi, ok := info.(fakeInfo)
	if !ok || fi.entry.NoOwner {
		return 0, false
	}
	return fi.entry.UID, true
}

// EffectiveUID implements Inspector.
func (f *FakeInspector) EffectiveUID() (int, bool) {
	return f.euid, f.euidOK
}

// Paths lists registered paths, sorted, for test diagnostics.
func (f *FakeInspector) Paths() []string {
	out := make([]string, 0, len(f.entries))
	for p := range f.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type fakeInfo struct {
	name  string
	entry *FakeEntry
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return i.entry.Size }
func (i fakeInfo) Mode() fs.FileMode  { return i.entry.Mode }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.entry.Mode.IsDir() }
func (i fakeInfo) Sys() any           { return nil }

var _ Inspector = (*FakeInspector)(nil)
