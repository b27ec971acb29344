package secpath

import (
	"errors"
	"io/fs"
)

// AssertSecureDir enforces a DirPolicy on path. Mirrors the file checks,
// adding the world-execute bit (directory traversal needs +x) and dropping
// the size cap.
func AssertSecureDir(path string, p DirPolicy, opts ...Option) error {
	c := newChecker(opts)

	if err := ScreenPath(path); err != nil {
		return err
	}

	info, err := c.ins.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return violation(path, 0, p.Name, "directory does not exist")
		}
		return violation(path, 0, p.Name, "cannot stat directory: "+err.Error())
	}
	if !p.AllowSymlinks && info.Mode()&fs.ModeSymlink != 0 {
		return violation(path, 0, p.Name, "directory is a symlink")
	}

	st, err := c.ins.Stat(path)
	if err != nil {
		return violation(path, 0, p.Name, "cannot stat directory target: "+err.Error())
	}
	if !st.IsDir() {
		return violation(path, st.Mode(), p.Name, "not a directory")
	}
	if !c.ins.Readable(path) {
		return violation(path, st.Mode(), p.Name, "directory is not readable")
	}

	if !p.AllowSymlinks {
		if err := c.assertNoAncestorSymlink(path, p.Name); err != nil {
			return err
		}
	}

	if permissionBitsMeaningful() {
		mode := st.Mode()
		if !p.AllowWorldWritable && mode.Perm()&0o002 != 0 {
			return violation(path, mode, p.Name, "directory is world-writable")
		}
		if !p.AllowGroupWritable && mode.Perm()&0o020 != 0 {
			return violation(path, mode, p.Name, "directory is group-writable")
		}
		if !p.AllowWorldReadable && mode.Perm()&0o004 != 0 {
			return violation(path, mode, p.Name, "directory is world-readable")
		}
		if !p.AllowWorldExecutable && mode.Perm()&0o001 != 0 {
			return violation(path, mode, p.Name, "directory is world-executable")
		}

		if p.EnforceOwner {
			if err := c.assertOwner(path, st, p.Name); err != nil {
				return err
			}
		}
	}

	return c.assertAncestorsNotWritable(path, p.Name, p.CheckParentDirs)
}
