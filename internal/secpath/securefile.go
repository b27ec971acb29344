package secpath

import (
	"errors"
	"fmt"
	"io/fs"
)

// AssertSecureReadableFile enforces a FilePolicy on path. Checks run in a
// fixed order and fail fast on the first violation; there is no partial or
// best-effort acceptance. The call is read-only.
func AssertSecureReadableFile(path string, p FilePolicy, opts ...Option) error {
	c := newChecker(opts)

	if err := ScreenPath(path); err != nil {
		return err
	}

	info, err := c.ins.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return violation(path, 0, p.Name, "file does not exist")
		}
		return violation(path, 0, p.Name, "cannot stat file: "+err.Error())
	}
	if !p.AllowSymlinks && info.Mode()&fs.ModeSymlink != 0 {
		return violation(path, 0, p.Name, "file is a symlink")
	}

	st, err := c.ins.Stat(path)
	if err != nil {
		return violation(path, 0, p.Name, "cannot stat file target: "+err.Error())
	}
	if !st.Mode().IsRegular() {
		return violation(path, st.Mode(), p.Name, "not a regular file")
	}
	if !c.ins.Readable(path) {
		return violation(path, st.Mode(), p.Name, "file is not readable")
	}

	if p.MaxBytes > 0 && st.Size() > p.MaxBytes {
		return violation(path, 0, p.Name, fmt.Sprintf("file size %d exceeds cap %d", st.Size(), p.MaxBytes))
	}

	if !p.AllowSymlinks {
		if err := c.assertNoAncestorSymlink(path, p.Name); err != nil {
			return err
		}
	}

	if permissionBitsMeaningful() {
		mode := st.Mode()
		if !p.AllowWorldWritable && mode.Perm()&0o002 != 0 {
			return violation(path, mode, p.Name, "file is world-writable")
		}
		if !p.AllowGroupWritable && mode.Perm()&0o020 != 0 {
			return violation(path, mode, p.Name, "file is group-writable")
		}
		if !p.AllowWorldReadable && mode.Perm()&0o004 != 0 {
			return violation(path, mode, p.Name, "file is world-readable")
		}

		if p.EnforceOwner {
			if err := c.assertOwner(path, st, p.Name); err != nil {
				return err
			}
		}
	}

	return c.assertAncestorsNotWritable(path, p.Name, p.CheckParentDirs)
}

// assertOwner rejects files planted by a different unprivileged user even
// when the permission bits look fine. root-owned files are always accepted.
func (c *checker) assertOwner(path string, info fs.FileInfo, policy string) error {
	uid, ok := c.ins.OwnerUID(info)
	if !ok {
		return nil
	}
	euid, ok := c.ins.EffectiveUID()
	if !ok {
		return nil
	}
	if uid != 0 && uid != euid {
		return violation(path, info.Mode(), policy, fmt.Sprintf("owned by uid %d, expected root or uid %d", uid, euid))
	}
	return nil
}
