package secpath

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// ancestors returns the parent chain of path, nearest first: for
// /a/b/c/file it yields /a/b/c, /a/b, /a, /.
func ancestors(path string) []string {
	var out []string
	dir := filepath.Dir(filepath.Clean(path))
	for {
		out = append(out, dir)
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return out
}

// assertNoAncestorSymlink walks the parent chain and rejects any component
// that is itself a symlink. A trusted-looking absolute path must not be
// redirectable by swapping an upstream directory. The walk stops early at a
// jail boundary: inaccessible ancestors cannot be checked meaningfully.
func (c *checker) assertNoAncestorSymlink(path, policy string) error {
	for _, anc := range ancestors(path) {
		if c.jail.blocks(anc) {
			c.jail.note(anc)
			return nil
		}
		info, err := c.ins.Lstat(anc)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Parent vanished between checks; treat as hostile.
				return violation(anc, 0, policy, "ancestor directory does not exist")
			}
			return violation(anc, 0, policy, "cannot inspect ancestor directory: "+err.Error())
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return violation(anc, 0, policy, "ancestor directory is a symlink")
		}
	}
	return nil
}

// assertAncestorsNotWritable rejects group/world-writable ancestors. A
// sticky world-writable directory (/tmp-style, 01777) is the recognized
// safe pattern: only the owner can unlink or rename entries there. When
// full is false only the immediate parent is inspected.
func (c *checker) assertAncestorsNotWritable(path, policy string, full bool) error {
	if !permissionBitsMeaningful() {
		return nil
	}
	for i, anc := range ancestors(path) {
		if !full && i > 0 {
			break
		}
		if c.jail.blocks(anc) {
			c.jail.note(anc)
			return nil
		}
		info, err := c.ins.Stat(anc)
		if err != nil {
			return violation(anc, 0, policy, "cannot inspect ancestor directory: "+err.Error())
		}
		mode := info.Mode()
		if mode.Perm()&0o022 != 0 && mode&fs.ModeSticky == 0 {
			return violation(anc, mode, policy, "ancestor directory is group/world-writable without sticky bit")
		}
	}
	return nil
}

// AssertNoAncestorSymlink is the exported form used by the installer before
// it creates anything under a target directory.
func AssertNoAncestorSymlink(path string, opts ...Option) error {
	return newChecker(opts).assertNoAncestorSymlink(path, "")
}
