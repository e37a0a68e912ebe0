// link_windows.go - link recreation on NT
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

//go:build windows

package cp

import (
	"os"
	"path/filepath"

	"github.com/opencoff/go-ptree"
)

// junction targets come out of the reparse payload (readlink mangles
// them on some Go versions); WSL link targets only exist there
func readTarget(k ptree.EntryKind, src string) (string, error) {
	if k == ptree.Junction || k == ptree.WslSymlink {
		ri, err := ptree.GetReparseInfo(src)
		if err != nil {
			return "", err
		}
		return ri.Target(), nil
	}
	return os.Readlink(src)
}

// Creating a symlink needs a privilege most processes don't have;
// creating a junction doesn't, but junctions can only point at
// directories. So: symlink first, junction as the directory
// fallback, skip with a warning otherwise.
func (c *copier) makeLink(k ptree.EntryKind, target, src, dest string) {
	if k == ptree.Junction {
		if err := createJunction(dest, c.junctionTarget(target, dest)); err != nil {
			c.warnf("Warning: Skipped %s: Broken link", src)
		}
		return
	}

	if k == ptree.WslSymlink {
		c.warnf("Warning: Treating as an ordinary symbolic link: %s: A symbolic link created in WSL", src)
	}

	if err := os.Symlink(target, dest); err == nil {
		return
	}

	td := c.junctionTarget(target, dest)
	if fi, err := os.Stat(td); err == nil && fi.IsDir() {
		if err := createJunction(dest, td); err != nil {
			c.warnf("Warning: Skipped %s: Broken link", src)
			return
		}
		c.warnf("Warning: Copied as a junction %s: No rights to create a symbolic link", src)
		return
	}

	c.warnf("Warning: Skipped %s: No rights to create a symbolic link (to a file)", src)
}

// junctions store absolute targets; resolve a relative one against
// the link's directory
func (c *copier) junctionTarget(target, dest string) string {
	if filepath.IsAbs(target) {
		return target
	}
	return filepath.Join(filepath.Dir(dest), target)
}
