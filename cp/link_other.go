// link_other.go - link recreation on non-NT platforms
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

//go:build !windows

package cp

import (
	"os"

	"github.com/opencoff/go-ptree"
)

// junctions and WSL symlinks only classify on NT; here everything
// link-shaped is a plain symlink
func readTarget(_ ptree.EntryKind, src string) (string, error) {
	return os.Readlink(src)
}

func (c *copier) makeLink(_ ptree.EntryKind, target, src, dest string) {
	os.Remove(dest)
	if err := os.Symlink(target, dest); err != nil {
		c.warnf("Warning: Skipped %s: %s", src, err)
		return
	}
	if err := ptree.CloneMetadata(dest, src); err != nil {
		c.warnf("Warning: %s: %s", dest, err)
	}
}
