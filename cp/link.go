// link.go - recreating symlinks, junctions and WSL symlinks
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

package cp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/opencoff/go-ptree"
)

// copyLink recreates a link entry on the destination. Absolute
// targets that don't exist are retried against the destination
// volume before being declared broken.
func (c *copier) copyLink(k ptree.EntryKind, src, dest string) {
	target, err := readTarget(k, src)
	if err != nil {
		c.warnf("Warning: Skipped %s: %s", src, err)
		return
	}

	if strings.HasPrefix(target, `\\?\Volume{`) {
		c.warnf("Warning: Skipped %s: Volume mount point", src)
		return
	}
	target = strings.TrimPrefix(target, `\\?\`)
	target = strings.TrimPrefix(target, `\??\`)

	if filepath.IsAbs(target) {
		if _, err := os.Lstat(target); err != nil {
			nt, ok := c.retarget(target, dest)
			if !ok {
				c.warnf("Warning: Skipped %s: Broken link", src)
				return
			}
			target = nt
		}
	}

	c.makeLink(k, target, src, dest)
}

// an absolute target that is missing on this volume may exist at the
// same volume-relative path on the destination volume; if so, point
// the new link there (relative to the link's own directory, so the
// tree stays relocatable)
func (c *copier) retarget(target, dest string) (string, bool) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return "", false
	}

	rel, err := filepath.Rel(c.mnt.point(target), target)
	if err != nil {
		return "", false
	}

	cand := filepath.Join(c.mnt.point(absDest), rel)
	if _, err := os.Lstat(cand); err != nil {
		return "", false
	}

	if r, err := filepath.Rel(filepath.Dir(absDest), cand); err == nil {
		return r, true
	}
	return cand, true
}
