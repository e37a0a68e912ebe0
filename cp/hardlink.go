// hardlink.go -- tracking & cloning hardlinks
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
	"fmt"

	"github.com/opencoff/go-ptree"
	"github.com/puzpuzpuz/xsync/v3"
)

// We track hardlinked files using the src file's inode identity.
// The first worker to see an identity copies the bytes and records
// the destination it wrote in 'm'. Every later worker records its
// own destination against that first one in 'links'; those links are
// created after the traversal, when the first copy is guaranteed to
// exist. The lookup+insert is a single LoadOrStore so two workers
// can never both claim "first".

type hardlinker struct {
	// src (dev:rdev:ino) -> first destination written for it
	m *xsync.MapOf[string, string]

	// later destinations -> the first destination
	links *xsync.MapOf[string, string]
}

func newHardlinker() *hardlinker {
	return &hardlinker{
		m:     xsync.NewMapOf[string, string](),
		links: xsync.NewMapOf[string, string](),
	}
}

func key(fi *ptree.Info) string {
	return fmt.Sprintf("%d:%d:%d", fi.Dev, fi.Rdev, fi.Ino)
}

// track returns false for the first occurrence of an inode identity;
// the caller copies the file. Later occurrences are remembered for
// hardlinks() and get true back: nothing to copy now.
func (h *hardlinker) track(src *ptree.Info, dst string) bool {
	if src.Nlink <= 1 || !src.IsRegular() {
		return false
	}

	orig, loaded := h.m.LoadOrStore(key(src), dst)
	if !loaded {
		return false
	}

	h.links.Store(dst, orig)
	return true
}

// hardlinks hands every deferred (dst, orig) pair to fp
func (h *hardlinker) hardlinks(fp func(dst, orig string)) {
	h.links.Range(func(dst, orig string) bool {
		fp(dst, orig)
		return true
	})
}
