// mount.go - locate and cache mount points
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
	"path/filepath"

	"github.com/opencoff/go-ptree"
	"github.com/puzpuzpuz/xsync/v3"
)

// mountCache memoizes path -> mount point; link retargeting asks for
// the same handful of volumes over and over from many workers
type mountCache struct {
	m *xsync.MapOf[string, string]
}

func newMountCache() *mountCache {
	return &mountCache{
		m: xsync.NewMapOf[string, string](),
	}
}

func (mc *mountCache) point(nm string) string {
	abs, err := filepath.Abs(nm)
	if err != nil {
		abs = nm
	}

	if v, ok := mc.m.Load(abs); ok {
		return v
	}

	mp := mountPoint(abs)
	mc.m.Store(abs, mp)
	return mp
}

// walk up until the device id changes; that dir is the mount point.
// The path itself may not exist (broken link targets); the walk just
// continues from the first ancestor that does.
func mountPoint(abs string) string {
	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}

	fi, err := ptree.Lstat(abs)
	if err != nil {
		return mountPoint(parent)
	}

	pfi, err := ptree.Lstat(parent)
	if err != nil {
		return abs
	}

	if fi.Dev != pfi.Dev {
		return abs
	}
	return mountPoint(parent)
}
