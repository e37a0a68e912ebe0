// cp.go - recursive parallel copy
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

// Package cp copies one or more file system trees into a destination
// using a pre-order strict traversal: a directory always exists on
// the destination before any of its entries are copied into it.
//
// Regular files are copied with the best primitive the platform
// offers; symlinks, junctions and WSL symlinks are recreated (with
// absolute targets rewritten onto the destination volume when the
// literal target is broken); hardlink groups stay hardlink groups.
// Per-entry faults print a warning and the copy proceeds.
package cp

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/opencoff/go-ptree"
)

type cpopt struct {
	workers  int
	progress *ptree.Progress
	lock     *sync.Mutex
	out      io.Writer
}

func defaultOpts() cpopt {
	return cpopt{
		workers: 256,
		lock:    &sync.Mutex{},
		out:     os.Stdout,
	}
}

// Option captures the various options for copying a tree.
type Option func(o *cpopt)

// WithWorkers bounds the number of concurrent copy operations
func WithWorkers(n int) Option {
	return func(o *cpopt) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithProgress uses caller supplied progress state instead of a
// fresh one
func WithProgress(p *ptree.Progress) Option {
	return func(o *cpopt) {
		o.progress = p
	}
}

// WithOutput redirects warnings (and the progress line) to 'w'
func WithOutput(w io.Writer) Option {
	return func(o *cpopt) {
		o.out = w
	}
}

// Tree copies every entry under each of 'srcs' into 'dst'. If 'dst'
// exists it must be a directory and each source is copied as a child
// of it (dst/<base(src)>/...). If 'dst' does not exist there must be
// exactly one source, which is copied under the new name; a single
// non-directory source degenerates to one file copy.
func Tree(dst string, srcs []string, opts ...Option) error {
	if len(srcs) == 0 {
		return nil
	}

	opt := defaultOpts()
	for _, fp := range opts {
		fp(&opt)
	}

	c := &copier{
		cpopt: opt,
		dst:   dst,
		links: newHardlinker(),
		mnt:   newMountCache(),
	}
	if c.progress == nil {
		c.progress = ptree.NewProgress()
	}
	c.progress.SetOutput(c.out)

	di, err := os.Lstat(dst)
	switch {
	case err == nil && di.IsDir():
		c.asChild = true

	case err == nil:
		return &Error{"copy", srcs[0], dst, fmt.Errorf("destination is not a directory")}

	default:
		if len(srcs) > 1 {
			return &Error{"copy", srcs[0], dst,
				fmt.Errorf("destination must be an existing directory when copying multiple sources")}
		}
		if ptree.Classify(srcs[0]) != ptree.Directory {
			// a single non-directory source; no traversal needed
			return c.copyOne(srcs[0], dst)
		}
	}

	err = ptree.Traverse(srcs, c.dirOp, c.fileOp, &ptree.Options{
		Order:     ptree.PreOrder,
		Strict:    true,
		Workers:   c.workers,
		Progress:  c.progress,
		PrintLock: c.lock,
	})
	if err != nil {
		return err
	}

	// every first copy of a hardlink group has landed by now;
	// recreate the rest of each group
	c.links.hardlinks(func(dst, orig string) {
		if err := os.Link(orig, dst); err != nil {
			c.warnf("Warning: %s: %s", dst, err)
		}
	})
	return nil
}

type copier struct {
	cpopt

	dst     string
	asChild bool

	links *hardlinker
	mnt   *mountCache
}

// map a source path to its location under the destination
func (c *copier) destPath(src, root string) string {
	rel, err := filepath.Rel(root, src)
	if err != nil {
		rel = filepath.Base(src)
	}

	d := c.dst
	if c.asChild {
		d = filepath.Join(d, filepath.Base(root))
	}
	if rel == "." {
		return d
	}
	return filepath.Join(d, rel)
}

// make the destination directory and clone its metadata. The parent
// is guaranteed to exist already (pre-order, strict).
func (c *copier) dirOp(src, root string) error {
	dest := c.destPath(src, root)

	if err := os.Mkdir(dest, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
		c.warnf("Warning: %s: %s", dest, err)
		return nil
	}
	if err := ptree.CloneMetadata(dest, src); err != nil {
		c.warnf("Warning: %s: %s", dest, err)
	}
	return nil
}

// copy one non-directory entry; links and specials are dispatched on
// their classification
func (c *copier) fileOp(src, root string) error {
	dest := c.destPath(src, root)

	k := ptree.Classify(src)
	switch {
	case k == ptree.Device || k == ptree.Unknown:
		c.warnf("Warning: Skipped %s: Non-regular file (device, named pipe, socket, etc.)", src)
		return nil

	case k.IsLink():
		c.copyLink(k, src, dest)
		return nil
	}

	return c.copyRegular(src, dest)
}

// single-entry copy for a non-directory source with a fresh dest name
func (c *copier) copyOne(src, dst string) error {
	k := ptree.Classify(src)
	switch {
	case k == ptree.Nonexistent:
		return &Error{"copy", src, dst, fs.ErrNotExist}

	case k == ptree.Device || k == ptree.Unknown:
		return &Error{"copy", src, dst, fmt.Errorf("non-regular file")}

	case k.IsLink():
		c.copyLink(k, src, dst)
		return nil
	}
	return c.copyRegular(src, dst)
}

// copy a regular file; the first member of a hardlink group is
// copied, later members become links to the first destination
func (c *copier) copyRegular(src, dest string) error {
	fi, err := ptree.Lstat(src)
	if err != nil {
		c.warnf("Warning: Skipped %s: %s", src, err)
		return nil
	}

	if fi.Nlink > 1 {
		if c.links.track(fi, dest) {
			// linked after the traversal, once the first copy exists
			c.warnf("Info: %s is copied as a hard link. This file has %d links.",
				src, fi.Nlink)
			return nil
		}
		c.warnf("Warning: %s is a hard-link. This file has %d links.", src, fi.Nlink)
	}

	if err := c.copyData(src, dest, fi); err != nil {
		c.warnf("Warning: %s: %s", src, err)
	}
	return nil
}

// copy bytes + metadata; a read-only destination is chmod'd away,
// unlinked and written once more
func (c *copier) copyData(src, dest string, fi *ptree.Info) error {
	err := ptree.CopyFile(dest, src, fi.Mode().Perm())
	if err != nil && errors.Is(err, fs.ErrPermission) {
		if _, serr := os.Lstat(dest); serr == nil {
			os.Chmod(dest, 0777)
			os.Remove(dest)
			err = ptree.CopyFile(dest, src, fi.Mode().Perm())
		}
	}
	if err != nil {
		return err
	}
	return ptree.UpdateMetadata(dest, fi)
}

func (c *copier) warnf(format string, args ...any) {
	c.lock.Lock()
	fmt.Fprintf(c.out, "\r"+format+"\n", args...)
	c.lock.Unlock()
}
