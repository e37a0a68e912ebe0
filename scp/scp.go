// scp.go - recursive parallel upload over pooled SFTP
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

// Package scp uploads one or more local trees to a remote host over
// a bounded pool of SFTP channels, pre-order strict: a remote
// directory always exists before anything is uploaded into it.
package scp

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/opencoff/go-ptree"
)

type scpopt struct {
	workers  int
	progress *ptree.Progress
	lock     *sync.Mutex
	out      io.Writer
}

func defaultOpts() scpopt {
	return scpopt{
		workers: 64,
		lock:    &sync.Mutex{},
		out:     os.Stdout,
	}
}

// Option captures the various options for uploading trees.
type Option func(o *scpopt)

// WithWorkers bounds the number of concurrent uploads; the pool size
// bounds it anyway
func WithWorkers(n int) Option {
	return func(o *scpopt) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithProgress uses caller supplied progress state instead of a
// fresh one
func WithProgress(p *ptree.Progress) Option {
	return func(o *scpopt) {
		o.progress = p
	}
}

// WithOutput redirects warnings (and the progress line) to 'w'
func WithOutput(w io.Writer) Option {
	return func(o *scpopt) {
		o.out = w
	}
}

// Tree uploads every entry under each of 'srcs' into the remote
// directory 'dst', as children (dst/<base(src)>/...). Remote faults
// warn and the upload proceeds.
func Tree(pool *Pool, dst string, srcs []string, opts ...Option) error {
	opt := defaultOpts()
	for _, fp := range opts {
		fp(&opt)
	}
	if opt.workers > pool.Size() {
		opt.workers = pool.Size()
	}

	u := &uploader{scpopt: opt, pool: pool, dst: dst}
	if u.progress == nil {
		u.progress = ptree.NewProgress()
	}
	u.progress.SetOutput(u.out)

	return ptree.Traverse(srcs, u.dirOp, u.fileOp, &ptree.Options{
		Order:     ptree.PreOrder,
		Strict:    true,
		Workers:   u.workers,
		Progress:  u.progress,
		PrintLock: u.lock,
	})
}

type uploader struct {
	scpopt

	pool *Pool
	dst  string
}

// remote paths always use forward slashes
func (u *uploader) destPath(src, root string) string {
	rel, err := filepath.Rel(root, src)
	if err != nil {
		rel = filepath.Base(src)
	}

	d := path.Join(u.dst, filepath.Base(root))
	if rel == "." {
		return d
	}
	return path.Join(d, filepath.ToSlash(rel))
}

// mkdir remote with the source's mode; an already existing remote
// dir is fine
func (u *uploader) dirOp(src, root string) error {
	dest := u.destPath(src, root)

	fi, err := os.Stat(src)
	if err != nil {
		u.warnf("Warning: %s: %s", src, err)
		return nil
	}

	cl := u.pool.Get()
	defer u.pool.Put(cl)

	if err := cl.Mkdir(dest); err != nil {
		if ri, serr := cl.Stat(dest); serr != nil || !ri.IsDir() {
			u.warnf("Warning: %s: %s", dest, err)
			return nil
		}
	}
	if err := cl.Chmod(dest, fi.Mode().Perm()); err != nil {
		u.warnf("Warning: %s: %s", dest, err)
	}
	return nil
}

// stream one local file into the remote
func (u *uploader) fileOp(src, root string) error {
	k := ptree.Classify(src)
	if k != ptree.File {
		u.warnf("Warning: Skipped %s: not a regular file (%s)", src, k)
		return nil
	}

	dest := u.destPath(src, root)

	s, err := os.Open(src)
	if err != nil {
		u.warnf("Warning: %s: %s", src, err)
		return nil
	}
	defer s.Close()

	fi, err := s.Stat()
	if err != nil {
		u.warnf("Warning: %s: %s", src, err)
		return nil
	}

	cl := u.pool.Get()
	defer u.pool.Put(cl)

	d, err := cl.Create(dest)
	if err != nil {
		u.warnf("Warning: %s: %s", dest, err)
		return nil
	}

	_, err = io.Copy(d, s)
	if cerr := d.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		u.warnf("Warning: %s: %s", dest, err)
		return nil
	}

	if err := cl.Chmod(dest, fi.Mode().Perm()); err != nil {
		u.warnf("Warning: %s: %s", dest, err)
	}
	return nil
}

func (u *uploader) warnf(format string, args ...any) {
	u.lock.Lock()
	fmt.Fprintf(u.out, "\r"+format+"\n", args...)
	u.lock.Unlock()
}

// Error represents the errors returned by Dial
type Error struct {
	Op   string
	Name string
	Err  error
}

// Error returns a string representation of an scp Error
func (e *Error) Error() string {
	return fmt.Sprintf("scp: %s '%s': %s", e.Op, e.Name, e.Err.Error())
}

// Unwrap returns the underlying wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

var _ error = &Error{}
