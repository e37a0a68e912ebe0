// rm.go - recursive parallel delete
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

// Package rm deletes one or more file system trees using a
// post-order strict traversal: a directory's op never runs before
// every entry inside it has been deleted. Read-only entries are
// chmod'd out of the way and retried; a deletion that still fails is
// fatal, after printing the processes holding the path open.
package rm

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/opencoff/go-ptree"
)

type rmopt struct {
	workers  int
	progress *ptree.Progress
	lock     *sync.Mutex
	out      io.Writer
}

func defaultOpts() rmopt {
	return rmopt{
		workers: 512,
		lock:    &sync.Mutex{},
		out:     os.Stdout,
	}
}

// Option captures the various options for deleting trees.
type Option func(o *rmopt)

// WithWorkers bounds the number of concurrent delete operations
func WithWorkers(n int) Option {
	return func(o *rmopt) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithProgress uses caller supplied progress state instead of a
// fresh one
func WithProgress(p *ptree.Progress) Option {
	return func(o *rmopt) {
		o.progress = p
	}
}

// WithOutput redirects diagnostics (and the progress line) to 'w'
func WithOutput(w io.Writer) Option {
	return func(o *rmopt) {
		o.out = w
	}
}

// Trees deletes every entry under each of 'paths', leaves first.
func Trees(paths []string, opts ...Option) error {
	opt := defaultOpts()
	for _, fp := range opts {
		fp(&opt)
	}

	d := &deleter{rmopt: opt}
	if d.progress == nil {
		d.progress = ptree.NewProgress()
	}
	d.progress.SetOutput(d.out)

	return ptree.Traverse(paths, d.dirOp, d.fileOp, &ptree.Options{
		Order:     ptree.PostOrder,
		Strict:    true,
		Workers:   d.workers,
		Progress:  d.progress,
		PrintLock: d.lock,
	})
}

type deleter struct {
	rmopt
}

// rmdir; on a permission error the dir is chmod'd 0777 and retried once
func (d *deleter) dirOp(nm, _ string) error {
	if err := d.remove(nm); err != nil {
		return d.diagnose(nm, err)
	}
	return nil
}

// unlink, with the same read-only override
func (d *deleter) fileOp(nm, _ string) error {
	if err := d.remove(nm); err != nil {
		return d.diagnose(nm, err)
	}
	return nil
}

func (d *deleter) remove(nm string) error {
	err := os.Remove(nm)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		os.Chmod(nm, 0777)
		err = os.Remove(nm)
	}
	return err
}

func (d *deleter) printf(format string, args ...any) {
	d.lock.Lock()
	fmt.Fprintf(d.out, "\r"+format+"\n", args...)
	d.lock.Unlock()
}
