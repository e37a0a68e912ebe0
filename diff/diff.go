// diff.go - recursive parallel tree compare
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

// Package diff compares two directory trees structurally and by
// content; metadata is ignored. Differences are reported as they are
// found, one CR-led line each, so the report interleaves cleanly
// with the progress line.
package diff

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/opencoff/go-ptree"
)

// compare file contents in chunks of this size
const _chunkSize = 128 * 1024

type dfopt struct {
	workers  int
	progress *ptree.Progress
	lock     *sync.Mutex
	out      io.Writer
}

func defaultOpts() dfopt {
	return dfopt{
		workers: 512,
		lock:    &sync.Mutex{},
		out:     os.Stdout,
	}
}

// Option captures the various options for comparing trees.
type Option func(o *dfopt)

// WithWorkers bounds the number of concurrent compare operations
func WithWorkers(n int) Option {
	return func(o *dfopt) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithProgress uses caller supplied progress state instead of a
// fresh one
func WithProgress(p *ptree.Progress) Option {
	return func(o *dfopt) {
		o.progress = p
	}
}

// WithOutput redirects the report (and the progress line) to 'w'
func WithOutput(w io.Writer) Option {
	return func(o *dfopt) {
		o.out = w
	}
}

// Tree compares the tree rooted at 'src' against 'dst' and reports
// every difference: entries missing or changed on the 'dst' side,
// and entries that exist only there.
func Tree(src, dst string, opts ...Option) error {
	opt := defaultOpts()
	for _, fp := range opts {
		fp(&opt)
	}

	for _, nm := range []string{src, dst} {
		fi, err := os.Stat(nm)
		if err != nil {
			return &Error{"diff", nm, err}
		}
		if !fi.IsDir() {
			return &Error{"diff", nm, fmt.Errorf("not a directory")}
		}
	}

	d := &differ{dfopt: opt, dst: dst}
	if d.progress == nil {
		d.progress = ptree.NewProgress()
	}
	d.progress.SetOutput(d.out)

	return ptree.Traverse([]string{src}, d.dirOp, d.fileOp, &ptree.Options{
		Order:     ptree.PostOrder,
		Strict:    false,
		Workers:   d.workers,
		Progress:  d.progress,
		PrintLock: d.lock,
	})
}

type differ struct {
	dfopt

	dst string
}

func (d *differ) destPath(src, root string) string {
	rel, err := filepath.Rel(root, src)
	if err != nil || rel == "." {
		return d.dst
	}
	return filepath.Join(d.dst, rel)
}

// compare a directory: existence, type, and direct children that
// exist only on the right side
func (d *differ) dirOp(src, root string) error {
	dest := d.destPath(src, root)

	di, err := os.Stat(dest)
	switch {
	case err != nil:
		d.reportf("DELETED Dir: %s -> x", src)
		return nil

	case !di.IsDir():
		d.reportf("PROPERTY CHANGED [DIR]%s -> [FILE]%s", src, dest)
		return nil
	}

	snames, err := readNames(src)
	if err != nil {
		d.reportf("Warning: %s: %s", src, err)
		return nil
	}
	dnames, err := readNames(dest)
	if err != nil {
		d.reportf("Warning: %s: %s", dest, err)
		return nil
	}

	for nm := range dnames {
		if _, ok := snames[nm]; ok {
			continue
		}
		child := filepath.Join(dest, nm)
		if ptree.Classify(child) == ptree.Directory {
			d.reportf("CREATED Dir: x -> %s", child)
		} else {
			d.reportf("CREATED File: x -> %s", child)
		}
	}
	return nil
}

// compare a file: existence, type, size, then content
func (d *differ) fileOp(src, root string) error {
	dest := d.destPath(src, root)

	di, err := os.Stat(dest)
	switch {
	case err != nil:
		d.reportf("DELETED File: %s -> x", src)
		return nil

	case di.IsDir():
		d.reportf("PROPERTY CHANGED [FILE]%s -> [DIR]%s", src, dest)
		return nil
	}

	si, err := os.Stat(src)
	if err != nil {
		// a link whose target is gone has nothing to compare
		return nil
	}

	if si.Size() != di.Size() {
		d.reportf("SIZE CHANGED File: %s[%d] -> %s[%d]", src, si.Size(), dest, di.Size())
		return nil
	}

	same, err := sameContent(src, dest)
	if err != nil {
		d.reportf("Warning: %s: %s", src, err)
		return nil
	}
	if !same {
		d.reportf("CONTENT CHANGED File: %s -> %s", src, dest)
	}
	return nil
}

// stream both files and stop at the first differing chunk
func sameContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	ba := make([]byte, _chunkSize)
	bb := make([]byte, _chunkSize)
	for {
		na, ea := io.ReadFull(fa, ba)
		nb, eb := io.ReadFull(fb, bb)
		if na != nb || !bytes.Equal(ba[:na], bb[:nb]) {
			return false, nil
		}
		if ea != nil || eb != nil {
			if isEOF(ea) && isEOF(eb) {
				return true, nil
			}
			if !isEOF(ea) {
				return false, ea
			}
			return false, eb
		}
	}
}

func isEOF(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF || err == nil
}

func readNames(nm string) (map[string]bool, error) {
	ents, err := os.ReadDir(nm)
	if err != nil {
		return nil, err
	}
	m := make(map[string]bool, len(ents))
	for _, e := range ents {
		m[e.Name()] = true
	}
	return m, nil
}

func (d *differ) reportf(format string, args ...any) {
	d.lock.Lock()
	fmt.Fprintf(d.out, "\r"+format+"\n", args...)
	d.lock.Unlock()
}

// Error represents the errors returned by Tree
type Error struct {
	Op   string
	Name string
	Err  error
}

// Error returns a string representation of a diff Error
func (e *Error) Error() string {
	return fmt.Sprintf("diff: %s '%s': %s", e.Op, e.Name, e.Err.Error())
}

// Unwrap returns the underlying wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

var _ error = &Error{}
