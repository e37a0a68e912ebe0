// traverse_test.go - test harness for the traversal scheduler
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

package ptree

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recorder notes, for every op invocation, a start and end sequence
// number from a global counter; the counter imposes a total order
// consistent with real time, so happens-before assertions are exact.
type recorder struct {
	mu  sync.Mutex
	ev  map[string][2]int64
	ctr *atomic.Int64
}

func newRecorder(ctr *atomic.Int64) *recorder {
	return &recorder{
		ev:  make(map[string][2]int64),
		ctr: ctr,
	}
}

func (r *recorder) fn(delay time.Duration) Func {
	return func(path, _ string) error {
		s := r.ctr.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		e := r.ctr.Add(1)

		r.mu.Lock()
		if _, dup := r.ev[path]; dup {
			r.mu.Unlock()
			return fmt.Errorf("%s: visited twice", path)
		}
		r.ev[path] = [2]int64{s, e}
		r.mu.Unlock()
		return nil
	}
}

func (r *recorder) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ev[path]
	return ok
}

func quietProgress() *Progress {
	p := NewProgress()
	p.SetOutput(io.Discard)
	p.SetWidth(80)
	return p
}

// a small tree with 4 dirs and 4 files
func mkWalkTree(t *testing.T) string {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	for _, nm := range []string{"a", "b/c", "b/d", "e/f/g"} {
		err := mkfile(tmpdir, nm)
		assert(err == nil, "mkfile %s: %s", nm, err)
	}
	return tmpdir
}

func runWalk(t *testing.T, root string, order Order, strict bool) (dirs, files *recorder, prog *Progress) {
	assert := newAsserter(t)

	var ctr atomic.Int64
	dirs = newRecorder(&ctr)
	files = newRecorder(&ctr)
	prog = quietProgress()

	err := Traverse([]string{root}, dirs.fn(time.Millisecond), files.fn(time.Millisecond),
		&Options{
			Order:    order,
			Strict:   strict,
			Workers:  8,
			Progress: prog,
		})
	assert(err == nil, "traverse: %s", err)
	return dirs, files, prog
}

func TestTraverseCompleteness(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := mkWalkTree(t)

	dirs, files, prog := runWalk(t, tmpdir, PreOrder, true)

	assert(len(dirs.ev) == 4, "dir ops: exp 4, saw %d", len(dirs.ev))
	assert(len(files.ev) == 4, "file ops: exp 4, saw %d", len(files.ev))
	assert(prog.Dirs() == 4, "dir count: exp 4, saw %d", prog.Dirs())
	assert(prog.Files() == 4, "file count: exp 4, saw %d", prog.Files())

	// every entry visited exactly once, by the right op
	for _, nm := range []string{"", "b", "e", "e/f"} {
		fp := filepath.Join(tmpdir, nm)
		assert(dirs.seen(fp), "dir %s not visited", fp)
	}
	for _, nm := range []string{"a", "b/c", "b/d", "e/f/g"} {
		fp := filepath.Join(tmpdir, nm)
		assert(files.seen(fp), "file %s not visited", fp)
	}
}

// every parent op completes before any child op starts
func TestTraversePreOrderStrict(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := mkWalkTree(t)

	dirs, files, _ := runWalk(t, tmpdir, PreOrder, true)

	all := merge(dirs, files)
	for nm, ev := range all {
		if nm == tmpdir {
			continue
		}
		pev, ok := all[filepath.Dir(nm)]
		assert(ok, "%s: no parent event", nm)
		assert(pev[1] < ev[0], "%s: parent end %d not before child start %d",
			nm, pev[1], ev[0])
	}
}

// every child op completes before its parent's op starts
func TestTraversePostOrderStrict(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := mkWalkTree(t)

	dirs, files, _ := runWalk(t, tmpdir, PostOrder, true)

	all := merge(dirs, files)
	for nm, ev := range all {
		if nm == tmpdir {
			continue
		}
		pev, ok := all[filepath.Dir(nm)]
		assert(ok, "%s: no parent event", nm)
		assert(ev[1] < pev[0], "%s: child end %d not before parent start %d",
			nm, ev[1], pev[0])
	}
}

func merge(a, b *recorder) map[string][2]int64 {
	m := make(map[string][2]int64, len(a.ev)+len(b.ev))
	for k, v := range a.ev {
		m[k] = v
	}
	for k, v := range b.ev {
		m[k] = v
	}
	return m
}

// relaxed ordering still visits everything exactly once
func TestTraverseNonStrict(t *testing.T) {
	assert := newAsserter(t)

	for _, order := range []Order{PreOrder, PostOrder} {
		tmpdir := mkWalkTree(t)
		dirs, files, prog := runWalk(t, tmpdir, order, false)
		assert(len(dirs.ev) == 4, "%s: dir ops: %d", order, len(dirs.ev))
		assert(len(files.ev) == 4, "%s: file ops: %d", order, len(files.ev))
		assert(prog.Files()+prog.Dirs() == 8, "%s: counters: %d", order,
			prog.Files()+prog.Dirs())
	}
}

// symlinks to directories go to the file op and are never descended
func TestTraverseNoDescendSymlink(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	err := mkfile(tmpdir, "root/real/x.txt")
	assert(err == nil, "mkfile: %s", err)

	// a link inside the root pointing at a sibling dir
	err = os.Symlink(filepath.Join(tmpdir, "root/real"),
		filepath.Join(tmpdir, "root/link"))
	assert(err == nil, "symlink: %s", err)

	// and one pointing outside the root entirely
	err = mkfile(tmpdir, "ext/secret")
	assert(err == nil, "mkfile: %s", err)
	err = os.Symlink(filepath.Join(tmpdir, "ext"),
		filepath.Join(tmpdir, "root/lext"))
	assert(err == nil, "symlink: %s", err)

	root := filepath.Join(tmpdir, "root")
	dirs, files, _ := runWalk(t, root, PreOrder, true)

	assert(files.seen(filepath.Join(root, "link")), "link not given to file op")
	assert(files.seen(filepath.Join(root, "lext")), "lext not given to file op")
	assert(!dirs.seen(filepath.Join(root, "link")), "link treated as dir")

	assert(!files.seen(filepath.Join(root, "link/x.txt")), "descended through link")
	assert(!files.seen(filepath.Join(tmpdir, "ext/secret")), "descended through lext")
	assert(len(dirs.ev) == 2, "dir ops: exp 2, saw %d", len(dirs.ev))
	assert(len(files.ev) == 3, "file ops: exp 3, saw %d", len(files.ev))
}

// an empty dir is exactly one dir op
func TestTraverseEmptyDir(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	dirs, files, prog := runWalk(t, tmpdir, PreOrder, true)
	assert(len(dirs.ev) == 1, "dir ops: %d", len(dirs.ev))
	assert(len(files.ev) == 0, "file ops: %d", len(files.ev))
	assert(prog.Dirs() == 1 && prog.Files() == 0,
		"counters: %d dirs %d files", prog.Dirs(), prog.Files())
}

// a non-directory root becomes a single file op
func TestTraverseNonDirRoot(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	err := mkfile(tmpdir, "solo")
	assert(err == nil, "mkfile: %s", err)

	fp := filepath.Join(tmpdir, "solo")
	dirs, files, prog := runWalk(t, fp, PreOrder, true)
	assert(len(dirs.ev) == 0, "dir ops: %d", len(dirs.ev))
	assert(files.seen(fp), "file root not visited")
	assert(prog.Files() == 1, "file count: %d", prog.Files())
}

func TestTraverseMissingRoot(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	var ctr atomic.Int64
	r := newRecorder(&ctr)
	err := Traverse([]string{filepath.Join(tmpdir, "nope")}, r.fn(0), r.fn(0),
		&Options{Progress: quietProgress()})
	assert(err != nil, "missing root accepted")
}

func TestTraverseMultipleRoots(t *testing.T) {
	assert := newAsserter(t)
	r1 := mkWalkTree(t)
	r2 := mkWalkTree(t)

	var ctr atomic.Int64
	dirs := newRecorder(&ctr)
	files := newRecorder(&ctr)
	err := Traverse([]string{r1, r2}, dirs.fn(0), files.fn(0), &Options{
		Order:    PreOrder,
		Strict:   true,
		Workers:  4,
		Progress: quietProgress(),
	})
	assert(err == nil, "traverse: %s", err)
	assert(len(dirs.ev) == 8, "dir ops: %d", len(dirs.ev))
	assert(len(files.ev) == 8, "file ops: %d", len(files.ev))
}

// an op error must terminate the process with a non-zero status
func TestTraverseFailFast(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	err := mkfile(tmpdir, "boom")
	assert(err == nil, "mkfile: %s", err)

	var code atomic.Int64
	oldExit := exit
	exit = func(c int) {
		code.Store(int64(c))
	}
	defer func() {
		exit = oldExit
	}()

	fail := func(path, _ string) error {
		return fmt.Errorf("synthetic failure")
	}
	ok := func(path, _ string) error {
		return nil
	}

	err = Traverse([]string{filepath.Join(tmpdir, "boom")}, ok, fail,
		&Options{Progress: quietProgress()})
	assert(err == nil, "traverse: %s", err)
	assert(code.Load() == 1, "exit code: %d", code.Load())
}

func TestNormRoot(t *testing.T) {
	assert := newAsserter(t)

	tests := [][2]string{
		{"/", "/"},
		{"///", "/"},
		{"a/b/", "a/b"},
		{"a/b", "a/b"},
		{"C:", "C:/"},
		{"x:", "x:/"},
		{"C:/", "C:/"}, // trim puts it back to a bare drive; re-rooted
		{"1:", "1:"},   // not a drive letter
		{"ab", "ab"},
	}
	for _, tx := range tests {
		saw := normRoot(tx[0])
		assert(saw == tx[1], "%q: exp %q, saw %q", tx[0], tx[1], saw)
	}
}
