// diff_test.go - test harness for the tree-diff consumer
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

package diff

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencoff/go-ptree"
)

func runDiff(t *testing.T, src, dst string) string {
	assert := newAsserter(t)

	var buf bytes.Buffer
	p := ptree.NewProgress()
	p.SetWidth(80)

	err := Tree(src, dst, WithOutput(&buf), WithProgress(p), WithWorkers(8))
	assert(err == nil, "diff: %s", err)
	return buf.String()
}

func hasReport(out string) bool {
	for _, marker := range []string{"DELETED", "CREATED", "CHANGED"} {
		if strings.Contains(out, marker) {
			return true
		}
	}
	return false
}

func TestDiffIdentical(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	src := filepath.Join(tmpdir, "src")
	dst := filepath.Join(tmpdir, "dst")
	for _, r := range []string{src, dst} {
		err := mkfilex(filepath.Join(r, "a/b.txt"), []byte("same"))
		assert(err == nil, "mkfile: %s", err)
		err = mkfilex(filepath.Join(r, "top.txt"), []byte("same too"))
		assert(err == nil, "mkfile: %s", err)
	}

	out := runDiff(t, src, dst)
	assert(!hasReport(out), "identical trees differ: %q", out)
}

func TestDiffDeleted(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	src := filepath.Join(tmpdir, "src")
	dst := filepath.Join(tmpdir, "dst")
	err := mkfilex(filepath.Join(src, "gone.txt"), []byte("x"))
	assert(err == nil, "mkfile: %s", err)
	err = mkfilex(filepath.Join(src, "sub/below.txt"), []byte("y"))
	assert(err == nil, "mkfile: %s", err)
	err = os.MkdirAll(dst, 0755)
	assert(err == nil, "mkdir: %s", err)

	out := runDiff(t, src, dst)
	assert(strings.Contains(out, "DELETED File: "+filepath.Join(src, "gone.txt")),
		"missing file not reported: %q", out)
	assert(strings.Contains(out, "DELETED Dir: "+filepath.Join(src, "sub")),
		"missing dir not reported: %q", out)
}

func TestDiffCreated(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	src := filepath.Join(tmpdir, "src")
	dst := filepath.Join(tmpdir, "dst")
	err := os.MkdirAll(src, 0755)
	assert(err == nil, "mkdir: %s", err)
	err = mkfilex(filepath.Join(dst, "fresh.txt"), []byte("x"))
	assert(err == nil, "mkfile: %s", err)
	err = os.MkdirAll(filepath.Join(dst, "newdir"), 0755)
	assert(err == nil, "mkdir: %s", err)

	out := runDiff(t, src, dst)
	assert(strings.Contains(out, "CREATED File: x -> "+filepath.Join(dst, "fresh.txt")),
		"extra file not reported: %q", out)
	assert(strings.Contains(out, "CREATED Dir: x -> "+filepath.Join(dst, "newdir")),
		"extra dir not reported: %q", out)
}

func TestDiffPropertyChanged(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	src := filepath.Join(tmpdir, "src")
	dst := filepath.Join(tmpdir, "dst")

	// a file on the left is a dir on the right
	err := mkfilex(filepath.Join(src, "thing"), []byte("x"))
	assert(err == nil, "mkfile: %s", err)
	err = os.MkdirAll(filepath.Join(dst, "thing"), 0755)
	assert(err == nil, "mkdir: %s", err)

	out := runDiff(t, src, dst)
	assert(strings.Contains(out, "PROPERTY CHANGED [FILE]"), "type flip not reported: %q", out)
}

func TestDiffSizeChanged(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	src := filepath.Join(tmpdir, "src")
	dst := filepath.Join(tmpdir, "dst")
	err := mkfilex(filepath.Join(src, "f"), []byte("123456"))
	assert(err == nil, "mkfile: %s", err)
	err = mkfilex(filepath.Join(dst, "f"), []byte("123"))
	assert(err == nil, "mkfile: %s", err)

	out := runDiff(t, src, dst)
	assert(strings.Contains(out, "SIZE CHANGED File: "), "size flip not reported: %q", out)
	assert(!strings.Contains(out, "CONTENT CHANGED"), "content reported after size: %q", out)
}

// equal-size files that differ inside the second compare chunk are
// reported exactly once
func TestDiffContentChangedDeep(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	src := filepath.Join(tmpdir, "src")
	dst := filepath.Join(tmpdir, "dst")

	a := make([]byte, 300000)
	for i := range a {
		a[i] = byte(i % 256)
	}
	b := make([]byte, len(a))
	copy(b, a)
	b[200000] ^= 0xff

	err := mkfilex(filepath.Join(src, "big"), a)
	assert(err == nil, "mkfile: %s", err)
	err = mkfilex(filepath.Join(dst, "big"), b)
	assert(err == nil, "mkfile: %s", err)

	out := runDiff(t, src, dst)
	n := strings.Count(out, "CONTENT CHANGED")
	assert(n == 1, "content change reported %d times: %q", n, out)
}

func TestDiffBadArgs(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	err := Tree(filepath.Join(tmpdir, "nope"), tmpdir)
	assert(err != nil, "missing src accepted")

	fp := filepath.Join(tmpdir, "file")
	err = mkfilex(fp, nil)
	assert(err == nil, "mkfile: %s", err)
	err = Tree(tmpdir, fp)
	assert(err != nil, "file dst accepted")
}

func TestSameContent(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()

	a := filepath.Join(tmpdir, "a")
	b := filepath.Join(tmpdir, "b")
	err := mkfilex(a, []byte("equal"))
	assert(err == nil, "mkfile: %s", err)
	err = mkfilex(b, []byte("equal"))
	assert(err == nil, "mkfile: %s", err)

	same, err := sameContent(a, b)
	assert(err == nil, "cmp: %s", err)
	assert(same, "equal files differ")

	err = mkfilex(b, []byte("eQual"))
	assert(err == nil, "mkfile: %s", err)
	same, err = sameContent(a, b)
	assert(err == nil, "cmp: %s", err)
	assert(!same, "different files equal")
}
