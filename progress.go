// progress.go - shared traversal counters and in-place rendering
//
// Counters are bumped by many workers; the renderer reads them
// without synchronisation (stale reads are fine) and redraws a
// single CR-led line, at most once every 100ms.
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
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// redraw at most once per interval; a forced (final) line bypasses it
const _printInterval = 100 * time.Millisecond

const (
	_KiB = 1024.0
	_MiB = 1024.0 * _KiB
	_GiB = 1024.0 * _MiB
)

// Progress tracks completed entries and bytes across all workers of a
// traversal and renders them in place on the terminal.
type Progress struct {
	files atomic.Uint64
	dirs  atomic.Uint64
	bytes atomic.Uint64

	start     time.Time
	lastPrint atomic.Int64 // unix nanos of the last redraw

	lock  *sync.Mutex // optional; shared with consumer prints
	out   io.Writer
	width func() int
}

// NewProgress returns a Progress writing to stdout, started now.
func NewProgress() *Progress {
	return &Progress{
		start: time.Now(),
		out:   os.Stdout,
		width: termWidth,
	}
}

// SetLock makes every redraw take 'lk' so that progress lines don't
// interleave with other writers of the same stream.
func (p *Progress) SetLock(lk *sync.Mutex) {
	p.lock = lk
}

// SetOutput redirects rendering to 'w'
func (p *Progress) SetOutput(w io.Writer) {
	p.out = w
}

// SetWidth overrides the terminal-width query with a fixed width
func (p *Progress) SetWidth(n int) {
	p.width = func() int { return n }
}

// Files returns the number of completed file ops
func (p *Progress) Files() uint64 { return p.files.Load() }

// Dirs returns the number of completed dir ops
func (p *Progress) Dirs() uint64 { return p.dirs.Load() }

// Bytes returns the total link-level size of completed entries
func (p *Progress) Bytes() uint64 { return p.bytes.Load() }

func (p *Progress) doneFile(sz int64) {
	p.files.Add(1)
	p.bytes.Add(uint64(sz))
}

func (p *Progress) doneDir(sz int64) {
	p.dirs.Add(1)
	p.bytes.Add(uint64(sz))
}

// Show redraws the progress line with 'path' as the current entry.
// Redraws are throttled unless 'force' is set; callers force the
// final line so the last state is always visible.
func (p *Progress) Show(path string, force bool) {
	now := time.Now()
	last := p.lastPrint.Load()
	if now.UnixNano()-last < int64(_printInterval) && !force {
		return
	}
	if !p.lastPrint.CompareAndSwap(last, now.UnixNano()) && !force {
		// lost the race; the winner just redrew
		return
	}

	line := p.line(path, now)

	if p.lock != nil {
		p.lock.Lock()
		defer p.lock.Unlock()
	}
	fmt.Fprint(p.out, line)
}

// build the CR-led, width-padded line. The stats prefix end-truncates
// when it alone overflows; the path middle-truncates into whatever
// width remains.
func (p *Progress) line(path string, now time.Time) string {
	files := p.files.Load()
	dirs := p.dirs.Load()
	bytes := p.bytes.Load()

	elapsed := now.Sub(p.start)
	secs := elapsed.Seconds()
	if secs <= 0 {
		secs = 1e-6
	}

	prefix := fmt.Sprintf("%d files, %d dirs, total size: %s, %.2f items/s, %s/s, elapsed: %s",
		files, dirs, sizeString(float64(bytes)),
		float64(files+dirs)/secs, sizeString(float64(bytes)/secs),
		elapsedString(elapsed))
	if path != "" {
		prefix += ", current: "
	}

	w := p.width()
	if w <= 0 {
		w = 80
	}
	// don't touch the last column; some terminals autowrap on it
	w--

	var line string
	if pw := runewidth.StringWidth(prefix); pw >= w {
		line = runewidth.Truncate(prefix, w, "")
	} else {
		line = prefix + truncMid(path, w-pw)
	}

	if n := w - runewidth.StringWidth(line); n > 0 {
		line += strings.Repeat(" ", n)
	}
	return "\r" + line
}

// middle-truncate 's' to at most 'w' cells: head, ellipsis, tail
func truncMid(s string, w int) string {
	if runewidth.StringWidth(s) <= w {
		return s
	}
	if w <= 1 {
		return runewidth.Truncate(s, w, "")
	}

	head := (w - 1) / 2
	tail := w - 1 - head
	return runewidth.Truncate(s, head, "") + "…" +
		runewidth.TruncateLeft(s, runewidth.StringWidth(s)-tail, "")
}

// binary-IEC humanization; two decimals above 1 KiB
func sizeString(sz float64) string {
	switch {
	case sz < _KiB:
		return fmt.Sprintf("%d B", int64(sz))
	case sz < _MiB:
		return fmt.Sprintf("%.2f KiB", sz/_KiB)
	case sz < _GiB:
		return fmt.Sprintf("%.2f MiB", sz/_MiB)
	}
	return fmt.Sprintf("%.2f GiB", sz/_GiB)
}

// SS.ss below a minute, MM:SS below an hour, HH:MM:SS beyond
func elapsedString(d time.Duration) string {
	s := d.Seconds()
	switch {
	case s < 60:
		return fmt.Sprintf("%.2f s", s)
	case s < 3600:
		return fmt.Sprintf("%02d:%02d", int(s)/60, int(s)%60)
	}
	return fmt.Sprintf("%02d:%02d:%02d", int(s)/3600, int(s)/60%60, int(s)%60)
}

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
