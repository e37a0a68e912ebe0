// lockers.go - name the processes that hold a path open
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

package rm

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// diagnose scans the process table for processes with 'nm' (or
// anything under it) open, prints each locker with its ancestor
// chain, and hands the original error back - deletion failures stay
// fatal, the diagnosis just tells the operator who to kill.
func (d *deleter) diagnose(nm string, derr error) error {
	held := lockers(nm)
	if len(held) == 0 {
		return derr
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s is held open by:", nm)
	for _, p := range held {
		for i, a := range ancestry(p) {
			fmt.Fprintf(&b, "\n%s%s", strings.Repeat("  ", i+1), a)
		}
	}
	d.printf("%s", b.String())
	return derr
}

func lockers(nm string) []*process.Process {
	abs, err := filepath.Abs(nm)
	if err != nil {
		abs = nm
	}
	sub := abs + string(filepath.Separator)

	procs, err := process.Processes()
	if err != nil {
		return nil
	}

	var held []*process.Process
	for _, p := range procs {
		files, err := p.OpenFiles()
		if err != nil {
			continue
		}
		for i := range files {
			if files[i].Path == abs || strings.HasPrefix(files[i].Path, sub) {
				held = append(held, p)
				break
			}
		}
	}
	return held
}

// ancestry returns "name (pid)" lines from the root of the process
// tree down to 'p'
func ancestry(p *process.Process) []string {
	var chain []string
	seen := make(map[int32]bool)

	for p != nil && !seen[p.Pid] {
		seen[p.Pid] = true
		nm, err := p.Name()
		if err != nil {
			nm = "?"
		}
		chain = append(chain, fmt.Sprintf("%s (%d)", nm, p.Pid))

		pp, err := p.Parent()
		if err != nil {
			break
		}
		p = pp
	}

	// walked child->parent; show parent->child
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
