// kind.go - classify file system entries at the link level
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

// Package ptree traverses one or more directory trees concurrently and
// applies caller supplied operations to every entry in a chosen
// hierarchical order (pre-order or post-order). The traversal never
// descends through symlinks, junctions or WSL symlinks; those are
// handed to the file operation as-is.
//
// The package also exposes the two classification primitives the
// traversal is built on: Classify, which maps a path to an EntryKind,
// and (on Windows) GetReparseInfo, which decodes NTFS reparse-point
// payloads.
package ptree

import (
	"io/fs"
	"os"
)

// EntryKind is the link-level type of a file system entry.
type EntryKind int

const (
	Nonexistent EntryKind = iota // lstat failed
	File                         // regular file (incl. dedup-tagged on NTFS)
	Directory                    // real directory; the only kind we descend
	Symlink                      // symbolic link
	Junction                     // NT mount-point reparse point
	WslSymlink                   // NT LX_SYMLINK reparse point
	Device                       // block/char device, fifo, socket
	Unknown                      // anything else
)

var kindNames = map[EntryKind]string{
	Nonexistent: "Nonexistent",
	File:        "File",
	Directory:   "Dir",
	Symlink:     "Symlink",
	Junction:    "Junction",
	WslSymlink:  "WslSymlink",
	Device:      "Device",
	Unknown:     "Unknown",
}

// String returns the name of an EntryKind
func (k EntryKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// IsLink returns true for the three link kinds that must never be
// descended into.
func (k EntryKind) IsLink() bool {
	return k == Symlink || k == Junction || k == WslSymlink
}

// Classify maps 'nm' to its EntryKind without following symlinks.
//
// The symlink test must come before the directory test: a symlink to a
// directory satisfies IsDir() after dereference on some stat layers.
// The readlink probe on a non-symlink inode catches NT junctions -
// those set neither the symlink nor the reparse bit visibly through
// the portable metadata layer.
func Classify(nm string) EntryKind {
	fi, err := os.Lstat(nm)
	if err != nil {
		return Nonexistent
	}

	m := fi.Mode()
	if m&fs.ModeSymlink > 0 {
		return Symlink
	}

	if _, err := os.Readlink(nm); err == nil {
		return Junction
	}

	switch {
	case m.IsDir():
		return Directory

	case m.IsRegular():
		return regularKind(nm)

	case m&(fs.ModeDevice|fs.ModeCharDevice|fs.ModeNamedPipe|fs.ModeSocket) > 0:
		return Device
	}

	return Unknown
}
