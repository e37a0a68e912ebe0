// kind_windows.go - reparse-aware regular-file classification
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

//go:build windows

package ptree

// A file that stats as regular may still carry a reparse point. WSL
// symlinks are links, dedup-tagged files are plain data; everything
// else we refuse to guess at. Fetch failures (access denied etc) are
// best-effort classification, not a security boundary - treat as a
// plain file.
func regularKind(nm string) EntryKind {
	if !IsReparsePoint(nm) {
		return File
	}

	ri, err := GetReparseInfo(nm)
	if err != nil {
		return File
	}

	switch ri.Tag {
	case TagLxSymlink:
		return WslSymlink
	case TagDedup:
		return File
	}
	return Unknown
}
