// kind_other.go - regular-file classification for non-NT platforms
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

//go:build !windows

package ptree

// no reparse points outside the NTFS family
func regularKind(_ string) EntryKind {
	return File
}
