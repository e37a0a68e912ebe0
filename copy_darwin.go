// copy_darwin.go - macOS specific file copy
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

//go:build darwin

package ptree

import (
	"os"
)

// macOS doesn't have the equiv fclonefile() that takes two fds.
// And clonefile(2) requires that the destination file NOT exist.
// So, we are stuck with the slow path.
func sysCopyFd(dst, src *os.File) error {
	return copyViaMmap(dst, src)
}
