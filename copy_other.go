// copy_other.go - file copy for the remaining platforms
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

//go:build !linux && !darwin

package ptree

import (
	"os"
)

func sysCopyFd(dst, src *os.File) error {
	return copyViaMmap(dst, src)
}
