// copyfile.go - copy a file efficiently using platform specific
// primitives and fallback to simple mmap'd copy.
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
	"io/fs"
	"os"
)

// CopyFile copies file 'src' to 'dst' using the most efficient OS
// primitive available on the runtime platform. CopyFile will use
// copy-on-write facilities if the underlying file-system implements
// it. It will fallback to copying via memory mapping 'src' and
// writing the blocks to 'dst'. An existing 'dst' is truncated and
// overwritten.
func CopyFile(dst, src string, perm fs.FileMode) error {
	s, err := os.Open(src)
	if err != nil {
		return &CopyError{"open-src", src, dst, err}
	}
	defer s.Close()

	d, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return &CopyError{"create-dst", src, dst, err}
	}

	if err = CopyFd(d, s); err != nil {
		d.Close()
		return err
	}

	if err = d.Close(); err != nil {
		return &CopyError{"close", src, dst, err}
	}
	return nil
}

// CopyFd copies open files 'src' to 'dst' using the most efficient OS
// primitive available on the runtime platform. CopyFd will use
// copy-on-write facilities if the underlying file-system implements it.
// It will fallback to copying via memory mapping 'src' and writing the
// blocks to 'dst'.
func CopyFd(dst, src *os.File) error {
	err := sysCopyFd(dst, src)
	if err == nil {
		err = dst.Sync()
	}
	return err
}

// fullWrite writes all of b to d
func fullWrite(d *os.File, b []byte) (int, error) {
	var z int
	for len(b) > 0 {
		n, err := d.Write(b)
		if err != nil {
			return z, err
		}
		z += n
		b = b[n:]
	}
	return z, nil
}
