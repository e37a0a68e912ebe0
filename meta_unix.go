// meta_unix.go - attribute updaters for unixish platforms
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

//go:build unix

package ptree

import (
	"fmt"
	"io/fs"
	"os"
)

func cloneugid(dst string, fi *Info) error {
	if err := os.Lchown(dst, int(fi.Uid), int(fi.Gid)); err != nil {
		return fmt.Errorf("lchown: %w", err)
	}
	return nil
}

func clonemode(dst string, fi *Info) error {
	// symlink perm bits are meaningless and chmod would follow the link
	if fi.Mod&fs.ModeSymlink > 0 {
		return nil
	}
	return os.Chmod(dst, fi.Mode().Perm())
}

func clonetimes(dst string, fi *Info) error {
	if fi.Mod&fs.ModeSymlink > 0 {
		return nil
	}
	if err := os.Chtimes(dst, fi.Atim, fi.Mtim); err != nil {
		return fmt.Errorf("utimes: %w", err)
	}
	return nil
}
