// meta.go - clone file metadata (xattr, ownership, mode, times)
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
)

// a cloner clones a specific attribute
type cloner func(dst string, fi *Info) error

// all fs entries will have these attrs cloned.
// Ordering matters: changing ownership clears the setuid/setgid
// bits, so the mode (and then the times) are set after it.
var mdUpdaters = []cloner{
	clonexattr,
	cloneugid,
	clonemode,
	clonetimes,
}

// CloneMetadata clones all the metadata from src to dst: the metadata
// is atime, mtime, uid, gid, mode/perm, xattr
func CloneMetadata(dst, src string) error {
	fi, err := Lstat(src)
	if err == nil {
		err = UpdateMetadata(dst, fi)
	}

	if err != nil {
		return fmt.Errorf("clonemeta: %w", err)
	}
	return nil
}

// UpdateMetadata writes new metadata of 'dst' from 'fi'
// The metadata that will be updated includes atime, mtime, uid/gid,
// mode/perm, xattr
func UpdateMetadata(dst string, fi *Info) error {
	for _, fp := range mdUpdaters {
		if err := fp(dst, fi); err != nil {
			return fmt.Errorf("updatemeta: %w", err)
		}
	}
	return nil
}

func clonexattr(dst string, fi *Info) error {
	return LreplaceXattr(dst, fi.Xattr)
}
