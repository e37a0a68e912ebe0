// junction_windows.go - create NT mount-point junctions
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

package cp

import (
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf16"

	"github.com/opencoff/go-ptree"
	"golang.org/x/sys/windows"
)

// createJunction makes 'link' a mount-point junction to 'target':
// an empty directory with an IO_REPARSE_TAG_MOUNT_POINT attached.
// 'target' must be an existing directory.
func createJunction(link, target string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return &Error{"junction", target, link, err}
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		return &Error{"junction", target, link, fs.ErrNotExist}
	}

	if err := os.Mkdir(link, 0777); err != nil && !errors.Is(err, fs.ErrExist) {
		return &Error{"junction", target, link, err}
	}

	buf := mountPointBuffer(abs)

	p, err := windows.UTF16PtrFromString(link)
	if err != nil {
		return &Error{"junction", target, link, err}
	}
	h, err := windows.CreateFile(p,
		windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_OPEN_REPARSE_POINT|windows.FILE_FLAG_BACKUP_SEMANTICS,
		0)
	if err != nil {
		return &Error{"junction", target, link, err}
	}
	defer windows.CloseHandle(h)

	var ret uint32
	err = windows.DeviceIoControl(h, windows.FSCTL_SET_REPARSE_POINT,
		&buf[0], uint32(len(buf)), nil, 0, &ret, nil)
	if err != nil {
		return &Error{"junction", target, link, err}
	}
	return nil
}

// serialize a REPARSE_DATA_BUFFER for a mount point whose substitute
// name is the NT-namespace form of 'abs'
func mountPointBuffer(abs string) []byte {
	sub := utf16.Encode([]rune(`\??\` + abs))
	pr := utf16.Encode([]rune(abs))

	// path buffer: substitute + NUL, print + NUL
	subLen := len(sub) * 2
	prLen := len(pr) * 2
	pathLen := subLen + 2 + prLen + 2

	le := binary.LittleEndian
	buf := make([]byte, 8+8+pathLen)
	le.PutUint32(buf[0:], uint32(ptree.TagMountPoint))
	le.PutUint16(buf[4:], uint16(8+pathLen))
	le.PutUint16(buf[8:], 0)                  // SubstituteNameOffset
	le.PutUint16(buf[10:], uint16(subLen))    // SubstituteNameLength
	le.PutUint16(buf[12:], uint16(subLen+2))  // PrintNameOffset
	le.PutUint16(buf[14:], uint16(prLen))     // PrintNameLength

	off := 16
	for _, u := range sub {
		le.PutUint16(buf[off:], u)
		off += 2
	}
	off += 2 // NUL
	for _, u := range pr {
		le.PutUint16(buf[off:], u)
		off += 2
	}
	return buf
}
