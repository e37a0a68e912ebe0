// reparse_windows.go - fetch reparse-point buffers via FSCTL
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

import (
	"golang.org/x/sys/windows"
)

// IsReparsePoint returns true iff 'nm' carries a reparse point.
// Access-denied and every other fetch failure yields false; this is
// best-effort classification, not a security boundary.
func IsReparsePoint(nm string) bool {
	_, err := readReparseBuffer(nm)
	return err == nil
}

// GetReparseInfo reads and decodes the reparse point attached to 'nm'.
func GetReparseInfo(nm string) (*ReparseInfo, error) {
	buf, err := readReparseBuffer(nm)
	if err != nil {
		return nil, &Error{"get-reparse", nm, err}
	}
	return DecodeReparse(buf)
}

// open with backup-semantics so directories can be opened, and
// open-reparse-point so we read the point itself, not its target
func readReparseBuffer(nm string) ([]byte, error) {
	p, err := windows.UTF16PtrFromString(nm)
	if err != nil {
		return nil, err
	}

	h, err := windows.CreateFile(p,
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(h)

	buf := make([]byte, MaxReparseDataSize)
	var ret uint32
	err = windows.DeviceIoControl(h, windows.FSCTL_GET_REPARSE_POINT,
		nil, 0, &buf[0], uint32(len(buf)), &ret, nil)
	if err != nil {
		return nil, err
	}
	return buf[:ret], nil
}
