// info_windows.go - Win32 metadata to Info
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
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
	"os"
	"syscall"
	"time"
)

// Statm is like Stat except it uses caller supplied memory
func Statm(nm string, fi *Info) error {
	st, err := os.Stat(nm)
	if err != nil {
		return err
	}
	makeInfo(fi, nm, st)
	return nil
}

// Lstatm is like Lstat except it uses the caller supplied memory.
func Lstatm(nm string, fi *Info) error {
	st, err := os.Lstat(nm)
	if err != nil {
		return err
	}
	makeInfo(fi, nm, st)
	return nil
}

// Windows has no uid/gid or link counts in the portable stat view;
// hardlink identity (ino/nlink) comes from the open-handle query
// below when it is available.
func makeInfo(fi *Info, nm string, st os.FileInfo) {
	*fi = Info{
		Siz:   st.Size(),
		Mod:   st.Mode(),
		Nlink: 1,
		Mtim:  st.ModTime(),

		path:  nm,
		Xattr: make(Xattr),
	}

	if d, ok := st.Sys().(*syscall.Win32FileAttributeData); ok {
		fi.Atim = time.Unix(0, d.LastAccessTime.Nanoseconds())
		fi.Ctim = time.Unix(0, d.CreationTime.Nanoseconds())
	}

	if h, err := syscall.Open(nm, syscall.O_RDONLY, 0); err == nil {
		var bi syscall.ByHandleFileInformation
		if err := syscall.GetFileInformationByHandle(h, &bi); err == nil {
			fi.Dev = uint64(bi.VolumeSerialNumber)
			fi.Ino = uint64(bi.FileIndexHigh)<<32 | uint64(bi.FileIndexLow)
			fi.Nlink = bi.NumberOfLinks
		}
		syscall.Close(h)
	}
}
