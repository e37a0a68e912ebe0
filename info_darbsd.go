// info_darbsd.go - stat timespec field names for darwin and freebsd
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

//go:build darwin || freebsd

package ptree

import (
	"syscall"
	"time"
)

func sysTimes(st *syscall.Stat_t) (atime, mtime, ctime time.Time) {
	return ts2time(st.Atimespec), ts2time(st.Mtimespec), ts2time(st.Ctimespec)
}
