//go:build unix

package history

import (
	"os"
	"syscall"
)

// chownIfNeeded chowns path to match orig's owner when they differ, per
// spec §4.3's "ownership of the original is preserved via a chown after
// rename when uid/gid differ". Best-effort: a failed chown (e.g. running
// unprivileged against another user's file) is not fatal to the write.
func chownIfNeeded(path string, orig os.FileInfo) {
	if orig == nil {
		return
	}
	st, ok := orig.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	newInfo, err := os.Stat(path)
	if err != nil {
		return
	}
	newSt, ok := newInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	if newSt.Uid == st.Uid && newSt.Gid == st.Gid {
		return
	}
	os.Chown(path, int(st.Uid), int(st.Gid))
}
