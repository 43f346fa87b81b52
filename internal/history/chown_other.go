//go:build !unix

package history

import "os"

// chownIfNeeded is a no-op on non-unix platforms, which have no uid/gid
// ownership model to preserve.
func chownIfNeeded(path string, orig os.FileInfo) {}
