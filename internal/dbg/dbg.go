// Package dbg provides the library-wide debug logging hook. It is the idiom
// the teacher library uses (debug.go): redisplay happens on the same stream
// as terminal output, so diagnostics cannot go to stderr without corrupting
// the screen. Instead, a debug file is opened lazily when GOLINE_DEBUG names
// a path, and every component writes short, printf-style lines to it.
package dbg

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var state = struct {
	sync.Once
	w   io.WriteCloser
	err error
}{}

func initDebug() {
	path := os.Getenv("GOLINE_DEBUG")
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		state.err = err
		return
	}
	state.w = f
}

// Printf writes a debug line if GOLINE_DEBUG is set, otherwise it is a no-op.
func Printf(format string, args ...interface{}) {
	state.Do(initDebug)
	if state.w == nil {
		return
	}
	fmt.Fprintf(state.w, format, args...)
}

// Err returns the error encountered opening the debug file, if any.
func Err() error {
	state.Do(initDebug)
	return state.err
}
