// Package term provides the raw-byte terminal I/O primitives (component C1):
// raw-mode toggling, size queries, and the fixed set of ANSI capability
// strings the display engine relies on. It deliberately does not consult
// terminfo/termcap — like the prompt library it is adapted from, it targets
// the common ANSI subset supported by the large majority of terminals.
package term

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Capability strings for the fixed ANSI subset the display engine emits.
// These stand in for termcap capability lookups (spec §6): cursor motion,
// erase, standout, and bracketed paste.
const (
	CapCursorUp    = "\x1b[A"
	CapCursorDown  = "\x1b[B"
	CapCursorFwd   = "\x1b[C"
	CapCursorBack  = "\x1b[D"
	CapCursorHome  = "\x1b[H"
	CapEraseToEOL  = "\x1b[K"
	CapEraseScreen = "\x1b[H\x1b[2J"
	CapStandoutOn  = "\x1b[7m"
	CapStandoutOff = "\x1b[0m"
	CapBell        = "\a"

	// BracketedPasteStart/End are the terminal-emitted sentinels that
	// surround a paste when bracketed-paste mode is enabled.
	BracketedPasteStart = "\x1b[200~"
	BracketedPasteEnd   = "\x1b[201~"
	// BracketedPasteEnable/Disable toggle the terminal feature itself.
	BracketedPasteEnable  = "\x1b[?2004h"
	BracketedPasteDisable = "\x1b[?2004l"
)

// Terminal owns the file descriptor, input reader, and output writer for a
// single ReadLine call, matching the fields petermattis/prompt.Prompt keeps
// inline, factored out so other components (sigcoord, display) can share
// them without importing the root package.
type Terminal struct {
	FD  int
	In  io.Reader
	Out io.Writer

	saved *term.State
}

// New constructs a Terminal for the given reader/writer, discovering the
// underlying file descriptor when possible.
func New(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{FD: -1, In: in, Out: out}
	type fdGetter interface{ Fd() uintptr }
	if f, ok := in.(fdGetter); ok {
		t.FD = int(f.Fd())
	}
	return t
}

// IsTerminal reports whether this Terminal's input is attached to an actual
// tty, as opposed to a redirected file or pipe. ReadLine must not attempt raw
// mode or bracketed-paste negotiation when this is false.
func (t *Terminal) IsTerminal() bool {
	if t.FD < 0 {
		return false
	}
	return isatty.IsTerminal(uintptr(t.FD)) || isatty.IsCygwinTerminal(uintptr(t.FD))
}

// MakeRaw puts the terminal into raw mode, returning a function that restores
// the previous mode. It is a no-op (returning a no-op restore) when the
// terminal is not a real tty.
func (t *Terminal) MakeRaw() (restore func() error, err error) {
	if !t.IsTerminal() {
		return func() error { return nil }, nil
	}
	saved, err := term.MakeRaw(t.FD)
	if err != nil {
		return nil, err
	}
	t.saved = saved
	return func() error {
		if t.saved == nil {
			return nil
		}
		err := term.Restore(t.FD, t.saved)
		t.saved = nil
		return err
	}, nil
}

// Size returns the current terminal width and height. When the terminal is
// not a tty (e.g. stdout redirected to a file) it returns a conservative
// default rather than erroring, matching how the teacher library's updateSize
// treats p.fd == -1.
func (t *Terminal) Size() (width, height int, err error) {
	if !t.IsTerminal() {
		return 80, 24, nil
	}
	return term.GetSize(t.FD)
}

// Stdio constructs a Terminal wrapping os.Stdin/os.Stdout.
func Stdio() *Terminal {
	return New(os.Stdin, os.Stdout)
}
