// Package mbstring provides multibyte character utilities (component C2):
// display-column width, grapheme boundary location, and an incremental
// decoder that carries partial multibyte state across calls the way spec.md
// Design Notes §9 requires ("Multibyte state carried across calls").
package mbstring

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/width"
)

// ZeroWidthJoiner is excluded from printable-character handling, matching the
// teacher's screen.go isPrintable (multi-rune emoji sequences are a known,
// documented gap rather than silently mishandled).
const ZeroWidthJoiner = '‍'

// Width returns the number of display columns rune r occupies: 0 for
// combining/zero-width characters, 1 for most characters, 2 for wide
// characters. Ambiguous-width runes (spec §4.5's "display-width function")
// are resolved using go-runewidth first; the result is then raised to at
// least 2 for runes Unicode's East Asian Width property marks Wide or
// Fullwidth, and to at least 1 for runes it marks Ambiguous.
func Width(r rune) int {
	w := runewidth.RuneWidth(r)
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		if w < 2 {
			return 2
		}
	case width.EastAsianAmbiguous:
		if w < 1 {
			return 1
		}
	}
	return w
}

// IsPrintable reports whether r should be inserted into the line buffer
// rather than treated as a control sequence. Mirrors the teacher's
// screen.isPrintable, generalized out of the screen package.
func IsPrintable(r rune) bool {
	const (
		keyCtrl = 0x20000000
		keyAlt  = 0x40000000
	)
	if (r & (keyCtrl | keyAlt)) != 0 {
		return false
	}
	if r == ZeroWidthJoiner {
		return false
	}
	isSurrogate := r >= 0xd800 && r <= 0xdbff
	return r == '\n' || (r >= 32 && !isSurrogate)
}

// Decoder accumulates partial multibyte input across Feed calls. Line
// editing commands that read raw bytes (rather than already-decoded runes)
// use this to compose a full rune from a sequence of Feed calls, resetting
// cleanly on interruption (spec §7's "Multibyte-decoding errors" policy:
// invalid sequences are treated as one byte, one column, with state reset).
type Decoder struct {
	pending []byte
}

// Feed appends b to the pending buffer and attempts to decode a full rune.
// ok is false when more bytes are needed; ok is true when either a full rune
// was decoded (consuming the pending buffer) or the pending bytes are
// definitively invalid, in which case r is utf8.RuneError and exactly one
// byte is consumed from the front of the pending buffer.
func (d *Decoder) Feed(b byte) (r rune, ok bool) {
	d.pending = append(d.pending, b)
	if utf8.FullRune(d.pending) {
		r, size := utf8.DecodeRune(d.pending)
		if r == utf8.RuneError && size <= 1 {
			// Invalid sequence: emit one byte as one column-wide character
			// and reset, per spec §7.
			d.pending = d.pending[1:]
			return utf8.RuneError, true
		}
		d.pending = d.pending[size:]
		return r, true
	}
	if len(d.pending) >= utf8.UTFMax {
		// Can never complete; resync on the next byte.
		first := d.pending[0]
		d.Reset()
		return rune(first), true
	}
	return 0, false
}

// Reset discards any partial multibyte state, as required on SIGINT or any
// other interruption mid-decode.
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
}

// FitGraphemes determines how many leading runes of s fit within avail
// display columns before a newline or the available width is exhausted,
// generalizing the teacher's screen.fitGraphemes into a standalone utility.
func FitGraphemes(s []rune, avail int) (consumed, cols int, newline bool) {
	for i, r := range s {
		if r == '\n' {
			return i, cols, true
		}
		w := Width(r)
		if w == 0 {
			continue
		}
		if cols+w > avail {
			return i, cols, false
		}
		cols += w
	}
	return len(s), cols, false
}
