// Package line implements the editable line buffer (component C5): point,
// mark, an undo list, a kill ring, and a pending-input queue for
// type-ahead and macro feed-back. It builds on the teacher's screen.go
// text/cursor machinery in spirit (Insert/EraseTo/MoveTo/word-motion
// method names survive) but is display-independent: internal/display owns
// rendering, internal/line owns editing state.
package line

import (
	"github.com/aidanjensen/goline/internal/mbstring"
)

// UndoKind tags the variant of an UndoEntry, per spec §3's "undo list of
// (kind, start, end, saved-text)".
type UndoKind int

const (
	UndoInsert UndoKind = iota
	UndoDelete
	UndoBeginGroup
	UndoEndGroup
)

// UndoEntry is one record on the undo stack.
type UndoEntry struct {
	Kind  UndoKind
	Start int
	End   int
	Saved []rune
}

// Buffer is the mutable character buffer described in spec §3 "Line
// state": text, point, optional mark, an undo stack, and a pending-input
// queue for type-ahead (bytes read ahead of being dispatched, and macro
// playback bytes fed back by C4).
type Buffer struct {
	Text  []rune
	Point int
	mark  *int

	undo       []UndoEntry
	undoActive bool // true while replaying undo, to suppress recording

	Decoder mbstring.Decoder

	pending []byte
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Reset clears the buffer back to empty, discarding undo history, mark,
// and any partially-decoded multibyte state (spec §7: interruption resets
// multibyte decode state).
func (b *Buffer) Reset() {
	b.Text = b.Text[:0]
	b.Point = 0
	b.mark = nil
	b.undo = b.undo[:0]
	b.Decoder.Reset()
	b.pending = b.pending[:0]
}

// SetMark sets the mark to the current point, per the set-mark command.
func (b *Buffer) SetMark() { m := b.Point; b.mark = &m }

// Mark returns the mark offset and whether one is set.
func (b *Buffer) Mark() (int, bool) {
	if b.mark == nil {
		return 0, false
	}
	return *b.mark, true
}

// ClearMark unsets the mark.
func (b *Buffer) ClearMark() { b.mark = nil }

// ExchangePointAndMark swaps point and mark, per the teacher's
// "exchange-point-and-mark"-shaped binding (kept in defaultBindings today
// as a no-op alias; the spec's mark model gives it real semantics).
func (b *Buffer) ExchangePointAndMark() {
	if b.mark == nil {
		return
	}
	b.Point, *b.mark = *b.mark, b.Point
}

// recordUndo appends an undo entry unless undo replay is in progress.
func (b *Buffer) recordUndo(e UndoEntry) {
	if b.undoActive {
		return
	}
	b.undo = append(b.undo, e)
}

// BeginUndoGroup / EndUndoGroup bracket a sequence of edits that should
// undo as a single unit (spec §3's begin-group/end-group undo kinds).
func (b *Buffer) BeginUndoGroup() { b.recordUndo(UndoEntry{Kind: UndoBeginGroup}) }
func (b *Buffer) EndUndoGroup()   { b.recordUndo(UndoEntry{Kind: UndoEndGroup}) }

// Insert inserts runes at point, advancing point past them, and records an
// undo entry for the insertion.
func (b *Buffer) Insert(rs ...rune) {
	if len(rs) == 0 {
		return
	}
	b.Text = append(b.Text[:b.Point], append(append([]rune(nil), rs...), b.Text[b.Point:]...)...)
	b.recordUndo(UndoEntry{Kind: UndoInsert, Start: b.Point, End: b.Point + len(rs)})
	b.adjustMark(b.Point, len(rs))
	b.Point += len(rs)
}

// EraseTo deletes the text between point and pos (in either order),
// returning the deleted runes, and records an undo entry that can restore
// them. This mirrors the teacher's screen.EraseTo contract exactly.
func (b *Buffer) EraseTo(pos int) []rune {
	start, end := b.Point, pos
	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end > len(b.Text) {
		end = len(b.Text)
	}
	if start >= end {
		b.Point = start
		return nil
	}
	deleted := append([]rune(nil), b.Text[start:end]...)
	b.Text = append(b.Text[:start], b.Text[end:]...)
	b.recordUndo(UndoEntry{Kind: UndoDelete, Start: start, End: end, Saved: deleted})
	b.adjustMark(start, -(end - start))
	b.Point = start
	return deleted
}

// adjustMark shifts the mark (if set) to account for a length-delta edit
// occurring at or before its position.
func (b *Buffer) adjustMark(at, delta int) {
	if b.mark == nil || *b.mark < at {
		return
	}
	*b.mark += delta
	if *b.mark < at {
		*b.mark = at
	}
}

// Undo pops and reverses the most recent undo entry (or group), returning
// false if the undo stack is empty. Groups (begin/end pairs) are reversed
// as a unit, matching readline's grouped-undo semantics.
func (b *Buffer) Undo() bool {
	if len(b.undo) == 0 {
		return false
	}
	b.undoActive = true
	defer func() { b.undoActive = false }()

	e := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]

	if e.Kind == UndoEndGroup {
		for len(b.undo) > 0 {
			next := b.undo[len(b.undo)-1]
			b.undo = b.undo[:len(b.undo)-1]
			if next.Kind == UndoBeginGroup {
				break
			}
			b.applyUndo(next)
		}
		return true
	}
	b.applyUndo(e)
	return true
}

func (b *Buffer) applyUndo(e UndoEntry) {
	switch e.Kind {
	case UndoInsert:
		b.Text = append(b.Text[:e.Start], b.Text[e.End:]...)
		b.Point = e.Start
	case UndoDelete:
		b.Text = append(b.Text[:e.Start], append(append([]rune(nil), e.Saved...), b.Text[e.Start:]...)...)
		b.Point = e.End
	}
}

// Position returns point, matching the teacher's screen.Position name.
func (b *Buffer) Position() int { return b.Point }

// MoveTo moves point to pos, clamped to [0, len(Text)].
func (b *Buffer) MoveTo(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.Text) {
		pos = len(b.Text)
	}
	b.Point = pos
}

// End returns the length of the buffer, matching the teacher's
// screen.End name.
func (b *Buffer) End() int { return len(b.Text) }

// NextGraphemeEnd / PrevGraphemeStart delegate to internal/mbstring,
// matching the teacher's screen method names exactly.
func (b *Buffer) NextGraphemeEnd(pos int) int   { return mbstring.NextBoundary(b.Text, pos) }
func (b *Buffer) PrevGraphemeStart(pos int) int { return mbstring.PrevBoundary(b.Text, pos) }

// QueuePending appends raw bytes to the pending-input (type-ahead/macro)
// queue, per spec §3's "pending-input queue for type-ahead".
func (b *Buffer) QueuePending(bs []byte) { b.pending = append(b.pending, bs...) }

// NextPending pops one byte from the pending-input queue.
func (b *Buffer) NextPending() (byte, bool) {
	if len(b.pending) == 0 {
		return 0, false
	}
	c := b.pending[0]
	b.pending = b.pending[1:]
	return c, true
}
