// Package history implements the history store (component C8): a
// fixed-or-unbounded list of entries with a logical monotonic index layered
// over a linear slice, cursor navigation, stifle/unstifle, and two on-disk
// persistence formats.
//
// The cursor mechanics generalize the teacher's history.go (entries
// []string, head, size, maxSize, index) to the fuller API spec §4.3 names:
// base (logical index of the oldest retained entry), replace/remove/
// remove_range, and stifle/unstifle. Eviction drops the front of the slice,
// so the entries are never stored rotated.
package history

import (
	"fmt"
	"time"
)

// Entry is one history line plus its recorded timestamp (zero if never
// timestamped) and caller-opaque data, per spec §4.3's "line+timestamp+
// opaque data" entry shape.
type Entry struct {
	Line string
	Time time.Time
	Data any
}

// Store is a history list. The zero value is usable (unstifled, empty).
// Store is not safe for concurrent use without external synchronization,
// matching the teacher's history struct.
type Store struct {
	entries   []Entry
	base      int // logical index of entries[0]
	stifled   bool
	max       int
	pos       int // cursor into [0, len(entries)], len(entries) means "off the end"
	Multiline bool
}

// New returns an empty, unstifled Store.
func New() *Store {
	return &Store{base: 1}
}

// Len returns the number of retained entries.
func (s *Store) Len() int { return len(s.entries) }

// Base returns the logical index of the oldest retained entry.
func (s *Store) Base() int { return s.base }

// Stifled reports whether a maximum entry count is enforced.
func (s *Store) Stifled() bool { return s.stifled }

// Max returns the configured maximum when stifled; the return value is
// meaningless when Stifled is false.
func (s *Store) Max() int { return s.max }

// Add appends a new entry. If stifled at capacity the oldest entry is
// evicted and base is incremented, per spec §4.3's add().
func (s *Store) Add(line string) *Entry {
	s.entries = append(s.entries, Entry{Line: line})
	if s.stifled && len(s.entries) > s.max {
		s.entries = s.entries[1:]
		s.base++
	}
	s.pos = len(s.entries)
	return &s.entries[len(s.entries)-1]
}

// AddTime sets the timestamp of the most recently added entry, matching
// spec §4.3's "associated timestamp is set by a subsequent add_time".
func (s *Store) AddTime(t time.Time) {
	if len(s.entries) == 0 {
		return
	}
	s.entries[len(s.entries)-1].Time = t
}

// toPhysical converts a logical index (spec's "index", relative to base)
// to a slice offset, or -1 if out of range.
func (s *Store) toPhysical(logical int) int {
	i := logical - s.base
	if i < 0 || i >= len(s.entries) {
		return -1
	}
	return i
}

// Get returns the entry at logical index i.
func (s *Store) Get(i int) (Entry, bool) {
	p := s.toPhysical(i)
	if p == -1 {
		return Entry{}, false
	}
	return s.entries[p], true
}

// Replace mutates the entry at logical index i in place, returning the
// prior value so the caller may dispose of any opaque Data, per spec
// §4.3's replace().
func (s *Store) Replace(i int, line string, data any) (Entry, error) {
	p := s.toPhysical(i)
	if p == -1 {
		return Entry{}, fmt.Errorf("history: index %d out of range", i)
	}
	old := s.entries[p]
	s.entries[p] = Entry{Line: line, Time: old.Time, Data: data}
	return old, nil
}

// Remove deletes the entry at logical index i, shifting later entries down.
// Removing the oldest entry (i == Base()) increments base; removing any
// other entry leaves base unchanged.
func (s *Store) Remove(i int) (Entry, error) {
	return s.RemoveRange(i, i)
}

// RemoveRange deletes entries in the logical range [first, last] inclusive,
// per spec §4.3's remove_range(). Returns the first removed entry.
func (s *Store) RemoveRange(first, last int) (Entry, error) {
	pf := s.toPhysical(first)
	pl := s.toPhysical(last)
	if pf == -1 || pl == -1 || pf > pl {
		return Entry{}, fmt.Errorf("history: range [%d, %d] out of range", first, last)
	}
	removed := s.entries[pf]
	s.entries = append(s.entries[:pf], s.entries[pl+1:]...)
	if pf == 0 {
		s.base += pl - pf + 1
	}
	if s.pos > len(s.entries) {
		s.pos = len(s.entries)
	}
	return removed, nil
}

// Stifle trims to the most recent max entries and enters stifled mode, per
// spec §4.3's stifle().
func (s *Store) Stifle(max int) {
	s.stifled = true
	s.max = max
	if max < 0 {
		return
	}
	if excess := len(s.entries) - max; excess > 0 {
		s.entries = s.entries[excess:]
		s.base += excess
	}
	if s.pos > len(s.entries) {
		s.pos = len(s.entries)
	}
}

// Unstifle leaves stifled mode. The entries slice is already linear (Add
// never leaves a rotated backing array), so this only clears the flag —
// spec §4.3 calls out linearization because the original's ring buffer can
// be physically rotated; Store's backing slice never is.
func (s *Store) Unstifle() {
	s.stifled = false
}

// SetPos moves the navigation cursor to logical index i, clamped to
// [base, base+Len()]. Per spec §4.3's set_pos, an out-of-range index is
// clamped to the nearer end rather than reported as an error.
func (s *Store) SetPos(i int) {
	lo, hi := s.base, s.base+len(s.entries)
	switch {
	case len(s.entries) == 0:
		s.pos = 0
	case i < lo:
		s.pos = 0
	case i > hi:
		s.pos = len(s.entries)
	default:
		s.pos = i - s.base
	}
}

// Pos returns the cursor's current logical index (base+Len() when
// positioned past the newest entry, i.e. "no current entry").
func (s *Store) Pos() int { return s.base + s.pos }

// Current returns the entry under the cursor, or false if positioned past
// the newest entry.
func (s *Store) Current() (Entry, bool) {
	if s.pos < 0 || s.pos >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[s.pos], true
}

// Previous moves the cursor one entry older and returns it, or false if
// already at the oldest entry.
func (s *Store) Previous() (Entry, bool) {
	if s.pos <= 0 {
		return Entry{}, false
	}
	s.pos--
	return s.entries[s.pos], true
}

// Next moves the cursor one entry newer and returns it. If the cursor is
// already at or past the newest entry, it is left past the newest entry and
// Next returns false.
func (s *Store) Next() (Entry, bool) {
	if s.pos >= len(s.entries)-1 {
		s.pos = len(s.entries)
		return Entry{}, false
	}
	s.pos++
	return s.entries[s.pos], true
}

// All returns every retained entry oldest-first, regardless of how the
// backing store is laid out — the iterator spec §8's "ring-buffer history
// with offset math" testable property asks for.
func (s *Store) All() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
