// Package search implements incremental and non-incremental history
// search (components C10 and C4.7), lifted out of the teacher's
// history.go (ReverseSearch/ForwardSearch/AppendSearchKey/
// TruncateSearchKey/AbortSearch/CancelSearch lived on the history struct
// itself) into its own package so it can depend on internal/line for the
// C-W/C-Y region operations and on internal/keymap for isearch-terminators
// classification, per spec §4.6.
package search

import (
	"time"
	"unicode/utf8"

	"github.com/aidanjensen/goline/internal/history"
	"github.com/aidanjensen/goline/internal/line"
)

// Direction is the incremental search direction.
type Direction int

const (
	Reverse Direction = -1
	Forward Direction = +1
)

// State is the incremental search state machine's current state, per
// spec §4.6's "{running, failed, found, aborted}".
type State int

const (
	Running State = iota
	Failed
	Found
	Aborted
)

// saved is the (point, mark, line-contents, history-offset) snapshot
// search must restore verbatim on abort, per spec §4.6 and the
// "Incremental search safety" testable property.
type saved struct {
	point, mark int
	hadMark     bool
	text        []rune
	historyPos  int
}

// Session is one incremental-search run over hist and buf.
type Session struct {
	Hist *history.Store
	Buf  *line.Buffer

	dir   Direction
	state State
	query []rune

	matchIndex int // logical history index of the current match, or Buf's own line if not yet moved into history
	matchPos   int // rune offset within the matched line where query begins

	saved saved

	// LastSearchString is reused when Start/AppendChar sees an empty
	// query, per spec §4.6 ("reverse... if empty search string, reuse
	// last_isearch_string").
	LastSearchString string

	// Terminators is the isearch-terminators set (default ESC, C-J),
	// consulted by the dispatcher layer to decide whether a key commits
	// the search; kept here so both the dispatcher and Session agree on
	// the same table.
	Terminators []byte

	// ESCDisambiguateWindow is how long to wait for a completing byte
	// after a bare ESC before treating it as a terminator rather than
	// the prefix of another sequence, per spec §4.6's "~100ms" window.
	ESCDisambiguateWindow time.Duration
}

// NewSession starts an incremental search in dir over hist, editing buf.
func NewSession(hist *history.Store, buf *line.Buffer, dir Direction) *Session {
	s := &Session{
		Hist:                  hist,
		Buf:                   buf,
		dir:                   dir,
		state:                 Running,
		Terminators:           []byte{0x1b, 0x0a},
		ESCDisambiguateWindow: 100 * time.Millisecond,
	}
	s.saveSnapshot()
	s.matchIndex = hist.Base() + hist.Len() // "not yet in history" sentinel: the in-progress line
	return s
}

func (s *Session) saveSnapshot() {
	mark, hadMark := s.Buf.Mark()
	s.saved = saved{
		point:      s.Buf.Point,
		mark:       mark,
		hadMark:    hadMark,
		text:       append([]rune(nil), s.Buf.Text...),
		historyPos: s.Hist.Pos(),
	}
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// Direction returns the session's current search direction.
func (s *Session) Direction() Direction { return s.dir }

// Query returns the accumulated search string.
func (s *Session) Query() string { return string(s.query) }

// AppendChar appends r to the search string and re-searches from the
// current match position, per spec §4.6's "printable or multibyte
// character" transition.
func (s *Session) AppendChar(r rune) {
	s.query = append(s.query, r)
	s.research(false)
}

// AppendWord appends the next word from the current line starting just
// after the current match, per spec §4.6's C-W.
func (s *Session) AppendWord() {
	line, ok := s.currentLine()
	if !ok {
		return
	}
	text := []rune(line)
	from := s.matchPos + len(s.query)
	if from > len(text) {
		from = len(text)
	}
	start := from
	for start < len(text) && !isSearchWordRune(text[start]) {
		start++
	}
	end := start
	for end < len(text) && isSearchWordRune(text[end]) {
		end++
	}
	s.query = append(s.query, text[from:end]...)
	s.research(false)
}

// AppendRestOfLine appends the rest of the current line after the match,
// per spec §4.6's C-Y.
func (s *Session) AppendRestOfLine() {
	line, ok := s.currentLine()
	if !ok {
		return
	}
	text := []rune(line)
	start := s.matchPos + len(s.query)
	if start > len(text) {
		return
	}
	s.query = append(s.query, text[start:]...)
	s.research(false)
}

// ConsumePaste appends an entire bracketed-paste payload to the search
// string as a single unit and re-searches once, per spec §4.6's
// "bracketed-paste prefix → capture the paste as if typed".
func (s *Session) ConsumePaste(data []byte) {
	s.query = append(s.query, []rune(string(data))...)
	s.research(false)
}

// Backspace pops one character from the search string; dings (returns
// true) if already empty, per spec §4.6's C-H/DEL.
func (s *Session) Backspace() (dinged bool) {
	if len(s.query) == 0 {
		return true
	}
	s.query = s.query[:len(s.query)-1]
	s.research(false)
	return false
}

// Advance moves to the next match in the current direction, reusing
// LastSearchString if the query is empty, per spec §4.6's
// "search-history"/"forward-search-history" bindings.
func (s *Session) Advance(dir Direction) {
	s.dir = dir
	if len(s.query) == 0 && s.LastSearchString != "" {
		s.query = []rune(s.LastSearchString)
	}
	s.research(true)
}

// Abort restores the saved (point, mark, line, history-offset) exactly
// and ends the session, per spec §4.6's C-G/abort and the "Incremental
// search safety" testable property.
func (s *Session) Abort() {
	s.Buf.Text = append([]rune(nil), s.saved.text...)
	s.Buf.Point = s.saved.point
	if s.saved.hadMark {
		orig := s.Buf.Point
		s.Buf.Point = s.saved.mark
		s.Buf.SetMark()
		s.Buf.Point = orig
	} else {
		s.Buf.ClearMark()
	}
	s.Hist.SetPos(s.saved.historyPos)
	s.state = Aborted
}

// Commit ends the search leaving the buffer at the last successful
// match (or the snapshot if none matched), per spec §4.6's terminator
// and non-insert-function transitions.
func (s *Session) Commit() {
	if s.state == Running {
		s.state = Found
	}
	if len(s.query) > 0 {
		s.LastSearchString = string(s.query)
	}
}

// research re-executes the search for the current query, starting at the
// current match position (or the edge of history on direction flip /
// empty-to-nonempty transitions), advancing to the next line on
// wraparound within a line, per spec §4.6.
func (s *Session) research(advance bool) {
	if len(s.query) == 0 {
		s.state = Running
		s.restoreToSnapshotLine()
		return
	}

	base, length := s.Hist.Base(), s.Hist.Len()
	idx := s.matchIndex
	pos := s.matchPos
	if advance {
		if s.dir == Reverse {
			pos--
		} else {
			pos++
		}
	}

	for {
		text, ok := s.lineAt(idx)
		if ok {
			if found, at := findQuery(text, string(s.query), pos, s.dir); found {
				s.matchIndex, s.matchPos = idx, at
				s.applyMatch(text, at)
				s.state = Running
				return
			}
		}
		idx += int(s.dir)
		if s.dir == Reverse {
			pos = -1 << 30 // search from the end of the next (older) line
		} else {
			pos = 0
		}
		if idx < base || idx > base+length {
			s.state = Failed
			return
		}
	}
}

// restoreToSnapshotLine puts the buffer back to the line it held when
// the search started (used when the query becomes empty again).
func (s *Session) restoreToSnapshotLine() {
	s.Buf.Text = append([]rune(nil), s.saved.text...)
	s.Buf.Point = s.saved.point
	s.matchIndex = s.Hist.Base() + s.Hist.Len()
	s.matchPos = 0
}

func (s *Session) applyMatch(text string, at int) {
	runes := []rune(text)
	s.Buf.Text = runes
	if at+len(s.query) <= len(runes) {
		s.Buf.Point = at
	} else {
		s.Buf.Point = len(runes)
	}
}

func (s *Session) currentLine() (string, bool) {
	return s.lineAt(s.matchIndex)
}

func (s *Session) lineAt(idx int) (string, bool) {
	if idx == s.Hist.Base()+s.Hist.Len() {
		return string(s.saved.text), true
	}
	e, ok := s.Hist.Get(idx)
	if !ok {
		return "", false
	}
	return e.Line, true
}

// findQuery searches text for query, starting at byte/rune offset from
// (clamped into range) and moving in dir, returning the first match and
// its offset.
func findQuery(text, query string, from int, dir Direction) (bool, int) {
	runes := []rune(text)
	if from < 0 {
		from = len(runes)
	}
	if from > len(runes) {
		from = len(runes)
	}
	qr := []rune(query)

	if dir == Reverse {
		for start := from; start >= 0; start-- {
			if matchesAt(runes, qr, start) {
				return true, start
			}
		}
		return false, 0
	}
	for start := from; start+len(qr) <= len(runes); start++ {
		if matchesAt(runes, qr, start) {
			return true, start
		}
	}
	return false, 0
}

func matchesAt(text, query []rune, at int) bool {
	if at < 0 || at+len(query) > len(text) {
		return false
	}
	for i, r := range query {
		if text[at+i] != r {
			return false
		}
	}
	return true
}

func isSearchWordRune(r rune) bool {
	return r != ' ' && r != '\t' && utf8.ValidRune(r)
}

// IsTerminator reports whether b is one of the session's
// isearch-terminators.
func (s *Session) IsTerminator(b byte) bool {
	for _, t := range s.Terminators {
		if t == b {
			return true
		}
	}
	return false
}
