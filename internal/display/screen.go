package display

import (
	"bytes"
	"io"
	"strconv"

	"github.com/aidanjensen/goline/internal/line"
	"github.com/aidanjensen/goline/internal/mbstring"
	"github.com/aidanjensen/goline/internal/term"
)

// Face is a highlight state applied to a span of the rendered line, per
// spec §4.5/§4.6's "standout" rendering of an incremental-search match.
// This generalizes the teacher's screen.go attrInfo (which carried a raw
// ANSI attribute string) to a small closed set so internal/search can ask
// for standout without knowing escape sequences.
type Face int

const (
	FaceNormal Face = iota
	FaceStandout
)

// faceSpan marks [Start,End) of the buffer's own text (not counting the
// prompt) as rendered with Face.
type faceSpan struct {
	Start, End int
	Face       Face
}

// lineInfo mirrors the teacher's screen.lineInfo: the rune range of text
// occupying one screen row, and that row's top-left position.
type lineInfo struct {
	startPos, endPos int
	x, y             int
}

// Screen renders an internal/line.Buffer under a PromptDescriptor,
// performing the differential update spec §4.5 describes: each Render call
// recomputes the full "invisible" line, diffs it against the previously
// drawn "visible" line, and emits only the bytes needed to converge the
// terminal, exactly as the teacher's screen.go does for its own
// Insert/EraseTo calls — generalized here to a buffer Render doesn't own.
type Screen struct {
	out io.Writer

	width, height int

	// visible is the flattened rune content (prompt + line, with control
	// characters and tabs already expanded) last written to the terminal.
	visible       []rune
	visibleCursor int
	maxY          int

	// HorizontalScroll forces single-line scrolling behavior (spec §4.5's
	// "one line tall" terminal case) regardless of height.
	HorizontalScroll bool
	hOffset          int

	faces       []faceSpan // set by SetFace, in buffer-relative offsets
	renderFaces []faceSpan // faces shifted into the current render's coordinates

	outbuf bytes.Buffer
}

// New constructs a Screen writing to out with a conservative default size,
// matching the teacher's screen.Init defaults (overridden by SetSize).
func New(out io.Writer) *Screen {
	return &Screen{out: out, width: 80, height: 40}
}

// SetSize updates the terminal dimensions used for wrap computation. A
// width or height of 0 is ignored (matches the teacher's updateSize
// guard against a zero-width terminal).
func (s *Screen) SetSize(width, height int) {
	if width > 0 {
		s.width = width
	}
	if height > 0 {
		s.height = height
	}
}

// SetFace marks [start,end) of the buffer's text with face, replacing any
// previously set faces. Used by internal/search to highlight the current
// incremental-search match.
func (s *Screen) SetFace(start, end int, face Face) {
	s.faces = []faceSpan{{Start: start, End: end, Face: face}}
}

// ClearFaces removes all highlight spans.
func (s *Screen) ClearFaces() { s.faces = nil }

// Bell queues the terminal bell capability, per spec §6's "audible" bell
// style (visible/none are handled by the caller choosing not to call Bell).
func (s *Screen) Bell() { s.outbuf.WriteString(term.CapBell) }

// Flush writes buffered output to out and clears the buffer.
func (s *Screen) Flush() {
	_, _ = io.Copy(s.out, &s.outbuf)
	s.outbuf.Reset()
}

// Reset forgets the previously rendered state, forcing the next Render to
// redraw from a blank line (matches the teacher's screen.Reset/Cancel).
func (s *Screen) Reset() {
	s.visible = nil
	s.visibleCursor = 0
	s.maxY = 0
	s.hOffset = 0
}

// Render draws buf under prompt, diffing against the last call's output.
func (s *Screen) Render(prompt PromptDescriptor, buf *line.Buffer, suffix []rune) {
	rendered, cursorAt := s.compose(prompt, buf, suffix)

	if s.HorizontalScroll || s.height <= 1 {
		s.renderHorizontalScroll(rendered, cursorAt)
		return
	}

	s.renderFull(rendered, cursorAt)
}

// compose builds the full flattened line (prompt text, then the buffer's
// text with control characters/tabs expanded, then suffix), and the offset
// within it the cursor belongs at, shifting any face spans by the
// prompt's length since faces are expressed in buffer-relative offsets.
func (s *Screen) compose(prompt PromptDescriptor, buf *line.Buffer, suffix []rune) (rendered []rune, cursorAt int) {
	rendered = append(rendered, prompt.Text...)
	base := len(rendered)

	expanded, posMap := expandControlChars(buf.Text)
	rendered = append(rendered, expanded...)
	cursorAt = base + posMap[buf.Point]

	rendered = append(rendered, suffix...)

	s.renderFaces = s.renderFaces[:0]
	for _, f := range s.faces {
		start, end := f.Start, f.End
		if start < 0 {
			start = 0
		}
		if end > len(posMap)-1 {
			end = len(posMap) - 1
		}
		if start >= end {
			continue
		}
		s.renderFaces = append(s.renderFaces, faceSpan{
			Start: base + posMap[start],
			End:   base + posMap[end],
			Face:  f.Face,
		})
	}
	return rendered, cursorAt
}

// faceAt reports the highlight face in effect at rendered-offset pos,
// consulting the spans compose() just shifted into render coordinates.
func (s *Screen) faceAt(pos int) Face {
	for _, f := range s.renderFaces {
		if pos >= f.Start && pos < f.End {
			return f.Face
		}
	}
	return FaceNormal
}

// expandControlChars maps tabs to the next 8-column stop and control bytes
// (and DEL) to their ^X caret notation, per spec §4.5 rendering step 3.
// posMap[i] gives the rendered-rune offset corresponding to input rune i,
// so the cursor (a position in the unexpanded buffer) can be translated.
func expandControlChars(text []rune) (out []rune, posMap []int) {
	posMap = make([]int, len(text)+1)
	col := 0
	for i, r := range text {
		posMap[i] = len(out)
		switch {
		case r == '\t':
			next := (col/8 + 1) * 8
			for col < next {
				out = append(out, ' ')
				col++
			}
		case r == '\n':
			out = append(out, '\n')
			col = 0
		case r < 0x20 || r == 0x7f:
			out = append(out, '^', controlCaret(r))
			col += 2
		default:
			out = append(out, r)
			col += mbstring.Width(r)
		}
	}
	posMap[len(text)] = len(out)
	return out, posMap
}

func controlCaret(r rune) rune {
	if r == 0x7f {
		return '?'
	}
	return r + '@'
}

// renderFull performs the multi-line differential update: split rendered
// into screen rows via mbstring.FitGraphemes-based wrapping, diff against
// the previous rows, and emit only the changed spans, per spec §4.5's
// "find the first differing byte... last matching trailing byte" and
// "between lines use cursor-up/down".
func (s *Screen) renderFull(rendered []rune, cursorAt int) {
	newLines := s.wrap(rendered)
	oldLines := s.wrap(s.visible)

	rows := len(newLines)
	if len(oldLines) > rows {
		rows = len(oldLines)
	}

	s.outbuf.Reset()
	for row := 0; row < rows; row++ {
		var nl, ol []rune
		if row < len(newLines) {
			nl = rendered[newLines[row].startPos:newLines[row].endPos]
		}
		if row < len(oldLines) {
			ol = s.visible[oldLines[row].startPos:oldLines[row].endPos]
		}
		s.diffLine(row, newLines[row].startPos, nl, ol)
	}

	if rows > 0 {
		s.moveCursorToRowCol(0, 0)
	}
	s.placeCursor(rendered, newLines, cursorAt)

	if rows-1 > s.maxY {
		s.maxY = rows - 1
	}

	s.visible = append([]rune(nil), rendered...)
	s.visibleCursor = cursorAt
}

// diffLine writes row to the terminal only from the first differing rune
// onward, erasing to end-of-line when the new row is shorter, per spec
// §4.5's differential-update bullets. It does not attempt the
// insert/delete-character optimizations the teacher's screen.go also
// skips (eschewing terminal capability assumptions beyond the fixed ANSI
// subset, per the teacher's documented philosophy).
func (s *Screen) diffLine(row, rowStart int, nl, ol []rune) {
	first := 0
	for first < len(nl) && first < len(ol) && nl[first] == ol[first] {
		first++
	}
	if first == len(nl) && first == len(ol) {
		return
	}

	s.moveCursorToRowCol(row, first)
	standout := false
	for i, r := range nl[first:] {
		want := s.faceAt(rowStart+first+i) == FaceStandout
		if want != standout {
			if want {
				s.outbuf.WriteString(term.CapStandoutOn)
			} else {
				s.outbuf.WriteString(term.CapStandoutOff)
			}
			standout = want
		}
		s.outbuf.WriteRune(r)
	}
	if standout {
		s.outbuf.WriteString(term.CapStandoutOff)
	}
	if len(ol) > len(nl) {
		s.outbuf.WriteString(term.CapEraseToEOL)
	}
}

// wrap splits rendered into screen rows of at most s.width display columns,
// breaking additionally on literal newlines, mirroring the teacher's
// maybeRecomputeLines.
func (s *Screen) wrap(rendered []rune) []lineInfo {
	var lines []lineInfo
	pos, x, y := 0, 0, 0
	width := s.width
	if width <= 0 {
		width = 80
	}
	for {
		lines = append(lines, lineInfo{startPos: pos, endPos: pos, x: x, y: y})
		if pos >= len(rendered) {
			break
		}
		consumed, w, newline := mbstring.FitGraphemes(rendered[pos:], width-x)
		l := &lines[len(lines)-1]
		l.endPos = pos + consumed
		pos += consumed
		x += w
		y += x / width
		x %= width
		if newline {
			pos++ // skip the newline rune itself
		}
		if newline || consumed == 0 {
			x, y = 0, y+1
		}
		if pos >= len(rendered) {
			break
		}
	}
	return lines
}

func (s *Screen) placeCursor(rendered []rune, lines []lineInfo, at int) {
	for _, l := range lines {
		if at <= l.endPos {
			col := s.columnWidth(rendered[l.startPos:at])
			s.moveCursorToRowCol(l.y, col)
			return
		}
	}
}

func (s *Screen) columnWidth(rs []rune) int {
	col := 0
	for _, r := range rs {
		col += mbstring.Width(r)
	}
	return col
}

func (s *Screen) moveCursorToRowCol(row, col int) {
	s.outbuf.WriteString(ansiCup(row, col))
}

// ansiCup emits an absolute cursor-position sequence relative to the start
// of the redraw region. Using absolute CUP (rather than the teacher's
// relative up/down/left/right deltas) keeps the multi-row diff in
// renderFull simple at the cost of one extra escape per row; the teacher's
// relative-motion approach is kept for the single-line horizontal-scroll
// path in renderHorizontalScroll below, where it matters more (every
// keystroke redraws).
func ansiCup(row, col int) string {
	return "\x1b[" + strconv.Itoa(row+1) + ";" + strconv.Itoa(col+1) + "H"
}

// renderHorizontalScroll implements spec §4.5's horizontal-scroll mode:
// a one-line viewport that keeps the cursor roughly two-thirds across the
// screen, marking a scrolled-off left edge with '<' and right edge with
// '>'.
func (s *Screen) renderHorizontalScroll(rendered []rune, cursorAt int) {
	width := s.width
	if width <= 0 {
		width = 80
	}

	target := (width * 2) / 3
	if cursorAt-s.hOffset > target {
		s.hOffset = cursorAt - target
	}
	if cursorAt < s.hOffset {
		s.hOffset = cursorAt
	}
	if s.hOffset < 0 {
		s.hOffset = 0
	}

	avail := width
	leftMarker := s.hOffset > 0
	if leftMarker {
		avail--
	}
	end := s.hOffset + avail
	rightMarker := end < len(rendered)
	if rightMarker {
		avail--
		end = s.hOffset + avail
	}
	if end > len(rendered) {
		end = len(rendered)
	}

	var row []rune
	if leftMarker {
		row = append(row, '<')
	}
	if s.hOffset < end {
		row = append(row, rendered[s.hOffset:end]...)
	}
	if rightMarker {
		row = append(row, '>')
	}

	s.outbuf.Reset()
	s.outbuf.WriteString("\r")
	for _, r := range row {
		s.outbuf.WriteRune(r)
	}
	s.outbuf.WriteString(term.CapEraseToEOL)

	col := cursorAt - s.hOffset
	if leftMarker {
		col++
	}
	s.outbuf.WriteString("\r")
	if col > 0 {
		s.outbuf.WriteString(ansiForward(col))
	}

	s.visible = append([]rune(nil), rendered...)
	s.visibleCursor = cursorAt
}

func ansiForward(n int) string {
	if n == 1 {
		return term.CapCursorFwd
	}
	return "\x1b[" + strconv.Itoa(n) + "C"
}

// CursorOffset returns the rendered-line offset the cursor was last placed
// at, primarily useful to tests asserting on cursor placement.
func (s *Screen) CursorOffset() int { return s.visibleCursor }

// Refresh forces the next Render to repaint unconditionally, per spec
// §4.8's SIGWINCH handling ("refreshes all wrap bookkeeping").
func (s *Screen) Refresh() {
	s.outbuf.WriteString(term.CapEraseScreen)
	s.Reset()
}
