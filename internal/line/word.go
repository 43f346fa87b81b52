package line

import (
	"github.com/clipperhouse/uax29/v2/words"
)

// wordBoundaries returns the byte offsets (converted back to rune indices)
// at which each Unicode word segment of text begins, per UAX #29. Used by
// NextWordEnd/PrevWordStart/TransposeWords in place of the teacher's
// unicode.IsLetter/IsDigit-only isWord, giving internationalized word
// motion for forward-word/backward-word/kill-word.
func wordBoundaries(text []rune) []int {
	s := string(text)
	byteToRune := make(map[int]int, len(text)+1)
	pos := 0
	for i, r := range s {
		byteToRune[i] = pos
		pos++
		_ = r
	}
	byteToRune[len(s)] = len(text)

	var bounds []int
	seg := words.NewSegmenter([]byte(s))
	off := 0
	for seg.Next() {
		bounds = append(bounds, byteToRune[off])
		off += len(seg.Bytes())
	}
	bounds = append(bounds, len(text))
	return bounds
}

// isWordSegment reports whether the rune slice s (one segment produced by
// the UAX #29 word-break algorithm) should count as a "word" for the
// purposes of forward-word/backward-word, matching readline's skip of
// whitespace-only and punctuation-only segments.
func isWordSegment(s []rune) bool {
	for _, r := range s {
		if isWordRune(r) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return (r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		r > 0x7f
}

// NextWordEnd returns the position of the end of the next word starting at
// or after pos, generalizing the teacher's screen.NextWordEnd.
func (b *Buffer) NextWordEnd(pos int) int {
	bounds := wordBoundaries(b.Text)
	for i := 0; i+1 < len(bounds); i++ {
		if bounds[i] < pos {
			continue
		}
		seg := b.Text[bounds[i]:bounds[i+1]]
		if isWordSegment(seg) {
			return bounds[i+1]
		}
	}
	return len(b.Text)
}

// PrevWordStart returns the position of the start of the word ending at or
// before pos, generalizing the teacher's screen.PrevWordStart.
func (b *Buffer) PrevWordStart(pos int) int {
	bounds := wordBoundaries(b.Text)
	start := 0
	for i := 0; i+1 < len(bounds); i++ {
		if bounds[i+1] > pos {
			break
		}
		seg := b.Text[bounds[i]:bounds[i+1]]
		if isWordSegment(seg) {
			start = bounds[i]
		}
	}
	return start
}

// TransposeWords swaps the word ending at or before point with the
// following word, matching readline's transpose-words command.
func (b *Buffer) TransposeWords() {
	bounds := wordBoundaries(b.Text)
	var words [][2]int
	for i := 0; i+1 < len(bounds); i++ {
		seg := b.Text[bounds[i]:bounds[i+1]]
		if isWordSegment(seg) {
			words = append(words, [2]int{bounds[i], bounds[i+1]})
		}
	}
	idx := -1
	for i, w := range words {
		if w[1] > b.Point || (i == len(words)-1) {
			idx = i
			break
		}
	}
	if idx <= 0 || idx >= len(words) {
		return
	}
	prev, cur := words[idx-1], words[idx]
	prevText := append([]rune(nil), b.Text[prev[0]:prev[1]]...)
	curText := append([]rune(nil), b.Text[cur[0]:cur[1]]...)
	between := append([]rune(nil), b.Text[prev[1]:cur[0]]...)

	b.BeginUndoGroup()
	b.MoveTo(cur[1])
	b.EraseTo(prev[0])
	b.Insert(append(append(append([]rune{}, curText...), between...), prevText...)...)
	b.EndUndoGroup()
}
