// Package display implements the redisplay engine (component C7): prompt
// expansion, line wrapping, and differential screen updates. It keeps the
// teacher's screen.go philosophy — a single text buffer, redraw affected
// lines, eschew terminfo — but renders an internal/line.Buffer rather than
// owning the text itself, and understands invisible prompt-escape markers
// and horizontal-scroll mode, which the teacher's prompt never needed.
package display

import (
	"strings"

	"github.com/aidanjensen/goline/internal/mbstring"
)

// Invisible-region markers bracketing prompt bytes that do not advance the
// visible column count (e.g. color escape sequences), per spec §4.5.
const (
	invisibleStart = '\x01'
	invisibleEnd   = '\x02'
)

// PromptDescriptor is the result of expanding a raw prompt string, per
// spec §3/§4.5: the prompt's visible text, its display width, and the byte
// offsets within it where each wrapped screen line begins. If the prompt
// contains a literal newline, the portion up to and including the last one
// is split off as Prefix, written once per forced redraw rather than
// participating in the diffed redraw of the last prompt line.
type PromptDescriptor struct {
	// Prefix is the portion of the prompt up to and including its last
	// literal newline, or empty if the prompt has none.
	Prefix string
	// Text is the remainder of the prompt after Prefix: the part that
	// actually participates in cursor/column bookkeeping.
	Text []rune
	// VisibleCols is Text's display width, excluding invisible-marker runs
	// and any columns contributed by invisible bytes.
	VisibleCols int
	// WrapOffsets holds, for each screen line after the first, the rune
	// offset into Text at which that line begins.
	WrapOffsets []int
}

// ExpandPrompt performs the single left-to-right pass spec §4.5 describes:
// bytes outside \x01…\x02 advance both the rune count and the visible
// column count (via mbstring.Width, 0 for combining marks, 1/2 otherwise);
// bytes inside the markers are copied into Text but contribute to neither
// count, and the markers themselves are stripped. width is the terminal
// width used to record WrapOffsets; pass 0 to skip wrap-offset computation
// (e.g. when the width is not yet known).
func ExpandPrompt(prompt string, width int) PromptDescriptor {
	var prefix string
	if i := strings.LastIndexByte(prompt, '\n'); i >= 0 {
		prefix, prompt = prompt[:i+1], prompt[i+1:]
	}

	var d PromptDescriptor
	d.Prefix = prefix

	invisible := false
	col := 0
	for _, r := range prompt {
		switch r {
		case invisibleStart:
			invisible = true
			continue
		case invisibleEnd:
			invisible = false
			continue
		}
		d.Text = append(d.Text, r)
		if !invisible {
			w := mbstring.Width(r)
			d.VisibleCols += w
			col += w
			if width > 0 && col >= width {
				d.WrapOffsets = append(d.WrapOffsets, len(d.Text))
				col = 0
			}
		}
	}
	return d
}
