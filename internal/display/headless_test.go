package display

import (
	"bytes"
	"testing"

	headlessterm "github.com/danielgatis/go-headless-term"

	"github.com/aidanjensen/goline/internal/line"
)

// feedVTE replays out's bytes through a real VT220-class virtual terminal
// and returns the flattened text of its first row, trimmed of trailing
// blanks. Using a real VTE (rather than hand-parsing escapes with a
// regexp, as the teacher's mockTerm in prompt_test.go does) directly
// exercises testable property #9 (redisplay convergence): whatever goline
// emits must render correctly under an independent terminal implementation.
func feedVTE(t *testing.T, out []byte, rows, cols int) *headlessterm.Terminal {
	t.Helper()
	term := headlessterm.New(headlessterm.WithSize(rows, cols))
	if _, err := term.Write(out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return term
}

func rowText(term *headlessterm.Terminal, row int) string {
	var b bytes.Buffer
	for col := 0; col < term.Cols(); col++ {
		c := term.Cell(row, col)
		if c == nil || c.Char == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Char)
	}
	return b.String()
}

func TestRenderConvergesUnderVirtualTerminal(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)
	s.SetSize(40, 24)

	buf := line.New()
	buf.Insert([]rune("hello world")...)

	prompt := ExpandPrompt("$ ", 0)
	s.Render(prompt, buf, nil)
	s.Flush()

	vt := feedVTE(t, out.Bytes(), 24, 40)
	got := rowText(vt, 0)
	want := "$ hello world"
	if len(got) < len(want) || got[:len(want)] != want {
		t.Fatalf("row 0 = %q, want prefix %q", got, want)
	}
}

func TestRenderEditThenShrinkConverges(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)
	s.SetSize(40, 24)

	buf := line.New()
	buf.Insert([]rune("a long input line")...)
	prompt := ExpandPrompt("$ ", 0)
	s.Render(prompt, buf, nil)

	buf.EraseTo(len(buf.Text) - len("input line"))
	s.Render(prompt, buf, nil)
	s.Flush()

	vt := feedVTE(t, out.Bytes(), 24, 40)
	got := rowText(vt, 0)
	want := "$ a long "
	if len(got) < len(want) || got[:len(want)] != want {
		t.Fatalf("row 0 = %q, want prefix %q", got, want)
	}
	rest := got[len(want):]
	for i, r := range rest {
		if r != ' ' {
			t.Fatalf("row 0 not cleared after shrink, found %q at %d: %q", r, i, got)
		}
	}
}

func TestRenderHighlightsStandoutSpan(t *testing.T) {
	var out bytes.Buffer
	s := New(&out)
	s.SetSize(40, 24)

	buf := line.New()
	buf.Insert([]rune("grep foo bar")...)
	s.SetFace(5, 8, FaceStandout)

	prompt := ExpandPrompt("", 0)
	s.Render(prompt, buf, nil)
	s.Flush()

	vt := feedVTE(t, out.Bytes(), 24, 40)
	c := vt.Cell(0, 5)
	if c == nil || c.Flags&headlessterm.CellFlagReverse == 0 {
		t.Fatalf("expected reverse-video flag on standout span, cell = %+v", c)
	}
	c = vt.Cell(0, 9)
	if c != nil && c.Flags&headlessterm.CellFlagReverse != 0 {
		t.Fatalf("reverse-video flag leaked past standout span end")
	}
}
