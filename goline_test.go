package goline

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aidanjensen/goline/internal/config"
)

// noInputrc returns a config.Manager pre-populated with defaults except
// Inputrc.Load disabled, so tests never touch a real ~/.inputrc.
func noInputrc() *config.Manager {
	mgr := config.NewManager()
	mgr.GetConfig().Inputrc.Load = false
	return mgr
}

// readLineResult is what a background ReadLine call reports back over a
// channel, since ReadLine blocks until a line is accepted/aborted.
type readLineResult struct {
	text string
	err  error
}

func startReadLine(p *Prompt, prompt string) <-chan readLineResult {
	ch := make(chan readLineResult, 1)
	go func() {
		text, err := p.ReadLine(prompt)
		ch <- readLineResult{text, err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan readLineResult) readLineResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ReadLine")
		return readLineResult{}
	}
}

func TestReadLineAcceptsOnEnter(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer

	p := New(WithInput(pr), WithOutput(&out), WithSize(80, 24), WithConfig(noInputrc()))
	defer p.Close()

	ch := startReadLine(p, "> ")
	io.WriteString(pw, "hello\r")

	r := await(t, ch)
	if r.err != nil {
		t.Fatalf("ReadLine returned error: %v", r.err)
	}
	if r.text != "hello" {
		t.Fatalf("got text %q, want %q", r.text, "hello")
	}
}

func TestReadLineEditing(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer

	p := New(WithInput(pr), WithOutput(&out), WithSize(80, 24), WithConfig(noInputrc()))
	defer p.Close()

	ch := startReadLine(p, "> ")
	// "held" then Backspace x2 then "llo" -> "hello", exercising
	// backward-delete-char.
	io.WriteString(pw, "held\x7f\x7fllo\r")

	r := await(t, ch)
	if r.err != nil {
		t.Fatalf("ReadLine returned error: %v", r.err)
	}
	if r.text != "hello" {
		t.Fatalf("got text %q, want %q", r.text, "hello")
	}
}

func TestReadLineCancelReturnsErrInterrupted(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer

	p := New(WithInput(pr), WithOutput(&out), WithSize(80, 24), WithConfig(noInputrc()))
	defer p.Close()

	ch := startReadLine(p, "> ")
	io.WriteString(pw, "abc\x03")

	r := await(t, ch)
	if !errors.Is(r.err, ErrInterrupted) {
		t.Fatalf("got err %v, want ErrInterrupted", r.err)
	}
}

func TestReadLineEOFOnEmptyCtrlD(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer

	p := New(WithInput(pr), WithOutput(&out), WithSize(80, 24), WithConfig(noInputrc()))
	defer p.Close()

	ch := startReadLine(p, "> ")
	io.WriteString(pw, "\x04")

	r := await(t, ch)
	if !errors.Is(r.err, io.EOF) {
		t.Fatalf("got err %v, want io.EOF", r.err)
	}
	if r.text != "" {
		t.Fatalf("got text %q, want empty", r.text)
	}
}

func TestReadLineHistoryRecall(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer

	p := New(WithInput(pr), WithOutput(&out), WithSize(80, 24), WithConfig(noInputrc()))
	defer p.Close()

	ch := startReadLine(p, "> ")
	io.WriteString(pw, "first command\r")
	r := await(t, ch)
	if r.err != nil || r.text != "first command" {
		t.Fatalf("first line: got (%q, %v)", r.text, r.err)
	}

	// Recall the previous entry with Up, then accept it verbatim.
	ch = startReadLine(p, "> ")
	io.WriteString(pw, "\x1b[A\r")
	r = await(t, ch)
	if r.err != nil {
		t.Fatalf("second line error: %v", r.err)
	}
	if r.text != "first command" {
		t.Fatalf("got recalled text %q, want %q", r.text, "first command")
	}
}

func TestReadLineInputFinishedContinuesOnNewline(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer

	finished := func(text string) bool {
		return len(text) > 0 && text[len(text)-1] == ';'
	}

	p := New(WithInput(pr), WithOutput(&out), WithSize(80, 24), WithConfig(noInputrc()),
		WithInputFinished(finished))
	defer p.Close()

	ch := startReadLine(p, "> ")
	io.WriteString(pw, "not done\r")
	io.WriteString(pw, "now done;\r")

	r := await(t, ch)
	if r.err != nil {
		t.Fatalf("ReadLine returned error: %v", r.err)
	}
	want := "not done\nnow done;"
	if r.text != want {
		t.Fatalf("got text %q, want %q", r.text, want)
	}
}

func TestWithSizeAndWithOutputOrdering(t *testing.T) {
	// WithOutput replaces the screen entirely, so it must be supplied
	// before WithSize for the size to stick -- matching the same ordering
	// sensitivity the teacher's own options carry.
	var out bytes.Buffer
	p := New(WithOutput(&out), WithSize(40, 10), WithConfig(noInputrc()))
	defer p.Close()

	width, height, err := p.term.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	// A pipe/buffer is never a tty, so Size reports the conservative
	// default rather than the configured screen dimensions.
	if width != 80 || height != 24 {
		t.Fatalf("got (%d, %d), want (80, 24)", width, height)
	}
}
