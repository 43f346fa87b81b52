package search

import (
	"testing"

	"github.com/aidanjensen/goline/internal/history"
	"github.com/aidanjensen/goline/internal/line"
)

func newFixture(entries ...string) (*history.Store, *line.Buffer) {
	h := history.New()
	for _, e := range entries {
		h.Add(e)
	}
	b := line.New()
	return h, b
}

func TestIncrementalSearchFindsMatch(t *testing.T) {
	h, b := newFixture("echo one", "grep foo bar", "echo two")
	s := NewSession(h, b, Reverse)

	for _, r := range "foo" {
		s.AppendChar(r)
	}
	if s.State() != Running {
		t.Fatalf("State() = %v, want Running", s.State())
	}
	if got := string(b.Text); got != "grep foo bar" {
		t.Fatalf("buffer = %q, want %q", got, "grep foo bar")
	}
}

func TestIncrementalSearchNoMatchFails(t *testing.T) {
	h, b := newFixture("echo one", "echo two")
	s := NewSession(h, b, Reverse)
	for _, r := range "zzz" {
		s.AppendChar(r)
	}
	if s.State() != Failed {
		t.Fatalf("State() = %v, want Failed", s.State())
	}
}

func TestIncrementalSearchBackspaceDingsOnEmpty(t *testing.T) {
	h, b := newFixture("echo one")
	s := NewSession(h, b, Reverse)
	if dinged := s.Backspace(); !dinged {
		t.Fatal("Backspace() on empty query should ding")
	}
}

func TestIncrementalSearchAbortRestoresSnapshot(t *testing.T) {
	h, b := newFixture("echo one", "echo two")
	b.Insert([]rune("partial")...)
	origText := string(b.Text)
	origPoint := b.Point

	s := NewSession(h, b, Reverse)
	for _, r := range "one" {
		s.AppendChar(r)
	}
	if string(b.Text) == origText {
		t.Fatal("expected buffer to change during search")
	}

	s.Abort()
	if s.State() != Aborted {
		t.Fatalf("State() = %v, want Aborted", s.State())
	}
	if string(b.Text) != origText {
		t.Fatalf("buffer = %q after abort, want restored %q", string(b.Text), origText)
	}
	if b.Point != origPoint {
		t.Fatalf("point = %d after abort, want restored %d", b.Point, origPoint)
	}
}

func TestIncrementalSearchEmptyQueryReusesLastSearchString(t *testing.T) {
	h, b := newFixture("alpha", "beta", "alpha again")
	s := NewSession(h, b, Reverse)
	for _, r := range "alpha" {
		s.AppendChar(r)
	}
	s.Commit()
	last := s.LastSearchString

	s2 := NewSession(h, b, Reverse)
	s2.LastSearchString = last
	s2.Advance(Reverse)
	if s2.Query() != "alpha" {
		t.Fatalf("Query() = %q, want reused %q", s2.Query(), "alpha")
	}
}

func TestIncrementalSearchAppendWordAndYank(t *testing.T) {
	h, b := newFixture("grep foo bar baz")
	s := NewSession(h, b, Reverse)
	for _, r := range "foo" {
		s.AppendChar(r)
	}
	s.AppendWord()
	if s.Query() != "foo bar" {
		t.Fatalf("Query() after AppendWord = %q, want %q", s.Query(), "foo bar")
	}
	s.AppendRestOfLine()
	if s.Query() != "foo bar baz" {
		t.Fatalf("Query() after AppendRestOfLine = %q, want %q", s.Query(), "foo bar baz")
	}
}

func TestIncrementalSearchIsTerminator(t *testing.T) {
	h, b := newFixture("x")
	s := NewSession(h, b, Reverse)
	if !s.IsTerminator(0x1b) {
		t.Fatal("ESC should be a terminator by default")
	}
	if !s.IsTerminator(0x0a) {
		t.Fatal("C-J should be a terminator by default")
	}
	if s.IsTerminator('a') {
		t.Fatal("'a' should not be a terminator")
	}
}
