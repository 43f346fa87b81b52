package search

import (
	"testing"

	"github.com/aidanjensen/goline/internal/history"
)

func TestSubstringSearchMostRecentMatch(t *testing.T) {
	h := history.New()
	h.Add("echo one")
	h.Add("cat file.txt")
	h.Add("echo two")

	line, idx, ok := Substring(h, "echo", Anywhere)
	if !ok {
		t.Fatal("expected a match")
	}
	if line != "echo two" {
		t.Fatalf("line = %q, want %q", line, "echo two")
	}
	if e, _ := h.Get(idx); e.Line != line {
		t.Fatalf("Get(%d) = %q, want %q", idx, e.Line, line)
	}
}

func TestSubstringSearchAnchored(t *testing.T) {
	h := history.New()
	h.Add("make build")
	h.Add("echo make")

	_, _, ok := Substring(h, "make", AtStart)
	if !ok {
		t.Fatal("expected anchored match on 'make build'")
	}
	line, _, _ := Substring(h, "make", AtStart)
	if line != "make build" {
		t.Fatalf("line = %q, want %q", line, "make build")
	}
}

func TestGlobSearchNormalizesPattern(t *testing.T) {
	h := history.New()
	h.Add("ls /tmp/foo.txt")
	h.Add("rm /tmp/bar.log")

	line, _, err := Glob(h, "*.log", Anywhere)
	if err != nil {
		t.Fatal(err)
	}
	if line != "rm /tmp/bar.log" {
		t.Fatalf("line = %q, want %q", line, "rm /tmp/bar.log")
	}
}

func TestGlobSearchRejectsDanglingBackslash(t *testing.T) {
	h := history.New()
	h.Add("echo one")
	_, _, err := Glob(h, `foo\`, Anywhere)
	if err == nil {
		t.Fatal("expected error for dangling backslash pattern")
	}
}
