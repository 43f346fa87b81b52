package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPersistVisRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history")

	p := NewPersist(path, WithHistoryFormat(FormatVis))
	s := New()
	if err := p.Load(s); err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"echo hi", "ls -la", "echo with spaces"} {
		e := s.Add(line)
		if err := p.Append(*e); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	s2 := New()
	p2 := NewPersist(path, WithHistoryFormat(FormatVis))
	if err := p2.Load(s2); err != nil {
		t.Fatal(err)
	}
	defer p2.Close()

	all := s2.All()
	want := []string{"echo hi", "ls -la", "echo with spaces"}
	if len(all) != len(want) {
		t.Fatalf("All() = %v, want %v", all, want)
	}
	for i, w := range want {
		if all[i].Line != w {
			t.Fatalf("All()[%d] = %q, want %q", i, all[i].Line, w)
		}
	}
}

func TestPersistTimestampedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history")

	p := NewPersist(path, WithHistoryFormat(FormatTimestamped), WithTimestamping(true))
	s := New()
	e1 := s.Add("echo one")
	e1.Time = time.Unix(1700000000, 0)
	e2 := s.Add("echo two\nwith a continuation")
	e2.Time = time.Unix(1700000100, 0)

	if err := p.WriteAll(s); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)
	if content == "" {
		t.Fatal("expected non-empty file")
	}

	s2 := New()
	p2 := NewPersist(path, WithHistoryFormat(FormatTimestamped), WithTimestamping(true))
	if err := p2.Load(s2); err != nil {
		t.Fatal(err)
	}
	defer p2.Close()

	all := s2.All()
	if len(all) != 2 {
		t.Fatalf("All() = %v, want 2 entries", all)
	}
	if all[0].Line != "echo one" {
		t.Fatalf("all[0].Line = %q, want %q", all[0].Line, "echo one")
	}
	if all[1].Line != "echo two\nwith a continuation" {
		t.Fatalf("all[1].Line = %q, want multi-line entry", all[1].Line)
	}
	if !all[0].Time.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("all[0].Time = %v, want 1700000000", all[0].Time)
	}
}

func TestPersistWriteAllIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history")

	p := NewPersist(path, WithHistoryFormat(FormatVis))
	s := New()
	s.Add("first")
	if err := p.WriteAll(s); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("leftover tmp file: %s", e.Name())
		}
	}
}

func TestLooksLikeTimestamp(t *testing.T) {
	p := NewPersist("", WithCommentChar('#'))
	cases := map[string]bool{
		"#1700000000": true,
		"#abc":        false,
		"echo hi":     false,
		"#":           false,
	}
	for line, want := range cases {
		if got := p.looksLikeTimestamp(line); got != want {
			t.Fatalf("looksLikeTimestamp(%q) = %v, want %v", line, got, want)
		}
	}
}
