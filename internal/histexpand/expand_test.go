package histexpand

import "testing"

type fakeSource struct {
	base    int
	entries []string
}

func (f *fakeSource) Base() int { return f.base }
func (f *fakeSource) Len() int  { return len(f.entries) }
func (f *fakeSource) Line(i int) (string, bool) {
	idx := i - f.base
	if idx < 0 || idx >= len(f.entries) {
		return "", false
	}
	return f.entries[idx], true
}

func newFakeSource(entries ...string) *fakeSource {
	return &fakeSource{base: 1, entries: entries}
}

func TestExpandIdempotentWithoutSpecialChars(t *testing.T) {
	e := New(newFakeSource("echo hi"), DefaultOptions())
	got, code, err := e.Expand("ls -la /tmp")
	if err != nil {
		t.Fatal(err)
	}
	if code != 0 || got != "ls -la /tmp" {
		t.Fatalf("Expand() = %q, %d, want unchanged, 0", got, code)
	}
}

func TestExpandBangBang(t *testing.T) {
	e := New(newFakeSource("echo one", "echo two"), DefaultOptions())
	got, code, err := e.Expand("!!")
	if err != nil {
		t.Fatal(err)
	}
	if code != 1 || got != "echo two" {
		t.Fatalf("Expand(!!) = %q, %d, want %q, 1", got, code, "echo two")
	}
}

func TestExpandAbsoluteEventNumber(t *testing.T) {
	e := New(newFakeSource("echo one", "echo two", "echo three"), DefaultOptions())
	got, code, err := e.Expand("!2")
	if err != nil {
		t.Fatal(err)
	}
	if code != 1 || got != "echo two" {
		t.Fatalf("Expand(!2) = %q, %d, want %q, 1", got, code, "echo two")
	}
}

func TestExpandEventOutOfRangeFails(t *testing.T) {
	e := New(newFakeSource("echo one"), DefaultOptions())
	_, code, err := e.Expand("!99")
	if code != -1 || err == nil {
		t.Fatalf("Expand(!99) = %d, %v, want -1, error", code, err)
	}
}

func TestExpandRelativeBack(t *testing.T) {
	e := New(newFakeSource("a", "b", "c"), DefaultOptions())
	got, _, err := e.Expand("!-2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "b" {
		t.Fatalf("Expand(!-2) = %q, want b", got)
	}
}

func TestExpandPrefixSearch(t *testing.T) {
	e := New(newFakeSource("echo one", "ls -la", "echo two"), DefaultOptions())
	got, code, err := e.Expand("!echo")
	if err != nil {
		t.Fatal(err)
	}
	if code != 1 || got != "echo two" {
		t.Fatalf("Expand(!echo) = %q, %d, want %q, 1", got, code, "echo two")
	}
}

func TestExpandSubstringSearch(t *testing.T) {
	e := New(newFakeSource("cat file.txt", "grep foo bar.txt"), DefaultOptions())
	got, _, err := e.Expand("!?foo?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "grep foo bar.txt" {
		t.Fatalf("Expand(!?foo?) = %q, want grep line", got)
	}
}

func TestExpandQuickSubstEquivalence(t *testing.T) {
	e1 := New(newFakeSource("foo bar baz"), DefaultOptions())
	got1, code1, err1 := e1.Expand("^bar^qux^rest")

	e2 := New(newFakeSource("foo bar baz"), DefaultOptions())
	got2, code2, err2 := e2.Expand("!!:s^bar^qux^rest")

	if err1 != nil || err2 != nil {
		t.Fatalf("errors: %v, %v", err1, err2)
	}
	if got1 != got2 || code1 != code2 {
		t.Fatalf("quick-subst %q,%d != long form %q,%d", got1, code1, got2, code2)
	}
}

func TestExpandWordDesignators(t *testing.T) {
	e := New(newFakeSource("cmd arg1 arg2 arg3"), DefaultOptions())

	got, _, err := e.Expand("!!:0")
	if err != nil || got != "cmd" {
		t.Fatalf("!!:0 = %q, %v, want cmd", got, err)
	}

	got, _, err = e.Expand("!!:^")
	if err != nil || got != "arg1" {
		t.Fatalf("!!:^ = %q, %v, want arg1", got, err)
	}

	got, _, err = e.Expand("!!:$")
	if err != nil || got != "arg3" {
		t.Fatalf("!!:$ = %q, %v, want arg3", got, err)
	}

	got, _, err = e.Expand("!!:*")
	if err != nil || got != "arg1 arg2 arg3" {
		t.Fatalf("!!:* = %q, %v, want arg1 arg2 arg3", got, err)
	}

	got, _, err = e.Expand("!!:1-2")
	if err != nil || got != "arg1 arg2" {
		t.Fatalf("!!:1-2 = %q, %v, want arg1 arg2", got, err)
	}
}

func TestExpandModifiersPathAndSubst(t *testing.T) {
	// Without a preceding word designator, :h/:t/:r/:e treat the whole
	// resolved event text as a single pathname, matching the original's
	// behavior of defaulting the modifier's operand to the entire line.
	e := New(newFakeSource("ls /usr/local/bin/tool.sh"), DefaultOptions())

	got, _, err := e.Expand("!!:h")
	if err != nil || got != "ls /usr/local/bin" {
		t.Fatalf("!!:h = %q, %v, want %q", got, err, "ls /usr/local/bin")
	}

	e2 := New(newFakeSource("ls /usr/local/bin/tool.sh"), DefaultOptions())
	got, _, err = e2.Expand("!!:^:t")
	if err != nil || got != "tool.sh" {
		t.Fatalf("!!:^:t = %q, %v, want tool.sh", got, err)
	}

	e3 := New(newFakeSource("echo hello world"), DefaultOptions())
	got, _, err = e3.Expand("!!:s/hello/goodbye/")
	if err != nil || got != "echo goodbye world" {
		t.Fatalf("!!:s = %q, %v, want echo goodbye world", got, err)
	}
}

func TestExpandWordSpecOutOfRangeFails(t *testing.T) {
	e := New(newFakeSource("cmd arg1"), DefaultOptions())
	_, code, err := e.Expand("!!:9")
	if code != -1 || err == nil {
		t.Fatalf("!!:9 = %d, %v, want -1, error", code, err)
	}
}

func TestExpandSingleQuoteInhibits(t *testing.T) {
	opts := DefaultOptions()
	opts.QuotesInhibit = true
	e := New(newFakeSource("echo one"), opts)
	got, code, err := e.Expand("echo '!!'")
	if err != nil {
		t.Fatal(err)
	}
	if code != 0 || got != "echo '!!'" {
		t.Fatalf("Expand in single quotes = %q, %d, want unchanged", got, code)
	}
}
