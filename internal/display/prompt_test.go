package display

import "testing"

func TestExpandPromptPlain(t *testing.T) {
	d := ExpandPrompt("$ ", 0)
	if string(d.Text) != "$ " {
		t.Fatalf("Text = %q, want %q", string(d.Text), "$ ")
	}
	if d.VisibleCols != 2 {
		t.Fatalf("VisibleCols = %d, want 2", d.VisibleCols)
	}
	if d.Prefix != "" {
		t.Fatalf("Prefix = %q, want empty", d.Prefix)
	}
}

func TestExpandPromptInvisibleMarkersDoNotCountTowardColumns(t *testing.T) {
	raw := "\x01\x1b[32m\x02user@host$ "
	d := ExpandPrompt(raw, 0)
	if d.VisibleCols != len("user@host$ ") {
		t.Fatalf("VisibleCols = %d, want %d", d.VisibleCols, len("user@host$ "))
	}
	// Markers are stripped but the bracketed bytes remain so the color
	// escape still reaches the terminal.
	want := "\x1b[32muser@host$ "
	if string(d.Text) != want {
		t.Fatalf("Text = %q, want %q", string(d.Text), want)
	}
}

func TestExpandPromptSplitsLiteralNewlinePrefix(t *testing.T) {
	d := ExpandPrompt("banner\n$ ", 0)
	if d.Prefix != "banner\n" {
		t.Fatalf("Prefix = %q, want %q", d.Prefix, "banner\n")
	}
	if string(d.Text) != "$ " {
		t.Fatalf("Text = %q, want %q", string(d.Text), "$ ")
	}
}

func TestExpandPromptRecordsWrapOffsets(t *testing.T) {
	d := ExpandPrompt("1234567890", 4)
	if len(d.WrapOffsets) != 2 {
		t.Fatalf("WrapOffsets = %v, want 2 entries", d.WrapOffsets)
	}
	if d.WrapOffsets[0] != 4 || d.WrapOffsets[1] != 8 {
		t.Fatalf("WrapOffsets = %v, want [4 8]", d.WrapOffsets)
	}
}
