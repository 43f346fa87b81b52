package goline

import (
	"github.com/aidanjensen/goline/internal/inputrc"
	"github.com/aidanjensen/goline/internal/keymap"
)

// controlBindings mirrors the teacher's bind.go defaultBindings table: the
// Control- and Meta- single-key bindings every GNU-readline-compatible
// emacs keymap carries, generalized from key|mods runes to raw byte
// sequences bound via keymap.BindKey/BindKeySeq.
var controlBindings = []struct {
	seq []byte
	fn  keymap.Command
}{
	{[]byte{0x01}, cmdBeginningOfLine},       // C-a
	{[]byte{0x02}, cmdBackwardChar},          // C-b
	{[]byte{0x03}, cmdCancel},                // C-c
	{[]byte{0x04}, cmdExitOrDeleteChar},      // C-d
	{[]byte{0x05}, cmdEndOfLine},             // C-e
	{[]byte{0x06}, cmdForwardChar},           // C-f
	{[]byte{0x07}, cmdAbort},                 // C-g
	{[]byte{0x08}, cmdBackwardDeleteChar},    // C-h
	{[]byte{0x0b}, cmdKillLine},              // C-k
	{[]byte{0x0c}, cmdClearScreen},           // C-l
	{[]byte{0x0d}, cmdAcceptLine},            // C-m / Enter
	{[]byte{0x0e}, cmdNextHistory},           // C-n
	{[]byte{0x10}, cmdPreviousHistory},       // C-p
	{[]byte{0x12}, cmdReverseSearchHistory},  // C-r
	{[]byte{0x13}, cmdForwardSearchHistory},  // C-s
	{[]byte{0x14}, cmdTransposeChars},        // C-t
	{[]byte{0x15}, cmdBackwardKillLine},      // C-u
	{[]byte{0x16}, cmdQuotedInsert},          // C-v
	{[]byte{0x17}, cmdBackwardKillWord},      // C-w
	{[]byte{0x18, 0x18}, cmdHistoryExpandLine}, // C-x C-x
	{[]byte{0x19}, cmdYank},                  // C-y
	{[]byte{0x1f}, cmdUndo},                  // C-_
	{[]byte{0x7f}, cmdBackwardDeleteChar},    // Backspace

	{[]byte{0x1b, 'b'}, cmdBackwardWord},            // M-b
	{[]byte{0x1b, 'd'}, cmdKillWord},                // M-d
	{[]byte{0x1b, 'f'}, cmdForwardWord},              // M-f
	{[]byte{0x1b, 't'}, cmdTransposeWords},           // M-t
	{[]byte{0x1b, 'y'}, cmdYankPop},                  // M-y
	{[]byte{0x1b, '\\'}, cmdDeleteHorizontalSpace},   // M-\
	{[]byte{0x1b, 0x7f}, cmdBackwardKillWord},        // M-Backspace
	{[]byte{0x1b, 0x08}, cmdBackwardKillWord},        // M-C-h
	{[]byte{0x1b, 0x0d}, cmdInsertNewline},           // M-Enter
}

// arrowBindings reuses the teacher's input.go supportedSeqs table (the
// concrete raw ANSI escape sequences recognized across ~75% of the
// terminfo database's entries): arrow keys, Home/End, Delete, with their
// Ctrl/Alt-modified variants bound to the matching word-motion commands.
var arrowBindings = []struct {
	seq []byte
	fn  keymap.Command
}{
	{[]byte("\x1bOA"), cmdPreviousHistory},
	{[]byte("\x1b[A"), cmdPreviousHistory},
	{[]byte("\x1bOB"), cmdNextHistory},
	{[]byte("\x1b[B"), cmdNextHistory},
	{[]byte("\x1bOC"), cmdForwardChar},
	{[]byte("\x1b[C"), cmdForwardChar},
	{[]byte("\x1bOD"), cmdBackwardChar},
	{[]byte("\x1b[D"), cmdBackwardChar},
	{[]byte("\x1b[1;5C"), cmdForwardWord},
	{[]byte("\x1b[1;5D"), cmdBackwardWord},
	{[]byte("\x1bOH"), cmdBeginningOfLine},
	{[]byte("\x1b[H"), cmdBeginningOfLine},
	{[]byte("\x1b[1~"), cmdBeginningOfLine},
	{[]byte("\x1b[7~"), cmdBeginningOfLine},
	{[]byte("\x1bOF"), cmdEndOfLine},
	{[]byte("\x1b[F"), cmdEndOfLine},
	{[]byte("\x1b[4~"), cmdEndOfLine},
	{[]byte("\x1b[8~"), cmdEndOfLine},
	{[]byte("\x1b[3~"), cmdDeleteChar},
}

// InstallDefaultBindings populates reg's emacs and vi-insert keymaps with
// goline's default command set. Exported so a caller that wants to
// introspect or extend the default bindings (cmd/bind) can build a
// Registry without constructing a full Prompt.
func InstallDefaultBindings(reg *keymap.Registry) {
	installDefaultBindings(reg)
}

// installDefaultBindings populates the registry's emacs and vi-insert
// keymaps with the default command set, grounded on the teacher's bind.go
// defaultBindings string and input.go supportedSeqs map.
func installDefaultBindings(reg *keymap.Registry) {
	emacs := reg.Get("emacs")
	installASCII(emacs)
	installControlAndMeta(emacs)
	installArrows(emacs)

	viInsert := reg.Get("vi-insert")
	installASCII(viInsert)
	installArrows(viInsert)
	viInsert.BindKey(0x1b, cmdAbort) // ESC leaves insert mode; vi-command is unimplemented (spec §4.2 Non-goal)
	viInsert.BindKey(0x0d, cmdAcceptLine)
	viInsert.BindKey(0x7f, cmdBackwardDeleteChar)
	viInsert.BindKey(0x04, cmdExitOrDeleteChar)
}

// installASCII binds every printable byte (0x20-0x7e) and every
// continuation/lead byte of a multibyte UTF-8 sequence (0x80-0xff) to
// self-insert, matching GNU readline's default emacs keymap rather than
// the teacher's implicit "anything unbound is insert-char" convention.
func installASCII(k *keymap.Keymap) {
	for b := 0x20; b <= 0x7e; b++ {
		k.BindKey(byte(b), cmdSelfInsert)
	}
	for b := 0x80; b <= 0xff; b++ {
		k.BindKey(byte(b), cmdSelfInsert)
	}
	k.BindKey('\t', cmdSelfInsert)
}

func installControlAndMeta(k *keymap.Keymap) {
	for _, b := range controlBindings {
		bindSeq(k, b.seq, b.fn)
	}
}

func installArrows(k *keymap.Keymap) {
	for _, b := range arrowBindings {
		bindSeq(k, b.seq, b.fn)
	}
}

func bindSeq(k *keymap.Keymap, seq []byte, fn keymap.Command) {
	if len(seq) == 1 {
		k.BindKey(seq[0], fn)
		return
	}
	k.BindKeySeq(seq, keymap.Entry{Kind: keymap.KindFunction, Func: fn})
}

// inputrcSink adapts a Prompt to inputrc.Sink, wiring `.inputrc` bindings
// and `set` directives into the active keymap and variable table, per
// spec §4.2.
type inputrcSink struct {
	p *Prompt
}

func (s *inputrcSink) Bind(b inputrc.Binding) error {
	k := s.p.active
	if b.IsMacro {
		entry := keymap.Entry{Kind: keymap.KindMacro, Macro: b.Macro}
		if len(b.Seq) == 1 {
			k.Set(int(b.Seq[0]), entry)
			return nil
		}
		k.BindKeySeq(b.Seq, entry)
		return nil
	}
	bindSeq(k, b.Seq, b.Func)
	return nil
}

func (s *inputrcSink) SetVariable(name, value string) error {
	return errUnhandledVariable
}

func (s *inputrcSink) SwitchKeymap(name string) error {
	if k := s.p.keymaps.Get(name); k != nil {
		s.p.active = k
	}
	return nil
}

var errUnhandledVariable = unhandledVariableError{}

type unhandledVariableError struct{}

func (unhandledVariableError) Error() string { return "goline: variable not handled by sink" }
