// Package dispatch implements the key-sequence dispatcher (component C4):
// it reads bytes from a ByteSource, walks a keymap.Keymap, and invokes the
// bound function, submap traversal, or macro playback described in spec
// §4.1. The dispatcher is modeled as the explicit state machine Design
// Notes §9 calls for ("Two-keymap handshake"): states {Root,
// InPrefix(map, shadow, prevKey)}, rather than the recursive
// save-and-retry-with--2 shape of the underlying algorithm.
package dispatch

import (
	"time"

	"github.com/aidanjensen/goline/internal/keymap"
)

// ByteSource is the minimal input the dispatcher needs: a single blocking
// byte read with a timeout, and the ability to push bytes back (for macro
// playback and the useShadow retry). Implementations are expected to wrap
// internal/term.Terminal's raw fd reads plus an internal pending-byte queue,
// the same role the teacher's Prompt.inBuf ring plays in prompt.go.
type ByteSource interface {
	// ReadByte blocks for up to timeout (zero meaning "no timeout") and
	// returns the next byte. ok is false on timeout.
	ReadByte(timeout time.Duration) (b byte, ok bool, err error)
	// Unread pushes a byte back to be returned by the next ReadByte call,
	// ahead of anything else pending.
	Unread(b byte)
	// Feed pushes an entire byte slice back, in order, ahead of anything
	// else pending (macro playback, spec §4.1 "Macro" case).
	Feed(bs []byte)
}

// Invoker is supplied by the root package (or a test) and actually executes
// a bound command against the line buffer and friends.
type Invoker interface {
	// Invoke runs fn with the raw key sequence that triggered it. It returns an error only for conditions
	// that should abort the read loop (e.g. EOF-as-command).
	Invoke(fn keymap.Command, seq []byte) error
	// Ding signals an unbound key / dispatch failure (spec §4.1 step 1,
	// "Otherwise ding").
	Ding()
}

// Config holds the dispatcher's tunable, inputrc-settable parameters (spec
// §4.2's variable table: keyseq-timeout, convert-meta).
type Config struct {
	// KeyseqTimeout is the cooperative timeout honored while waiting for a
	// byte that completes a key sequence (spec §4.1 step 3, "Submap").
	// Zero disables the timeout (wait forever), matching readline's
	// documented keyseq-timeout of 0 meaning "no timeout".
	KeyseqTimeout time.Duration
	// MetaConversion enables spec §4.1 step 1: high-bit bytes are split
	// into an ESC prefix plus the low 7 bits when the ESC slot of the
	// current map is a submap.
	MetaConversion bool
	// ViInsertNoWait implements the vi-mode subtlety (spec §4.1
	// "Subtleties"): in the vi insertion keymap, ESC with no pending input
	// dispatches ANYOTHERKEY immediately instead of waiting out
	// KeyseqTimeout. Set by the root package only when the active keymap
	// is vi-insert.
	ViInsertNoWait bool
}

// Dispatcher reads bytes against a root keymap and invokes bound commands.
type Dispatcher struct {
	root   *keymap.Keymap
	src    ByteSource
	invoke Invoker
	cfg    Config

	// executingSeq accumulates the raw bytes of the sequence currently
	// being dispatched, per spec §4.1's "executing-keyseq buffer". It is
	// exposed via LastSequence for commands (like the teacher's
	// "previous character" helpers) that need to inspect or truncate it.
	executingSeq []byte
}

// New constructs a Dispatcher over root using src for input and invoke to
// run bound commands.
func New(root *keymap.Keymap, src ByteSource, invoke Invoker, cfg Config) *Dispatcher {
	return &Dispatcher{root: root, src: src, invoke: invoke, cfg: cfg}
}

// SetRoot switches the dispatching root keymap, e.g. on `set keymap` or a
// vi mode transition (emacs <-> vi-command <-> vi-insert).
func (d *Dispatcher) SetRoot(root *keymap.Keymap) { d.root = root }

// LastSequence returns the raw bytes of the sequence currently or most
// recently being dispatched. Commands that need to truncate it (spec §4.1
// "Subtleties": "the executing-keyseq buffer is truncated to match") should
// call TruncateSequence.
func (d *Dispatcher) LastSequence() []byte { return d.executingSeq }

// TruncateSequence truncates the executing-keyseq buffer to n bytes.
func (d *Dispatcher) TruncateSequence(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(d.executingSeq) {
		n = len(d.executingSeq)
	}
	d.executingSeq = d.executingSeq[:n]
}

// state names the two dispatcher states from Design Notes §9.
type state int

const (
	stateRoot state = iota
	stateInPrefix
)

// frame is one level of the InPrefix(map, shadow, prevKey) state.
type frame struct {
	m       *keymap.Keymap
	shadow  keymap.Entry
	prevKey byte
}

// Step reads and dispatches exactly one top-level key sequence: it consumes
// bytes from src until a function is invoked, a macro is fed back (its
// bytes are pushed onto src and consumed by later Step calls), or the input
// is exhausted (err == io.EOF propagated from ReadByte). It returns the
// command actually invoked (empty if only a ding occurred).
func (d *Dispatcher) Step() (keymap.Command, error) {
	d.executingSeq = d.executingSeq[:0]
	return d.dispatchFrom(stateRoot, frame{m: d.root, shadow: d.root.Get(keymap.AnyOtherKey)})
}

// dispatchFrom implements spec §4.1's dispatch algorithm as an explicit
// state machine. st/fr describe the current {Root, InPrefix} state; the
// ANYOTHERKEY timeout only applies when we are in InPrefix.
func (d *Dispatcher) dispatchFrom(st state, fr frame) (keymap.Command, error) {
	var timeout time.Duration
	if st == stateInPrefix {
		timeout = d.cfg.KeyseqTimeout
		if d.cfg.ViInsertNoWait && fr.prevKey == 0x1b {
			timeout = 1
		}
	}

	b, ok, err := d.src.ReadByte(timeout)
	if err != nil {
		return "", err
	}
	if !ok {
		// keyseq-timeout (or the vi-insert ESC no-wait case) expired: fall
		// through to the shadow binding, if any (spec §4.1 step 3).
		return d.useShadowOrDing(fr)
	}

	// Step 1: meta conversion.
	if d.cfg.MetaConversion && b&0x80 != 0 {
		if esc := fr.m.Get(0x1b); esc.Kind == keymap.KindSubmap {
			d.executingSeq = append(d.executingSeq, 0x1b)
			next := frame{m: esc.Submap, shadow: esc.Submap.Get(keymap.AnyOtherKey)}
			return d.dispatchByte(b&0x7f, next)
		}
		d.invoke.Ding()
		return "", nil
	}

	return d.dispatchByte(b, fr)
}

// dispatchByte implements spec §4.1 steps 2-4 for a single already-read
// byte b against the current frame fr.
func (d *Dispatcher) dispatchByte(b byte, fr frame) (keymap.Command, error) {
	d.executingSeq = append(d.executingSeq, b)
	e := fr.m.Get(int(b))

	switch e.Kind {
	case keymap.KindFunction:
		if e.Func == "" {
			// Distinguished null function: defer to the shadow, if bound.
			d.src.Unread(b)
			d.executingSeq = d.executingSeq[:len(d.executingSeq)-1]
			return d.useShadowOrDing(fr)
		}
		if e.Func == keymap.DoLowercaseVersion {
			lower := b
			if lower >= 'A' && lower <= 'Z' {
				lower += 'a' - 'A'
			}
			d.executingSeq = d.executingSeq[:len(d.executingSeq)-1]
			return d.dispatchByte(lower, fr)
		}
		if err := d.invoke.Invoke(e.Func, append([]byte(nil), d.executingSeq...)); err != nil {
			return e.Func, err
		}
		return e.Func, nil

	case keymap.KindSubmap:
		next := frame{m: e.Submap, shadow: e.Submap.Get(keymap.AnyOtherKey), prevKey: b}
		return d.dispatchFrom(stateInPrefix, next)

	case keymap.KindMacro:
		d.src.Feed(e.Macro)
		return "", nil

	default: // KindEmpty
		d.invoke.Ding()
		return "", nil
	}
}

// useShadowOrDing implements spec §4.1's "use the shadowed binding" / ding
// fallback: if fr.m's ANYOTHERKEY slot is bound, dispatch it as though it
// were read in place of the byte that failed to complete the sequence.
// Otherwise the whole sequence is unbound: ding.
func (d *Dispatcher) useShadowOrDing(fr frame) (keymap.Command, error) {
	shadow := fr.shadow
	switch shadow.Kind {
	case keymap.KindFunction:
		if shadow.Func == "" {
			d.invoke.Ding()
			return "", nil
		}
		if err := d.invoke.Invoke(shadow.Func, append([]byte(nil), d.executingSeq...)); err != nil {
			return shadow.Func, err
		}
		return shadow.Func, nil
	case keymap.KindMacro:
		d.src.Feed(shadow.Macro)
		return "", nil
	case keymap.KindSubmap:
		// A shadow can itself be a submap if binding occurred beneath an
		// already-shadowed prefix; recurse one more level, again waiting up
		// to KeyseqTimeout for the next byte.
		next := frame{m: shadow.Submap, shadow: shadow.Submap.Get(keymap.AnyOtherKey)}
		return d.dispatchFrom(stateInPrefix, next)
	default:
		d.invoke.Ding()
		return "", nil
	}
}
