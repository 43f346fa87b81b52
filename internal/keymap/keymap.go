// Package keymap implements the keymap store (component C3): fixed 257-slot
// dispatch tables keyed by raw byte plus the ANYOTHERKEY sentinel, with
// function/submap/macro entries and a process-wide named-keymap registry.
package keymap

// AnyOtherKey is the sentinel slot index 256: "any other key after this
// prefix", used both for the shadow-binding fallback and for
// keyseq-timeout disambiguation (spec §4.1).
const AnyOtherKey = 256

// NumSlots is the fixed size of a Keymap: 256 byte values plus AnyOtherKey.
const NumSlots = 257

// EntryKind tags which case of the Entry union is populated.
type EntryKind int

const (
	// KindEmpty is the distinguished null/empty variant: no binding.
	// Unbinding a slot that holds a submap installs the null function (a
	// KindFunction entry with an empty Func) instead; see BindKeySeq.
	KindEmpty EntryKind = iota
	// KindFunction holds a named editing command.
	KindFunction
	// KindSubmap holds an owning reference to another Keymap, used when the
	// current byte is a prefix of a longer sequence.
	KindSubmap
	// KindMacro holds an owned byte string fed back into the input stream.
	KindMacro
)

// Command identifies a named editing function. The zero value, in a slot
// whose Kind is KindFunction, is the distinguished null function: the
// dispatcher falls back to the shadow binding or dings.
type Command string

// DoLowercaseVersion is the distinguished function that causes the
// dispatcher to re-dispatch with the lowercased key (spec §4.1 step 2).
const DoLowercaseVersion Command = "do-lowercase-version"

// Entry is the tagged union described in spec §3: function, submap, or
// macro, plus the empty variant.
type Entry struct {
	Kind   EntryKind
	Func   Command
	Submap *Keymap
	Macro  []byte
}

// IsBound reports whether the entry carries any binding at all.
func (e Entry) IsBound() bool {
	return e.Kind != KindEmpty
}

// Keymap is a fixed-size 257-slot dispatch table. Submaps nested inside a
// keymap are owned transitively by their parent entry; there is no shared
// ownership, matching spec §3's "owning reference" language.
type Keymap struct {
	Name    string
	Entries [NumSlots]Entry
}

// New allocates an empty keymap with every slot KindEmpty.
func New(name string) *Keymap {
	return &Keymap{Name: name}
}

// Clone deep-copies a keymap, including owned submaps, so that editing the
// copy (e.g. a user `bind -m newmap` derived from an existing one) cannot
// mutate the original.
func (k *Keymap) Clone() *Keymap {
	c := &Keymap{Name: k.Name}
	for i, e := range k.Entries {
		c.Entries[i] = e
		if e.Kind == KindSubmap && e.Submap != nil {
			c.Entries[i].Submap = e.Submap.Clone()
		}
		if e.Kind == KindMacro {
			c.Entries[i].Macro = append([]byte(nil), e.Macro...)
		}
	}
	return c
}

// Get returns the entry for the given slot (0-255, or AnyOtherKey).
func (k *Keymap) Get(slot int) Entry {
	if slot < 0 || slot >= NumSlots {
		return Entry{}
	}
	return k.Entries[slot]
}

// Set installs an entry at the given slot directly, without shadow-binding
// bookkeeping; BindKey/BindKeySeq are the shadow-aware alternatives.
func (k *Keymap) Set(slot int, e Entry) {
	if slot < 0 || slot >= NumSlots {
		return
	}
	k.Entries[slot] = e
}

// Walk recursively visits every function and macro binding reachable from
// k, calling visit with the full key sequence leading to each one. The
// AnyOtherKey slot is skipped at every level: it holds the shadow binding a
// submap was carved out of, not a direct key binding, so listing it would
// report a sequence that was never actually bound (spec §6's `bind -p`).
func (k *Keymap) Walk(visit func(seq []byte, e Entry)) {
	k.walk(nil, visit)
}

func (k *Keymap) walk(prefix []byte, visit func(seq []byte, e Entry)) {
	for i := 0; i < NumSlots; i++ {
		if i == AnyOtherKey {
			continue
		}
		e := k.Entries[i]
		seq := append(append([]byte(nil), prefix...), byte(i))
		switch e.Kind {
		case KindFunction:
			if e.Func != "" {
				visit(seq, e)
			}
		case KindMacro:
			visit(seq, e)
		case KindSubmap:
			if e.Submap != nil {
				e.Submap.walk(seq, visit)
			}
		}
	}
}
