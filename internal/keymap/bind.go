package keymap

import (
	"fmt"
	"strconv"
	"strings"
)

// BindKey replaces the function bound to a single raw byte in the root
// keymap slot. If the slot currently holds a submap, the byte is instead
// routed through the generic BindKeySeq binder on a one-byte sequence, per
// spec §4.1.
func (k *Keymap) BindKey(b byte, fn Command) {
	if k.Entries[b].Kind == KindSubmap {
		k.BindKeySeq([]byte{b}, Entry{Kind: KindFunction, Func: fn})
		return
	}
	k.Entries[b] = Entry{Kind: KindFunction, Func: fn}
}

// BindKeySeq walks seq through k, creating submaps as needed, and installs
// target at the final byte. At each non-final byte: if the slot is not
// already a submap, its current value is saved into the new submap's
// AnyOtherKey slot (the shadow binding) before being replaced, per spec
// §4.1's bind_keyseq algorithm. After an unbind (target is the empty
// Entry), if the terminal submap it unbound from becomes empty and carries a
// valid shadow, the chain is collapsed back one level at a time, restoring
// exactly the keymap shape that existed before the corresponding Bind.
func (k *Keymap) BindKeySeq(seq []byte, target Entry) {
	// path[i] is the (map, byte) pair walked at step i; path[len-1] is the
	// terminal (map, byte) where target is installed.
	type step struct {
		m *Keymap
		b byte
	}
	path := make([]step, 0, len(seq))

	m := k
	for i, b := range seq {
		last := i == len(seq)-1
		path = append(path, step{m, b})
		if last {
			if target.Kind == KindEmpty && m.Entries[b].Kind == KindSubmap {
				// Unbinding a slot that is a submap installs a distinguished
				// null function rather than a null/empty entry, per spec
				// §4.1, so the submap is not silently discarded.
				m.Entries[b] = Entry{Kind: KindFunction, Func: ""}
			} else {
				m.Entries[b] = target
			}
			break
		}

		slot := &m.Entries[b]
		if slot.Kind != KindSubmap {
			shadow := *slot
			sub := New(fmt.Sprintf("%s-%02x", m.Name, b))
			sub.Entries[AnyOtherKey] = shadow
			*slot = Entry{Kind: KindSubmap, Submap: sub}
		}
		m = slot.Submap
	}

	if target.Kind != KindEmpty {
		return
	}
	// Collapse from the innermost submap outward: if path[i].m (a submap
	// created for path[i-1].b) is now empty except for its own shadow,
	// replace path[i-1].m's entry with that shadow and continue outward.
	for i := len(path) - 1; i > 0; i-- {
		child := path[i].m
		if !child.isEmptyExceptShadow() {
			break
		}
		shadow := child.Entries[AnyOtherKey]
		parent, parentByte := path[i-1].m, path[i-1].b
		if parent.Entries[parentByte].Kind != KindSubmap || parent.Entries[parentByte].Submap != child {
			break
		}
		parent.Entries[parentByte] = shadow
	}
}

func (k *Keymap) isEmptyExceptShadow() bool {
	for i, e := range k.Entries {
		if i == AnyOtherKey {
			continue
		}
		if e.Kind != KindEmpty {
			return false
		}
	}
	return true
}

// UnbindKeySeq removes the binding for seq, installing the empty entry (or,
// per spec §4.1, a null function if the slot held a submap).
func (k *Keymap) UnbindKeySeq(seq []byte) {
	k.BindKeySeq(seq, Entry{})
}

// UnbindFunction recursively scans m (and owned submaps) nulling every slot
// whose function equals fn, per spec §4.1's unbind_function.
func UnbindFunction(m *Keymap, fn Command) {
	for i := range m.Entries {
		e := &m.Entries[i]
		switch e.Kind {
		case KindFunction:
			if e.Func == fn {
				*e = Entry{}
			}
		case KindSubmap:
			if e.Submap != nil {
				UnbindFunction(e.Submap, fn)
			}
		}
	}
}

// TranslateKeySeq converts inputrc escape syntax (\C-, \M-, \e, octal, hex,
// and the standard C escapes \n \t \\ \" \' etc.) into the literal byte
// sequence it denotes, per spec §4.1/§4.2. The trailing-backslash case below
// records the Open Question decision from spec §9: a trailing unescaped backslash at the
// end of the sequence is treated as a literal backslash byte (included
// verbatim), rather than silently discarded — see DESIGN.md.
func TranslateKeySeq(s string) ([]byte, error) {
	var out []byte
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}
		if i+1 >= len(s) {
			// Trailing unescaped backslash: include it verbatim.
			out = append(out, '\\')
			i++
			continue
		}
		switch s[i+1] {
		case 'C', 'c':
			if i+2 < len(s) && s[i+2] == '-' {
				b, n := decodeBaseByte(s[i+3:])
				out = append(out, ctrlify(b))
				i += 3 + n
				continue
			}
			out = append(out, s[i+1])
			i += 2
		case 'M', 'm':
			if i+2 < len(s) && s[i+2] == '-' {
				b, n := decodeBaseByte(s[i+3:])
				out = append(out, b|0x80)
				i += 3 + n
				continue
			}
			out = append(out, s[i+1])
			i += 2
		case 'e':
			out = append(out, 0x1b)
			i += 2
		case 'n':
			out = append(out, '\n')
			i += 2
		case 't':
			out = append(out, '\t')
			i += 2
		case 'r':
			out = append(out, '\r')
			i += 2
		case 'a':
			out = append(out, 0x07)
			i += 2
		case 'b':
			out = append(out, 0x08)
			i += 2
		case 'f':
			out = append(out, 0x0c)
			i += 2
		case 'v':
			out = append(out, 0x0b)
			i += 2
		case '\\', '"', '\'':
			out = append(out, s[i+1])
			i += 2
		case 'x':
			n, adv := takeDigits(s[i+2:], 2, 16)
			if adv == 0 {
				return nil, fmt.Errorf("invalid \\x escape")
			}
			out = append(out, byte(n))
			i += 2 + adv
		default:
			if s[i+1] >= '0' && s[i+1] <= '7' {
				n, adv := takeDigits(s[i+1:], 3, 8)
				out = append(out, byte(n))
				i += 1 + adv
				continue
			}
			out = append(out, s[i+1])
			i += 2
		}
	}
	return out, nil
}

// decodeBaseByte reads a single logical byte to be Control/Meta-ified:
// either a nested \C-/\M-/\e escape or a literal character.
func decodeBaseByte(s string) (byte, int) {
	if strings.HasPrefix(s, "\\e") {
		return 0x1b, 2
	}
	if strings.HasPrefix(s, `\C-`) && len(s) > 3 {
		b, n := decodeBaseByte(s[3:])
		return ctrlify(b), 3 + n
	}
	if strings.HasPrefix(s, `\M-`) && len(s) > 3 {
		b, n := decodeBaseByte(s[3:])
		return b | 0x80, 3 + n
	}
	if len(s) == 0 {
		// \C- or \M- with nothing following translates a NUL byte, per the
		// Open Question in spec §9: we document the choice (see DESIGN.md)
		// of treating it as a literal NUL rather than an error.
		return 0, 0
	}
	return s[0], 1
}

func ctrlify(b byte) byte {
	if b == '?' {
		return 0x7f
	}
	return b & 0x1f
}

func takeDigits(s string, maxLen int, base int) (int, int) {
	n := 0
	i := 0
	for i < len(s) && i < maxLen {
		v, err := strconv.ParseInt(string(s[i]), base, 16)
		if err != nil {
			break
		}
		n = n*base + int(v)
		i++
	}
	return n, i
}
