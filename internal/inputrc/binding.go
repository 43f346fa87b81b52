package inputrc

import (
	"fmt"
	"strings"

	"github.com/aidanjensen/goline/internal/keymap"
)

// namedKeys maps the single-key names spec §4.2 lists (besides raw
// letters) to the byte they denote, generalizing the teacher's
// bind.go namedKeys table.
var namedKeys = map[string]byte{
	"del":      0x7f,
	"rubout":   0x7f,
	"esc":      0x1b,
	"escape":   0x1b,
	"lfd":      '\n',
	"newline":  '\n',
	"ret":      '\r',
	"return":   '\r',
	"space":    ' ',
	"spc":      ' ',
	"tab":      '\t',
}

// parseBinding parses one non-$, non-set line: either
//
//	KEYSPEC: ACTION
//	"KEYSEQ": ACTION
//
// per spec §4.2, generalizing the teacher's parseBinding (single key,
// three-field "bind KEY cmd" syntax) to full key sequences and the
// colon-separated grammar readline actually uses.
func (p *Parser) parseBinding(line string) error {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return fmt.Errorf("malformed binding: %q", line)
	}
	keyPart := strings.TrimSpace(line[:colon])
	rest := line[colon+1:]
	// Future equivalency binding form "KEY:= ACTION" (spec §4.2): parsed,
	// never given distinct semantics — original_source/lib/readline/bind.cc
	// treats it identically to a plain ":" binding.
	equivalency := strings.HasPrefix(rest, "=")
	if equivalency {
		rest = rest[1:]
	}
	actionPart := strings.TrimSpace(rest)

	seq, err := p.resolveKeySpec(keyPart)
	if err != nil {
		return err
	}

	b := Binding{Seq: seq, Equivalency: equivalency}
	switch {
	case strings.HasPrefix(actionPart, `"`) || strings.HasPrefix(actionPart, "'"):
		macro, err := unquoteMacro(actionPart)
		if err != nil {
			return err
		}
		translated, err := keymap.TranslateKeySeq(macro)
		if err != nil {
			return err
		}
		b.IsMacro = true
		b.Macro = translated
	default:
		b.Func = keymap.Command(actionPart)
	}

	return p.sink.Bind(b)
}

// resolveKeySpec parses either a quoted KEYSEQ (full escape-syntax
// sequence) or an unquoted KEYSPEC (Control-/Meta- prefixed single named
// key), returning the raw byte sequence to bind.
func (p *Parser) resolveKeySpec(spec string) ([]byte, error) {
	if strings.HasPrefix(spec, `"`) {
		unquoted, err := unquoteMacro(spec)
		if err != nil {
			return nil, err
		}
		return keymap.TranslateKeySeq(unquoted)
	}

	const (
		controlLong  = "control-"
		controlShort = "c-"
		controlWord  = "ctrl-"
		metaLong     = "meta-"
		metaShort    = "m-"
	)

	var ctrl, meta bool
	s := spec
	for {
		lower := strings.ToLower(s)
		switch {
		case strings.HasPrefix(lower, controlLong):
			ctrl = true
			s = s[len(controlLong):]
		case strings.HasPrefix(lower, controlWord):
			ctrl = true
			s = s[len(controlWord):]
		case strings.HasPrefix(lower, controlShort):
			ctrl = true
			s = s[len(controlShort):]
		case strings.HasPrefix(lower, metaLong):
			meta = true
			s = s[len(metaLong):]
		case strings.HasPrefix(lower, metaShort):
			meta = true
			s = s[len(metaShort):]
		default:
			goto resolved
		}
	}
resolved:
	if s == "" {
		return nil, fmt.Errorf("empty key spec: %q", spec)
	}

	var b byte
	if named, ok := namedKeys[strings.ToLower(s)]; ok {
		b = named
	} else if len(s) == 1 {
		b = s[0]
	} else {
		return nil, fmt.Errorf("unrecognized key name: %q", s)
	}

	if ctrl {
		if b == '?' {
			b = 0x7f
		} else {
			b &= 0x1f
		}
	}
	if meta {
		return []byte{0x1b, b}, nil
	}
	return []byte{b}, nil
}

// unquoteMacro strips a single layer of matching single or double quotes
// and decodes the inputrc backslash escapes inside, per spec §4.2's ACTION
// grammar ("a double- or single-quoted macro body").
func unquoteMacro(s string) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("malformed quoted string: %q", s)
	}
	quote := s[0]
	if quote != '"' && quote != '\'' {
		return "", fmt.Errorf("malformed quoted string: %q", s)
	}
	end := strings.LastIndexByte(s, quote)
	if end <= 0 {
		return "", fmt.Errorf("unterminated quoted string: %q", s)
	}
	return s[1:end], nil
}
