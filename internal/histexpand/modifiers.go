package histexpand

import (
	"fmt"
	"strings"
)

// modState carries the substitution memory a run of modifiers shares with
// later expansions in the same Expander, per spec §4.4: "an empty lhs
// reuses the previous :s or the last search", and ":&" reruns the last
// :s verbatim.
type modState struct {
	lastSubstLHS string
	lastSubstRHS string
	lastSearch   string
}

// applyModifiers runs the ':'-separated modifier chain following a
// word-spec (or bare event) against text, per spec §4.4's modifier list.
// Returns the transformed text, whether the result is print-only (':p'),
// and an error using the exact message vocabulary the expansion driver
// reports ("bad word specifier", "unrecognized history modifier", "no
// previous substitution").
func applyModifiers(text string, mods []string, st *modState) (result string, printOnly bool, err error) {
	result = text
	for _, m := range mods {
		if m == "" {
			continue
		}
		global := false
		everyWord := false
		for strings.HasPrefix(m, "g") || strings.HasPrefix(m, "G") {
			if m[0] == 'g' {
				global = true
			} else {
				everyWord = true
			}
			m = m[1:]
		}

		switch {
		case m == "h":
			result = modHead(result)
		case m == "t":
			result = modTail(result)
		case m == "r":
			result = modRoot(result)
		case m == "e":
			result = modExt(result)
		case m == "p":
			printOnly = true
		case m == "q":
			result = quoteSingle(result)
		case m == "x":
			result = quoteWhitespace(result)
		case m == "&":
			if st.lastSubstLHS == "" {
				return "", false, fmt.Errorf("no previous substitution")
			}
			result = substitute(result, st.lastSubstLHS, st.lastSubstRHS, global, everyWord)
		case strings.HasPrefix(m, "s"):
			lhs, rhs, ok := parseSubst(m[1:])
			if !ok {
				return "", false, fmt.Errorf("bad word specifier")
			}
			if lhs == "" {
				lhs = st.lastSubstLHS
				if lhs == "" {
					lhs = st.lastSearch
				}
			}
			if lhs == "" {
				return "", false, fmt.Errorf("no previous substitution")
			}
			st.lastSubstLHS, st.lastSubstRHS = lhs, rhs
			result = substitute(result, lhs, rhs, global, everyWord)
		default:
			return "", false, fmt.Errorf("unrecognized history modifier")
		}
	}
	return result, printOnly, nil
}

// nextModifierToken recognizes one ':'-prefixed modifier token at
// line[pos] (an optional "g"/"G" globality prefix, then h/t/r/e/p/q/x/&
// or an "s<sep>lhs<sep>rhs<sep>?" substitution body), returning the
// modifier text (without the leading ':') and the index just past it.
// found is false when line[pos] isn't ':', meaning the modifier chain
// has ended and the rest of line is literal text.
func nextModifierToken(line string, pos int) (tok string, newPos int, err error, found bool) {
	if pos >= len(line) || line[pos] != ':' {
		return "", pos, nil, false
	}
	i := pos + 1
	if i >= len(line) {
		return "", pos, fmt.Errorf("bad word specifier"), true
	}
	start := i
	for i < len(line) && (line[i] == 'g' || line[i] == 'G') {
		i++
	}
	if i >= len(line) {
		return "", pos, fmt.Errorf("unrecognized history modifier"), true
	}

	switch line[i] {
	case 'h', 't', 'r', 'e', 'p', 'q', 'x', '&':
		i++
	case 's':
		i++
		if i >= len(line) {
			return "", pos, fmt.Errorf("bad word specifier"), true
		}
		sep := line[i]
		i++
		idx1 := strings.IndexByte(line[i:], sep)
		if idx1 < 0 {
			return "", pos, fmt.Errorf("bad word specifier"), true
		}
		i += idx1 + 1
		if idx2 := strings.IndexByte(line[i:], sep); idx2 >= 0 {
			i += idx2 + 1
		} else {
			i = len(line)
		}
	default:
		return "", pos, fmt.Errorf("unrecognized history modifier"), true
	}

	return line[start:i], i, nil, true
}

func modHead(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}

func modTail(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func modRoot(s string) string {
	base := s
	dir := ""
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		dir, base = s[:i+1], s[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return dir + base
}

func modExt(s string) string {
	base := s
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		base = s[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[i:]
	}
	return ""
}

// quoteSingle single-quotes s shell-safely, per spec §4.4's ':q'.
func quoteSingle(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// quoteWhitespace is ':q' but additionally quotes whitespace runs
// individually, per spec §4.4's ':x'.
func quoteWhitespace(s string) string {
	var b strings.Builder
	for _, w := range strings.Fields(s) {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(quoteSingle(w))
	}
	return b.String()
}

// parseSubst parses the "/lhs/rhs/" (or "sep lhs sep rhs sep?") body of
// an ':s' modifier, where sep is whatever byte immediately follows 's'.
func parseSubst(body string) (lhs, rhs string, ok bool) {
	if body == "" {
		return "", "", false
	}
	sep := body[0]
	body = body[1:]
	i := strings.IndexByte(body, sep)
	if i < 0 {
		return "", "", false
	}
	lhs = body[:i]
	rest := body[i+1:]
	j := strings.IndexByte(rest, sep)
	if j < 0 {
		rhs = rest
	} else {
		rhs = rest[:j]
	}
	return lhs, rhs, true
}

// substitute replaces lhs with rhs in s. An unescaped '&' in rhs
// reinserts lhs, per spec §4.4. global replaces every occurrence;
// everyWord (':G') replaces the first occurrence in each
// whitespace-delimited word.
func substitute(s, lhs, rhs string, global, everyWord bool) string {
	expandedRHS := expandAmpersand(rhs, lhs)

	if everyWord {
		fields := strings.Fields(s)
		for i, w := range fields {
			fields[i] = strings.Replace(w, lhs, expandedRHS, 1)
		}
		return strings.Join(fields, " ")
	}
	if global {
		return strings.ReplaceAll(s, lhs, expandedRHS)
	}
	return strings.Replace(s, lhs, expandedRHS, 1)
}

func expandAmpersand(rhs, lhs string) string {
	var b strings.Builder
	for i := 0; i < len(rhs); i++ {
		if rhs[i] == '\\' && i+1 < len(rhs) && rhs[i+1] == '&' {
			b.WriteByte('&')
			i++
			continue
		}
		if rhs[i] == '&' {
			b.WriteString(lhs)
			continue
		}
		b.WriteByte(rhs[i])
	}
	return b.String()
}
