// Package histexpand implements history expansion (component C9): the
// "!"-grammar for re-invoking and editing prior history entries, entirely
// new relative to the teacher (petermattis-prompt only has incremental
// search, no bang-history), grounded on spec §4.4 and
// original_source/lib/readline/histexpand.cc.
package histexpand

import (
	"fmt"
	"strconv"
	"strings"
)

// Source is the minimal history lookup histexpand needs: a logical
// index range [Base, Base+Len) and line-by-line access, satisfied by an
// adapter over internal/history.Store so this package has no dependency
// on it.
type Source interface {
	Base() int
	Len() int
	Line(i int) (string, bool)
}

// Options configures an Expander's special characters and policy knobs,
// per spec §4.4's expansion driver.
type Options struct {
	ExpansionChar byte // default '!'
	SubstChar     byte // default '^', the quick-substitution leader
	CommentChar   byte // default 0 (disabled); when set, a line beginning with it is never expanded
	QuotesInhibit bool // single quotes suppress expansion when true
	Veto          func(line string, offset int) bool
}

// DefaultOptions returns the conventional bang-history configuration.
func DefaultOptions() Options {
	return Options{ExpansionChar: '!', SubstChar: '^'}
}

// Expander carries cross-call state (last search string/match, last :s
// pattern) a history-expansion session must remember, per spec §4.4.
type Expander struct {
	Opts Options
	Hist Source

	lastSearchString string
	lastSearchMatch  string
	subst            modState
}

// New returns an Expander reading events from hist.
func New(hist Source, opts Options) *Expander {
	return &Expander{Opts: opts, Hist: hist}
}

// matchInfo describes one resolved event-spec occurrence.
type matchInfo struct {
	matched   bool
	printOnly bool
}

// Expand applies history expansion to line once, left to right, per spec
// §4.4's driver. Returns the expanded text and a code in {0, 1, 2, -1}:
// 0 = no change, 1 = expansion occurred, 2 = print-only ("expanded but do
// not run"), -1 = error (err's message has already been formatted as
// "offset: message").
func (e *Expander) Expand(line string) (string, int, error) {
	opts := e.Opts
	if opts.ExpansionChar == 0 {
		opts.ExpansionChar = '!'
	}

	if opts.CommentChar != 0 && len(line) > 0 && line[0] == opts.CommentChar {
		return line, 0, nil
	}

	if opts.SubstChar != 0 && len(line) > 0 && line[0] == opts.SubstChar {
		return e.expandQuickSubst(line, opts)
	}

	if !strings.ContainsRune(line, rune(opts.ExpansionChar)) {
		return line, 0, nil
	}

	var out strings.Builder
	changed := false
	printOnly := false
	inSingle, inDouble := false, false

	i, n := 0, len(line)
	for i < n {
		c := line[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			out.WriteByte(c)
			i++

		case c == '"' && !inSingle:
			inDouble = !inDouble
			out.WriteByte(c)
			i++

		case c == opts.ExpansionChar &&
			!(inSingle && opts.QuotesInhibit) &&
			!(inDouble && i+1 < n && line[i+1] == '"') &&
			(opts.Veto == nil || !opts.Veto(line, i)):

			text, newPos, info, err := e.expandEventAt(line, i, opts)
			if err != nil {
				return "", -1, fmt.Errorf("%d: %s", i, err)
			}
			if !info.matched {
				out.WriteByte(c)
				i++
				continue
			}
			out.WriteString(text)
			if info.printOnly {
				printOnly = true
			}
			changed = true
			i = newPos

		default:
			out.WriteByte(c)
			i++
		}
	}

	if !changed {
		return line, 0, nil
	}
	result := out.String()
	if printOnly {
		return result, 2, nil
	}
	return result, 1, nil
}

// expandEventAt parses one event-spec starting at line[pos] (the
// expansion character itself), resolves it against e.Hist, applies any
// word-spec and modifier chain, and returns the replacement text and the
// index just past everything consumed.
func (e *Expander) expandEventAt(line string, pos int, opts Options) (string, int, matchInfo, error) {
	i := pos + 1
	n := len(line)
	if i >= n {
		return "", pos, matchInfo{}, nil
	}

	eventText, newPos, ok, err := e.resolveEvent(line, i, opts)
	if err != nil {
		return "", pos, matchInfo{}, err
	}
	if !ok {
		return "", pos, matchInfo{}, nil
	}
	i = newPos

	text := eventText
	if sel, np, has := parseWordSpec(line, i); has {
		words := tokenize(eventText)
		selected, ok := selectWords(words, sel, e.lastSearchMatch)
		if !ok {
			return "", pos, matchInfo{}, fmt.Errorf("bad word specifier")
		}
		text = selected
		i = np
	}

	var mods []string
	for {
		tok, np, err, found := nextModifierToken(line, i)
		if err != nil {
			return "", pos, matchInfo{}, err
		}
		if !found {
			break
		}
		mods = append(mods, tok)
		i = np
	}

	result, printOnly, err := applyModifiers(text, mods, &e.subst)
	if err != nil {
		return "", pos, matchInfo{}, err
	}

	return result, i, matchInfo{matched: true, printOnly: printOnly}, nil
}

// resolveEvent parses and resolves the event-spec body (everything after
// the leading expansion character), per spec §4.4's event-spec grammar.
func (e *Expander) resolveEvent(line string, i int, opts Options) (string, int, bool, error) {
	n := len(line)
	c := line[i]

	switch {
	case c == opts.ExpansionChar:
		// "!!" - the last entry.
		text, ok := e.entryRelative(1)
		if !ok {
			return "", i, false, fmt.Errorf("event not found")
		}
		return text, i + 1, true, nil

	case c == '#':
		return line[:i-1], i + 1, true, nil

	case c == '?':
		return e.resolveSearch(line, i+1, n, true)

	case c == '-' || (c >= '0' && c <= '9'):
		j := i
		if line[j] == '-' {
			j++
		}
		start := j
		for j < n && line[j] >= '0' && line[j] <= '9' {
			j++
		}
		if j == start {
			return "", i, false, nil
		}
		num, _ := strconv.Atoi(line[i:j])
		var text string
		var ok bool
		if line[i] == '-' {
			text, ok = e.entryRelative(-num)
		} else {
			text, ok = e.entryAbsolute(num)
		}
		if !ok {
			return "", i, false, fmt.Errorf("event not found")
		}
		return text, j, true, nil

	default:
		return e.resolveSearch(line, i, n, false)
	}
}

// resolveSearch implements "!str" (prefix search) and "!?str?"/"!?str"
// (substring search). An empty body reuses the last search string, per
// spec §4.4.
func (e *Expander) resolveSearch(line string, i, n int, bracketed bool) (string, int, bool, error) {
	start := i
	var pattern string
	if bracketed {
		end := strings.IndexByte(line[i:], '?')
		if end < 0 {
			pattern = line[i:n]
			i = n
		} else {
			pattern = line[i : i+end]
			i += end + 1
		}
	} else {
		for i < n && !isWordBreak(line[i]) {
			i++
		}
		pattern = line[start:i]
	}

	if pattern == "" {
		pattern = e.lastSearchString
	}
	if pattern == "" {
		return "", start, false, fmt.Errorf("event not found")
	}
	e.lastSearchString = pattern
	e.subst.lastSearch = pattern

	text, word, ok := e.search(pattern, bracketed)
	if !ok {
		return "", start, false, fmt.Errorf("event not found")
	}
	e.lastSearchMatch = word
	return text, i, true, nil
}

func isWordBreak(c byte) bool {
	return c == ' ' || c == '\t' || c == ':' || c == '\n'
}

// entryRelative resolves "n entries back from the newest", 1 meaning the
// most recent entry.
func (e *Expander) entryRelative(back int) (string, bool) {
	if e.Hist == nil || e.Hist.Len() == 0 {
		return "", false
	}
	idx := e.Hist.Base() + e.Hist.Len() - back
	return e.Hist.Line(idx)
}

// entryAbsolute resolves "!n", n resolved against base per spec §4.4.
func (e *Expander) entryAbsolute(n int) (string, bool) {
	if e.Hist == nil {
		return "", false
	}
	return e.Hist.Line(n)
}

// search finds the most recent entry matching pattern: substring search
// when bracketed (!?str?), prefix search otherwise (!str). Returns the
// entry text and, best-effort, the word within it containing pattern
// (for a later '%' word designator).
func (e *Expander) search(pattern string, bracketed bool) (line string, word string, ok bool) {
	if e.Hist == nil {
		return "", "", false
	}
	base, length := e.Hist.Base(), e.Hist.Len()
	for idx := base + length - 1; idx >= base; idx-- {
		text, ok := e.Hist.Line(idx)
		if !ok {
			continue
		}
		matches := false
		if bracketed {
			matches = strings.Contains(text, pattern)
		} else {
			matches = strings.HasPrefix(text, pattern)
		}
		if matches {
			w := pattern
			for _, tok := range tokenize(text) {
				if strings.Contains(tok, pattern) {
					w = tok
					break
				}
			}
			return text, w, true
		}
	}
	return "", "", false
}

// expandQuickSubst implements "^lhs^rhs[^]", equivalent to
// "!!:s^lhs^rhs^" plus any trailing literal text, per spec §4.4 and the
// testable equivalence "expand(\"^a^b^rest\") == expand(\"!!:s^a^b^rest\")".
func (e *Expander) expandQuickSubst(line string, opts Options) (string, int, error) {
	sep := opts.SubstChar
	body := line[1:]
	i := strings.IndexByte(body, sep)
	if i < 0 {
		return "", -1, fmt.Errorf("0: bad word specifier")
	}
	lhs := body[:i]
	rest := body[i+1:]
	j := strings.IndexByte(rest, sep)
	var rhs, remainder string
	if j < 0 {
		rhs, remainder = rest, ""
	} else {
		rhs, remainder = rest[:j], rest[j+1:]
	}

	text, ok := e.entryRelative(1)
	if !ok {
		return "", -1, fmt.Errorf("0: event not found")
	}
	if lhs == "" {
		lhs = e.subst.lastSubstLHS
	}
	if lhs == "" {
		return "", -1, fmt.Errorf("0: no previous substitution")
	}
	e.subst.lastSubstLHS, e.subst.lastSubstRHS = lhs, rhs
	result := substitute(text, lhs, rhs, false, false) + remainder
	return result, 1, nil
}
