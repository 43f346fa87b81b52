package search

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aidanjensen/goline/internal/history"
)

// Anchor selects where within a history line a substring match must
// start, per spec §4.7.
type Anchor int

const (
	Anywhere Anchor = iota
	AtStart
)

// Substring searches hist from the newest entry backward (reverse being
// the conventional direction for "search backward through history") for
// a line containing (or starting with, per anchor) needle, byte-wise —
// safe on UTF-8 text because a valid encoded substring match never
// splits a multibyte character, per spec §4.7.
func Substring(hist *history.Store, needle string, anchor Anchor) (line string, index int, ok bool) {
	base, length := hist.Base(), hist.Len()
	for idx := base + length - 1; idx >= base; idx-- {
		e, ok := hist.Get(idx)
		if !ok {
			continue
		}
		matched := false
		switch anchor {
		case AtStart:
			matched = strings.HasPrefix(e.Line, needle)
		default:
			matched = strings.Contains(e.Line, needle)
		}
		if matched {
			return e.Line, idx, true
		}
	}
	return "", 0, false
}

// Glob searches hist for a line matching a shell glob pattern, per spec
// §4.7: pattern is normalized by prepending "*" unless anchor is AtStart,
// and appending "*" unless pattern already ends in one, then matched with
// path/filepath.Match as the fnmatch equivalent — the right stdlib choice
// here since no pack library implements shell glob matching. A pattern
// ending in an unescaped backslash fails fast, matching fnmatch's own
// behavior on a dangling escape.
func Glob(hist *history.Store, pattern string, anchor Anchor) (line string, index int, err error) {
	if strings.HasSuffix(pattern, `\`) && !strings.HasSuffix(pattern, `\\`) {
		return "", 0, fmt.Errorf("search: pattern ends in unescaped backslash: %q", pattern)
	}

	normalized := pattern
	if anchor != AtStart {
		normalized = "*" + normalized
	}
	if !strings.HasSuffix(normalized, "*") {
		normalized += "*"
	}
	// filepath.Match's '*' never matches '/', fnmatch's does: map '/' to
	// NUL in both pattern and line so '*' also spans slashes.
	normalized = strings.ReplaceAll(normalized, "/", "\x00")

	base, length := hist.Base(), hist.Len()
	for idx := base + length - 1; idx >= base; idx-- {
		e, ok := hist.Get(idx)
		if !ok {
			continue
		}
		matched, merr := filepath.Match(normalized, strings.ReplaceAll(e.Line, "/", "\x00"))
		if merr != nil {
			return "", 0, merr
		}
		if matched {
			return e.Line, idx, nil
		}
	}
	return "", 0, nil
}
