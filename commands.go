package goline

import (
	"io"
	"sort"
	"unicode"

	"github.com/aidanjensen/goline/internal/history"
	"github.com/aidanjensen/goline/internal/inputrc"
	"github.com/aidanjensen/goline/internal/keymap"
	"github.com/aidanjensen/goline/internal/search"
)

// Command names, carried over from the teacher's bind.go (cmdBackwardChar,
// cmdForwardWord, ...) and extended with the history-expansion and
// non-incremental-search functions spec §4.4/§4.7 add.
const (
	cmdAbort                 keymap.Command = "abort"
	cmdBackwardChar          keymap.Command = "backward-char"
	cmdBackwardDeleteChar    keymap.Command = "backward-delete-char"
	cmdBackwardKillLine      keymap.Command = "backward-kill-line"
	cmdBackwardKillWord      keymap.Command = "backward-kill-word"
	cmdBackwardWord          keymap.Command = "backward-word"
	cmdBeginningOfLine       keymap.Command = "beginning-of-line"
	cmdCancel                keymap.Command = "cancel"
	cmdClearScreen           keymap.Command = "clear-screen"
	cmdDeleteChar            keymap.Command = "delete-char"
	cmdDeleteHorizontalSpace keymap.Command = "delete-horizontal-space"
	cmdEndOfLine             keymap.Command = "end-of-line"
	cmdAcceptLine            keymap.Command = "accept-line"
	cmdExitOrDeleteChar      keymap.Command = "exit-or-delete-char"
	cmdForwardChar           keymap.Command = "forward-char"
	cmdForwardSearchHistory  keymap.Command = "forward-search-history"
	cmdForwardWord           keymap.Command = "forward-word"
	cmdSelfInsert            keymap.Command = "self-insert"
	cmdKillLine              keymap.Command = "kill-line"
	cmdKillWord              keymap.Command = "kill-word"
	cmdNextHistory           keymap.Command = "next-history"
	cmdPreviousHistory       keymap.Command = "previous-history"
	cmdReverseSearchHistory  keymap.Command = "reverse-search-history"
	cmdSetMark               keymap.Command = "set-mark"
	cmdTransposeChars        keymap.Command = "transpose-chars"
	cmdTransposeWords        keymap.Command = "transpose-words"
	cmdUndo                  keymap.Command = "undo"
	cmdYank                  keymap.Command = "yank"
	cmdYankPop               keymap.Command = "yank-pop"
	cmdHistoryExpandLine     keymap.Command = "history-expand-line"
	cmdQuotedInsert          keymap.Command = "quoted-insert"
	cmdInsertNewline         keymap.Command = "insert-newline"

	// Incremental search, active only while p.search is non-nil. No key is
	// bound to these names by default: while a search is active,
	// invokeSearch routes backward-delete-char, backward-kill-word and yank
	// to the same three actions.
	cmdISearchBackspace keymap.Command = "isearch-backspace"
	cmdISearchYankWord  keymap.Command = "isearch-yank-word"
	cmdISearchYankLine  keymap.Command = "isearch-yank-line"
)

// ErrInterrupted is returned by ReadLine when the line was abandoned via
// Ctrl-C (the cancel command), distinguishing it from io.EOF (Ctrl-D on an
// empty line, or the underlying reader closing).
var ErrInterrupted = errInterrupted{}

type errInterrupted struct{}

func (errInterrupted) Error() string { return "goline: interrupted" }

// Invoke implements dispatch.Invoker: it looks fn up in the command table
// and runs it against the Prompt's state, routing incremental-search keys
// to the active search.Session first, matching the teacher's layered
// killRing.Dispatch/history.Dispatch chain in prompt.go's
// dispatchKeyLocked.
func (p *Prompt) Invoke(fn keymap.Command, seq []byte) error {
	wasKill, wasYank := false, false
	defer func() { p.kill.EndCommand(wasKill, wasYank) }()

	if p.search != nil {
		return p.invokeSearch(fn, seq)
	}

	switch fn {
	case cmdKillLine, cmdKillWord:
		wasKill = true
	case cmdBackwardKillLine, cmdBackwardKillWord:
		wasKill = true
	case cmdYank, cmdYankPop:
		wasYank = true
	}

	if f, ok := editCommands[fn]; ok {
		return f(p, seq)
	}
	p.Ding()
	return nil
}

// Ding implements dispatch.Invoker's unbound-key signal (spec §4.1 step 1).
// Only bell-style audible rings the bell; visible and none ring nothing.
func (p *Prompt) Ding() {
	switch p.vars.BellStyle {
	case inputrc.BellNone, inputrc.BellVisible:
		return
	}
	p.screen.Bell()
}

// Commands returns the name of every editing function goline knows how to
// dispatch, sorted, for listing surfaces like `bind -l` (spec §6).
func Commands() []keymap.Command {
	names := make([]keymap.Command, 0, len(editCommands))
	for name := range editCommands {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

type commandFunc func(p *Prompt, seq []byte) error

var editCommands = map[keymap.Command]commandFunc{
	cmdSelfInsert: func(p *Prompt, seq []byte) error {
		for _, b := range seq {
			if r, ok := p.buf.Decoder.Feed(b); ok {
				p.buf.Insert(r)
			}
		}
		return nil
	},
	cmdQuotedInsert: func(p *Prompt, seq []byte) error {
		b, ok, err := p.src.ReadByte(0)
		if err != nil {
			return err
		}
		if ok {
			p.buf.Insert(rune(b))
		}
		return nil
	},
	cmdForwardChar: func(p *Prompt, seq []byte) error {
		p.buf.MoveTo(p.buf.NextGraphemeEnd(p.buf.Point))
		return nil
	},
	cmdBackwardChar: func(p *Prompt, seq []byte) error {
		p.buf.MoveTo(p.buf.PrevGraphemeStart(p.buf.Point))
		return nil
	},
	cmdForwardWord: func(p *Prompt, seq []byte) error {
		p.buf.MoveTo(p.buf.NextWordEnd(p.buf.Point))
		return nil
	},
	cmdBackwardWord: func(p *Prompt, seq []byte) error {
		p.buf.MoveTo(p.buf.PrevWordStart(p.buf.Point))
		return nil
	},
	cmdBeginningOfLine: func(p *Prompt, seq []byte) error {
		p.buf.MoveTo(0)
		return nil
	},
	cmdEndOfLine: func(p *Prompt, seq []byte) error {
		p.buf.MoveTo(p.buf.End())
		return nil
	},
	cmdSetMark: func(p *Prompt, seq []byte) error {
		p.buf.SetMark()
		return nil
	},
	cmdDeleteChar: func(p *Prompt, seq []byte) error {
		p.buf.EraseTo(p.buf.NextGraphemeEnd(p.buf.Point))
		return nil
	},
	cmdExitOrDeleteChar: func(p *Prompt, seq []byte) error {
		if len(p.buf.Text) == 0 {
			return io.EOF
		}
		p.buf.EraseTo(p.buf.NextGraphemeEnd(p.buf.Point))
		return nil
	},
	cmdBackwardDeleteChar: func(p *Prompt, seq []byte) error {
		p.buf.EraseTo(p.buf.PrevGraphemeStart(p.buf.Point))
		return nil
	},
	cmdDeleteHorizontalSpace: func(p *Prompt, seq []byte) error {
		text := p.buf.Text
		prevEnd := p.buf.Point
		for prevEnd > 0 && unicode.IsSpace(text[prevEnd-1]) {
			prevEnd--
		}
		nextStart := prevEnd
		for nextStart < len(text) && unicode.IsSpace(text[nextStart]) {
			nextStart++
		}
		if nextStart >= p.buf.Point && prevEnd < nextStart {
			p.buf.MoveTo(prevEnd)
			p.buf.EraseTo(nextStart)
		}
		return nil
	},
	cmdTransposeChars: func(p *Prompt, seq []byte) error {
		if e := p.buf.EraseTo(p.buf.PrevGraphemeStart(p.buf.Point)); len(e) > 0 {
			p.buf.MoveTo(p.buf.NextGraphemeEnd(p.buf.Point))
			p.buf.Insert(e...)
		}
		return nil
	},
	cmdTransposeWords: func(p *Prompt, seq []byte) error {
		p.buf.TransposeWords()
		return nil
	},
	cmdKillLine: func(p *Prompt, seq []byte) error {
		p.buf.KillLine(p.kill)
		return nil
	},
	cmdBackwardKillLine: func(p *Prompt, seq []byte) error {
		p.buf.BackwardKillLine(p.kill)
		return nil
	},
	cmdKillWord: func(p *Prompt, seq []byte) error {
		p.buf.KillWord(p.kill)
		return nil
	},
	cmdBackwardKillWord: func(p *Prompt, seq []byte) error {
		p.buf.BackwardKillWord(p.kill)
		return nil
	},
	cmdYank: func(p *Prompt, seq []byte) error {
		p.buf.Yank(p.kill)
		return nil
	},
	cmdYankPop: func(p *Prompt, seq []byte) error {
		p.buf.YankPop(p.kill)
		return nil
	},
	cmdUndo: func(p *Prompt, seq []byte) error {
		p.buf.Undo()
		return nil
	},
	cmdClearScreen: func(p *Prompt, seq []byte) error {
		p.screen.Refresh()
		return nil
	},
	cmdCancel: func(p *Prompt, seq []byte) error {
		return ErrInterrupted
	},
	cmdAbort: func(p *Prompt, seq []byte) error {
		p.Ding()
		return nil
	},
	cmdAcceptLine: func(p *Prompt, seq []byte) error {
		if p.inputFinished == nil || p.inputFinished(string(p.buf.Text)) {
			return io.EOF
		}
		p.buf.Insert('\n')
		return nil
	},
	cmdHistoryExpandLine: func(p *Prompt, seq []byte) error {
		expanded, _, err := p.expander.Expand(string(p.buf.Text))
		if err != nil {
			p.Ding()
			return nil
		}
		p.buf.Reset()
		p.buf.Insert([]rune(expanded)...)
		return nil
	},
	cmdPreviousHistory: func(p *Prompt, seq []byte) error {
		p.historyPrevious()
		return nil
	},
	cmdNextHistory: func(p *Prompt, seq []byte) error {
		p.historyNext()
		return nil
	},
	cmdReverseSearchHistory: func(p *Prompt, seq []byte) error {
		p.startSearch(search.Reverse)
		return nil
	},
	cmdForwardSearchHistory: func(p *Prompt, seq []byte) error {
		p.startSearch(search.Forward)
		return nil
	},
	cmdInsertNewline: func(p *Prompt, seq []byte) error {
		p.buf.Insert('\n')
		return nil
	},
}

// historyPrevious/historyNext implement plain (non-search) history
// navigation, saving the in-progress line the first time the user leaves
// it so returning past the newest entry restores exactly what was being
// typed, matching the teacher's history.go Previous/Next.
func (p *Prompt) historyPrevious() {
	if p.hist.Pos() == p.hist.Base()+p.hist.Len() {
		p.pendingLine = string(p.buf.Text)
	}
	e, ok := p.hist.Previous()
	if !ok {
		p.Ding()
		return
	}
	p.setBufferText(e.Line)
}

func (p *Prompt) historyNext() {
	e, ok := p.hist.Next()
	if !ok {
		if p.hist.Pos() == p.hist.Base()+p.hist.Len() {
			p.setBufferText(p.pendingLine)
			return
		}
		p.Ding()
		return
	}
	p.setBufferText(e.Line)
}

func (p *Prompt) setBufferText(s string) {
	p.buf.Reset()
	p.buf.Insert([]rune(s)...)
}

// invokeSearch routes a dispatched command to the active incremental
// search session rather than the ordinary edit command table, per spec
// §4.6: only a small set of commands are meaningful mid-search (self-
// insert appends to the query, the direction keys advance, backspace
// edits the query, anything else commits or aborts).
func (p *Prompt) invokeSearch(fn keymap.Command, seq []byte) error {
	s := p.search
	switch fn {
	case cmdSelfInsert:
		for _, b := range seq {
			if r, ok := s.Buf.Decoder.Feed(b); ok {
				s.AppendChar(r)
			}
		}
	case cmdReverseSearchHistory:
		s.Advance(search.Reverse)
	case cmdForwardSearchHistory:
		s.Advance(search.Forward)
	case cmdBackwardDeleteChar, cmdISearchBackspace:
		if s.Backspace() {
			p.Ding()
		}
	case cmdBackwardKillWord, cmdISearchYankWord:
		s.AppendWord()
	case cmdYank, cmdISearchYankLine:
		s.AppendRestOfLine()
	case cmdAbort, cmdCancel:
		s.Abort()
		p.endSearch()
	default:
		s.Commit()
		p.endSearch()
		// Re-dispatch the terminating key against the now-restored,
		// ordinary edit-command table, per spec §4.6's "a non-search
		// function terminates the search and is then executed normally".
		return p.Invoke(fn, seq)
	}
	if s.State() == search.Failed {
		p.Ding()
	}
	return nil
}

// startSearch begins a new incremental search session, per spec §4.6.
func (p *Prompt) startSearch(dir search.Direction) {
	p.search = search.NewSession(p.hist, p.buf, dir)
}

// endSearch clears the active search session and the match highlight.
func (p *Prompt) endSearch() {
	p.search = nil
	p.screen.ClearFaces()
}

// historySource adapts *history.Store to histexpand.Source, keeping
// internal/histexpand free of a dependency on internal/history, per the
// teacher-style small-interface decoupling internal/search also uses.
type historySource struct {
	hist *history.Store
}

func (h historySource) Base() int { return h.hist.Base() }
func (h historySource) Len() int  { return h.hist.Len() }
func (h historySource) Line(i int) (string, bool) {
	e, ok := h.hist.Get(i)
	if !ok {
		return "", false
	}
	return e.Line, true
}
