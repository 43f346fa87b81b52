// Package goline implements an interactive line editor and history
// library. Similar to readline, libedit, and other CLI line reading
// libraries, Prompt provides support for basic editing functionality such
// as cursor movement, deletion, a kill ring, undo, history navigation and
// search, and history expansion ("!!"-style bang-history).
//
// Prompt supports a common subset of the universe of key input sequences
// which are used by ~75% of the terminals in the terminfo database,
// including most modern terminals. Prompt itself does not use terminfo.
// Additionally, Prompt requires that the terminal handle a minimal set of
// ANSI escape sequences for rendering text: cursor motion, erase-to-EOL,
// erase-screen, and standout (reverse video) for search-match
// highlighting. Prompt eschews more advanced terminal operations such as
// insert/delete character and insert mode, the same tradeoff
// petermattis/prompt makes: the same rendering output works on every ANSI
// terminal rather than requiring per-terminal capability negotiation.
package goline

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/aidanjensen/goline/internal/config"
	"github.com/aidanjensen/goline/internal/dbg"
	"github.com/aidanjensen/goline/internal/dispatch"
	"github.com/aidanjensen/goline/internal/display"
	"github.com/aidanjensen/goline/internal/histexpand"
	"github.com/aidanjensen/goline/internal/history"
	"github.com/aidanjensen/goline/internal/inputrc"
	"github.com/aidanjensen/goline/internal/keymap"
	"github.com/aidanjensen/goline/internal/line"
	"github.com/aidanjensen/goline/internal/search"
	"github.com/aidanjensen/goline/internal/sigcoord"
	"github.com/aidanjensen/goline/internal/term"
)

// Prompt contains the state for reading single or multi-line input from a
// terminal, wiring together every internal component the way the
// teacher's Prompt wires screen/history/killRing together in prompt.go.
type Prompt struct {
	term *term.Terminal

	cfgMgr *config.Manager
	vars   *inputrc.Variables

	keymaps *keymap.Registry
	active  *keymap.Keymap

	buf      *line.Buffer
	kill     *line.KillRing
	hist     *history.Store
	persist  *history.Persist
	expander *histexpand.Expander

	screen *display.Screen
	sig    *sigcoord.Coordinator
	search *search.Session

	src promptByteSource

	events  chan inputEvent
	pending []byte

	pendingLine string

	inputrcPath string

	inputFinished func(text string) bool

	rawPrompt string
	desc      display.PromptDescriptor

	mu sync.Mutex
}

// New creates a new Prompt using the supplied options. If no options are
// specified, the Prompt reads configuration from the default config.Manager
// locations, uses os.Stdin/os.Stdout, and loads ~/.inputrc if present.
func New(options ...Option) *Prompt {
	p := &Prompt{
		term:    term.Stdio(),
		cfgMgr:  config.NewManager(),
		vars:    inputrc.DefaultVariables(),
		keymaps: keymap.NewRegistry(),
		buf:     line.New(),
		kill:    line.NewKillRing(),
		hist:    history.New(),
	}
	p.src.p = p
	if err := p.cfgMgr.Load(); err != nil {
		dbg.Printf("config load: %v\n", err)
	}
	installDefaultBindings(p.keymaps)
	p.active = p.keymaps.Get("emacs")
	p.screen = display.New(p.term.Out)
	p.expander = histexpand.New(historySource{p.hist}, histexpand.DefaultOptions())
	p.inputrcPath = "~/.inputrc"

	for _, opt := range options {
		opt.apply(p)
	}

	cfg := p.cfgMgr.GetConfig()
	p.hist.Multiline = false
	if cfg.History.Stifled {
		p.hist.Stifle(cfg.History.Max)
	}
	p.screen.HorizontalScroll = cfg.Editing.HorizontalScroll
	if cfg.Editing.Mode == "vi" {
		p.vars.EditingMode = inputrc.ModeVi
		p.active = p.keymaps.Get("vi-insert")
	}

	if cfg.History.Path != "" {
		format := history.FormatVis
		if cfg.History.Format == "timestamped" {
			format = history.FormatTimestamped
		}
		p.persist = history.NewPersist(cfg.History.Path,
			history.WithHistoryFormat(format),
			history.WithCommentChar(cfg.History.CommentChar),
			history.WithTimestamping(format == history.FormatTimestamped))
		if err := p.persist.Load(p.hist); err != nil && !os.IsNotExist(err) {
			dbg.Printf("history load: %v\n", err)
		}
	}

	if cfg.Inputrc.Load {
		path := p.inputrcPath
		if cfg.Inputrc.Path != "" {
			path = cfg.Inputrc.Path
		}
		p.loadInputrc(path)
	}

	return p
}

// loadInputrc parses path (if it exists) against p's keymap registry and
// variable table, per spec §4.2. A missing file is not an error; a
// malformed line is reported to the debug log and skipped (spec §7).
func (p *Prompt) loadInputrc(path string) {
	ctx := &inputrc.Context{
		TermName: os.Getenv("TERM"),
		Version:  "1.0",
		AppName:  "goline",
		Vars:     p.vars,
	}
	sink := &inputrcSink{p: p}
	parser := inputrc.New(ctx, sink)
	if err := parser.ParseFile(path); err != nil {
		dbg.Printf("inputrc: %v\n", err)
		return
	}
	for _, e := range parser.Errors {
		dbg.Printf("inputrc: %v\n", e)
	}
}

// Close closes the Prompt, flushing and closing the history file if one is
// configured.
func (p *Prompt) Close() error {
	if p.persist != nil {
		return p.persist.Close()
	}
	return nil
}

// inputEvent is one item produced by the input pump: either an ordinary
// byte, a complete bracketed-paste payload, a signal wakeup, or a
// terminal error (including io.EOF).
type inputEvent struct {
	b       byte
	isPaste bool
	paste   []byte
	isSig   bool
	sigKind sigcoord.Kind
	sigNum  syscall.Signal
	err     error
}

// ReadLine reads a line of input, rendering prompt and editing it in raw
// mode. If the input is canceled with Ctrl-C, ErrInterrupted is returned;
// if Ctrl-D is pressed on an empty line or the underlying reader closes,
// io.EOF is returned.
func (p *Prompt) ReadLine(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf.Reset()
	p.kill = line.NewKillRing()
	p.search = nil
	p.pendingLine = ""
	p.screen.Reset()
	p.screen.ClearFaces()

	p.rawPrompt = prompt
	width, height, _ := p.term.Size()
	p.screen.SetSize(width, height)
	p.desc = display.ExpandPrompt(prompt, width)

	restore, err := p.term.MakeRaw()
	if err != nil {
		return "", err
	}
	defer restore()

	if p.term.IsTerminal() {
		io.WriteString(p.term.Out, term.BracketedPasteEnable)
		defer io.WriteString(p.term.Out, term.BracketedPasteDisable)
	}

	p.sig = sigcoord.New()
	p.sig.CleanupOnSignal = func() { _ = restore() }
	defer p.sig.Stop()

	p.events = make(chan inputEvent, 64)
	p.pending = nil
	go p.pump()

	cfg := dispatch.Config{
		KeyseqTimeout:  time.Duration(p.vars.KeyseqTimeoutMillis) * time.Millisecond,
		MetaConversion: !p.vars.ConvertMeta,
		ViInsertNoWait: p.vars.EditingMode == inputrc.ModeVi && p.active.Name == "vi-insert",
	}
	d := dispatch.New(p.active, p.src, p, cfg)

	p.render()
	p.screen.Flush()

	for {
		_, err := d.Step()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted) {
				p.render()
				p.screen.Flush()
				text := string(p.buf.Text)
				if errors.Is(err, io.EOF) && len(text) > 0 {
					p.hist.Add(text)
					if p.persist != nil {
						if werr := p.persist.Append(history.Entry{Line: text, Time: time.Now()}); werr != nil {
							dbg.Printf("history append: %v\n", werr)
						}
					}
					return text, nil
				}
				return "", err
			}
			return "", err
		}
		if p.search != nil {
			p.renderSearch()
		} else {
			p.render()
		}
		p.screen.Flush()
	}
}

// render redraws the ordinary (non-search) prompt and line.
func (p *Prompt) render() {
	p.screen.Render(p.desc, p.buf, nil)
}

// renderSearch redraws the line with the incremental-search prompt prefix
// and highlights the current match, per spec §4.6's display requirements.
func (p *Prompt) renderSearch() {
	s := p.search
	dir := "reverse"
	if s.Direction() == search.Forward {
		dir = "forward"
	}
	width, _, _ := p.term.Size()
	searchDesc := display.ExpandPrompt("("+dir+"-i-search)`"+s.Query()+"': ", width)
	p.screen.ClearFaces()
	p.screen.Render(searchDesc, s.Buf, nil)
}

// updateSize reacts to a SIGWINCH/go-tty resize event, matching the
// teacher's updateSize.
func (p *Prompt) updateSize() {
	width, height, err := p.term.Size()
	if err != nil {
		return
	}
	p.screen.SetSize(width, height)
	p.desc = display.ExpandPrompt(p.rawPrompt, width)
}

// pump reads raw bytes from the terminal, splitting out bracketed-paste
// payloads and polling for signals at a bounded deadline so a blocked
// Read() can never starve signal delivery, per spec §5's "poll signals at
// safe points" requirement extended to the read loop itself.
func (p *Prompt) pump() {
	type deadliner interface {
		SetReadDeadline(time.Time) error
	}
	dl, canDeadline := p.term.In.(deadliner)

	raw := make([]byte, 256)
	var acc []byte
	inPaste := false

	for {
		if canDeadline {
			_ = dl.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
		}
		n, err := p.term.In.Read(raw)
		if n > 0 {
			acc = p.drainEvents(append(acc, raw[:n]...), &inPaste)
		}
		if err != nil {
			if canDeadline && errors.Is(err, os.ErrDeadlineExceeded) {
				if k, s := p.sig.CheckSignals(); k != sigcoord.KindNone {
					p.events <- inputEvent{isSig: true, sigKind: k, sigNum: s}
				}
				continue
			}
			p.events <- inputEvent{err: err}
			return
		}
	}
}

// drainEvents scans acc for bracketed-paste markers, emitting ordinary
// byte events outside a paste and a single paste event for everything
// between a start and end marker, per spec §4.6's "bracketed-paste
// prefix -> capture the paste as if typed".
func (p *Prompt) drainEvents(acc []byte, inPaste *bool) []byte {
	for {
		if !*inPaste {
			idx := bytes.Index(acc, []byte(term.BracketedPasteStart))
			if idx < 0 {
				safe := len(acc) - (len(term.BracketedPasteStart) - 1)
				if safe < 0 {
					safe = 0
				}
				for _, b := range acc[:safe] {
					p.events <- inputEvent{b: b}
				}
				return acc[safe:]
			}
			for _, b := range acc[:idx] {
				p.events <- inputEvent{b: b}
			}
			acc = acc[idx+len(term.BracketedPasteStart):]
			*inPaste = true
			continue
		}

		idx := bytes.Index(acc, []byte(term.BracketedPasteEnd))
		if idx < 0 {
			return acc
		}
		p.events <- inputEvent{isPaste: true, paste: append([]byte(nil), acc[:idx]...)}
		acc = acc[idx+len(term.BracketedPasteEnd):]
		*inPaste = false
	}
}

// nextRawByte blocks for up to timeout for the next ordinary byte,
// transparently handling paste and signal events along the way.
func (p *Prompt) nextRawByte(timeout time.Duration) (byte, bool, error) {
	for {
		if len(p.pending) > 0 {
			b := p.pending[0]
			p.pending = p.pending[1:]
			return b, true, nil
		}

		var ev inputEvent
		if timeout <= 0 {
			ev = <-p.events
		} else {
			select {
			case ev = <-p.events:
			case <-time.After(timeout):
				return 0, false, nil
			}
		}

		switch {
		case ev.err != nil:
			return 0, false, ev.err
		case ev.isSig:
			p.handleSignal(ev.sigKind, ev.sigNum)
		case ev.isPaste:
			p.handlePaste(ev.paste)
		default:
			return ev.b, true, nil
		}
	}
}

// handleSignal reacts to a pending sigcoord.Kind, per spec §4.8's policy:
// resize recomputes wrap bookkeeping, interrupt behaves like Ctrl-C
// (discarding the in-progress line is left to the caller via
// ErrInterrupted from cmdCancel so CleanupOnSignal need not duplicate
// it), and fatal/stop signals restore the terminal and re-raise the exact
// signal that arrived (spec §4.8(e)) rather than a fixed stand-in for its
// class, so a SIGHUP re-raises as SIGHUP and SIGTTIN re-raises as SIGTTIN.
func (p *Prompt) handleSignal(k sigcoord.Kind, sig syscall.Signal) {
	switch k {
	case sigcoord.KindWinch:
		p.updateSize()
	case sigcoord.KindInterrupt:
		p.Ding()
	case sigcoord.KindFatal, sigcoord.KindStop:
		p.sig.RunCleanup()
		sigcoord.Reraise(sig, nil)
	}
}

// handlePaste applies a captured bracketed-paste payload either to the
// active search query (as a single unit, per spec §4.6) or directly into
// the line buffer as literal text.
func (p *Prompt) handlePaste(data []byte) {
	if p.search != nil {
		p.search.ConsumePaste(data)
		return
	}
	for _, r := range string(data) {
		p.buf.Insert(r)
	}
}

// promptByteSource adapts Prompt to dispatch.ByteSource.
type promptByteSource struct {
	p *Prompt
}

func (s promptByteSource) ReadByte(timeout time.Duration) (byte, bool, error) {
	return s.p.nextRawByte(timeout)
}

func (s promptByteSource) Unread(b byte) {
	s.p.pending = append([]byte{b}, s.p.pending...)
}

func (s promptByteSource) Feed(bs []byte) {
	s.p.pending = append(append([]byte(nil), bs...), s.p.pending...)
}
