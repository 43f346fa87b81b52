package goline

import (
	"io"
	"os"

	"github.com/aidanjensen/goline/internal/config"
	"github.com/aidanjensen/goline/internal/display"
	"github.com/aidanjensen/goline/internal/term"
)

// Option defines the interface for Prompt options.
type Option interface {
	apply(p *Prompt)
}

type ttyOption struct {
	tty *os.File
}

func (o *ttyOption) apply(p *Prompt) {
	p.term = term.New(o.tty, o.tty)
}

// WithTTY allows configuring a prompt with a different TTY than stdin/stdout.
func WithTTY(tty *os.File) Option {
	return &ttyOption{tty: tty}
}

type inputOption struct {
	r io.Reader
}

func (o *inputOption) apply(p *Prompt) {
	p.term = term.New(o.r, p.term.Out)
}

// WithInput allows configuring the input reader for a Prompt. This option is
// primarily useful for tests.
func WithInput(r io.Reader) Option {
	return &inputOption{r: r}
}

type outputOption struct {
	w io.Writer
}

func (o *outputOption) apply(p *Prompt) {
	p.term = term.New(p.term.In, o.w)
	p.screen = display.New(o.w)
}

// WithOutput allows configuring the output writer for a Prompt. This option
// is primarily useful for tests.
func WithOutput(w io.Writer) Option {
	return &outputOption{w: w}
}

type sizeOption struct {
	width, height int
}

func (o *sizeOption) apply(p *Prompt) {
	p.screen.SetSize(o.width, o.height)
}

// WithSize allows configuring the initial width and height of a Prompt.
// Typically, the width and height of the terminal are automatically
// determined. This option is primarily useful for tests in conjunction with
// WithInput and WithOutput.
func WithSize(width, height int) Option {
	return &sizeOption{width: width, height: height}
}

type inputFinishedOption struct {
	fn func(text string) bool
}

func (o inputFinishedOption) apply(p *Prompt) { p.inputFinished = o.fn }

// WithInputFinished allows configuring a callback that will be invoked when
// enter is pressed to determine if the input is considered complete or not.
// If the input is not complete, a newline is instead inserted into the
// input, rather than ending the read.
func WithInputFinished(fn func(text string) bool) Option {
	return inputFinishedOption{fn}
}

type configOption struct {
	mgr *config.Manager
}

func (o configOption) apply(p *Prompt) { p.cfgMgr = o.mgr }

// WithConfig overrides the config.Manager a Prompt loads its ambient
// settings from (history path/format, editing mode, bell style, whether to
// load an inputrc). Primarily useful for tests that want to avoid touching
// the real filesystem via a fake config.FileOps.
func WithConfig(mgr *config.Manager) Option {
	return configOption{mgr: mgr}
}

type inputrcPathOption struct {
	path string
}

func (o inputrcPathOption) apply(p *Prompt) { p.inputrcPath = o.path }

// WithInputrcPath overrides the path New loads inputrc directives from when
// the config's Inputrc.Path is unset (default "~/.inputrc").
func WithInputrcPath(path string) Option {
	return inputrcPathOption{path: path}
}

type historyPathOption struct {
	path string
}

func (o historyPathOption) apply(p *Prompt) {
	p.cfgMgr.GetConfig().History.Path = o.path
}

// WithHistoryFile overrides the history file path New loads and mirrors
// Append calls to, regardless of what a loaded config file specifies.
func WithHistoryFile(path string) Option {
	return historyPathOption{path: path}
}
