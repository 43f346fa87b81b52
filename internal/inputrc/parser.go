package inputrc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aidanjensen/goline/internal/keymap"
)

// Binding is one parsed key-binding directive: either a KEYSPEC (single
// named key, possibly Control-/Meta- prefixed) or a quoted KEYSEQ, bound
// to a function name or a macro body.
type Binding struct {
	Seq      []byte
	Func     keymap.Command
	Macro    []byte
	IsMacro  bool
	Equivalency bool // parsed ":=" form, per spec §4.2 — parsed but ignored
}

// Sink receives the effects of parsing an inputrc file/stream: bindings to
// install into the active keymap, and variable assignments. It decouples
// the parser from any particular keymap.Registry instance so it can be
// tested standalone.
type Sink interface {
	Bind(b Binding) error
	SetVariable(name, value string) error
	SwitchKeymap(name string) error
}

// Context carries the ambient state the $if predicates and $include
// resolve against: the terminal name, the readline/application version,
// and the application name (spec §4.2's "term=", "mode=", "version OP",
// and application-name predicates). The current editing mode is read
// live from Vars.EditingMode rather than snapshotted here, since a `set
// editing-mode` directive earlier in the same file must be visible to a
// later `$if mode=` in that file.
type Context struct {
	TermName    string
	Version     string // e.g. "8.2"
	AppName     string
	Vars        *Variables
	IncludeRoot string // base directory $include PATH is resolved against
}

// Parser parses inputrc syntax against a Sink and Context, per spec §4.2
// and original_source/lib/readline/bind.cc. Parse errors are non-fatal
// (spec §7): each malformed line is reported (appended to Errors) and
// skipped, never aborting the whole file.
type Parser struct {
	ctx    *Context
	sink   Sink
	Errors []error

	// condStack records, for each enclosing $if, whether parsing is
	// currently enabled at that level — the state machine from spec §4.2
	// ("a stack of booleans records the enclosing parse-on/parse-off
	// state").
	condStack []condFrame
	depth     int
}

type condFrame struct {
	enabled    bool // this level's own predicate result
	sawElse    bool
}

// New returns a Parser bound to ctx and sink.
func New(ctx *Context, sink Sink) *Parser {
	return &Parser{ctx: ctx, sink: sink}
}

// enabled reports whether parsing is currently active: every enclosing
// frame must be enabled.
func (p *Parser) enabled() bool {
	for _, f := range p.condStack {
		if !f.enabled {
			return false
		}
	}
	return true
}

// ParseFile opens path (tilde-expanded) and parses it.
func (p *Parser) ParseFile(path string) error {
	path = expandTilde(path)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("inputrc: open %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, path)
}

// Parse reads lines from r (named name, for error messages and nested
// $include bookkeeping) and applies them.
func (p *Parser) Parse(r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.parseLine(scanner.Text(), name, lineNo); err != nil {
			p.Errors = append(p.Errors, fmt.Errorf("%s:%d: %w", name, lineNo, err))
		}
	}
	return scanner.Err()
}

func (p *Parser) parseLine(line, name string, lineNo int) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if strings.HasPrefix(line, "$") {
		return p.parseDirective(line[1:], name, lineNo)
	}

	if !p.enabled() {
		return nil
	}

	if fields := strings.Fields(line); len(fields) > 0 && strings.EqualFold(fields[0], "set") {
		return p.parseSet(line)
	}

	return p.parseBinding(line)
}

func (p *Parser) parseDirective(rest, name string, lineNo int) error {
	rest = strings.TrimSpace(rest)
	word, arg, _ := cutField(rest)
	switch strings.ToLower(word) {
	case "if":
		cond := p.enabled() && p.evalPredicate(arg)
		p.condStack = append(p.condStack, condFrame{enabled: cond})
		return nil
	case "else":
		if len(p.condStack) == 0 {
			return fmt.Errorf("$else without $if")
		}
		top := &p.condStack[len(p.condStack)-1]
		if top.sawElse {
			return fmt.Errorf("multiple $else for one $if")
		}
		top.sawElse = true
		// Only the top frame flips; outer-disabled state is unaffected
		// because enabled() ANDs across the whole stack.
		top.enabled = !top.enabled
		return nil
	case "endif":
		if len(p.condStack) == 0 {
			return fmt.Errorf("$endif without $if")
		}
		p.condStack = p.condStack[:len(p.condStack)-1]
		return nil
	case "include":
		if !p.enabled() {
			return nil
		}
		return p.doInclude(strings.TrimSpace(arg), name, lineNo)
	default:
		return fmt.Errorf("unknown directive $%s", word)
	}
}

func (p *Parser) doInclude(path, _ string, _ int) error {
	if p.depth > 16 {
		return fmt.Errorf("$include nesting too deep")
	}
	full := path
	if p.ctx.IncludeRoot != "" && !filepath.IsAbs(path) {
		full = filepath.Join(p.ctx.IncludeRoot, path)
	}
	full = expandTilde(full)
	f, err := os.Open(full)
	if err != nil {
		return fmt.Errorf("$include %s: %w", path, err)
	}
	defer f.Close()
	p.depth++
	defer func() { p.depth-- }()
	return p.Parse(f, full)
}

// evalPredicate implements spec §4.2's $if predicate grammar, in
// recognition order: term=, mode=, version OP, app-name equality, then a
// generic VAR OP VALUE against a known variable. An unrecognized
// left-hand side turns parsing off for that level, per spec.
func (p *Parser) evalPredicate(expr string) bool {
	expr = strings.TrimSpace(expr)
	switch {
	case strings.HasPrefix(expr, "term="):
		return p.matchTerm(expr[len("term="):])
	case strings.HasPrefix(expr, "mode="):
		return strings.EqualFold(expr[len("mode="):], string(p.ctx.Vars.EditingMode))
	case strings.HasPrefix(expr, "version"):
		return p.evalVersion(strings.TrimSpace(expr[len("version"):]))
	}

	// application-name equality: a bare word matching ctx.AppName,
	// compared case-insensitively.
	if !strings.ContainsAny(expr, "=<>!") {
		return strings.EqualFold(expr, p.ctx.AppName)
	}

	name, op, val, ok := splitComparison(expr)
	if !ok {
		return false
	}
	if b, known := p.ctx.Vars.BoolValue(name); known {
		return compareBool(b, op, isOnValue(val))
	}
	if s, known := p.ctx.Vars.StringValue(name); known {
		return compareString(s, op, val)
	}
	return false
}

func (p *Parser) matchTerm(name string) bool {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, p.ctx.TermName) {
		return true
	}
	if i := strings.IndexByte(p.ctx.TermName, '-'); i >= 0 {
		return strings.EqualFold(name, p.ctx.TermName[:i])
	}
	return false
}

func (p *Parser) evalVersion(rest string) bool {
	op, val, ok := splitOp(rest)
	if !ok {
		return false
	}
	return compareVersion(p.ctx.Version, op, strings.TrimSpace(val))
}

func splitComparison(expr string) (name, op, val string, ok bool) {
	for _, candidate := range []string{"==", "!=", "<=", ">=", "=", "<", ">"} {
		if i := strings.Index(expr, candidate); i >= 0 {
			return strings.TrimSpace(expr[:i]), candidate, strings.TrimSpace(expr[i+len(candidate):]), true
		}
	}
	return "", "", "", false
}

func splitOp(expr string) (op, val string, ok bool) {
	_, op, val, ok = splitComparison("x" + expr)
	if !ok {
		return "", "", false
	}
	return op, val, true
}

func compareBool(a bool, op string, b bool) bool {
	switch op {
	case "=", "==":
		return a == b
	case "!=":
		return a != b
	default:
		return false
	}
}

func compareString(a, op, b string) bool {
	switch op {
	case "=", "==":
		return a == b
	case "!=":
		return a != b
	default:
		return false
	}
}

func compareVersion(a, op, b string) bool {
	am, an := splitVersion(a)
	bm, bn := splitVersion(b)
	cmp := 0
	switch {
	case am != bm:
		cmp = am - bm
	default:
		cmp = an - bn
	}
	switch op {
	case "=", "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return false
	}
}

func splitVersion(s string) (major, minor int) {
	parts := strings.SplitN(s, ".", 2)
	major, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return major, minor
}

func (p *Parser) parseSet(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return fmt.Errorf("malformed set directive: %q", line)
	}
	name, value := fields[1], strings.Join(fields[2:], " ")
	if err := p.sink.SetVariable(name, value); err == nil {
		return nil
	}
	if p.ctx.Vars.SetBool(name, value) || p.ctx.Vars.SetString(name, value) {
		if strings.EqualFold(name, "keymap") {
			return p.sink.SwitchKeymap(p.ctx.Vars.Keymap)
		}
		return nil
	}
	return fmt.Errorf("unknown variable: %s", name)
}

func cutField(s string) (first, rest string, ok bool) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, "", s != ""
	}
	return s[:i], strings.TrimLeft(s[i+1:], " \t"), true
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
