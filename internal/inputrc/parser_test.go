package inputrc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/stretchr/testify/require"

	"github.com/aidanjensen/goline/internal/keymap"
)

// recordingSink implements Sink and records every effect, for datadriven
// assertions, in the style of the teacher's prompt_test.go mockTerm.
type recordingSink struct {
	binds []Binding
	vars  []string
	maps  []string
}

func (s *recordingSink) Bind(b Binding) error {
	s.binds = append(s.binds, b)
	return nil
}

func (s *recordingSink) SetVariable(name, value string) error {
	return fmt.Errorf("unhandled: %s", name) // defer to ctx.Vars in all tests
}

func (s *recordingSink) SwitchKeymap(name string) error {
	s.maps = append(s.maps, name)
	return nil
}

func (s *recordingSink) dump() string {
	var b strings.Builder
	for _, bind := range s.binds {
		fmt.Fprintf(&b, "bind seq=%x", bind.Seq)
		if bind.IsMacro {
			fmt.Fprintf(&b, " macro=%q", bind.Macro)
		} else {
			fmt.Fprintf(&b, " func=%s", bind.Func)
		}
		if bind.Equivalency {
			b.WriteString(" equivalency")
		}
		b.WriteString("\n")
	}
	for _, m := range s.maps {
		fmt.Fprintf(&b, "keymap=%s\n", m)
	}
	return b.String()
}

func TestParserDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		var sink *recordingSink
		var parser *Parser
		var ctx *Context

		datadriven.RunTest(t, path, func(t *testing.T, td *datadriven.TestData) string {
			switch td.Cmd {
			case "new":
				sink = &recordingSink{}
				ctx = &Context{
					TermName: "xterm-256color",
					Version:  "8.2",
					AppName:  "goline",
					Vars:     DefaultVariables(),
				}
				for _, arg := range td.CmdArgs {
					switch arg.Key {
					case "term":
						ctx.TermName = arg.Vals[0]
					case "mode":
						ctx.Vars.EditingMode = EditingMode(arg.Vals[0])
					}
				}
				parser = New(ctx, sink)
				return ""

			case "parse":
				err := parser.Parse(strings.NewReader(td.Input), path)
				require.NoError(t, err)
				var out strings.Builder
				out.WriteString(sink.dump())
				for _, e := range parser.Errors {
					fmt.Fprintf(&out, "error: %s\n", e)
				}
				sink.binds, sink.maps = nil, nil
				parser.Errors = nil
				return out.String()

			default:
				t.Fatalf("unknown command: %s", td.Cmd)
				return ""
			}
		})
	})
}

func TestResolveKeySpecControlMeta(t *testing.T) {
	ctx := &Context{Vars: DefaultVariables()}
	p := New(ctx, &recordingSink{})

	seq, err := p.resolveKeySpec("Control-x")
	require.NoError(t, err)
	require.Equal(t, []byte{0x18}, seq)

	seq, err = p.resolveKeySpec("Meta-Control-r")
	require.NoError(t, err)
	require.Equal(t, []byte{0x1b, 0x12}, seq)

	seq, err = p.resolveKeySpec(`"\C-x\C-r"`)
	require.NoError(t, err)
	require.Equal(t, []byte{0x18, 0x12}, seq)
}

func TestEvalPredicateTermAndMode(t *testing.T) {
	ctx := &Context{TermName: "xterm-256color", Vars: DefaultVariables()}
	ctx.Vars.EditingMode = ModeVi
	p := New(ctx, &recordingSink{})

	require.True(t, p.evalPredicate("term=xterm"))
	require.True(t, p.evalPredicate("term=xterm-256color"))
	require.False(t, p.evalPredicate("term=rxvt"))
	require.True(t, p.evalPredicate("mode=vi"))
	require.False(t, p.evalPredicate("mode=emacs"))
}

func TestIfElseEndifStack(t *testing.T) {
	sink := &recordingSink{}
	ctx := &Context{TermName: "dumb", Vars: DefaultVariables()}
	p := New(ctx, sink)

	src := strings.NewReader(`
$if mode=vi
"\C-a": beginning-of-line
$else
"\C-a": kill-whole-line
$endif
`)
	require.NoError(t, p.Parse(src, "test"))
	require.Empty(t, p.Errors)
	require.Len(t, sink.binds, 1)
	require.Equal(t, keymap.Command("kill-whole-line"), sink.binds[0].Func)
}

func TestSetEditingModeAffectsLaterIfInSameFile(t *testing.T) {
	sink := &recordingSink{}
	ctx := &Context{Vars: DefaultVariables()}
	p := New(ctx, sink)

	src := strings.NewReader(`
set editing-mode vi
$if mode=emacs
"\C-a": beginning-of-line
$endif
`)
	require.NoError(t, p.Parse(src, "test"))
	require.Empty(t, p.Errors)
	require.Empty(t, sink.binds, "editing-mode vi set earlier in the file must make mode=emacs false")
}

func TestUnmatchedElseIsNonFatal(t *testing.T) {
	sink := &recordingSink{}
	ctx := &Context{Vars: DefaultVariables()}
	p := New(ctx, sink)

	src := strings.NewReader(`
$else
"a": self-insert
`)
	require.NoError(t, p.Parse(src, "test"))
	require.NotEmpty(t, p.Errors)
}
