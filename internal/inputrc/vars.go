// Package inputrc implements the inputrc parser (component C6): the
// tokenizer, $if/$else/$endif/$include conditional stack, the variable
// table, and key-binding syntax parsing, generalizing the teacher's
// bind.go parseBinding/parseBindings from single keys and a fixed
// three-token grammar into full key sequences and the richer
// "KEYSPEC: ACTION" / "\"KEYSEQ\": ACTION" grammar, grounded on
// original_source/lib/readline/bind.cc.
package inputrc

import (
	"sort"
	"strings"
)

// BellStyle is the string enum for the bell-style variable.
type BellStyle string

const (
	BellNone    BellStyle = "none"
	BellAudible BellStyle = "audible"
	BellVisible BellStyle = "visible"
)

// EditingMode is the string enum for the editing-mode variable.
type EditingMode string

const (
	ModeEmacs EditingMode = "emacs"
	ModeVi    EditingMode = "vi"
)

// Variables holds every inputrc variable spec §4.2 names, both boolean and
// string-valued, with the documented defaults.
type Variables struct {
	// Booleans.
	InputMeta            bool
	OutputMeta            bool
	ShowAllIfAmbiguous    bool
	BindTTYSpecialChars   bool
	ConvertMeta           bool
	MetaFlag              bool
	HorizontalScrollMode  bool
	MarkModifiedLines     bool
	EnableKeypad          bool
	ExpandTilde           bool
	PreferVisibleBell     bool
	SkipCompletedText     bool
	EnableBracketedPaste  bool

	// Strings.
	BellStyle            BellStyle
	EditingMode          EditingMode
	Keymap               string
	HistorySize          int
	KeyseqTimeoutMillis   int
	IsearchTerminators    string
	EmacsModeString       string
	ViCmdModeString       string
	ViInsModeString       string
	CommentBegin          string
}

// DefaultVariables returns the documented readline defaults.
func DefaultVariables() *Variables {
	return &Variables{
		OutputMeta:           true,
		ConvertMeta:          true,
		ExpandTilde:          false,
		EnableKeypad:         false,
		BellStyle:            BellAudible,
		EditingMode:          ModeEmacs,
		Keymap:               "emacs",
		HistorySize:          -1,
		KeyseqTimeoutMillis:  500,
		IsearchTerminators:   "\x1b\x0a",
		CommentBegin:         "#",
	}
}

var boolVarNames = map[string]func(v *Variables) *bool{
	"input-meta":              func(v *Variables) *bool { return &v.InputMeta },
	"meta-flag":                func(v *Variables) *bool { return &v.MetaFlag },
	"output-meta":              func(v *Variables) *bool { return &v.OutputMeta },
	"show-all-if-ambiguous":    func(v *Variables) *bool { return &v.ShowAllIfAmbiguous },
	"bind-tty-special-chars":   func(v *Variables) *bool { return &v.BindTTYSpecialChars },
	"convert-meta":             func(v *Variables) *bool { return &v.ConvertMeta },
	"horizontal-scroll-mode":   func(v *Variables) *bool { return &v.HorizontalScrollMode },
	"mark-modified-lines":      func(v *Variables) *bool { return &v.MarkModifiedLines },
	"enable-keypad":            func(v *Variables) *bool { return &v.EnableKeypad },
	"expand-tilde":             func(v *Variables) *bool { return &v.ExpandTilde },
	"prefer-visible-bell":      func(v *Variables) *bool { return &v.PreferVisibleBell },
	"skip-completed-text":      func(v *Variables) *bool { return &v.SkipCompletedText },
	"enable-bracketed-paste":   func(v *Variables) *bool { return &v.EnableBracketedPaste },
}

// BoolVariableNames returns every recognized boolean variable name, sorted,
// for listing surfaces like `bind -v` (spec §6).
func BoolVariableNames() []string {
	names := make([]string, 0, len(boolVarNames))
	for name := range boolVarNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StringVariableNames returns every recognized string/numeric variable
// name, sorted, matching the case names SetString/StringValue handle.
func StringVariableNames() []string {
	names := []string{
		"bell-style", "editing-mode", "keymap", "history-size",
		"keyseq-timeout", "isearch-terminators", "emacs-mode-string",
		"vi-cmd-mode-string", "vi-ins-mode-string", "comment-begin",
	}
	sort.Strings(names)
	return names
}

// SetBool applies `set NAME on|off` for a known boolean variable name,
// case-insensitively. ok is false for an unrecognized name.
func (v *Variables) SetBool(name, value string) (ok bool) {
	get, known := boolVarNames[strings.ToLower(name)]
	if !known {
		return false
	}
	*get(v) = isOnValue(value)
	return true
}

// BoolValue returns the current value of a known boolean variable, for
// `$if VAR == on` predicates.
func (v *Variables) BoolValue(name string) (bool, bool) {
	get, known := boolVarNames[strings.ToLower(name)]
	if !known {
		return false, false
	}
	return *get(v), true
}

func isOnValue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "yes", "true":
		return true
	default:
		return false
	}
}

// SetString applies `set NAME VALUE` for a known string/numeric variable
// name. ok is false for an unrecognized name.
func (v *Variables) SetString(name, value string) (ok bool) {
	switch strings.ToLower(name) {
	case "bell-style":
		v.BellStyle = BellStyle(strings.ToLower(value))
	case "editing-mode":
		v.EditingMode = EditingMode(strings.ToLower(value))
	case "keymap":
		v.Keymap = strings.ToLower(value)
	case "history-size":
		v.HistorySize = atoiOr(value, v.HistorySize)
	case "keyseq-timeout":
		v.KeyseqTimeoutMillis = atoiOr(value, v.KeyseqTimeoutMillis)
	case "isearch-terminators":
		v.IsearchTerminators = value
	case "emacs-mode-string":
		v.EmacsModeString = value
	case "vi-cmd-mode-string":
		v.ViCmdModeString = value
	case "vi-ins-mode-string":
		v.ViInsModeString = value
	case "comment-begin":
		v.CommentBegin = value
	default:
		return false
	}
	return true
}

// StringValue returns the current value of a known string variable, for
// `$if VAR == value` predicates.
func (v *Variables) StringValue(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "bell-style":
		return string(v.BellStyle), true
	case "editing-mode":
		return string(v.EditingMode), true
	case "keymap":
		return v.Keymap, true
	case "isearch-terminators":
		return v.IsearchTerminators, true
	default:
		return "", false
	}
}

func atoiOr(s string, fallback int) int {
	n := 0
	neg := false
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(s) {
		return fallback
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fallback
		}
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n
}
