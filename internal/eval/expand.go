package eval

import (
	"path/filepath"
	"strings"

	shlex "github.com/anmitsu/go-shlex"

	"wpcsh/internal/parse"
)

// aliasDepthLimit bounds recursive alias chains (including cycles such as
// a=b, b=a). Resolution stops quietly at the limit with whatever has been
// substituted so far.
const aliasDepthLimit = 32

// ResolveAlias expands a command name through the alias table. The
// replacement text is split into words, and its first word is resolved
// again until it is not an alias, a cycle is detected, or the depth limit
// is reached. The returned slice replaces the command name in argv.
func (st *State) ResolveAlias(name string) ([]string, error) {
	words := []string{name}
	visited := map[string]bool{}
	for i := 0; i < aliasDepthLimit; i++ {
		head := words[0]
		repl, ok := st.Aliases[head]
		if !ok || visited[head] {
			break
		}
		visited[head] = true
		fields, err := shlex.Split(repl, true)
		if err != nil {
			return nil, errf(ErrInvalidInput, "alias %s: %v", head, err)
		}
		words = append(fields, words[1:]...)
		if len(words) == 0 {
			break
		}
	}
	return words, nil
}

// ExpandWord resolves one word to the string an executed command sees:
// variables substituted, a leading unquoted ~ replaced with the home
// directory, quoted spans passed through. Substitution constructs that
// parse but do not execute surface as unsupported errors here.
func (st *State) ExpandWord(w *parse.Word) (string, error) {
	if w == nil {
		return "", nil
	}
	var b strings.Builder
	for i, part := range w.Parts {
		switch part.Kind {
		case parse.PartLit:
			text := part.Text
			if i == 0 {
				text = st.expandTilde(text)
			}
			b.WriteString(text)
		case parse.PartQuoted, parse.PartSingle:
			b.WriteString(part.Text)
		case parse.PartVar:
			b.WriteString(st.varOrLiteral(part.Text, "$"+part.Text))
		case parse.PartVarBraced:
			if !isIdentifier(part.Text) {
				return "", errf(ErrUnsupported, "unsupported parameter expansion: ${%s}", part.Text)
			}
			b.WriteString(st.varOrLiteral(part.Text, "${"+part.Text+"}"))
		case parse.PartCmdSub:
			return "", errf(ErrUnsupported, "unsupported construct: command substitution")
		case parse.PartArith:
			return "", errf(ErrUnsupported, "unsupported construct: arithmetic expansion")
		case parse.PartProcSub:
			return "", errf(ErrUnsupported, "unsupported construct: process substitution")
		case parse.PartExtGlob:
			return "", errf(ErrUnsupported, "unsupported construct: extglob pattern")
		}
	}
	return b.String(), nil
}

// ExpandWords expands a word list in order, stopping at the first failure.
func (st *State) ExpandWords(words []*parse.Word) ([]string, error) {
	out := make([]string, 0, len(words))
	for _, w := range words {
		s, err := st.ExpandWord(w)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// varOrLiteral substitutes a variable, keeping the written reference text
// when the name is unset.
func (st *State) varOrLiteral(name, written string) string {
	if val, ok := st.Var(name); ok {
		return val
	}
	return written
}

func (st *State) expandTilde(text string) string {
	if text == "~" {
		return st.Home
	}
	if strings.HasPrefix(text, "~/") {
		return filepath.Join(st.Home, text[2:])
	}
	return text
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		case ch == '_':
		case ch >= '0' && ch <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
