package parse

import (
	"fmt"
	"strings"
)

// Dump renders a node tree as an indented, deterministic listing. It is a
// debugging aid and the fixture format for the parser golden tests.
func Dump(n *Node) string {
	var b strings.Builder
	dumpNode(&b, n, 0)
	return b.String()
}

func dumpNode(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n == nil {
		fmt.Fprintf(b, "%s<nil>\n", indent)
		return
	}
	b.WriteString(indent)
	b.WriteString(n.Kind.String())
	if n.Name != "" {
		fmt.Fprintf(b, " name=%q", n.Name)
	}
	if n.Text != "" {
		fmt.Fprintf(b, " text=%q", n.Text)
	}
	if len(n.Seps) > 0 {
		b.WriteString(" seps=[")
		for i, sep := range n.Seps {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(sep.String())
		}
		b.WriteByte(']')
	}
	b.WriteByte('\n')

	if n.Word != nil {
		fmt.Fprintf(b, "%s  word %s\n", indent, dumpWord(n.Word))
	}
	for _, w := range n.Words {
		fmt.Fprintf(b, "%s  arg %s\n", indent, dumpWord(w))
	}
	for _, r := range n.Redirs {
		fmt.Fprintf(b, "%s  redir %s %s\n", indent, r.Kind, dumpWord(r.Target))
	}
	if n.Cond != nil {
		fmt.Fprintf(b, "%s  cond:\n", indent)
		dumpNode(b, n.Cond, depth+2)
	}
	if n.Body != nil {
		fmt.Fprintf(b, "%s  body:\n", indent)
		dumpNode(b, n.Body, depth+2)
	}
	if n.Else != nil {
		fmt.Fprintf(b, "%s  else:\n", indent)
		dumpNode(b, n.Else, depth+2)
	}
	for _, child := range n.List {
		dumpNode(b, child, depth+1)
	}
}

func dumpWord(w *Word) string {
	if w == nil {
		return "<nil>"
	}
	elems := make([]string, len(w.Parts))
	for i, part := range w.Parts {
		elems[i] = dumpPart(part)
	}
	return "[" + strings.Join(elems, " ") + "]"
}

func dumpPart(part Part) string {
	switch part.Kind {
	case PartLit:
		return fmt.Sprintf("lit(%q)", part.Text)
	case PartQuoted:
		return fmt.Sprintf("quoted(%q)", part.Text)
	case PartSingle:
		return fmt.Sprintf("single(%q)", part.Text)
	case PartVar:
		return fmt.Sprintf("var(%s)", part.Text)
	case PartVarBraced:
		return fmt.Sprintf("braced(%s)", part.Text)
	case PartCmdSub:
		return fmt.Sprintf("cmdsub(%q)", part.Text)
	case PartArith:
		return fmt.Sprintf("arith(%q)", part.Text)
	case PartProcSub:
		return fmt.Sprintf("procsub(%q)", part.Text)
	case PartExtGlob:
		return fmt.Sprintf("extglob(%q)", part.Text)
	default:
		return fmt.Sprintf("part(%q)", part.Text)
	}
}
