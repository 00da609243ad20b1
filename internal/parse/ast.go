package parse

// Kind identifies the AST node variant. The set is closed: every construct
// the grammar recognizes has a case here, so no syntax is silently dropped
// even when execution support for it is deferred.
type Kind int

const (
	KCommand Kind = iota
	KPipeline
	KList
	KExport

	KSubshell
	KIf
	KElif
	KElse
	KCase
	KCaseClause
	KFor
	KWhile
	KUntil
	KFunction
	KFunctionCall
	KCommandSub
	KArithExpansion
	KArithCommand
	KExtGlob
	KParamExpansion
	KProcessSub
	KHistoryExpansion
	KNegation
	KGroup
	KSelect
	KArray
	KReturn
	KComplete
	KExtendedTest
	KComment
	KStringLiteral
	KSingleQuotedString
)

var kindNames = [...]string{
	KCommand:            "command",
	KPipeline:           "pipeline",
	KList:               "list",
	KExport:             "export",
	KSubshell:           "subshell",
	KIf:                 "if statement",
	KElif:               "elif branch",
	KElse:               "else branch",
	KCase:               "case statement",
	KCaseClause:         "case clause",
	KFor:                "for loop",
	KWhile:              "while loop",
	KUntil:              "until loop",
	KFunction:           "function definition",
	KFunctionCall:       "function call",
	KCommandSub:         "command substitution",
	KArithExpansion:     "arithmetic expansion",
	KArithCommand:       "arithmetic command",
	KExtGlob:            "extglob pattern",
	KParamExpansion:     "parameter expansion",
	KProcessSub:         "process substitution",
	KHistoryExpansion:   "history expansion",
	KNegation:           "negation",
	KGroup:              "group",
	KSelect:             "select statement",
	KArray:              "array",
	KReturn:             "return",
	KComplete:           "complete",
	KExtendedTest:       "extended test",
	KComment:            "comment",
	KStringLiteral:      "string literal",
	KSingleQuotedString: "single-quoted string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Sep records the operator between two adjacent statements of a list.
type Sep int

const (
	SepSeq Sep = iota // ';' or newline: always run the next statement
	SepAnd            // '&&': run the next statement only on success
	SepOr             // '||': run the next statement only on failure
	SepBg             // '&': the preceding statement was backgrounded
)

func (s Sep) String() string {
	switch s {
	case SepAnd:
		return "&&"
	case SepOr:
		return "||"
	case SepBg:
		return "&"
	default:
		return ";"
	}
}

// RedirKind identifies a redirection operator.
type RedirKind int

const (
	RInput RedirKind = iota
	ROutput
	RAppend
	RInputOutput
	RHereDoc
	RHereDocDash
	RHereString
	RInputDup
	ROutputDup
)

func (k RedirKind) String() string {
	switch k {
	case RInput:
		return "<"
	case ROutput:
		return ">"
	case RAppend:
		return ">>"
	case RInputOutput:
		return "<>"
	case RHereDoc:
		return "<<"
	case RHereDocDash:
		return "<<-"
	case RHereString:
		return "<<<"
	case RInputDup:
		return "<&"
	case ROutputDup:
		return ">&"
	default:
		return "?"
	}
}

// Redir binds one standard stream of a command to a file target.
type Redir struct {
	Kind   RedirKind
	Target *Word
}

// PartKind identifies one piece of a shell word.
type PartKind int

const (
	PartLit       PartKind = iota // bare literal text
	PartQuoted                    // literal text that was quoted (no tilde)
	PartSingle                    // single-quoted opaque span
	PartVar                       // $name reference
	PartVarBraced                 // ${name} reference (or a parameter expansion)
	PartCmdSub                    // $(...) with the parsed body attached
	PartArith                     // $((...))
	PartProcSub                   // <(...) or >(...)
	PartExtGlob                   // @(...) and friends
)

// Part is one piece of a Word. Variable references stay unresolved until
// execution; Node carries the parsed sub-tree for substitution parts.
type Part struct {
	Kind PartKind
	Text string
	Node *Node
}

// Word is an ordered sequence of parts that expands to a single string.
type Word struct {
	Parts []Part
}

// Lit builds a single-part literal word.
func Lit(text string) *Word {
	return &Word{Parts: []Part{{Kind: PartLit, Text: text}}}
}

// Node is the AST node. One compact struct covers every Kind; which fields
// are populated depends on the variant:
//
//	KCommand   Word (name), Words (args), Redirs
//	KPipeline  List (commands, in order)
//	KList      List (statements), Seps (operator between adjacent pairs)
//	KExport    Name, Body (value literal), Words (raw NAME=VALUE words)
//	KIf        Cond, Body, Else (KElif chain or KElse)
//	KCase      Word (subject), List (KCaseClause nodes)
//	KFor/KSelect  Name, Words (items), Body
//	KFunction  Name, Body
//	others     Text and/or Body as noted in the parser
type Node struct {
	Kind   Kind
	Name   string
	Text   string
	Word   *Word
	Words  []*Word
	Redirs []Redir
	Seps   []Sep
	List   []*Node
	Cond   *Node
	Body   *Node
	Else   *Node
}

// list wraps statements into a KList node, unwrapping the trivial case of a
// single statement with no separators.
func list(stmts []*Node, seps []Sep) *Node {
	if len(stmts) == 1 && len(seps) == 0 {
		return stmts[0]
	}
	if len(stmts) == 0 {
		return nil
	}
	return &Node{Kind: KList, List: stmts, Seps: seps}
}
