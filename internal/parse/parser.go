package parse

import (
	"fmt"
	"strings"
)

// Parser is a pull-based recursive-descent parser: it requests tokens from
// the lexer on demand and builds one top-level node. Constructs whose
// execution is deferred still parse into complete sub-trees so the executor
// can reject them explicitly instead of the parser dropping them.
type Parser struct {
	lx  *Lexer
	tok Token
}

func newParser(src string) (*Parser, error) {
	p := &Parser{lx: NewLexer(src)}
	return p, p.next()
}

func (p *Parser) next() error {
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// Parse builds the full statement list for one line or script fragment.
// Empty input yields a nil node and no error.
func Parse(src string) (*Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	n, err := p.parseList(nil, nil)
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TEof {
		return nil, p.unexpected()
	}
	return n, nil
}

// ParsePipeline builds a single command or pipeline, the narrow entry point
// used where a full statement list is not wanted (prompt commands).
func ParsePipeline(src string) (*Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TNewline {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if p.tok.Kind == TEof {
		return nil, nil
	}
	return p.parsePipeline()
}

func describe(tok Token) string {
	switch tok.Kind {
	case TWord:
		return fmt.Sprintf("%q", tok.Text)
	default:
		return tok.Kind.String()
	}
}

func (p *Parser) unexpected() error {
	return fmt.Errorf("unexpected token %s", describe(p.tok))
}

func (p *Parser) expectWord(want string) error {
	if p.tok.Kind != TWord || p.tok.Text != want {
		return fmt.Errorf("expected %q, got %s", want, describe(p.tok))
	}
	return p.next()
}

func (p *Parser) expectKind(want TokenKind) error {
	if p.tok.Kind != want {
		return fmt.Errorf("expected %s, got %s", want, describe(p.tok))
	}
	return p.next()
}

func (p *Parser) skipNewlines() error {
	for p.tok.Kind == TNewline {
		if err := p.next(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) atWord(text string) bool {
	return p.tok.Kind == TWord && p.tok.Text == text
}

// finishList drops trailing sequence separators and wraps the statements.
func finishList(stmts []*Node, seps []Sep) *Node {
	for len(seps) > 0 && len(seps) >= len(stmts) && seps[len(seps)-1] == SepSeq {
		seps = seps[:len(seps)-1]
	}
	return list(stmts, seps)
}

// parseList chains statements with their separators until end of input, a
// stop word at statement position, or a stop token kind.
func (p *Parser) parseList(stopWords map[string]bool, stopKinds map[TokenKind]bool) (*Node, error) {
	var stmts []*Node
	var seps []Sep
	for {
		for p.tok.Kind == TNewline || p.tok.Kind == TSemicolon {
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		if p.tok.Kind == TEof || stopKinds[p.tok.Kind] {
			break
		}
		if p.tok.Kind == TWord && stopWords[p.tok.Text] {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)

		switch p.tok.Kind {
		case TSemicolon, TNewline:
			seps = append(seps, SepSeq)
		case TAndIf:
			seps = append(seps, SepAnd)
		case TOrIf:
			seps = append(seps, SepOr)
		case TBackground:
			seps = append(seps, SepBg)
		case TComment:
			// A trailing comment is its own statement with no written
			// separator before it.
			seps = append(seps, SepSeq)
			continue
		case TEof:
			continue
		default:
			if stopKinds[p.tok.Kind] || (p.tok.Kind == TWord && stopWords[p.tok.Text]) {
				return finishList(stmts, seps), nil
			}
			return nil, p.unexpected()
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		if seps[len(seps)-1] == SepAnd || seps[len(seps)-1] == SepOr {
			if err := p.skipNewlines(); err != nil {
				return nil, err
			}
		}
	}
	return finishList(stmts, seps), nil
}

func (p *Parser) parseStatement() (*Node, error) {
	switch p.tok.Kind {
	case TComment:
		n := &Node{Kind: KComment, Text: p.tok.Text}
		return n, p.next()
	case TArithCommand:
		n := &Node{Kind: KArithCommand, Text: p.tok.Text}
		return n, p.next()
	case TLParen:
		return p.parseSubshell()
	case TLBrace:
		return p.parseGroup()
	case TWord:
		switch p.tok.Text {
		case "if":
			return p.parseIf()
		case "while":
			return p.parseLoop(KWhile)
		case "until":
			return p.parseLoop(KUntil)
		case "for":
			return p.parseForSelect(KFor)
		case "select":
			return p.parseForSelect(KSelect)
		case "case":
			return p.parseCase()
		case "function":
			return p.parseFunction()
		case "export":
			return p.parseExport()
		case "return":
			return p.parseWordsNode(KReturn)
		case "complete":
			return p.parseWordsNode(KComplete)
		case "[[":
			return p.parseExtendedTest()
		case "!":
			if err := p.next(); err != nil {
				return nil, err
			}
			body, err := p.parsePipeline()
			if err != nil {
				return nil, err
			}
			return &Node{Kind: KNegation, Body: body}, nil
		}
		if len(p.tok.Text) > 1 && strings.HasPrefix(p.tok.Text, "!") {
			n := &Node{Kind: KHistoryExpansion, Text: p.tok.Text}
			return n, p.next()
		}
	}
	return p.parsePipeline()
}

// parsePipeline chains simple commands joined by '|'. A lone command is
// returned unwrapped.
func (p *Parser) parsePipeline() (*Node, error) {
	first, err := p.parseSimple()
	if err != nil {
		return nil, err
	}
	if first.Kind != KCommand {
		return first, nil
	}
	stages := []*Node{first}
	for p.tok.Kind == TPipe {
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		stage, err := p.parseSimple()
		if err != nil {
			return nil, err
		}
		if stage.Kind != KCommand {
			return nil, fmt.Errorf("%s cannot be a pipeline stage", stage.Kind)
		}
		stages = append(stages, stage)
	}
	if len(stages) == 1 {
		return first, nil
	}
	return &Node{Kind: KPipeline, List: stages}, nil
}

// parseSimple accumulates word tokens into name+args, diverting redirect
// operators and their following word into the redirect list.
func (p *Parser) parseSimple() (*Node, error) {
	cmd := &Node{Kind: KCommand}
	for {
		switch {
		case isWordLike(p.tok.Kind):
			w, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			if cmd.Word == nil {
				cmd.Word = w
				if p.tok.Kind == TLParen && len(cmd.Redirs) == 0 {
					return p.parseFuncOrArray(w)
				}
			} else {
				cmd.Words = append(cmd.Words, w)
			}
		case isRedirToken(p.tok.Kind):
			kind := redirKindFor(p.tok.Kind)
			if err := p.next(); err != nil {
				return nil, err
			}
			if !isWordLike(p.tok.Kind) {
				return nil, fmt.Errorf("expected redirect target, got %s", describe(p.tok))
			}
			target, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			cmd.Redirs = append(cmd.Redirs, Redir{Kind: kind, Target: target})
		default:
			if cmd.Word == nil && len(cmd.Redirs) == 0 {
				return nil, p.unexpected()
			}
			return cmd, nil
		}
	}
}

// parseFuncOrArray handles the two forms where a '(' directly follows the
// first word of a statement: NAME() body and NAME=(items).
func (p *Parser) parseFuncOrArray(w *Word) (*Node, error) {
	if len(w.Parts) != 1 || w.Parts[0].Kind != PartLit {
		return nil, p.unexpected()
	}
	name := w.Parts[0].Text
	if err := p.next(); err != nil { // '('
		return nil, err
	}
	if strings.HasSuffix(name, "=") {
		n := &Node{Kind: KArray, Name: strings.TrimSuffix(name, "=")}
		for {
			if err := p.skipNewlines(); err != nil {
				return nil, err
			}
			if p.tok.Kind == TRParen {
				return n, p.next()
			}
			if !isWordLike(p.tok.Kind) {
				return nil, fmt.Errorf("expected array element, got %s", describe(p.tok))
			}
			item, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			n.Words = append(n.Words, item)
		}
	}
	if err := p.expectKind(TRParen); err != nil {
		return nil, err
	}
	if err := p.skipNewlines(); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KFunction, Name: name, Body: body}, nil
}

func (p *Parser) parseSubshell() (*Node, error) {
	if err := p.next(); err != nil { // '('
		return nil, err
	}
	body, err := p.parseList(nil, map[TokenKind]bool{TRParen: true})
	if err != nil {
		return nil, err
	}
	if err := p.expectKind(TRParen); err != nil {
		return nil, err
	}
	return &Node{Kind: KSubshell, Body: body}, nil
}

func (p *Parser) parseGroup() (*Node, error) {
	if err := p.next(); err != nil { // '{'
		return nil, err
	}
	body, err := p.parseList(nil, map[TokenKind]bool{TRBrace: true})
	if err != nil {
		return nil, err
	}
	if err := p.expectKind(TRBrace); err != nil {
		return nil, err
	}
	return &Node{Kind: KGroup, Body: body}, nil
}

func (p *Parser) parseIf() (*Node, error) {
	if err := p.next(); err != nil { // 'if'
		return nil, err
	}
	node, err := p.parseIfBranch(KIf)
	if err != nil {
		return nil, err
	}
	return node, p.expectWord("fi")
}

// parseIfBranch parses cond/then/body and any elif/else continuation,
// leaving the closing "fi" as the current token.
func (p *Parser) parseIfBranch(kind Kind) (*Node, error) {
	cond, err := p.parseList(map[string]bool{"then": true}, nil)
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("then"); err != nil {
		return nil, err
	}
	body, err := p.parseList(map[string]bool{"elif": true, "else": true, "fi": true}, nil)
	if err != nil {
		return nil, err
	}
	node := &Node{Kind: kind, Cond: cond, Body: body}
	switch {
	case p.atWord("elif"):
		if err := p.next(); err != nil {
			return nil, err
		}
		node.Else, err = p.parseIfBranch(KElif)
		if err != nil {
			return nil, err
		}
	case p.atWord("else"):
		if err := p.next(); err != nil {
			return nil, err
		}
		eb, err := p.parseList(map[string]bool{"fi": true}, nil)
		if err != nil {
			return nil, err
		}
		node.Else = &Node{Kind: KElse, Body: eb}
	}
	return node, nil
}

func (p *Parser) parseLoop(kind Kind) (*Node, error) {
	if err := p.next(); err != nil { // 'while' / 'until'
		return nil, err
	}
	cond, err := p.parseList(map[string]bool{"do": true}, nil)
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("do"); err != nil {
		return nil, err
	}
	body, err := p.parseList(map[string]bool{"done": true}, nil)
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("done"); err != nil {
		return nil, err
	}
	return &Node{Kind: kind, Cond: cond, Body: body}, nil
}

func (p *Parser) parseForSelect(kind Kind) (*Node, error) {
	if err := p.next(); err != nil { // 'for' / 'select'
		return nil, err
	}
	if p.tok.Kind != TWord {
		return nil, fmt.Errorf("expected loop variable, got %s", describe(p.tok))
	}
	node := &Node{Kind: kind, Name: p.tok.Text}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.atWord("in") {
		if err := p.next(); err != nil {
			return nil, err
		}
		for isWordLike(p.tok.Kind) {
			item, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			node.Words = append(node.Words, item)
		}
	}
	for p.tok.Kind == TSemicolon || p.tok.Kind == TNewline {
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if err := p.expectWord("do"); err != nil {
		return nil, err
	}
	body, err := p.parseList(map[string]bool{"done": true}, nil)
	if err != nil {
		return nil, err
	}
	if err := p.expectWord("done"); err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}

func (p *Parser) parseCase() (*Node, error) {
	if err := p.next(); err != nil { // 'case'
		return nil, err
	}
	if !isWordLike(p.tok.Kind) {
		return nil, fmt.Errorf("expected case subject, got %s", describe(p.tok))
	}
	subject, err := p.parseWord()
	if err != nil {
		return nil, err
	}
	if err := p.skipNewlines(); err != nil {
		return nil, err
	}
	if err := p.expectWord("in"); err != nil {
		return nil, err
	}
	node := &Node{Kind: KCase, Word: subject}
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		if p.atWord("esac") {
			return node, p.next()
		}
		if p.tok.Kind == TEof {
			return nil, fmt.Errorf("expected \"esac\", got eof")
		}
		if p.tok.Kind == TLParen {
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		clause := &Node{Kind: KCaseClause}
		for {
			if !isWordLike(p.tok.Kind) {
				return nil, fmt.Errorf("expected case pattern, got %s", describe(p.tok))
			}
			pat, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			clause.Words = append(clause.Words, pat)
			if p.tok.Kind != TPipe {
				break
			}
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		if err := p.expectKind(TRParen); err != nil {
			return nil, err
		}
		body, term, err := p.parseCaseBody()
		if err != nil {
			return nil, err
		}
		clause.Body = body
		node.List = append(node.List, clause)
		if term == "esac" {
			return node, nil
		}
	}
}

// parseCaseBody parses one clause body, consuming the terminating ";;" or
// "esac" and reporting which one ended it.
func (p *Parser) parseCaseBody() (*Node, string, error) {
	var stmts []*Node
	var seps []Sep
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, "", err
		}
		if p.atWord("esac") {
			if err := p.next(); err != nil {
				return nil, "", err
			}
			return finishList(stmts, seps), "esac", nil
		}
		if p.tok.Kind == TSemicolon {
			if err := p.next(); err != nil {
				return nil, "", err
			}
			if p.tok.Kind == TSemicolon {
				if err := p.next(); err != nil {
					return nil, "", err
				}
				return finishList(stmts, seps), ";;", nil
			}
			if len(stmts) > len(seps) {
				seps = append(seps, SepSeq)
			}
			continue
		}
		if p.tok.Kind == TEof {
			return nil, "", fmt.Errorf("expected \";;\" or \"esac\", got eof")
		}
		if len(stmts) > len(seps) {
			seps = append(seps, SepSeq)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, "", err
		}
		stmts = append(stmts, stmt)
		switch p.tok.Kind {
		case TAndIf:
			seps = append(seps, SepAnd)
			if err := p.next(); err != nil {
				return nil, "", err
			}
		case TOrIf:
			seps = append(seps, SepOr)
			if err := p.next(); err != nil {
				return nil, "", err
			}
		case TNewline:
			seps = append(seps, SepSeq)
			if err := p.next(); err != nil {
				return nil, "", err
			}
		}
	}
}

func (p *Parser) parseFunction() (*Node, error) {
	if err := p.next(); err != nil { // 'function'
		return nil, err
	}
	if p.tok.Kind != TWord {
		return nil, fmt.Errorf("expected function name, got %s", describe(p.tok))
	}
	name := p.tok.Text
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.Kind == TLParen {
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expectKind(TRParen); err != nil {
			return nil, err
		}
	}
	if err := p.skipNewlines(); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &Node{Kind: KFunction, Name: name, Body: body}, nil
}

func (p *Parser) parseExport() (*Node, error) {
	if err := p.next(); err != nil { // 'export'
		return nil, err
	}
	node := &Node{Kind: KExport}
	for isWordLike(p.tok.Kind) {
		w, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		node.Words = append(node.Words, w)
	}
	if len(node.Words) > 0 {
		fillExportValue(node, node.Words[0])
	}
	return node, nil
}

// fillExportValue derives the informative name/value pair from the first
// NAME=VALUE word; the executor works from the full word list.
func fillExportValue(node *Node, w *Word) {
	if len(w.Parts) == 0 || w.Parts[0].Kind != PartLit {
		return
	}
	name, rest, found := strings.Cut(w.Parts[0].Text, "=")
	node.Name = name
	if !found && len(w.Parts) == 1 {
		return
	}
	kind := KStringLiteral
	var val strings.Builder
	val.WriteString(rest)
	for _, part := range w.Parts[1:] {
		switch part.Kind {
		case PartSingle:
			kind = KSingleQuotedString
			val.WriteString(part.Text)
		case PartVar:
			val.WriteString("$" + part.Text)
		case PartVarBraced:
			val.WriteString("${" + part.Text + "}")
		default:
			val.WriteString(part.Text)
		}
	}
	node.Body = &Node{Kind: kind, Text: val.String()}
}

func (p *Parser) parseWordsNode(kind Kind) (*Node, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	node := &Node{Kind: kind}
	for isWordLike(p.tok.Kind) {
		w, err := p.parseWord()
		if err != nil {
			return nil, err
		}
		node.Words = append(node.Words, w)
	}
	return node, nil
}

func (p *Parser) parseExtendedTest() (*Node, error) {
	if err := p.next(); err != nil { // '[['
		return nil, err
	}
	node := &Node{Kind: KExtendedTest}
	for {
		if p.atWord("]]") {
			return node, p.next()
		}
		switch {
		case p.tok.Kind == TEof:
			return nil, fmt.Errorf("expected \"]]\", got eof")
		case isWordLike(p.tok.Kind):
			w, err := p.parseWord()
			if err != nil {
				return nil, err
			}
			node.Words = append(node.Words, w)
		default:
			// Operators inside the test are kept as literal words.
			node.Words = append(node.Words, Lit(p.tok.Kind.String()))
			if err := p.next(); err != nil {
				return nil, err
			}
		}
	}
}

func isWordLike(kind TokenKind) bool {
	switch kind {
	case TWord, TSingleQuoted, TDoubleQuoted, TVariable, TVariableBraced,
		TCommandSub, TArith, TExtGlob, TProcSubIn, TProcSubOut:
		return true
	default:
		return false
	}
}

func isRedirToken(kind TokenKind) bool {
	switch kind {
	case TRedirectIn, TRedirectOut, TRedirectAppend, TRedirectInOut,
		THeredoc, THeredocDash, THereString, TDupIn, TDupOut:
		return true
	default:
		return false
	}
}

func redirKindFor(kind TokenKind) RedirKind {
	switch kind {
	case TRedirectOut:
		return ROutput
	case TRedirectAppend:
		return RAppend
	case TRedirectInOut:
		return RInputOutput
	case THeredoc:
		return RHereDoc
	case THeredocDash:
		return RHereDocDash
	case THereString:
		return RHereString
	case TDupIn:
		return RInputDup
	case TDupOut:
		return ROutputDup
	default:
		return RInput
	}
}

// parseWord reads one shell word, fusing adjacent word-like tokens (no
// intervening whitespace) into a single multi-part word.
func (p *Parser) parseWord() (*Word, error) {
	if !isWordLike(p.tok.Kind) {
		return nil, p.unexpected()
	}
	w := &Word{}
	first := true
	for isWordLike(p.tok.Kind) && (first || !p.tok.SpaceBefore) {
		parts, err := p.tokenParts(p.tok)
		if err != nil {
			return nil, err
		}
		w.Parts = append(w.Parts, parts...)
		first = false
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (p *Parser) tokenParts(tok Token) ([]Part, error) {
	switch tok.Kind {
	case TWord:
		return []Part{{Kind: PartLit, Text: tok.Text}}, nil
	case TSingleQuoted:
		return []Part{{Kind: PartSingle, Text: tok.Text}}, nil
	case TDoubleQuoted:
		if len(tok.Sub) == 0 {
			return []Part{{Kind: PartQuoted, Text: ""}}, nil
		}
		parts := make([]Part, 0, len(tok.Sub))
		for _, sub := range tok.Sub {
			switch sub.Kind {
			case TVariable:
				parts = append(parts, Part{Kind: PartVar, Text: sub.Text})
			case TVariableBraced:
				parts = append(parts, Part{Kind: PartVarBraced, Text: sub.Text})
			default:
				parts = append(parts, Part{Kind: PartQuoted, Text: sub.Text})
			}
		}
		return parts, nil
	case TVariable:
		return []Part{{Kind: PartVar, Text: tok.Text}}, nil
	case TVariableBraced:
		return []Part{{Kind: PartVarBraced, Text: tok.Text}}, nil
	case TCommandSub:
		body, err := Parse(tok.Text)
		if err != nil {
			return nil, fmt.Errorf("command substitution: %w", err)
		}
		node := &Node{Kind: KCommandSub, Text: tok.Text, Body: body}
		return []Part{{Kind: PartCmdSub, Text: tok.Text, Node: node}}, nil
	case TArith:
		node := &Node{Kind: KArithExpansion, Text: tok.Text}
		return []Part{{Kind: PartArith, Text: tok.Text, Node: node}}, nil
	case TProcSubIn, TProcSubOut:
		body, err := Parse(tok.Text)
		if err != nil {
			return nil, fmt.Errorf("process substitution: %w", err)
		}
		node := &Node{Kind: KProcessSub, Text: tok.Text, Body: body}
		return []Part{{Kind: PartProcSub, Text: tok.Text, Node: node}}, nil
	case TExtGlob:
		node := &Node{Kind: KExtGlob, Text: tok.Text}
		return []Part{{Kind: PartExtGlob, Text: tok.Text, Node: node}}, nil
	default:
		return nil, p.unexpected()
	}
}
