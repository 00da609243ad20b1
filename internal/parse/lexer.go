package parse

import (
	"fmt"
	"strings"
)

// Lexer scans raw input into tokens. It is stateless except for the cursor:
// calling Next past end of input keeps returning Eof tokens.
type Lexer struct {
	input    string
	pos      int
	sawSpace bool
}

// NewLexer returns a lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, sawSpace: true}
}

func (lx *Lexer) peek() (byte, bool) {
	if lx.pos >= len(lx.input) {
		return 0, false
	}
	return lx.input[lx.pos], true
}

func (lx *Lexer) advance() (byte, bool) {
	ch, ok := lx.peek()
	if ok {
		lx.pos++
	}
	return ch, ok
}

func (lx *Lexer) consumeIf(want byte) bool {
	ch, ok := lx.peek()
	if !ok || ch != want {
		return false
	}
	lx.pos++
	return true
}

// Next returns the next token, advancing the cursor. Unterminated quotes and
// unterminated bracketed constructs are reported as errors rather than being
// truncated into words.
func (lx *Lexer) Next() (Token, error) {
	lx.skipBlank()
	space := lx.sawSpace
	lx.sawSpace = false

	ch, ok := lx.advance()
	if !ok {
		return Token{Kind: TEof, SpaceBefore: space}, nil
	}

	mk := func(kind TokenKind, text string) Token {
		return Token{Kind: kind, Text: text, SpaceBefore: space}
	}

	switch ch {
	case '\n':
		return mk(TNewline, ""), nil
	case ';':
		return mk(TSemicolon, ""), nil
	case '&':
		if lx.consumeIf('&') {
			return mk(TAndIf, ""), nil
		}
		return mk(TBackground, ""), nil
	case '|':
		if lx.consumeIf('|') {
			return mk(TOrIf, ""), nil
		}
		return mk(TPipe, ""), nil
	case '<':
		if lx.consumeIf('<') {
			if lx.consumeIf('-') {
				return mk(THeredocDash, ""), nil
			}
			if lx.consumeIf('<') {
				return mk(THereString, ""), nil
			}
			return mk(THeredoc, ""), nil
		}
		if lx.consumeIf('>') {
			return mk(TRedirectInOut, ""), nil
		}
		if lx.consumeIf('&') {
			return mk(TDupIn, ""), nil
		}
		if lx.consumeIf('(') {
			body, err := lx.readBalanced(1, '(', ')')
			if err != nil {
				return Token{}, err
			}
			return mk(TProcSubIn, body), nil
		}
		return mk(TRedirectIn, ""), nil
	case '>':
		if lx.consumeIf('>') {
			return mk(TRedirectAppend, ""), nil
		}
		if lx.consumeIf('&') {
			return mk(TDupOut, ""), nil
		}
		if lx.consumeIf('(') {
			body, err := lx.readBalanced(1, '(', ')')
			if err != nil {
				return Token{}, err
			}
			return mk(TProcSubOut, body), nil
		}
		return mk(TRedirectOut, ""), nil
	case '(':
		if lx.consumeIf('(') {
			body, err := lx.readBalanced(2, '(', ')')
			if err != nil {
				return Token{}, err
			}
			return mk(TArithCommand, strings.TrimSuffix(body, ")")), nil
		}
		return mk(TLParen, ""), nil
	case ')':
		return mk(TRParen, ""), nil
	case '{':
		return mk(TLBrace, ""), nil
	case '}':
		return mk(TRBrace, ""), nil
	case '#':
		return mk(TComment, lx.readLine()), nil
	case '\'':
		text, terminated := lx.readSingleQuoted()
		if !terminated {
			return Token{}, fmt.Errorf("unterminated quote")
		}
		return mk(TSingleQuoted, text), nil
	case '"':
		sub, err := lx.readDoubleQuoted()
		if err != nil {
			return Token{}, err
		}
		tok := mk(TDoubleQuoted, "")
		tok.Sub = sub
		return tok, nil
	case '$':
		tok, handled, err := lx.readVariable()
		if err != nil {
			return Token{}, err
		}
		if handled {
			tok.SpaceBefore = space
			return tok, nil
		}
		// A bare dollar is an ordinary word character.
		return mk(TWord, lx.readWordTail("$")), nil
	default:
		return lx.readWord(ch, space)
	}
}

func (lx *Lexer) skipBlank() {
	for {
		ch, ok := lx.peek()
		if !ok || (ch != ' ' && ch != '\t') {
			return
		}
		lx.pos++
		lx.sawSpace = true
	}
}

func isWordBreak(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '|', '&', ';', '<', '>', '(', ')', '{', '}', '"', '\'', '$':
		return true
	default:
		return false
	}
}

func isIdentByte(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z':
		return true
	case ch >= 'A' && ch <= 'Z':
		return true
	case ch >= '0' && ch <= '9':
		return true
	case ch == '_':
		return true
	default:
		return false
	}
}

func (lx *Lexer) readWord(first byte, space bool) (Token, error) {
	var b strings.Builder
	if first == '\\' {
		if esc, ok := lx.advance(); ok {
			b.WriteByte(esc)
		} else {
			b.WriteByte('\\')
		}
	} else {
		b.WriteByte(first)
	}
	for {
		ch, ok := lx.peek()
		if !ok {
			break
		}
		if ch == '(' && b.Len() == 1 && strings.ContainsAny(b.String(), "@?*+!") {
			// Extglob pattern such as @(a|b).
			prefix := b.String()
			lx.pos++
			body, err := lx.readBalanced(1, '(', ')')
			if err != nil {
				return Token{}, err
			}
			return Token{Kind: TExtGlob, Text: prefix + "(" + body + ")", SpaceBefore: space}, nil
		}
		if isWordBreak(ch) {
			break
		}
		lx.pos++
		if ch == '\\' {
			if esc, ok := lx.advance(); ok {
				b.WriteByte(esc)
				continue
			}
		}
		b.WriteByte(ch)
	}
	return Token{Kind: TWord, Text: b.String(), SpaceBefore: space}, nil
}

func (lx *Lexer) readWordTail(prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for {
		ch, ok := lx.peek()
		if !ok || isWordBreak(ch) {
			break
		}
		lx.pos++
		b.WriteByte(ch)
	}
	return b.String()
}

func (lx *Lexer) readLine() string {
	var b strings.Builder
	for {
		ch, ok := lx.peek()
		if !ok || ch == '\n' {
			break
		}
		lx.pos++
		b.WriteByte(ch)
	}
	return b.String()
}

func (lx *Lexer) readSingleQuoted() (string, bool) {
	var b strings.Builder
	for {
		ch, ok := lx.advance()
		if !ok {
			return "", false
		}
		if ch == '\'' {
			return b.String(), true
		}
		b.WriteByte(ch)
	}
}

// readDoubleQuoted collects the quoted span as an ordered token sequence:
// literal runs become Word tokens, $name and ${name} become Variable and
// VariableBraced tokens, so each reference can be substituted independently
// while literal spans pass through unchanged.
func (lx *Lexer) readDoubleQuoted() ([]Token, error) {
	var sub []Token
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			sub = append(sub, Token{Kind: TWord, Text: lit.String()})
			lit.Reset()
		}
	}
	for {
		ch, ok := lx.advance()
		if !ok {
			return nil, fmt.Errorf("unterminated quote")
		}
		switch ch {
		case '"':
			flush()
			return sub, nil
		case '\\':
			if esc, ok := lx.advance(); ok {
				lit.WriteByte(esc)
			}
		case '$':
			tok, handled, err := lx.readVariable()
			if err != nil {
				return nil, err
			}
			if !handled {
				lit.WriteByte('$')
				continue
			}
			if tok.Kind == TCommandSub || tok.Kind == TArith {
				return nil, fmt.Errorf("%s inside double quotes is not supported", tok.Kind)
			}
			flush()
			sub = append(sub, Token{Kind: tok.Kind, Text: tok.Text})
		default:
			lit.WriteByte(ch)
		}
	}
}

// readVariable is called with the cursor just past a '$'. It reports
// handled=false when the dollar introduces no recognized form and should be
// treated as a literal character.
func (lx *Lexer) readVariable() (Token, bool, error) {
	ch, ok := lx.peek()
	if !ok {
		return Token{}, false, nil
	}
	switch {
	case ch == '?':
		lx.pos++
		return Token{Kind: TVariable, Text: "?"}, true, nil
	case ch == '{':
		lx.pos++
		var b strings.Builder
		for {
			c, ok := lx.advance()
			if !ok {
				return Token{}, false, fmt.Errorf("unterminated ${")
			}
			if c == '}' {
				return Token{Kind: TVariableBraced, Text: b.String()}, true, nil
			}
			b.WriteByte(c)
		}
	case ch == '(':
		lx.pos++
		if lx.consumeIf('(') {
			body, err := lx.readBalanced(2, '(', ')')
			if err != nil {
				return Token{}, false, err
			}
			return Token{Kind: TArith, Text: strings.TrimSuffix(body, ")")}, true, nil
		}
		body, err := lx.readBalanced(1, '(', ')')
		if err != nil {
			return Token{}, false, err
		}
		return Token{Kind: TCommandSub, Text: body}, true, nil
	case isIdentByte(ch):
		var b strings.Builder
		for {
			c, ok := lx.peek()
			if !ok || !isIdentByte(c) {
				break
			}
			lx.pos++
			b.WriteByte(c)
		}
		return Token{Kind: TVariable, Text: b.String()}, true, nil
	default:
		return Token{}, false, nil
	}
}

// readBalanced consumes input until the bracket depth returns to zero and
// returns the consumed text minus the final closer. Nesting is tracked by
// counting; quotes inside the span are not interpreted.
func (lx *Lexer) readBalanced(depth int, open, close byte) (string, error) {
	var b strings.Builder
	for {
		ch, ok := lx.advance()
		if !ok {
			return "", fmt.Errorf("unterminated %c", open)
		}
		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return b.String(), nil
			}
		}
		b.WriteByte(ch)
	}
}
