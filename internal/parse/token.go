package parse

// TokenKind identifies a lexical token class.
type TokenKind int

const (
	TEof TokenKind = iota
	TWord
	TNewline
	TSemicolon
	TPipe
	TAndIf
	TOrIf
	TBackground
	TRedirectIn
	TRedirectOut
	TRedirectAppend
	TRedirectInOut
	THeredoc
	THeredocDash
	THereString
	TDupIn
	TDupOut
	TSingleQuoted
	TDoubleQuoted
	TVariable
	TVariableBraced
	TLParen
	TRParen
	TLBrace
	TRBrace
	TComment
	TCommandSub
	TArith
	TArithCommand
	TProcSubIn
	TProcSubOut
	TExtGlob
)

var tokenNames = map[TokenKind]string{
	TEof:            "eof",
	TWord:           "word",
	TNewline:        "newline",
	TSemicolon:      ";",
	TPipe:           "|",
	TAndIf:          "&&",
	TOrIf:           "||",
	TBackground:     "&",
	TRedirectIn:     "<",
	TRedirectOut:    ">",
	TRedirectAppend: ">>",
	TRedirectInOut:  "<>",
	THeredoc:        "<<",
	THeredocDash:    "<<-",
	THereString:     "<<<",
	TDupIn:          "<&",
	TDupOut:         ">&",
	TSingleQuoted:   "single-quoted",
	TDoubleQuoted:   "double-quoted",
	TVariable:       "variable",
	TVariableBraced: "braced variable",
	TLParen:         "(",
	TRParen:         ")",
	TLBrace:         "{",
	TRBrace:         "}",
	TComment:        "comment",
	TCommandSub:     "command substitution",
	TArith:          "arithmetic expansion",
	TArithCommand:   "arithmetic command",
	TProcSubIn:      "process substitution",
	TProcSubOut:     "process substitution",
	TExtGlob:        "extglob",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "unknown"
}

// Token is one lexical unit. Text carries the payload for word-like kinds.
// Double-quoted tokens hold their embedded literal and variable pieces, in
// order, in Sub. SpaceBefore records whether whitespace separated the token
// from its predecessor; adjacent word-like tokens fuse into one shell word.
type Token struct {
	Kind        TokenKind
	Text        string
	Sub         []Token
	SpaceBefore bool
}
