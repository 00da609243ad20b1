package parse

import (
	"testing"
)

type tokPair struct {
	kind TokenKind
	text string
}

func lexPairs(t *testing.T, input string) []tokPair {
	t.Helper()
	lx := NewLexer(input)
	var out []tokPair
	for {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("lex %q: %v", input, err)
		}
		if tok.Kind == TEof {
			return out
		}
		out = append(out, tokPair{kind: tok.Kind, text: tok.Text})
	}
}

func assertTokens(t *testing.T, input string, want []tokPair) {
	t.Helper()
	got := lexPairs(t, input)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch for %q: got %d (%v), want %d", input, len(got), got, len(want))
	}
	for i := range want {
		if got[i].kind != want[i].kind {
			t.Fatalf("token %d kind mismatch for %q: got %s, want %s", i, input, got[i].kind, want[i].kind)
		}
		if got[i].text != want[i].text {
			t.Fatalf("token %d text mismatch for %q: got %q, want %q", i, input, got[i].text, want[i].text)
		}
	}
}

func TestLexerWords(t *testing.T) {
	assertTokens(t, "echo hello world", []tokPair{
		{TWord, "echo"},
		{TWord, "hello"},
		{TWord, "world"},
	})
}

func TestLexerOperators(t *testing.T) {
	assertTokens(t, "a&&b||c; d | e & f\n", []tokPair{
		{TWord, "a"},
		{TAndIf, ""},
		{TWord, "b"},
		{TOrIf, ""},
		{TWord, "c"},
		{TSemicolon, ""},
		{TWord, "d"},
		{TPipe, ""},
		{TWord, "e"},
		{TBackground, ""},
		{TWord, "f"},
		{TNewline, ""},
	})
}

func TestLexerRedirectsGreedy(t *testing.T) {
	assertTokens(t, "cmd >>log <in <<eof <<-eof <<<str <>both 2words", []tokPair{
		{TWord, "cmd"},
		{TRedirectAppend, ""},
		{TWord, "log"},
		{TRedirectIn, ""},
		{TWord, "in"},
		{THeredoc, ""},
		{TWord, "eof"},
		{THeredocDash, ""},
		{TWord, "eof"},
		{THereString, ""},
		{TWord, "str"},
		{TRedirectInOut, ""},
		{TWord, "both"},
		{TWord, "2words"},
	})
}

func TestLexerSingleQuotes(t *testing.T) {
	assertTokens(t, "echo 'a $X b'", []tokPair{
		{TWord, "echo"},
		{TSingleQuoted, "a $X b"},
	})
}

func TestLexerUnterminatedQuote(t *testing.T) {
	lx := NewLexer("echo 'oops")
	if tok, err := lx.Next(); err != nil || tok.Kind != TWord {
		t.Fatalf("first token: got (%v, %v)", tok, err)
	}
	if _, err := lx.Next(); err == nil {
		t.Fatalf("expected unterminated quote error")
	}
}

func TestLexerDoubleQuoteInterior(t *testing.T) {
	lx := NewLexer(`echo "a $X b"`)
	if tok, err := lx.Next(); err != nil || tok.Text != "echo" {
		t.Fatalf("first token: got (%v, %v)", tok, err)
	}
	tok, err := lx.Next()
	if err != nil {
		t.Fatalf("second token: %v", err)
	}
	if tok.Kind != TDoubleQuoted {
		t.Fatalf("expected double-quoted token, got %s", tok.Kind)
	}
	want := []tokPair{
		{TWord, "a "},
		{TVariable, "X"},
		{TWord, " b"},
	}
	if len(tok.Sub) != len(want) {
		t.Fatalf("interior count mismatch: got %v, want %v", tok.Sub, want)
	}
	for i := range want {
		if tok.Sub[i].Kind != want[i].kind || tok.Sub[i].Text != want[i].text {
			t.Fatalf("interior %d mismatch: got %v, want %v", i, tok.Sub[i], want[i])
		}
	}
}

func TestLexerVariables(t *testing.T) {
	assertTokens(t, "echo $HOME ${PATH} $? $", []tokPair{
		{TWord, "echo"},
		{TVariable, "HOME"},
		{TVariableBraced, "PATH"},
		{TVariable, "?"},
		{TWord, "$"},
	})
}

func TestLexerEscapes(t *testing.T) {
	assertTokens(t, `echo a\ b \$HOME`, []tokPair{
		{TWord, "echo"},
		{TWord, "a b"},
		{TWord, "$HOME"},
	})
}

func TestLexerComment(t *testing.T) {
	assertTokens(t, "echo hi # trailing note", []tokPair{
		{TWord, "echo"},
		{TWord, "hi"},
		{TComment, " trailing note"},
	})
}

func TestLexerSubstitutions(t *testing.T) {
	assertTokens(t, "echo $(date) $((1 + 2)) <(sort a) ((n++))", []tokPair{
		{TWord, "echo"},
		{TCommandSub, "date"},
		{TArith, "1 + 2"},
		{TProcSubIn, "sort a"},
		{TArithCommand, "n++"},
	})
}

func TestLexerNestedCommandSub(t *testing.T) {
	assertTokens(t, "echo $(echo $(date))", []tokPair{
		{TWord, "echo"},
		{TCommandSub, "echo $(date)"},
	})
}

func TestLexerExtGlob(t *testing.T) {
	assertTokens(t, "ls !(*.txt) @(a|b)", []tokPair{
		{TWord, "ls"},
		{TExtGlob, "!(*.txt)"},
		{TExtGlob, "@(a|b)"},
	})
}

func TestLexerAdjacency(t *testing.T) {
	lx := NewLexer(`NAME="VALUE" other`)
	first, err := lx.Next()
	if err != nil || first.Kind != TWord || first.Text != "NAME=" {
		t.Fatalf("first token: got (%v, %v)", first, err)
	}
	second, err := lx.Next()
	if err != nil || second.Kind != TDoubleQuoted {
		t.Fatalf("second token: got (%v, %v)", second, err)
	}
	if second.SpaceBefore {
		t.Fatalf("quoted value should be adjacent to the name")
	}
	third, err := lx.Next()
	if err != nil || third.Text != "other" {
		t.Fatalf("third token: got (%v, %v)", third, err)
	}
	if !third.SpaceBefore {
		t.Fatalf("separate word should record preceding space")
	}
}

func TestLexerEofForever(t *testing.T) {
	lx := NewLexer("")
	for i := 0; i < 3; i++ {
		tok, err := lx.Next()
		if err != nil || tok.Kind != TEof {
			t.Fatalf("call %d: got (%v, %v), want eof", i, tok, err)
		}
	}
}
