package lexer

import "testing"

func collect(src string) []Token {
	s := New(src)
	var toks []Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return toks
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := collect("var continue switch myVar")
	want := []TokenType{TokenVar, TokenContinue, TokenSwitch, TokenIdentifier, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestNumbers(t *testing.T) {
	toks := collect("123 4.5")
	if toks[0].Type != TokenNumber || toks[0].Lexeme != "123" {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].Type != TokenNumber || toks[1].Lexeme != "4.5" {
		t.Errorf("token 1 = %+v", toks[1])
	}
}

func TestLineComment(t *testing.T) {
	toks := collect("1 // comment\n2")
	if toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Fatalf("comment not skipped: %+v", toks)
	}
}

func TestSimpleString(t *testing.T) {
	toks := collect(`"hello"`)
	if toks[0].Type != TokenString || toks[0].Lexeme != `"hello"` {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := collect(`"hello`)
	if toks[0].Type != TokenError {
		t.Fatalf("got %+v, want ERROR", toks[0])
	}
}

func TestInterpolation(t *testing.T) {
	toks := collect(`"a${1}b"`)
	if toks[0].Type != TokenInterpolate {
		t.Fatalf("token 0 = %+v, want INTERPOLATE", toks[0])
	}
	if toks[1].Type != TokenNumber {
		t.Fatalf("token 1 = %+v, want NUMBER", toks[1])
	}
	if toks[2].Type != TokenString {
		t.Fatalf("token 2 = %+v, want STRING", toks[2])
	}
}

func TestMultipleInterpolations(t *testing.T) {
	toks := collect(`"${1}-${2}"`)
	var kinds []TokenType
	for _, tok := range toks {
		kinds = append(kinds, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
	}
	want := []TokenType{TokenInterpolate, TokenNumber, TokenInterpolate, TokenNumber, TokenString, TokenEOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i, w := range want {
		if kinds[i] != w {
			t.Errorf("token %d: got %s, want %s", i, kinds[i], w)
		}
	}
}

func TestTwoCharOperators(t *testing.T) {
	toks := collect("!= == <= >= ! = < >")
	want := []TokenType{
		TokenBangEqual, TokenEqualEqual, TokenLessEqual, TokenGreaterEqual,
		TokenBang, TokenEqual, TokenLess, TokenGreater, TokenEOF,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestTernaryPunctuation(t *testing.T) {
	toks := collect("a ? b : c")
	want := []TokenType{TokenIdentifier, TokenQuestion, TokenIdentifier, TokenColon, TokenIdentifier, TokenEOF}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}
