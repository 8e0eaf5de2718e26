package scanner_test

import (
	"testing"

	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(src string) []token.Token {
	s := scanner.New(src)
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,.-+/* ! != = == < <= > >=")
	require.Equal(t, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMICOLON,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.SLASH, token.STAR,
		token.BANG, token.BANG_EQUAL, token.EQUAL, token.EQUAL_EQUAL,
		token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL,
		token.EOF,
	}, kinds(toks))
}

func TestScanKeywordsVsIdentifiers(t *testing.T) {
	cases := []struct {
		lexeme string
		want   token.Kind
	}{
		{"and", token.AND}, {"ant", token.IDENTIFIER},
		{"class", token.CLASS}, {"classy", token.IDENTIFIER},
		{"else", token.ELSE},
		{"false", token.FALSE}, {"for", token.FOR}, {"fun", token.FUN},
		{"foo", token.IDENTIFIER},
		{"if", token.IF}, {"nil", token.NIL}, {"or", token.OR},
		{"print", token.PRINT}, {"return", token.RETURN}, {"super", token.SUPER},
		{"this", token.THIS}, {"thistle", token.IDENTIFIER},
		{"true", token.TRUE}, {"truest", token.IDENTIFIER},
		{"var", token.VAR}, {"while", token.WHILE},
		{"_underscore", token.IDENTIFIER}, {"x1", token.IDENTIFIER},
	}
	for _, c := range cases {
		t.Run(c.lexeme, func(t *testing.T) {
			toks := scanAll(c.lexeme)
			require.Len(t, toks, 2)
			require.Equal(t, c.want, toks[0].Kind)
			require.Equal(t, c.lexeme, toks[0].Lexeme)
		})
	}
}

func TestScanStringsAndNewlines(t *testing.T) {
	toks := scanAll("\"hello\nworld\" 1")
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, "\"hello\nworld\"", toks[0].Lexeme)
	// the NUMBER token is on the second physical line of the string literal
	require.Equal(t, 2, toks[1].Line)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"unterminated`)
	require.Equal(t, token.ERROR, toks[0].Kind)
	require.Equal(t, "unterminated string", toks[0].Lexeme)
}

func TestScanUnknownCharacter(t *testing.T) {
	toks := scanAll("@")
	require.Equal(t, token.ERROR, toks[0].Kind)
	require.Equal(t, "unexpected character", toks[0].Lexeme)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll("123 1.5 1.")
	require.Equal(t, "123", toks[0].Lexeme)
	require.Equal(t, "1.5", toks[1].Lexeme)
	// a trailing dot not followed by a digit is NOT part of the number
	require.Equal(t, "1", toks[2].Lexeme)
	require.Equal(t, token.DOT, toks[3].Kind)
}

func TestScanSkipsLineComments(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	require.Equal(t, []token.Kind{token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
}

func TestScanIsIdempotentAtEOF(t *testing.T) {
	s := scanner.New("")
	require.Equal(t, token.EOF, s.Scan().Kind)
	require.Equal(t, token.EOF, s.Scan().Kind)
}
