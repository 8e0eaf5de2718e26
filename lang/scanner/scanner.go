// Package scanner tokenizes glox source text for the compiler. It produces
// tokens lazily, one per call to Scan, and never allocates on the heap for
// ordinary tokens: a token's lexeme is a zero-copy slice of the source.
package scanner

import (
	"github.com/mna/glox/lang/token"
)

// Scanner tokenizes a single source string. The zero value is not usable;
// construct one with New.
type Scanner struct {
	src     string
	start   int // start of the lexeme being scanned
	current int // next byte to read
	line    int
}

// New returns a Scanner ready to tokenize src, which need not be
// NUL-terminated (Go strings already carry their length).
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Scan returns the next token in the source. Once it returns a token of
// kind token.EOF, every subsequent call also returns token.EOF.
func (s *Scanner) Scan() token.Token {
	s.skipWhitespace()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		return s.make(s.choose('=', token.BANG_EQUAL, token.BANG))
	case '=':
		return s.make(s.choose('=', token.EQUAL_EQUAL, token.EQUAL))
	case '<':
		return s.make(s.choose('=', token.LESS_EQUAL, token.LESS))
	case '>':
		return s.make(s.choose('=', token.GREATER_EQUAL, token.GREATER))
	case '"':
		return s.string()
	}

	return s.errorToken("unexpected character")
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

// choose implements the common one/two-character operator pattern: if the
// next byte matches want, it is consumed and two is returned; otherwise one
// is returned unconsumed.
func (s *Scanner) choose(want byte, two, one token.Kind) token.Kind {
	if s.atEnd() || s.src[s.current] != want {
		return one
	}
	s.current++
	return two
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.advance()
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{Kind: kind, Lexeme: s.src[s.start:s.current], Line: s.line}
}

// errorToken's lexeme references a static message string rather than the
// source, matching the behavior described for unterminated strings and
// unknown characters: the lexeme is diagnostic text, not source text.
func (s *Scanner) errorToken(msg string) token.Token {
	return token.Token{Kind: token.ERROR, Lexeme: msg, Line: s.line}
}

func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.atEnd() {
		return s.errorToken("unterminated string")
	}
	s.advance() // closing quote
	return s.make(token.STRING)
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance() // consume '.'
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	return s.make(s.identifierKind())
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
