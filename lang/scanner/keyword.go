package scanner

import "github.com/mna/glox/lang/token"

// identifierKind classifies the lexeme just scanned (s.src[s.start:s.current])
// as a keyword or a plain identifier. It is a hand-coded trie keyed by the
// first byte (and, where ambiguous, the second byte) rather than a map
// lookup, so the common case of a short, non-keyword identifier never
// touches a hash table.
func (s *Scanner) identifierKind() token.Kind {
	lexeme := s.src[s.start:s.current]
	if len(lexeme) == 0 {
		return token.IDENTIFIER
	}

	switch lexeme[0] {
	case 'a':
		return s.checkKeyword(lexeme, 1, "nd", token.AND)
	case 'c':
		return s.checkKeyword(lexeme, 1, "lass", token.CLASS)
	case 'e':
		return s.checkKeyword(lexeme, 1, "lse", token.ELSE)
	case 'f':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'a':
				return s.checkKeyword(lexeme, 2, "lse", token.FALSE)
			case 'o':
				return s.checkKeyword(lexeme, 2, "r", token.FOR)
			case 'u':
				return s.checkKeyword(lexeme, 2, "n", token.FUN)
			}
		}
	case 'i':
		return s.checkKeyword(lexeme, 1, "f", token.IF)
	case 'n':
		return s.checkKeyword(lexeme, 1, "il", token.NIL)
	case 'o':
		return s.checkKeyword(lexeme, 1, "r", token.OR)
	case 'p':
		return s.checkKeyword(lexeme, 1, "rint", token.PRINT)
	case 'r':
		return s.checkKeyword(lexeme, 1, "eturn", token.RETURN)
	case 's':
		return s.checkKeyword(lexeme, 1, "uper", token.SUPER)
	case 't':
		if len(lexeme) > 1 {
			switch lexeme[1] {
			case 'h':
				return s.checkKeyword(lexeme, 2, "is", token.THIS)
			case 'r':
				return s.checkKeyword(lexeme, 2, "ue", token.TRUE)
			}
		}
	case 'v':
		return s.checkKeyword(lexeme, 1, "ar", token.VAR)
	case 'w':
		return s.checkKeyword(lexeme, 1, "hile", token.WHILE)
	}
	return token.IDENTIFIER
}

// checkKeyword reports whether lexeme[start:] equals rest, in which case it
// returns kind; otherwise it returns token.IDENTIFIER.
func (s *Scanner) checkKeyword(lexeme string, start int, rest string, kind token.Kind) token.Kind {
	if len(lexeme)-start == len(rest) && lexeme[start:] == rest {
		return kind
	}
	return token.IDENTIFIER
}
