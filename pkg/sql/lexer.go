package sql

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenWord        TokenType = iota // Unquoted keyword or identifier
	TokenQuotedIdent                  // "ident", `ident` or [ident]
	TokenString                       // 'literal'
	TokenNumber                       // Numeric literal
	TokenSymbol                       // Punctuation and operators, one rune each
	TokenParam                        // ?, ?1, :name, @name, $name
)

func (t TokenType) String() string {
	switch t {
	case TokenWord:
		return "WORD"
	case TokenQuotedIdent:
		return "QUOTED_IDENT"
	case TokenString:
		return "STRING"
	case TokenNumber:
		return "NUMBER"
	case TokenSymbol:
		return "SYMBOL"
	case TokenParam:
		return "PARAM"
	default:
		return "UNKNOWN"
	}
}

// Token is a lexical token. For quoted identifiers and strings Value holds
// the unquoted content with doubled quotes collapsed.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// IsKeyword reports whether the token is the given keyword (case-insensitive).
func (t Token) IsKeyword(kw string) bool {
	return t.Type == TokenWord && strings.EqualFold(t.Value, kw)
}

// IsSymbol reports whether the token is the given punctuation rune.
func (t Token) IsSymbol(r rune) bool {
	return t.Type == TokenSymbol && t.Value == string(r)
}

// IsIdentifier reports whether the token can name a table or column.
func (t Token) IsIdentifier() bool {
	switch t.Type {
	case TokenQuotedIdent:
		return true
	case TokenWord:
		return !IsKeyword(t.Value)
	}
	return false
}

// Tokenize splits a SQL statement into tokens, dropping whitespace and
// comments. Unterminated literals and comments extend to the end of input,
// leaving the statement for the engine to reject.
func Tokenize(input string) []Token {
	l := &lexer{input: input}
	var tokens []Token
	for {
		tok, ok := l.next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) peek(offset int) byte {
	if l.pos+offset < len(l.input) {
		return l.input[l.pos+offset]
	}
	return 0
}

func (l *lexer) next() (Token, bool) {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.pos++
		case c == '-' && l.peek(1) == '-':
			l.skipLineComment()
		case c == '/' && l.peek(1) == '*':
			l.skipBlockComment()
		case c == '\'':
			return l.quoted(TokenString, '\'', '\''), true
		case c == '"':
			return l.quoted(TokenQuotedIdent, '"', '"'), true
		case c == '`':
			return l.quoted(TokenQuotedIdent, '`', '`'), true
		case c == '[':
			return l.quoted(TokenQuotedIdent, '[', ']'), true
		case c >= '0' && c <= '9', c == '.' && isDigit(l.peek(1)):
			return l.number(), true
		case c == '?' || c == ':' || c == '@' || c == '$':
			if tok, ok := l.param(); ok {
				return tok, true
			}
			l.pos++
			return Token{Type: TokenSymbol, Value: string(c), Pos: l.pos - 1}, true
		default:
			r, size := utf8.DecodeRuneInString(l.input[l.pos:])
			if isWordStart(r) {
				return l.word(), true
			}
			start := l.pos
			l.pos += size
			return Token{Type: TokenSymbol, Value: string(r), Pos: start}, true
		}
	}
	return Token{}, false
}

func (l *lexer) skipLineComment() {
	if idx := strings.IndexByte(l.input[l.pos:], '\n'); idx >= 0 {
		l.pos += idx + 1
		return
	}
	l.pos = len(l.input)
}

func (l *lexer) skipBlockComment() {
	if idx := strings.Index(l.input[l.pos+2:], "*/"); idx >= 0 {
		l.pos += idx + 4
		return
	}
	l.pos = len(l.input)
}

// quoted reads a delimited token. A doubled closing delimiter inside the
// token stands for one literal delimiter, except for [brackets].
func (l *lexer) quoted(typ TokenType, open, close byte) Token {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == close {
			if open != '[' && l.peek(1) == close {
				b.WriteByte(close)
				l.pos += 2
				continue
			}
			l.pos++
			return Token{Type: typ, Value: b.String(), Pos: start}
		}
		b.WriteByte(c)
		l.pos++
	}
	return Token{Type: typ, Value: b.String(), Pos: start}
}

func (l *lexer) number() Token {
	start := l.pos
	if l.input[l.pos] == '0' && (l.peek(1) == 'x' || l.peek(1) == 'X') {
		l.pos += 2
		for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || isHexLetter(l.input[l.pos])) {
			l.pos++
		}
		return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
	}
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if isDigit(c) || c == '.' {
			l.pos++
			continue
		}
		if c == 'e' || c == 'E' {
			l.pos++
			if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
				l.pos++
			}
			continue
		}
		break
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

func (l *lexer) param() (Token, bool) {
	start := l.pos
	c := l.input[l.pos]
	end := l.pos + 1
	for end < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if !isWordPart(r) {
			break
		}
		end += size
	}
	if c != '?' && end == start+1 {
		return Token{}, false
	}
	l.pos = end
	return Token{Type: TokenParam, Value: l.input[start:end], Pos: start}, true
}

func (l *lexer) word() Token {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isWordPart(r) {
			break
		}
		l.pos += size
	}
	return Token{Type: TokenWord, Value: l.input[start:l.pos], Pos: start}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexLetter(c byte) bool {
	return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isWordPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
