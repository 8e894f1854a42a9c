// Package sql provides lexical safety checks for read-only SQL statements.
package sql

import (
	"strings"

	"github.com/ekaya-inc/sqlite-mcp/pkg/apperrors"
)

// Statement is a tokenized SQL statement ready for safety checks.
type Statement struct {
	Text   string
	tokens []Token
}

// NewStatement tokenizes text.
func NewStatement(text string) *Statement {
	return &Statement{Text: text, tokens: Tokenize(text)}
}

// Tokens returns the statement's tokens, comments excluded.
func (s *Statement) Tokens() []Token {
	return s.tokens
}

// CheckReadOnly requires the first keyword, after whitespace and comments,
// to be SELECT.
func (s *Statement) CheckReadOnly() error {
	if len(s.tokens) == 0 {
		return apperrors.New(apperrors.KindSafety, apperrors.CodeNotReadOnly, "empty statement")
	}
	first := s.tokens[0]
	if !first.IsKeyword("SELECT") {
		return apperrors.New(apperrors.KindSafety, apperrors.CodeNotReadOnly,
			"only SELECT statements are allowed, got %q", strings.ToUpper(first.Value))
	}
	return nil
}

// CheckSingleStatement rejects any statement separator outside a string
// literal, including one inside a quoted identifier. A trailing separator is
// rejected too: statements are never rewritten to make them pass.
func (s *Statement) CheckSingleStatement() error {
	for _, tok := range s.tokens {
		switch {
		case tok.IsSymbol(';'):
			return apperrors.New(apperrors.KindSafety, apperrors.CodeMultipleStatements,
				"multiple SQL statements not allowed; only single statements are permitted")
		case tok.Type == TokenQuotedIdent && strings.Contains(tok.Value, ";"):
			return apperrors.New(apperrors.KindSafety, apperrors.CodeMultipleStatements,
				"identifier %q contains a statement separator", tok.Value)
		}
	}
	return nil
}

// TableRef is a table named in a FROM or JOIN clause.
type TableRef struct {
	Schema string
	Name   string
	Alias  string
}

// ColumnRef is an identifier used as a column. Qualifier holds the table or
// alias in a "t.col" reference; Name is "*" for "t.*".
type ColumnRef struct {
	Qualifier string
	Name      string
}

// References lists the identifiers a statement uses.
type References struct {
	Tables  []TableRef
	Columns []ColumnRef
	// Aliases are names introduced with AS, for result columns or subqueries,
	// and bare names written directly after a result expression.
	Aliases []string
}

// References extracts table and column identifiers. Function names and
// keywords are skipped; every other identifier is reported so that callers
// can check it against the schema.
func (s *Statement) References() References {
	var refs References
	toks := s.tokens

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case tok.IsKeyword("FROM"):
			i = s.tableList(i+1, &refs, true) - 1
		case tok.IsKeyword("JOIN"):
			i = s.tableList(i+1, &refs, false) - 1
		case tok.IsKeyword("AS"):
			if i+1 < len(toks) && toks[i+1].IsIdentifier() {
				refs.Aliases = append(refs.Aliases, toks[i+1].Value)
				i++
			}
		case tok.IsIdentifier():
			if s.symbolAt(i+1, '(') {
				continue
			}
			if i > 0 && endsExpression(toks[i-1]) {
				refs.Aliases = append(refs.Aliases, tok.Value)
				continue
			}
			if s.symbolAt(i+1, '.') && i+2 < len(toks) {
				next := toks[i+2]
				switch {
				case next.IsSymbol('*'):
					refs.Columns = append(refs.Columns, ColumnRef{Qualifier: tok.Value, Name: "*"})
				case next.IsIdentifier() && !s.symbolAt(i+3, '('):
					refs.Columns = append(refs.Columns, ColumnRef{Qualifier: tok.Value, Name: next.Value})
				}
				i += 2
				continue
			}
			refs.Columns = append(refs.Columns, ColumnRef{Name: tok.Value})
		}
	}
	return refs
}

// tableList reads one table reference, or a comma-separated list of them,
// starting at i. It returns the index of the first unconsumed token.
func (s *Statement) tableList(i int, refs *References, allowComma bool) int {
	toks := s.tokens
	for {
		if i >= len(toks) || !toks[i].IsIdentifier() {
			return i
		}
		ref := TableRef{Name: toks[i].Value}
		i++
		if s.symbolAt(i, '.') && i+1 < len(toks) && toks[i+1].IsIdentifier() {
			ref.Schema = ref.Name
			ref.Name = toks[i+1].Value
			i += 2
		}
		if s.symbolAt(i, '(') {
			// Table-valued function such as json_each(...).
			return i
		}
		if i < len(toks) && toks[i].IsKeyword("AS") {
			i++
		}
		if i < len(toks) && toks[i].IsIdentifier() {
			ref.Alias = toks[i].Value
			i++
		}
		refs.Tables = append(refs.Tables, ref)

		if allowComma && s.symbolAt(i, ',') {
			i++
			continue
		}
		return i
	}
}

// endsExpression reports whether tok can be the last token of an
// expression, so that an identifier right after it is an alias.
func endsExpression(tok Token) bool {
	switch tok.Type {
	case TokenString, TokenNumber, TokenParam:
		return true
	case TokenSymbol:
		return tok.Value == ")"
	}
	for _, kw := range []string{"NULL", "TRUE", "FALSE", "END"} {
		if tok.IsKeyword(kw) {
			return true
		}
	}
	return tok.IsIdentifier()
}

func (s *Statement) symbolAt(i int, r rune) bool {
	return i >= 0 && i < len(s.tokens) && s.tokens[i].IsSymbol(r)
}

// IsRowIDAlias reports whether name is one of SQLite's implicit row id
// column names.
func IsRowIDAlias(name string) bool {
	switch strings.ToLower(name) {
	case "rowid", "oid", "_rowid_":
		return true
	}
	return false
}

// CheckIdentifier applies the statement separator rule to a name supplied
// by a caller before it is placed into a statement.
func CheckIdentifier(name string) error {
	if strings.Contains(name, ";") {
		return apperrors.New(apperrors.KindSafety, apperrors.CodeMultipleStatements,
			"identifier %q contains a statement separator", name)
	}
	return nil
}
