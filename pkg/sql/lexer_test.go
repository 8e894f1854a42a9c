package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize(`SELECT "a""b", 'it''s', [x y], 1.5e3, ?1 FROM t -- tail`)

	want := []struct {
		typ   TokenType
		value string
	}{
		{TokenWord, "SELECT"},
		{TokenQuotedIdent, `a"b`},
		{TokenSymbol, ","},
		{TokenString, "it's"},
		{TokenSymbol, ","},
		{TokenQuotedIdent, "x y"},
		{TokenSymbol, ","},
		{TokenNumber, "1.5e3"},
		{TokenSymbol, ","},
		{TokenParam, "?1"},
		{TokenWord, "FROM"},
		{TokenWord, "t"},
	}

	require.Len(t, tokens, len(want))
	for i, w := range want {
		assert.Equal(t, w.typ, tokens[i].Type, "token %d type", i)
		assert.Equal(t, w.value, tokens[i].Value, "token %d value", i)
	}
}

func TestTokenize_Unterminated(t *testing.T) {
	tokens := Tokenize(`SELECT 'open`)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenString, tokens[1].Type)
	assert.Equal(t, "open", tokens[1].Value)

	tokens = Tokenize(`SELECT 1 /* never closed ; DROP`)
	require.Len(t, tokens, 2)
}

func TestTokenize_TrailingExponent(t *testing.T) {
	for _, input := range []string{"SELECT * FROM users LIMIT 1e", "SELECT 2E"} {
		var tokens []Token
		require.NotPanics(t, func() { tokens = Tokenize(input) }, "input %q", input)
		last := tokens[len(tokens)-1]
		assert.Equal(t, TokenNumber, last.Type)
	}

	stmt := NewStatement("SELECT * FROM users LIMIT 1e")
	assert.NoError(t, stmt.CheckReadOnly())
	assert.NoError(t, stmt.CheckSingleStatement())
}

func TestTokenize_HexNumber(t *testing.T) {
	tokens := Tokenize(`SELECT 0xFF`)
	require.Len(t, tokens, 2)
	assert.Equal(t, TokenNumber, tokens[1].Type)
	assert.Equal(t, "0xFF", tokens[1].Value)
}

func TestToken_IsIdentifier(t *testing.T) {
	assert.True(t, Token{Type: TokenWord, Value: "users"}.IsIdentifier())
	assert.True(t, Token{Type: TokenQuotedIdent, Value: "select"}.IsIdentifier())
	assert.False(t, Token{Type: TokenWord, Value: "select"}.IsIdentifier())
	assert.False(t, Token{Type: TokenString, Value: "users"}.IsIdentifier())
}
