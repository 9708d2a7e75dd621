package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, input string) []*Token {
	t.Helper()
	l := NewLexer(strings.NewReader(input))
	var toks []*Token
	for {
		tok, err := l.NextToken()
		require.NoError(t, err)
		if tok.Type == TokenEOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		typ   TokenType
		value string
	}{
		{"integer", "123", TokenInteger, "123"},
		{"negative", "-17", TokenInteger, "-17"},
		{"real", "3.14", TokenReal, "3.14"},
		{"leading dot", ".5", TokenReal, ".5"},
		{"string", "(hello)", TokenString, "hello"},
		{"nested parens", "(a (b) c)", TokenString, "a (b) c"},
		{"escapes", `(a\nb\(c\))`, TokenString, "a\nb(c)"},
		{"octal escape", `(\101\0)`, TokenString, "A\x00"},
		{"line continuation", "(ab\\\ncd)", TokenString, "abcd"},
		{"hex string", "<48 65 6C>", TokenHexString, "48656C"},
		{"name", "/Type", TokenName, "Type"},
		{"name escape", "/A#20B", TokenName, "A B"},
		{"keyword", "endobj", TokenKeyword, "endobj"},
		{"ref", "R", TokenRef, "R"},
		{"comment", "%PDF-1.7\n", TokenComment, "%PDF-1.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			require.Len(t, toks, 1)
			require.Equal(t, tt.typ, toks[0].Type)
			require.Equal(t, tt.value, string(toks[0].Value))
		})
	}
}

func TestLexerDelimiters(t *testing.T) {
	toks := lexAll(t, "<</Kids[1 0 R]>>")
	var types []TokenType
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	require.Equal(t, []TokenType{
		TokenDictStart, TokenName, TokenArrayStart, TokenInteger,
		TokenInteger, TokenRef, TokenArrayEnd, TokenDictEnd,
	}, types)
	require.Equal(t, int64(0), toks[0].Pos)
	require.Equal(t, int64(2), toks[1].Pos)
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{"(unterminated", "<4G>", "/A#zz", ">x", "}"} {
		t.Run(input, func(t *testing.T) {
			l := NewLexer(strings.NewReader(input))
			_, err := l.NextToken()
			require.Error(t, err)
		})
	}
}

func TestLexerStreamData(t *testing.T) {
	l := NewLexer(strings.NewReader("stream\r\nabcdef\nendstream"))
	tok, err := l.NextToken()
	require.NoError(t, err)
	require.True(t, tok.is(TokenKeyword, "stream"))
	require.NoError(t, l.SkipStreamEOL())
	data, err := l.ReadBytes(6)
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(data))
	tok, err = l.NextToken()
	require.NoError(t, err)
	require.True(t, tok.is(TokenKeyword, "endstream"))

	_, err = NewLexer(strings.NewReader("ab")).ReadBytes(3)
	require.Error(t, err)
}
