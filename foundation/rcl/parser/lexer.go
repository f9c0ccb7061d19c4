// File: lexer.go
// Title: RCL Lexical Analyzer
// Description: Splits a command line into whitespace separated tokens and
//              records the byte offset of each for error reporting.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one word of a command line
type Token struct {
	Value    string // Token text
	Position int    // Byte offset in the input, -1 for pre-tokenized input
	Index    int    // Position in the token stream (0-based)
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Position < 0 {
		return fmt.Sprintf("#%d(%s)", t.Index, t.Value)
	}
	return fmt.Sprintf("#%d@%d(%s)", t.Index, t.Position, t.Value)
}

// Lexer produces tokens from a raw line
type Lexer struct {
	input string
	pos   int
	index int
}

// NewLexer creates a lexer over input
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// NextToken returns the next token; ok is false at end of input
func (l *Lexer) NextToken() (tok Token, ok bool) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{}, false
	}

	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsSpace(r) {
			break
		}
		l.pos += size
	}

	tok = Token{Value: l.input[start:l.pos], Position: start, Index: l.index}
	l.index++
	return tok, true
}

// Tokenize returns all remaining tokens
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok, ok := l.NextToken()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

// TokenizeInput tokenizes a raw line
func TokenizeInput(input string) []Token {
	return NewLexer(input).Tokenize()
}

// TokenizeFields accepts an already split line. Entries are trimmed and
// empty ones dropped; inner whitespace is kept and rejected by the parser.
func TokenizeFields(fields []string) []Token {
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		tokens = append(tokens, Token{Value: f, Position: -1, Index: len(tokens)})
	}
	return tokens
}

// containsSpace reports whether s has any whitespace rune
func containsSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
