// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package watvm

import (
	"bytes"
	"strconv"
	"strings"
)

// lexer converts source text into tokens. Comments and whitespace are
// discarded here so the compiler never sees them.
type lexer struct {
	src    []byte
	pos    int
	line   int
	column int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1, column: 1}
}

// Tokenize splits source text into the token sequence consumed by the
// compiler.
func Tokenize(src []byte) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (l *lexer) next() (Token, error) {
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Line: l.line, Column: l.column}, nil
	}

	line, column := l.line, l.column
	c := l.src[l.pos]
	switch {
	case c == '(':
		l.advance(1)
		return Token{Kind: LParen, Line: line, Column: column}, nil
	case c == ')':
		l.advance(1)
		return Token{Kind: RParen, Line: line, Column: column}, nil
	case c == '"':
		return l.readString(line, column)
	case c == '$':
		l.advance(1)
		name := l.readWord()
		if name == "" {
			return Token{}, l.errorAt(line, column, "empty identifier")
		}
		return Token{Kind: Identifier, Text: name, Line: line, Column: column}, nil
	case c == '-' || c == '+' || isDigit(c):
		word := l.readWord()
		n, err := strconv.ParseInt(word, 10, 32)
		if err != nil {
			return Token{}, l.errorAt(line, column, "invalid integer literal "+word)
		}
		return Token{
			Kind:   Integer,
			Text:   word,
			Value:  int32(n),
			Line:   line,
			Column: column,
		}, nil
	case c >= 'a' && c <= 'z':
		word := l.readWord()
		return Token{Kind: Keyword, Text: word, Line: line, Column: column}, nil
	default:
		return Token{}, l.errorAt(line, column, "unexpected character "+strconv.QuoteRune(rune(c)))
	}
}

// skipTrivia discards whitespace, line comments (;;) and block comments
// ((; ... ;)), which may nest.
func (l *lexer) skipTrivia() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			l.advance(1)
		case l.hasPrefix(";;"):
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.advance(1)
			}
		case l.hasPrefix("(;"):
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) skipBlockComment() error {
	line, column := l.line, l.column
	depth := 0
	for l.pos < len(l.src) {
		switch {
		case l.hasPrefix("(;"):
			depth++
			l.advance(2)
		case l.hasPrefix(";)"):
			depth--
			l.advance(2)
			if depth == 0 {
				return nil
			}
		default:
			l.advance(1)
		}
	}
	return l.errorAt(line, column, "unterminated block comment")
}

func (l *lexer) readString(line, column int) (Token, error) {
	l.advance(1)
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\n' {
			break
		}
		l.advance(1)
	}
	if l.pos >= len(l.src) || l.src[l.pos] != '"' {
		return Token{}, l.errorAt(line, column, "unterminated string")
	}
	text := string(l.src[start:l.pos])
	l.advance(1)
	return Token{Kind: String, Text: text, Line: line, Column: column}, nil
}

// readWord consumes the longest run of identifier characters.
func (l *lexer) readWord() string {
	start := l.pos
	for l.pos < len(l.src) && isIdChar(l.src[l.pos]) {
		l.advance(1)
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *lexer) hasPrefix(prefix string) bool {
	return bytes.HasPrefix(l.src[l.pos:], []byte(prefix))
}

func (l *lexer) errorAt(line, column int, msg string) error {
	return &SyntaxError{Line: line, Column: column, Msg: msg}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isIdChar reports whether c may appear in a keyword, identifier or number.
func isIdChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', isDigit(c):
		return true
	}
	return strings.IndexByte("!#$%&'*+-./:<=>?@\\^_`|~", c) >= 0
}
