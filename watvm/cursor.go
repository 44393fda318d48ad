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

// tokenCursor is a read-only forward cursor over a token sequence. Reading
// past the end yields EOF tokens positioned after the last token.
type tokenCursor struct {
	tokens []Token
	pos    int
}

func newTokenCursor(tokens []Token) *tokenCursor {
	return &tokenCursor{tokens: tokens}
}

func (c *tokenCursor) at(i int) Token {
	if i < len(c.tokens) {
		return c.tokens[i]
	}
	if len(c.tokens) == 0 {
		return Token{Kind: EOF, Line: 1, Column: 1}
	}
	last := c.tokens[len(c.tokens)-1]
	return Token{Kind: EOF, Line: last.Line, Column: last.Column}
}

// current is the next unconsumed token.
func (c *tokenCursor) current() Token { return c.at(c.pos) }

// peek looks one token past current without consuming anything.
func (c *tokenCursor) peek() Token { return c.at(c.pos + 1) }

func (c *tokenCursor) advance() {
	if c.pos < len(c.tokens) {
		c.pos++
	}
}

// next consumes and returns the current token.
func (c *tokenCursor) next() Token {
	tok := c.current()
	c.advance()
	return tok
}

// expect consumes the current token if it has the given kind.
func (c *tokenCursor) expect(kind TokenKind, what string) (Token, error) {
	tok := c.next()
	if tok.Kind != kind {
		return tok, &CompileError{Expected: what, Got: tok}
	}
	return tok, nil
}

// expectKeyword consumes the current token if it is the given keyword.
func (c *tokenCursor) expectKeyword(text string) error {
	tok := c.next()
	if !tok.isKeyword(text) {
		return &CompileError{Expected: "'" + text + "'", Got: tok}
	}
	return nil
}

// startsForm reports whether the cursor is at "(keyword".
func (c *tokenCursor) startsForm(keyword string) bool {
	return c.current().is(LParen) && c.peek().isKeyword(keyword)
}

func (c *tokenCursor) done() bool { return c.pos >= len(c.tokens) }
