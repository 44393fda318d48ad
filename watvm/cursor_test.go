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

import "testing"

func TestTokenCursor(t *testing.T) {
	tokens, err := Tokenize([]byte("(module $m)"))
	if err != nil {
		t.Fatalf("failed to tokenize: %v", err)
	}
	cursor := newTokenCursor(tokens)

	if !cursor.current().is(LParen) {
		t.Fatalf("expected '(' as current token, got %s", cursor.current())
	}
	if !cursor.peek().isKeyword("module") {
		t.Fatalf("expected 'module' one past current, got %s", cursor.peek())
	}
	if !cursor.startsForm("module") {
		t.Fatalf("expected cursor to start a module form")
	}

	if tok := cursor.next(); !tok.is(LParen) {
		t.Fatalf("expected next to return '(', got %s", tok)
	}
	if !cursor.current().isKeyword("module") {
		t.Fatalf("expected 'module' after advancing, got %s", cursor.current())
	}
	if !cursor.peek().is(Identifier) {
		t.Fatalf("expected identifier one past current, got %s", cursor.peek())
	}

	cursor.advance()
	cursor.advance()
	cursor.advance()
	if !cursor.done() {
		t.Fatalf("expected cursor to be done")
	}
	if !cursor.current().is(EOF) || !cursor.peek().is(EOF) {
		t.Fatalf("expected EOF past the end, got %s and %s", cursor.current(), cursor.peek())
	}
	cursor.advance()
	if !cursor.current().is(EOF) {
		t.Fatalf("expected advancing past the end to keep EOF, got %s", cursor.current())
	}
}

func TestTokenCursorExpect(t *testing.T) {
	tokens, err := Tokenize([]byte("(func"))
	if err != nil {
		t.Fatalf("failed to tokenize: %v", err)
	}
	cursor := newTokenCursor(tokens)
	if _, err := cursor.expect(LParen, "'('"); err != nil {
		t.Fatalf("expected '(' to be accepted, got %v", err)
	}
	if err := cursor.expectKeyword("module"); err == nil {
		t.Fatalf("expected an error for 'func' where 'module' is expected")
	}
	if _, err := cursor.expect(RParen, "')'"); err == nil {
		t.Fatalf("expected an error at EOF")
	}
}
