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
	"errors"
	"testing"
)

func TestTokenize(t *testing.T) {
	source := `(module ;; line comment
		(; block (; nested ;) comment ;)
		(func $add (export "add") (param i32)
			i32.const -11))`
	tokens, err := Tokenize([]byte(source))
	if err != nil {
		t.Fatalf("failed to tokenize: %v", err)
	}

	expected := []struct {
		kind TokenKind
		text string
	}{
		{LParen, ""},
		{Keyword, "module"},
		{LParen, ""},
		{Keyword, "func"},
		{Identifier, "add"},
		{LParen, ""},
		{Keyword, "export"},
		{String, "add"},
		{RParen, ""},
		{LParen, ""},
		{Keyword, "param"},
		{Keyword, "i32"},
		{RParen, ""},
		{Keyword, "i32.const"},
		{Integer, "-11"},
		{RParen, ""},
		{RParen, ""},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, want := range expected {
		if tokens[i].Kind != want.kind || tokens[i].Text != want.text {
			t.Fatalf("token %d: expected %s %q, got %v", i, want.kind, want.text, tokens[i])
		}
	}
	if tokens[14].Value != -11 {
		t.Fatalf("expected -11, got %d", tokens[14].Value)
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens, err := Tokenize([]byte("(module\n  (func))"))
	if err != nil {
		t.Fatalf("failed to tokenize: %v", err)
	}
	fn := tokens[3]
	if fn.Line != 2 || fn.Column != 4 {
		t.Fatalf("expected func at 2:4, got %d:%d", fn.Line, fn.Column)
	}
}

func TestTokenizeIntegers(t *testing.T) {
	tests := []struct {
		text     string
		expected int32
	}{
		{"0", 0},
		{"42", 42},
		{"+7", 7},
		{"-2147483648", -2147483648},
		{"2147483647", 2147483647},
	}
	for _, tt := range tests {
		tokens, err := Tokenize([]byte(tt.text))
		if err != nil {
			t.Fatalf("failed to tokenize %s: %v", tt.text, err)
		}
		if len(tokens) != 1 || tokens[0].Kind != Integer {
			t.Fatalf("expected one integer token for %s, got %v", tt.text, tokens)
		}
		if tokens[0].Value != tt.expected {
			t.Fatalf("expected %d, got %d", tt.expected, tokens[0].Value)
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	sources := []string{
		"2147483648",
		"12ab",
		`"unterminated`,
		"(; never closed",
		"$",
		"{",
	}
	for _, source := range sources {
		_, err := Tokenize([]byte(source))
		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("%q: expected a syntax error, got %v", source, err)
		}
	}
}
