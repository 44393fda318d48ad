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

import "fmt"

// TokenKind identifies the lexical class of a Token.
type TokenKind uint8

const (
	EOF TokenKind = iota
	Keyword
	Identifier
	Integer
	String
	LParen
	RParen
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Keyword:
		return "keyword"
	case Identifier:
		return "identifier"
	case Integer:
		return "integer"
	case String:
		return "string"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	default:
		return fmt.Sprintf("token(%d)", uint8(k))
	}
}

// Token is a single lexeme of the text format. Text holds the keyword, the
// identifier without its '$' sigil or the string without its quotes. Value
// is only meaningful for Integer tokens.
type Token struct {
	Kind   TokenKind
	Text   string
	Value  int32
	Line   int
	Column int
}

func (t Token) String() string {
	switch t.Kind {
	case Keyword:
		return fmt.Sprintf("keyword %q", t.Text)
	case Identifier:
		return fmt.Sprintf("identifier $%s", t.Text)
	case Integer:
		return fmt.Sprintf("integer %d", t.Value)
	case String:
		return fmt.Sprintf("string %q", t.Text)
	default:
		return t.Kind.String()
	}
}

func (t Token) is(kind TokenKind) bool { return t.Kind == kind }

func (t Token) isKeyword(text string) bool {
	return t.Kind == Keyword && t.Text == text
}
