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
	"fmt"
)

var (
	ErrStackUnderflow      = errors.New("value stack underflow")
	ErrIntegerDivideByZero = errors.New("integer divide by zero")
	ErrIntegerOverflow     = errors.New("integer overflow")
	ErrMemoryOutOfBounds   = errors.New("out of bounds memory access")
	ErrImmutableGlobal     = errors.New("global is immutable")
	ErrUnknownGlobal       = errors.New("unknown global")
	ErrUnknownFunction     = errors.New("unknown function")
	ErrUnknownLocal        = errors.New("unknown local")
	ErrUnknownBlock        = errors.New("unknown block")
	ErrCallStackExhausted  = errors.New("call stack exhausted")
	ErrOutOfFuel           = errors.New("out of fuel")
	ErrUnreachable         = errors.New("unreachable")
	ErrUnimplemented       = errors.New("unimplemented opcode")
	ErrExportNotFound      = errors.New("export not found")
	ErrExportKindMismatch  = errors.New("export kind mismatch")
)

// SyntaxError is a lexical error: a character sequence that does not form a
// token.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// CompileError reports the first structural defect found by the compiler.
// Err, when set, is the underlying cause (e.g. ErrUnknownBlock).
type CompileError struct {
	Expected string
	Got      Token
	Err      error
}

func (e *CompileError) Error() string {
	pos := fmt.Sprintf("%d:%d", e.Got.Line, e.Got.Column)
	if e.Err != nil {
		return fmt.Sprintf("compile error at %s: %s: %v", pos, e.Expected, e.Err)
	}
	return fmt.Sprintf(
		"compile error at %s: expected %s, got %s", pos, e.Expected, e.Got,
	)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Trap is a runtime fault. Execution stops at the faulting instruction.
// Opcode is noOpcode when the pc left the code and there is no instruction.
type Trap struct {
	PC     int
	Opcode Opcode
	Err    error
}

func (t *Trap) Error() string {
	if t.Opcode == noOpcode {
		return fmt.Sprintf("trap at pc %d: %v", t.PC, t.Err)
	}
	return fmt.Sprintf("trap at pc %d (%s): %v", t.PC, t.Opcode, t.Err)
}

func (t *Trap) Unwrap() error { return t.Err }
