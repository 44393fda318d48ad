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

// Opcode is the closed set of instructions understood by both the compiler
// and the evaluator.
type Opcode uint8

const (
	Unreachable Opcode = iota
	Nop
	BlockOp
	Loop
	End
	Br
	BrIf
	Return
	Call
	Drop
	Select
	LocalGet
	LocalSet
	LocalTee
	GlobalGet
	GlobalSet
	I32Load
	I32Store
	I32Const
	I32Eqz
	I32Eq
	I32Ne
	I32LtS
	I32LtU
	I32GtS
	I32GtU
	I32LeS
	I32LeU
	I32GeS
	I32GeU
	I32Clz
	I32Ctz
	I32Popcnt
	I32Add
	I32Sub
	I32Mul
	I32DivS
	I32DivU
	I32RemS
	I32RemU
	I32And
	I32Or
	I32Xor
	I32Shl
	I32ShrS
	I32ShrU
	I32Rotl
	I32Rotr
	opcodeCount
)

// noOpcode marks a trap raised outside of any instruction.
const noOpcode = Opcode(0xff)

var opcodeNames = [opcodeCount]string{
	Unreachable: "unreachable",
	Nop:         "nop",
	BlockOp:     "block",
	Loop:        "loop",
	End:         "end",
	Br:          "br",
	BrIf:        "br_if",
	Return:      "return",
	Call:        "call",
	Drop:        "drop",
	Select:      "select",
	LocalGet:    "local.get",
	LocalSet:    "local.set",
	LocalTee:    "local.tee",
	GlobalGet:   "global.get",
	GlobalSet:   "global.set",
	I32Load:     "i32.load",
	I32Store:    "i32.store",
	I32Const:    "i32.const",
	I32Eqz:      "i32.eqz",
	I32Eq:       "i32.eq",
	I32Ne:       "i32.ne",
	I32LtS:      "i32.lt_s",
	I32LtU:      "i32.lt_u",
	I32GtS:      "i32.gt_s",
	I32GtU:      "i32.gt_u",
	I32LeS:      "i32.le_s",
	I32LeU:      "i32.le_u",
	I32GeS:      "i32.ge_s",
	I32GeU:      "i32.ge_u",
	I32Clz:      "i32.clz",
	I32Ctz:      "i32.ctz",
	I32Popcnt:   "i32.popcnt",
	I32Add:      "i32.add",
	I32Sub:      "i32.sub",
	I32Mul:      "i32.mul",
	I32DivS:     "i32.div_s",
	I32DivU:     "i32.div_u",
	I32RemS:     "i32.rem_s",
	I32RemU:     "i32.rem_u",
	I32And:      "i32.and",
	I32Or:       "i32.or",
	I32Xor:      "i32.xor",
	I32Shl:      "i32.shl",
	I32ShrS:     "i32.shr_s",
	I32ShrU:     "i32.shr_u",
	I32Rotl:     "i32.rotl",
	I32Rotr:     "i32.rotr",
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = Opcode(op)
	}
	return m
}()

// LookupOpcode returns the opcode spelled by the given keyword.
func LookupOpcode(keyword string) (Opcode, bool) {
	op, ok := opcodesByName[keyword]
	return op, ok
}

func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodeNames[op]
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// MarshalText makes opcodes readable in inspection dumps.
func (op Opcode) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (op *Opcode) UnmarshalText(text []byte) error {
	parsed, ok := LookupOpcode(string(text))
	if !ok {
		return fmt.Errorf("unknown opcode %q", text)
	}
	*op = parsed
	return nil
}
