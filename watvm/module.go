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

// ExportKind is the kind of entity an export refers to.
type ExportKind uint8

const (
	FunctionExport ExportKind = iota
	GlobalExport
	MemoryExport
)

func (k ExportKind) String() string {
	switch k {
	case FunctionExport:
		return "func"
	case GlobalExport:
		return "global"
	case MemoryExport:
		return "memory"
	default:
		return fmt.Sprintf("export(%d)", uint8(k))
	}
}

func (k ExportKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ExportKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "func":
		*k = FunctionExport
	case "global":
		*k = GlobalExport
	case "memory":
		*k = MemoryExport
	default:
		return fmt.Errorf("unknown export kind %q", text)
	}
	return nil
}

// Module is a compiled program. It is immutable once returned by the
// compiler and may be shared by several evaluators.
type Module struct {
	Memory        *MemoryDecl       `cbor:"1,keyasint,omitempty" yaml:"memory,omitempty"`
	Exports       map[string]Export `cbor:"2,keyasint" yaml:"exports"`
	Functions     []Function        `cbor:"3,keyasint" yaml:"functions"`
	FunctionNames map[string]int    `cbor:"4,keyasint" yaml:"function_names"`
	GlobalNames   map[string]int    `cbor:"5,keyasint" yaml:"global_names"`
	Globals       []Global          `cbor:"6,keyasint" yaml:"globals"`
	Code          []Instruction     `cbor:"7,keyasint" yaml:"code"`
	// Start is never set by the compiler; there is no start form.
	Start *int `cbor:"8,keyasint,omitempty" yaml:"start,omitempty"`
}

func newModule() *Module {
	return &Module{
		Exports:       map[string]Export{},
		FunctionNames: map[string]int{},
		GlobalNames:   map[string]int{},
	}
}

// MemoryDecl declares the module's single linear memory.
type MemoryDecl struct {
	Name  string `cbor:"1,keyasint,omitempty" yaml:"name,omitempty"`
	Pages uint32 `cbor:"2,keyasint" yaml:"pages"`
}

// Function describes a function body within Module.Code.
type Function struct {
	Name      string `cbor:"1,keyasint,omitempty" yaml:"name,omitempty"`
	Params    int    `cbor:"2,keyasint" yaml:"params"`
	Locals    int    `cbor:"3,keyasint" yaml:"locals"`
	Entry     int    `cbor:"4,keyasint" yaml:"entry"`
	HasResult bool   `cbor:"5,keyasint" yaml:"result"`
}

// Global is a global declaration. Value is the initial value; the live
// value belongs to the evaluator.
type Global struct {
	Mutable bool  `cbor:"1,keyasint" yaml:"mutable"`
	Value   int32 `cbor:"2,keyasint" yaml:"value"`
}

// Export makes a module entity reachable by name from the host.
type Export struct {
	Name string     `cbor:"1,keyasint" yaml:"name"`
	Kind ExportKind `cbor:"2,keyasint" yaml:"kind"`
	Ref  Label      `cbor:"3,keyasint" yaml:"ref"`
}

// Block is the control-flow metadata of a block or loop. Target is the pc a
// branch to this block jumps to: just past the loop header for loops, the
// fallthrough point after the matching end otherwise.
type Block struct {
	ID        string `cbor:"1,keyasint,omitempty" yaml:"id,omitempty"`
	IsLoop    bool   `cbor:"2,keyasint" yaml:"loop"`
	Target    int    `cbor:"3,keyasint" yaml:"target"`
	HasResult bool   `cbor:"4,keyasint" yaml:"result"`
}

// BlockTable holds, for each function index, the blocks of that function in
// opening order. A block index is only meaningful together with the
// function it belongs to.
type BlockTable [][]Block

// Instruction is a single bytecode instruction. Which operand is used depends
// on the opcode: Value for i32.const, Index for local and branch
// instructions, Label for global and call instructions.
type Instruction struct {
	Opcode Opcode `cbor:"1,keyasint" yaml:"op"`
	Value  int32  `cbor:"2,keyasint,omitempty" yaml:"value,omitempty"`
	Index  int    `cbor:"3,keyasint,omitempty" yaml:"index,omitempty"`
	Label  *Label `cbor:"4,keyasint,omitempty" yaml:"label,omitempty"`
}

func (i Instruction) String() string {
	switch i.Opcode {
	case I32Const:
		return fmt.Sprintf("%s %d", i.Opcode, i.Value)
	case LocalGet, LocalSet, LocalTee, BlockOp, Loop, Br, BrIf:
		return fmt.Sprintf("%s %d", i.Opcode, i.Index)
	case GlobalGet, GlobalSet, Call:
		return fmt.Sprintf("%s %s", i.Opcode, i.Label)
	default:
		return i.Opcode.String()
	}
}

// Program bundles a module with its block table, the unit produced by the
// compiler and consumed by the evaluator.
type Program struct {
	Module *Module    `cbor:"1,keyasint" yaml:"module"`
	Blocks BlockTable `cbor:"2,keyasint" yaml:"blocks"`
}

// function returns the function referenced by label.
func (m *Module) function(label Label) (int, *Function, error) {
	idx, ok := label.resolve(m.FunctionNames, len(m.Functions))
	if !ok {
		return 0, nil, fmt.Errorf("%w %s", ErrUnknownFunction, label)
	}
	return idx, &m.Functions[idx], nil
}

// global returns the index of the global referenced by label.
func (m *Module) global(label Label) (int, error) {
	idx, ok := label.resolve(m.GlobalNames, len(m.Globals))
	if !ok {
		return 0, fmt.Errorf("%w %s", ErrUnknownGlobal, label)
	}
	return idx, nil
}

// export returns the export with the given name if it has the given kind.
func (m *Module) export(name string, kind ExportKind) (Export, error) {
	export, ok := m.Exports[name]
	if !ok {
		return Export{}, fmt.Errorf("%w: %s", ErrExportNotFound, name)
	}
	if export.Kind != kind {
		return Export{}, fmt.Errorf(
			"%w: %s is a %s export, not %s", ErrExportKindMismatch, name,
			export.Kind, kind,
		)
	}
	return export, nil
}
