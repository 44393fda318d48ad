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

	"github.com/fxamacker/cbor/v2"
)

const (
	programMagic   = "watvm"
	programVersion = 1
)

var errInvalidProgram = errors.New("invalid compiled program")

// cborEncMode uses canonical encoding so that the same program always
// encodes to the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("watvm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type programEnvelope struct {
	Magic   string   `cbor:"1,keyasint"`
	Version int      `cbor:"2,keyasint"`
	Program *Program `cbor:"3,keyasint"`
}

// EncodeProgram serializes a compiled program to CBOR bytes.
func EncodeProgram(p *Program) ([]byte, error) {
	return cborEncMode.Marshal(programEnvelope{
		Magic:   programMagic,
		Version: programVersion,
		Program: p,
	})
}

// DecodeProgram deserializes a program produced by EncodeProgram.
func DecodeProgram(data []byte) (*Program, error) {
	var envelope programEnvelope
	if err := cbor.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("watvm: unmarshal program: %w", err)
	}
	if envelope.Magic != programMagic {
		return nil, fmt.Errorf("%w: bad magic %q", errInvalidProgram, envelope.Magic)
	}
	if envelope.Version != programVersion {
		return nil, fmt.Errorf(
			"%w: unsupported version %d", errInvalidProgram, envelope.Version,
		)
	}
	p := envelope.Program
	if p == nil || p.Module == nil {
		return nil, fmt.Errorf("%w: missing module", errInvalidProgram)
	}
	m := p.Module
	if m.Exports == nil {
		m.Exports = map[string]Export{}
	}
	if m.FunctionNames == nil {
		m.FunctionNames = map[string]int{}
	}
	if m.GlobalNames == nil {
		m.GlobalNames = map[string]int{}
	}
	if err := validateProgram(p); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidProgram, err)
	}
	return p, nil
}

// validateProgram checks the invariants the compiler guarantees and the
// evaluator relies on, so that a corrupted file fails here instead of
// faulting at run time.
func validateProgram(p *Program) error {
	m := p.Module
	if len(p.Blocks) != len(m.Functions) {
		return fmt.Errorf(
			"%d block lists for %d functions", len(p.Blocks), len(m.Functions),
		)
	}
	if m.Memory != nil && m.Memory.Pages > MaxPages {
		return fmt.Errorf("memory of %d pages exceeds %d", m.Memory.Pages, MaxPages)
	}
	for i, function := range m.Functions {
		if function.Params < 0 || function.Locals < 0 {
			return fmt.Errorf(
				"function %d has %d params and %d locals", i, function.Params,
				function.Locals,
			)
		}
		if function.Entry < 0 || function.Entry >= len(m.Code) {
			return fmt.Errorf("function %d entry %d out of range", i, function.Entry)
		}
		for j, block := range p.Blocks[i] {
			if block.Target < 0 || block.Target >= len(m.Code) {
				return fmt.Errorf(
					"function %d block %d target %d out of range", i, j, block.Target,
				)
			}
		}
	}
	for name, index := range m.FunctionNames {
		if index < 0 || index >= len(m.Functions) {
			return fmt.Errorf("function $%s index %d out of range", name, index)
		}
	}
	for name, index := range m.GlobalNames {
		if index < 0 || index >= len(m.Globals) {
			return fmt.Errorf("global $%s index %d out of range", name, index)
		}
	}
	for name, export := range m.Exports {
		if export.Kind > MemoryExport {
			return fmt.Errorf("export %q has kind %s", name, export.Kind)
		}
	}
	if m.Start != nil && (*m.Start < 0 || *m.Start >= len(m.Functions)) {
		return fmt.Errorf("start function %d out of range", *m.Start)
	}
	return nil
}
