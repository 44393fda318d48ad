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
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type programView struct {
	Memory    *MemoryDecl    `yaml:"memory,omitempty"`
	Globals   []globalView   `yaml:"globals,omitempty"`
	Exports   []Export       `yaml:"exports,omitempty"`
	Functions []functionView `yaml:"functions"`
}

type globalView struct {
	Index   int    `yaml:"index"`
	Name    string `yaml:"name,omitempty"`
	Mutable bool   `yaml:"mutable"`
	Value   int32  `yaml:"value"`
}

type functionView struct {
	Index  int      `yaml:"index"`
	Name   string   `yaml:"name,omitempty"`
	Params int      `yaml:"params"`
	Locals int      `yaml:"locals"`
	Result bool     `yaml:"result"`
	Blocks []Block  `yaml:"blocks,omitempty"`
	Code   []string `yaml:"code"`
}

// DumpYAML writes a human readable description of a compiled program:
// declarations, exports and each function's disassembled bytecode prefixed
// with absolute pcs.
func DumpYAML(w io.Writer, p *Program) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newProgramView(p)); err != nil {
		return fmt.Errorf("encode program: %w", err)
	}
	return enc.Close()
}

func newProgramView(p *Program) programView {
	m := p.Module
	view := programView{Memory: m.Memory}

	globalNames := invert(m.GlobalNames)
	for i, global := range m.Globals {
		view.Globals = append(view.Globals, globalView{
			Index:   i,
			Name:    globalNames[i],
			Mutable: global.Mutable,
			Value:   global.Value,
		})
	}

	for _, export := range m.Exports {
		view.Exports = append(view.Exports, export)
	}
	slices.SortFunc(view.Exports, func(a, b Export) int {
		return strings.Compare(a.Name, b.Name)
	})

	for i, function := range m.Functions {
		end := len(m.Code)
		if i+1 < len(m.Functions) {
			end = m.Functions[i+1].Entry
		}
		fv := functionView{
			Index:  i,
			Name:   function.Name,
			Params: function.Params,
			Locals: function.Locals,
			Result: function.HasResult,
		}
		if i < len(p.Blocks) {
			fv.Blocks = p.Blocks[i]
		}
		for pc := function.Entry; pc < end; pc++ {
			fv.Code = append(fv.Code, fmt.Sprintf("%d: %s", pc, m.Code[pc]))
		}
		view.Functions = append(view.Functions, fv)
	}
	return view
}

func invert(names map[string]int) map[int]string {
	out := make(map[int]string, len(names))
	for name, index := range names {
		out[index] = name
	}
	return out
}
