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
	"slices"
	"strings"
)

var errUnknownMemory = errors.New("unknown memory")

// Instance is an instantiated module: a program plus the evaluator owning
// its live globals and memory.
type Instance struct {
	program   *Program
	evaluator *Evaluator
}

// Invoke calls an exported function. Args are pushed in the given order, so
// the last argument is bound to parameter 0. The second result reports
// whether a value was left on the stack.
//
// A failed invocation resets the value stack and call frames; globals and
// memory keep whatever state the failing code left behind.
func (i *Instance) Invoke(name string, args ...int32) (int32, bool, error) {
	export, err := i.program.Module.export(name, FunctionExport)
	if err != nil {
		return 0, false, err
	}
	return i.Call(export.Ref, args...)
}

// Call is like Invoke but addresses any function, exported or not.
func (i *Instance) Call(label Label, args ...int32) (int32, bool, error) {
	e := i.evaluator
	e.Reset()
	e.PushArgs(args...)
	if err := e.Call(label); err != nil {
		e.Reset()
		return 0, false, err
	}
	v, ok, err := e.Run()
	if err != nil {
		runtimeLog.Debugf("invocation of %s failed: %v", label, err)
		e.Reset()
		return 0, false, err
	}
	return v, ok, nil
}

// GetGlobal returns the current value of an exported global.
func (i *Instance) GetGlobal(name string) (int32, error) {
	export, err := i.program.Module.export(name, GlobalExport)
	if err != nil {
		return 0, err
	}
	return i.evaluator.Global(export.Ref)
}

// GetMemory returns an exported memory.
func (i *Instance) GetMemory(name string) (*Memory, error) {
	export, err := i.program.Module.export(name, MemoryExport)
	if err != nil {
		return nil, err
	}
	decl := i.program.Module.Memory
	ref := export.Ref
	switch {
	case decl == nil:
	case ref.Kind == ByIndex && ref.Index == 0:
		return i.evaluator.Memory(), nil
	case ref.Kind == ByName && ref.Name == decl.Name:
		return i.evaluator.Memory(), nil
	}
	return nil, fmt.Errorf("%w %s", errUnknownMemory, ref)
}

// Exports returns the module's exports sorted by name.
func (i *Instance) Exports() []Export {
	exports := make([]Export, 0, len(i.program.Module.Exports))
	for _, export := range i.program.Module.Exports {
		exports = append(exports, export)
	}
	slices.SortFunc(exports, func(a, b Export) int {
		return strings.Compare(a.Name, b.Name)
	})
	return exports
}

// Program returns the compiled program backing the instance.
func (i *Instance) Program() *Program { return i.program }

// Evaluator returns the instance's evaluator.
func (i *Instance) Evaluator() *Evaluator { return i.evaluator }
