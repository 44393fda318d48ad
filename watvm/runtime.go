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
	"bytes"
	"fmt"
	"io"

	"github.com/tliron/commonlog"
)

var runtimeLog = commonlog.GetLogger("watvm.runtime")

// Runtime provides the main API for compiling and instantiating modules.
type Runtime struct {
	config Config
	hosts  HostRegistry
}

// NewRuntime creates a new Runtime with default settings.
func NewRuntime() *Runtime {
	return &Runtime{config: DefaultConfig()}
}

// WithConfig sets the configuration for the runtime. Must be called before
// instantiating any modules.
func (r *Runtime) WithConfig(config Config) *Runtime {
	r.config = config
	return r
}

// WithHostFunction registers a host function for every instance created
// afterwards.
//
// Example:
//
//	instance, err := watvm.NewRuntime().
//	    WithHostFunction("double", watvm.HostFunction{
//	        Params: 1,
//	        Call: func(args []int32) ([]int32, error) {
//	            return []int32{args[0] * 2}, nil
//	        },
//	    }).
//	    InstantiateFromBytes(source)
func (r *Runtime) WithHostFunction(name string, fn HostFunction) *Runtime {
	r.hosts = r.hosts.With(name, fn)
	return r
}

// Instantiate compiles module source read from src and instantiates it.
func (r *Runtime) Instantiate(src io.Reader) (*Instance, error) {
	source, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	program, err := CompileProgram(source)
	if err != nil {
		return nil, err
	}
	return r.InstantiateProgram(program)
}

// InstantiateFromBytes is a convenience method to instantiate a module from
// its source text.
func (r *Runtime) InstantiateFromBytes(source []byte) (*Instance, error) {
	return r.Instantiate(bytes.NewReader(source))
}

// InstantiateProgram instantiates an already compiled program.
func (r *Runtime) InstantiateProgram(program *Program) (*Instance, error) {
	if program == nil || program.Module == nil {
		return nil, fmt.Errorf("instantiate: nil program")
	}
	if err := validateProgram(program); err != nil {
		return nil, fmt.Errorf("instantiate: %w", err)
	}

	evaluator := NewEvaluator(program.Module, program.Blocks, r.config)
	for name, fn := range r.hosts {
		evaluator.RegisterHostFunction(name, fn)
	}
	runtimeLog.Infof(
		"instantiated module: %d functions, %d globals, %d exports",
		len(program.Module.Functions), len(program.Module.Globals),
		len(program.Module.Exports),
	)
	return &Instance{program: program, evaluator: evaluator}, nil
}
