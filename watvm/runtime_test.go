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
	"errors"
	"strings"
	"testing"
)

const counterSource = `(module
	(memory $mem 1)
	(global $count (mut i32) (i32.const 0))
	(global $step i32 (i32.const 2))
	(export "memory" (memory $mem))
	(export "count" (global $count))
	(export "step" (global 1))
	(export "bump" (func $bump))
	(func $bump (result i32)
		global.get $count
		global.get $step
		i32.add
		global.set $count
		i32.const 0
		global.get $count
		i32.store
		global.get $count)
	(func $div (export "div") (param $a i32) (param $b i32) (result i32)
		local.get $a
		local.get $b
		i32.div_s))`

func instantiate(t *testing.T, source string) *Instance {
	t.Helper()
	instance, err := NewRuntime().InstantiateFromBytes([]byte(source))
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	return instance
}

func TestInvokeKeepsStateAcrossCalls(t *testing.T) {
	instance := instantiate(t, counterSource)
	for i := int32(1); i <= 3; i++ {
		result, ok, err := instance.Invoke("bump")
		if err != nil {
			t.Fatalf("failed to invoke: %v", err)
		}
		if !ok || result != 2*i {
			t.Fatalf("expected %d, got %d", 2*i, result)
		}
	}

	count, err := instance.GetGlobal("count")
	if err != nil {
		t.Fatalf("failed to get global: %v", err)
	}
	if count != 6 {
		t.Fatalf("expected 6, got %d", count)
	}
	step, err := instance.GetGlobal("step")
	if err != nil {
		t.Fatalf("failed to get global: %v", err)
	}
	if step != 2 {
		t.Fatalf("expected 2, got %d", step)
	}

	memory, err := instance.GetMemory("memory")
	if err != nil {
		t.Fatalf("failed to get memory: %v", err)
	}
	v, err := memory.LoadInt32(0)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if v != 6 {
		t.Fatalf("expected 6, got %d", v)
	}
}

func TestInvokeArgumentOrder(t *testing.T) {
	instance := instantiate(t, counterSource)
	// The last argument binds to $a.
	result, _, err := instance.Invoke("div", 3, 12)
	if err != nil {
		t.Fatalf("failed to invoke: %v", err)
	}
	if result != 4 {
		t.Fatalf("expected 4, got %d", result)
	}
}

func TestInvokeRecoversAfterTrap(t *testing.T) {
	instance := instantiate(t, counterSource)
	if _, _, err := instance.Invoke("div", 0, 1); !errors.Is(err, ErrIntegerDivideByZero) {
		t.Fatalf("expected ErrIntegerDivideByZero, got %v", err)
	}
	if depth := instance.Evaluator().Depth(); depth != 0 {
		t.Fatalf("expected no frames after a trap, got %d", depth)
	}
	result, _, err := instance.Invoke("div", 2, 10)
	if err != nil {
		t.Fatalf("failed to invoke after trap: %v", err)
	}
	if result != 5 {
		t.Fatalf("expected 5, got %d", result)
	}
}

func TestExportErrors(t *testing.T) {
	instance := instantiate(t, counterSource)
	if _, _, err := instance.Invoke("missing"); !errors.Is(err, ErrExportNotFound) {
		t.Fatalf("expected ErrExportNotFound, got %v", err)
	}
	if _, _, err := instance.Invoke("count"); !errors.Is(err, ErrExportKindMismatch) {
		t.Fatalf("expected ErrExportKindMismatch, got %v", err)
	}
	if _, err := instance.GetGlobal("bump"); !errors.Is(err, ErrExportKindMismatch) {
		t.Fatalf("expected ErrExportKindMismatch, got %v", err)
	}
	if _, err := instance.GetMemory("count"); !errors.Is(err, ErrExportKindMismatch) {
		t.Fatalf("expected ErrExportKindMismatch, got %v", err)
	}
}

func TestExportsSortedByName(t *testing.T) {
	instance := instantiate(t, counterSource)
	var names []string
	for _, export := range instance.Exports() {
		names = append(names, export.Name)
	}
	expected := "bump,count,div,memory,step"
	if got := strings.Join(names, ","); got != expected {
		t.Fatalf("expected %s, got %s", expected, got)
	}
}

func TestRuntimeHostFunction(t *testing.T) {
	var calls []int32
	instance, err := NewRuntime().
		WithHostFunction("record", HostFunction{
			Params: 2,
			Call: func(args []int32) ([]int32, error) {
				calls = append(calls, args...)
				return nil, nil
			},
		}).
		InstantiateFromBytes([]byte(`(module
			(func (export "main")
				i32.const 1
				i32.const 2
				call $record))`))
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	if _, ok, err := instance.Invoke("main"); err != nil || ok {
		t.Fatalf("expected no result and no error, got %v, %v", ok, err)
	}
	if len(calls) != 2 || calls[0] != 2 || calls[1] != 1 {
		t.Fatalf("expected args [2 1], got %v", calls)
	}
}

func TestRuntimeConfigStdout(t *testing.T) {
	var out bytes.Buffer
	config := DefaultConfig()
	config.Stdout = &out
	instance, err := NewRuntime().WithConfig(config).InstantiateFromBytes([]byte(`(module
		(func (export "hello") i32.const 42 call $print))`))
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	if _, _, err := instance.Invoke("hello"); err != nil {
		t.Fatalf("failed to invoke: %v", err)
	}
	if out.String() != "42\n" {
		t.Fatalf("expected %q, got %q", "42\n", out.String())
	}
}

func TestInstantiateCompileError(t *testing.T) {
	_, err := NewRuntime().Instantiate(strings.NewReader(`(module (func br 0))`))
	if !errors.Is(err, ErrUnknownBlock) {
		t.Fatalf("expected ErrUnknownBlock, got %v", err)
	}
}

func TestInstantiateProgramRejectsMismatchedBlocks(t *testing.T) {
	program, err := CompileProgram([]byte(`(module (func))`))
	if err != nil {
		t.Fatalf("failed to compile: %v", err)
	}
	program.Blocks = nil
	if _, err := NewRuntime().InstantiateProgram(program); err == nil {
		t.Fatalf("expected an error for a truncated block table")
	}
}

func TestInstancesDoNotShareState(t *testing.T) {
	program, err := CompileProgram([]byte(counterSource))
	if err != nil {
		t.Fatalf("failed to compile: %v", err)
	}
	r := NewRuntime()
	a, err := r.InstantiateProgram(program)
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	b, err := r.InstantiateProgram(program)
	if err != nil {
		t.Fatalf("failed to instantiate: %v", err)
	}
	if _, _, err := a.Invoke("bump"); err != nil {
		t.Fatalf("failed to invoke: %v", err)
	}
	count, _ := b.GetGlobal("count")
	if count != 0 {
		t.Fatalf("expected second instance to be untouched, got %d", count)
	}
}
