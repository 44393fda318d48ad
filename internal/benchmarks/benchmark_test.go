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

package benchmarks

import (
	"os"
	"testing"

	"github.com/ziggy42/watvm/watvm"
)

func BenchmarkFactorialRecursive(b *testing.B) {
	instance, err := instantiate("code/factorial.wat")
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}

	for b.Loop() {
		_, _, err := instance.Invoke("fac_recursive", 25)
		if err != nil {
			b.Fatalf("failed to execute benchmark: %v", err)
		}
	}
}

func BenchmarkFactorialIterative(b *testing.B) {
	instance, err := instantiate("code/factorial.wat")
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}

	for b.Loop() {
		_, _, err := instance.Invoke("fac_iterative", 25)
		if err != nil {
			b.Fatalf("failed to execute benchmark: %v", err)
		}
	}
}

func BenchmarkFibonacciRecursive(b *testing.B) {
	instance, err := instantiate("code/fibonacci.wat")
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}

	for b.Loop() {
		_, _, err := instance.Invoke("fib_recursive", 20)
		if err != nil {
			b.Fatalf("failed to execute benchmark: %v", err)
		}
	}
}

func BenchmarkFibonacciIterative(b *testing.B) {
	instance, err := instantiate("code/fibonacci.wat")
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}

	for b.Loop() {
		_, _, err := instance.Invoke("fib_iterative", 25)
		if err != nil {
			b.Fatalf("failed to execute benchmark: %v", err)
		}
	}
}

func BenchmarkGcd(b *testing.B) {
	instance, err := instantiate("code/gcd.wat")
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}

	for b.Loop() {
		_, _, err := instance.Invoke("gcd", 832040, 1346269)
		if err != nil {
			b.Fatalf("failed to execute benchmark: %v", err)
		}
	}
}

func BenchmarkMemoryAccess(b *testing.B) {
	instance, err := instantiate("code/memory_access.wat")
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}

	for b.Loop() {
		_, _, err := instance.Invoke("run_memory", 1000)
		if err != nil {
			b.Fatalf("failed to execute benchmark: %v", err)
		}
	}
}

func BenchmarkCompile(b *testing.B) {
	source, err := os.ReadFile("code/fibonacci.wat")
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}

	for b.Loop() {
		if _, _, err := watvm.Compile(source); err != nil {
			b.Fatalf("failed to execute benchmark: %v", err)
		}
	}
}

func BenchmarkDecodeProgram(b *testing.B) {
	source, err := os.ReadFile("code/fibonacci.wat")
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}
	program, err := watvm.CompileProgram(source)
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}
	data, err := watvm.EncodeProgram(program)
	if err != nil {
		b.Fatalf("failed to initialize test: %v", err)
	}

	for b.Loop() {
		if _, err := watvm.DecodeProgram(data); err != nil {
			b.Fatalf("failed to execute benchmark: %v", err)
		}
	}
}

func instantiate(watPath string) (*watvm.Instance, error) {
	source, err := os.ReadFile(watPath)
	if err != nil {
		return nil, err
	}
	return watvm.NewRuntime().InstantiateFromBytes(source)
}
