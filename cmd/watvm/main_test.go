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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const factorialSource = `(module
	(func $fac (export "fac") (param i32) (result i32)
		block $if (result i32)
			block $else (result i32)
				i32.const 1
				local.get 0
				i32.const 2
				i32.lt_s
				br_if $if
				drop
				local.get 0
				local.get 0
				i32.const 1
				i32.sub
				call $fac
				i32.mul
				br $if
			end
		end)
	(func (export "hello")
		i32.const 2
		call $print))`

func writeSource(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "prog.wat")
	if err := os.WriteFile(path, []byte(source), 0o600); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	return path
}

func TestRunCommand(t *testing.T) {
	path := writeSource(t, factorialSource)
	var out, errOut bytes.Buffer
	if code := runMain([]string{"run", "-invoke", "fac", path, "5"}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, errOut.String())
	}
	if out.String() != "120\n" {
		t.Fatalf("expected %q, got %q", "120\n", out.String())
	}
}

func TestRunDefaultsToFirstFunction(t *testing.T) {
	path := writeSource(t, factorialSource)
	var out, errOut bytes.Buffer
	if code := runMain([]string{"run", path, "4"}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, errOut.String())
	}
	if out.String() != "24\n" {
		t.Fatalf("expected %q, got %q", "24\n", out.String())
	}
}

func TestRunPrint(t *testing.T) {
	path := writeSource(t, factorialSource)
	var out, errOut bytes.Buffer
	if code := runMain([]string{"run", "-invoke", "hello", path}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, errOut.String())
	}
	if out.String() != "2\n" {
		t.Fatalf("expected %q, got %q", "2\n", out.String())
	}
}

func TestRunFuel(t *testing.T) {
	path := writeSource(t, factorialSource)
	var out, errOut bytes.Buffer
	code := runMain([]string{"run", "-fuel", "10", "-invoke", "fac", path, "10"}, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "out of fuel") {
		t.Fatalf("expected out of fuel error, got %q", errOut.String())
	}
}

func TestCompileAndRunCompiled(t *testing.T) {
	path := writeSource(t, factorialSource)
	var out, errOut bytes.Buffer
	if code := runMain([]string{"compile", path}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, errOut.String())
	}
	compiled := compiledPath(path)
	if _, err := os.Stat(compiled); err != nil {
		t.Fatalf("expected %s to exist: %v", compiled, err)
	}

	if code := runMain([]string{"run", "-invoke", "fac", compiled, "6"}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, errOut.String())
	}
	if out.String() != "720\n" {
		t.Fatalf("expected %q, got %q", "720\n", out.String())
	}
}

func TestCompileOutputFlag(t *testing.T) {
	path := writeSource(t, factorialSource)
	target := filepath.Join(filepath.Dir(path), "out.wvm")
	var out, errOut bytes.Buffer
	if code := runMain([]string{"compile", "-o", target, path}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, errOut.String())
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected %s to exist: %v", target, err)
	}
}

func TestInspectCommand(t *testing.T) {
	path := writeSource(t, factorialSource)
	var out, errOut bytes.Buffer
	if code := runMain([]string{"inspect", path}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, errOut.String())
	}
	for _, want := range []string{"name: fac", "call $fac", "br_if 0"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestCommandErrors(t *testing.T) {
	path := writeSource(t, "(module (func br 0))")
	tests := []struct {
		args []string
		code int
	}{
		{nil, 2},
		{[]string{"frobnicate"}, 2},
		{[]string{"run"}, 2},
		{[]string{"run", path}, 1},
		{[]string{"run", filepath.Join(filepath.Dir(path), "missing.wat")}, 1},
		{[]string{"inspect", "a", "b"}, 2},
		{[]string{"-config", "missing.toml", "inspect", path}, 1},
	}
	for _, tt := range tests {
		var out, errOut bytes.Buffer
		if code := runMain(tt.args, &out, &errOut); code != tt.code {
			t.Fatalf("%v: expected exit code %d, got %d", tt.args, tt.code, code)
		}
	}
}

func TestVerbosityFlag(t *testing.T) {
	v := &verbosity{}
	for range 3 {
		if err := v.Set("true"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !v.set || v.level != 3 {
		t.Fatalf("expected level 3, got %d", v.level)
	}
}
