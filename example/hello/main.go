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
	"fmt"

	"github.com/ziggy42/watvm/watvm"
)

const source = `(module
	(global $calls (mut i32) (i32.const 0))
	(export "calls" (global $calls))
	(func (export "add") (param $a i32) (param $b i32) (result i32)
		global.get $calls
		i32.const 1
		i32.add
		global.set $calls
		local.get $a
		local.get $b
		call $double
		i32.add))`

func main() {
	// 1. Register a host function and instantiate the module
	instance, err := watvm.NewRuntime().
		WithHostFunction("double", watvm.HostFunction{
			Params: 1,
			Call: func(args []int32) ([]int32, error) {
				return []int32{args[0] * 2}, nil
			},
		}).
		InstantiateFromBytes([]byte(source))
	if err != nil {
		fmt.Println("Error instantiating module:", err)
		return
	}

	// 2. Invoke an exported function. The last argument binds to $a.
	result, _, err := instance.Invoke("add", 16, 10)
	if err != nil {
		fmt.Println("Error invoking function:", err)
		return
	}
	fmt.Println(result) // Output: 42

	// 3. Read an exported global
	calls, err := instance.GetGlobal("calls")
	if err != nil {
		fmt.Println("Error reading global:", err)
		return
	}
	fmt.Println(calls) // Output: 1
}
