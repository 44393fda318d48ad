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
	"maps"
)

// PrintFunction is the name of the built-in host function writing a value.
const PrintFunction = "print"

// HostFunction is a native function callable from module code with
// `call $name`. It pops Params values (the last pushed value is args[0])
// and pushes the returned values in order.
type HostFunction struct {
	Params int
	Call   func(args []int32) ([]int32, error)
}

// HostRegistry maps names to host functions. It is consulted before user
// defined functions whenever a call targets a function by name.
type HostRegistry map[string]HostFunction

// DefaultHostFunctions returns the built-in host functions, writing printed
// values to w.
func DefaultHostFunctions(w io.Writer) HostRegistry {
	return HostRegistry{
		PrintFunction: {
			Params: 1,
			Call: func(args []int32) ([]int32, error) {
				_, err := fmt.Fprintln(w, args[0])
				return nil, err
			},
		},
	}
}

// With returns a copy of the registry with fn registered under name.
func (r HostRegistry) With(name string, fn HostFunction) HostRegistry {
	out := maps.Clone(r)
	if out == nil {
		out = HostRegistry{}
	}
	out[name] = fn
	return out
}
