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
	"io"
	"os"
)

// Config controls the behavior and resource limits of an Evaluator.
type Config struct {
	// MaxCallStackDepth is the hard limit on call stack depth to prevent
	// infinite recursion. Default: 1000.
	MaxCallStackDepth int

	// EnableFuel enables instruction fuel to bound execution time. When
	// enabled, every executed instruction consumes one unit of fuel and the
	// run fails with ErrOutOfFuel once none is left. Default: false.
	EnableFuel bool

	// Fuel is the amount of fuel available to each run.
	// Only used if EnableFuel is true.
	Fuel uint64

	// Stdout receives the output of the print host function.
	// Default: os.Stdout.
	Stdout io.Writer
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxCallStackDepth: 1000,
		Stdout:            os.Stdout,
	}
}
