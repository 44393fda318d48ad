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
	"math"
	"math/bits"
)

func add(a, b int32) int32 { return a + b }

func sub(a, b int32) int32 { return a - b }

func mul(a, b int32) int32 { return a * b }

func divS(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if a == math.MinInt32 && b == -1 {
		return 0, ErrIntegerOverflow
	}
	return a / b, nil
}

func divU(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return int32(uint32(a) / uint32(b)), nil
}

func remS(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	// Go defines MinInt32 % -1 as 0, which is the wanted result.
	return a % b, nil
}

func remU(a, b int32) (int32, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	return int32(uint32(a) % uint32(b)), nil
}

// i32.and and i32.or are logical: any nonzero operand counts as true.
func and(a, b int32) bool { return a != 0 && b != 0 }

func or(a, b int32) bool { return a != 0 || b != 0 }

func xor(a, b int32) int32 { return a ^ b }

// Shift counts are taken modulo 32.
func shl(a, b int32) int32 { return a << (uint32(b) % 32) }

func shrS(a, b int32) int32 { return a >> (uint32(b) % 32) }

func shrU(a, b int32) int32 { return int32(uint32(a) >> (uint32(b) % 32)) }

func rotl(a, b int32) int32 {
	return int32(bits.RotateLeft32(uint32(a), int(uint32(b)%32)))
}

func rotr(a, b int32) int32 {
	return int32(bits.RotateLeft32(uint32(a), -int(uint32(b)%32)))
}

func clz(a int32) int32 { return int32(bits.LeadingZeros32(uint32(a))) }

func ctz(a int32) int32 { return int32(bits.TrailingZeros32(uint32(a))) }

func popcnt(a int32) int32 { return int32(bits.OnesCount32(uint32(a))) }

func eqz(a int32) int32 { return boolToInt32(a == 0) }

func eq(a, b int32) bool { return a == b }

func ne(a, b int32) bool { return a != b }

func ltS(a, b int32) bool { return a < b }

func ltU(a, b int32) bool { return uint32(a) < uint32(b) }

func gtS(a, b int32) bool { return a > b }

func gtU(a, b int32) bool { return uint32(a) > uint32(b) }

func leS(a, b int32) bool { return a <= b }

func leU(a, b int32) bool { return uint32(a) <= uint32(b) }

func geS(a, b int32) bool { return a >= b }

func geU(a, b int32) bool { return uint32(a) >= uint32(b) }

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
