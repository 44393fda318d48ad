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

// valueStack is the single operand stack of an evaluator. Operands, call
// arguments, results and branch conditions all go through it.
type valueStack struct {
	data []int32
}

func newValueStack() *valueStack {
	return &valueStack{data: make([]int32, 0, 512)}
}

func (s *valueStack) push(v int32) {
	s.data = append(s.data, v)
}

func (s *valueStack) pushAll(values []int32) {
	s.data = append(s.data, values...)
}

func (s *valueStack) pop() (int32, error) {
	n := len(s.data)
	if n == 0 {
		return 0, ErrStackUnderflow
	}
	v := s.data[n-1]
	s.data = s.data[:n-1]
	return v, nil
}

// pop2 pops the right hand side, then the left hand side of a binary
// operation.
func (s *valueStack) pop2() (lhs, rhs int32, err error) {
	n := len(s.data)
	if n < 2 {
		return 0, 0, ErrStackUnderflow
	}
	lhs, rhs = s.data[n-2], s.data[n-1]
	s.data = s.data[:n-2]
	return lhs, rhs, nil
}

// drop discards the top value. Dropping from an empty stack does nothing.
func (s *valueStack) drop() {
	if len(s.data) > 0 {
		s.data = s.data[:len(s.data)-1]
	}
}

func (s *valueStack) top() (int32, bool) {
	if len(s.data) == 0 {
		return 0, false
	}
	return s.data[len(s.data)-1], true
}

func (s *valueStack) size() int { return len(s.data) }

func (s *valueStack) clear() { s.data = s.data[:0] }
