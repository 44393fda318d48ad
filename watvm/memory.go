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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const (
	// PageSize is the size of a linear memory page in bytes (64KiB).
	PageSize = 65536
	// MaxPages is the largest page count a memory may declare (4GiB).
	MaxPages = 65536
	// wordSize is the width of i32.load and i32.store accesses.
	wordSize = 4
)

// Memory is a linear memory instance: a zero-initialized byte buffer sized
// in pages.
type Memory struct {
	data []byte
}

// NewMemory creates a memory of the given number of pages.
func NewMemory(pages uint32) *Memory {
	return &Memory{data: make([]byte, uint64(pages)*PageSize)}
}

// Size returns the size of the memory in pages.
func (m *Memory) Size() int32 {
	return int32(len(m.data) / PageSize)
}

// Bytes returns the backing buffer. Callers must not retain it across
// executions.
func (m *Memory) Bytes() []byte { return m.data }

// LoadInt32 reads the little-endian word at offset.
func (m *Memory) LoadInt32(offset int32) (int32, error) {
	if err := m.checkBounds(offset); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(m.data[offset:])), nil
}

// StoreInt32 writes v as a little-endian word at offset.
func (m *Memory) StoreInt32(offset, v int32) error {
	if err := m.checkBounds(offset); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], uint32(v))
	return nil
}

func (m *Memory) checkBounds(offset int32) error {
	if offset < 0 || uint64(offset)+wordSize > uint64(len(m.data)) {
		return fmt.Errorf("%w: offset %d", ErrMemoryOutOfBounds, offset)
	}
	return nil
}

// Dump writes the memory as signed 32-bit little-endian words, one
// "index: value" line per word. Lines are keyed by word index, so the byte
// offset of a line is four times its key. A run of zero words is shown by
// its first word only.
func (m *Memory) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	previousZero := false
	for addr := 0; addr+wordSize <= len(m.data); addr += wordSize {
		n := int32(binary.LittleEndian.Uint32(m.data[addr:]))
		if n == 0 && previousZero {
			continue
		}
		previousZero = n == 0
		if _, err := fmt.Fprintf(bw, "%08x: %d\n", addr/wordSize, n); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (m *Memory) String() string {
	var sb strings.Builder
	_ = m.Dump(&sb)
	return sb.String()
}
