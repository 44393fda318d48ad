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
	"strconv"
	"strings"
)

// LabelKind tells which variant of a Label is populated.
type LabelKind uint8

const (
	ByIndex LabelKind = iota
	ByName
)

// Label references a function or a global either symbolically or by
// position. Symbolic labels are resolved through the module's name maps at
// the point of use.
type Label struct {
	Kind  LabelKind `cbor:"1,keyasint"`
	Name  string    `cbor:"2,keyasint,omitempty"`
	Index int       `cbor:"3,keyasint,omitempty"`
}

// LabelName returns a symbolic label.
func LabelName(name string) Label { return Label{Kind: ByName, Name: name} }

// LabelIndex returns a positional label.
func LabelIndex(index int) Label { return Label{Kind: ByIndex, Index: index} }

func (l Label) String() string {
	if l.Kind == ByName {
		return "$" + l.Name
	}
	return strconv.Itoa(l.Index)
}

// resolve maps the label to a position using names for symbolic labels and
// a bounds check against count for positional ones.
func (l Label) resolve(names map[string]int, count int) (int, bool) {
	idx := l.Index
	if l.Kind == ByName {
		var ok bool
		if idx, ok = names[l.Name]; !ok {
			return 0, false
		}
	}
	return idx, idx >= 0 && idx < count
}

func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(text []byte) error {
	s := string(text)
	if name, ok := strings.CutPrefix(s, "$"); ok {
		*l = LabelName(name)
		return nil
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid label %q", s)
	}
	*l = LabelIndex(idx)
	return nil
}
