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
	"os"
	"path/filepath"
	"testing"
)

func TestHistoryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	h, err := loadHistory(path, 10)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if h.Len() != 0 {
		t.Fatalf("expected empty history, got %d entries", h.Len())
	}
	for _, entry := range []string{"first", "second", "second", "  ", "third"} {
		h.Add(entry)
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}
	if h.At(0) != "third" || h.At(2) != "first" {
		t.Fatalf("expected most recent first, got %q and %q", h.At(0), h.At(2))
	}

	reloaded, err := loadHistory(path, 10)
	if err != nil {
		t.Fatalf("failed to reload history: %v", err)
	}
	if reloaded.Len() != 3 || reloaded.At(0) != "third" {
		t.Fatalf("expected reloaded history to match, got %v", reloaded.entries)
	}
}

func TestHistoryLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\nd\n"), 0o600); err != nil {
		t.Fatalf("failed to write history: %v", err)
	}
	h, err := loadHistory(path, 2)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if h.Len() != 2 || h.At(0) != "d" || h.At(1) != "c" {
		t.Fatalf("expected [c d], got %v", h.entries)
	}
	h.Add("e")
	if h.Len() != 2 || h.At(1) != "d" {
		t.Fatalf("expected [d e], got %v", h.entries)
	}
}

func TestHistoryWithoutFile(t *testing.T) {
	h, err := loadHistory("", 0)
	if err != nil {
		t.Fatalf("failed to create history: %v", err)
	}
	h.Add("help")
	if h.Len() != 1 || h.At(0) != "help" {
		t.Fatalf("expected [help], got %v", h.entries)
	}
}
