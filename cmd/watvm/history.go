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
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/term"
)

const defaultHistoryLimit = 1000

// fileHistory is a term.History persisted to a plain text file, one entry
// per line, oldest first. Entries are appended to the file as they are added
// so that history survives an abrupt exit.
type fileHistory struct {
	path    string
	limit   int
	entries []string
}

var _ term.History = (*fileHistory)(nil)

// loadHistory reads the history file at path, keeping the most recent limit
// entries. A missing file yields an empty history. An empty path disables
// persistence.
func loadHistory(path string, limit int) (*fileHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	h := &fileHistory{path: path, limit: limit}
	if path == "" {
		return h, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); strings.TrimSpace(line) != "" {
			h.entries = append(h.entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	h.trim()
	return h, nil
}

// Add records entry as the most recent one. Blank lines and immediate
// repeats are dropped.
func (h *fileHistory) Add(entry string) {
	if strings.TrimSpace(entry) == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return
	}
	h.entries = append(h.entries, entry)
	h.trim()
	if err := h.persist(entry); err != nil {
		cliLog.Warningf("could not save history: %v", err)
	}
}

func (h *fileHistory) Len() int { return len(h.entries) }

// At returns the entry idx steps back; 0 is the most recent.
func (h *fileHistory) At(idx int) string {
	return h.entries[len(h.entries)-1-idx]
}

func (h *fileHistory) trim() {
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
}

func (h *fileHistory) persist(entry string) error {
	if h.path == "" {
		return nil
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, entry); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
