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
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// lineReader yields one line of user input at a time and reports io.EOF
// once input is exhausted.
type lineReader interface {
	ReadLine() (string, error)
	// Output is where the shell should write so that output interleaves
	// correctly with the prompt.
	Output() io.Writer
	Close() error
}

// newLineReader returns a line-editing reader when stdin is a terminal and a
// plain scanner otherwise, e.g. when input is piped.
func newLineReader(prompt string, history term.History) (lineReader, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return newScannerReader(os.Stdin, os.Stdout, prompt, history), nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	t := term.NewTerminal(stdio{os.Stdin, os.Stdout}, prompt)
	if history != nil {
		t.History = history
	}
	if width, height, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		_ = t.SetSize(width, height)
	}
	return &terminalReader{terminal: t, fd: fd, state: state}, nil
}

type stdio struct {
	io.Reader
	io.Writer
}

// terminalReader reads lines from a terminal in raw mode with history and
// line editing.
type terminalReader struct {
	terminal *term.Terminal
	fd       int
	state    *term.State
}

func (r *terminalReader) ReadLine() (string, error) {
	return r.terminal.ReadLine()
}

func (r *terminalReader) Output() io.Writer { return r.terminal }

func (r *terminalReader) Close() error {
	return term.Restore(r.fd, r.state)
}

// scannerReader reads lines without editing support, printing the prompt
// itself.
type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
	history term.History
}

func newScannerReader(
	in io.Reader,
	out io.Writer,
	prompt string,
	history term.History,
) *scannerReader {
	return &scannerReader{
		scanner: bufio.NewScanner(in),
		out:     out,
		prompt:  prompt,
		history: history,
	}
}

func (r *scannerReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, r.prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := r.scanner.Text()
	if r.history != nil {
		r.history.Add(line)
	}
	return line, nil
}

func (r *scannerReader) Output() io.Writer { return r.out }

func (r *scannerReader) Close() error { return nil }
