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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/ziggy42/watvm/watvm"
)

const (
	functionsPrefix = "exports.functions."
	globalsPrefix   = "exports.globals.get"
	memoryPrefix    = "exports.memory.get"
	callCommand     = "exports.functions"
)

var (
	errQuit           = errors.New("quit")
	errUnknownCommand = errors.New("unknown command")
)

// UsageError reports a known command used with malformed arguments.
type UsageError struct{}

func (e *UsageError) Error() string { return "wrong command usage" }

// Command is a shell command. Handler receives the export the command
// targets and the parsed call arguments, when the command takes any.
type Command struct {
	Usage   string
	Handler func(r *repl, target string, args []int32) error
}

func newCommands() map[string]Command {
	return map[string]Command{
		callCommand: {
			Usage:   functionsPrefix + "<name>(<args...>)",
			Handler: (*repl).handleCall,
		},
		globalsPrefix: {
			Usage:   globalsPrefix + "(<name>)",
			Handler: (*repl).handleGlobal,
		},
		memoryPrefix: {
			Usage:   memoryPrefix + "(<name>)",
			Handler: (*repl).handleMemory,
		},
		"exports": {
			Usage:   "exports",
			Handler: (*repl).handleExports,
		},
		"help": {
			Usage:   "help",
			Handler: (*repl).handleHelp,
		},
		"clear": {
			Usage:   "clear",
			Handler: (*repl).handleClear,
		},
		"quit": {
			Usage:   "quit",
			Handler: (*repl).handleQuit,
		},
	}
}

// helpOrder lists commands in the order help prints them.
var helpOrder = []string{
	callCommand, globalsPrefix, memoryPrefix, "exports", "help", "clear", "quit",
}

type repl struct {
	instance *watvm.Instance
	commands map[string]Command
	out      io.Writer
	errOut   io.Writer
}

func newRepl(instance *watvm.Instance, out, errOut io.Writer) *repl {
	return &repl{
		instance: instance,
		commands: newCommands(),
		out:      out,
		errOut:   errOut,
	}
}

// run reads commands until input is exhausted or the user quits.
func (r *repl) run(reader lineReader) error {
	for {
		line, err := reader.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if errors.Is(r.execute(line), errQuit) {
			return nil
		}
	}
}

// execute runs a single line and reports failures on errOut. The returned
// error is only used to signal errQuit to the caller.
func (r *repl) execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	name, target, args, err := parseCommand(line)
	cmd, known := r.commands[name]
	switch {
	case err != nil:
	case !known:
		err = fmt.Errorf("%w: %s", errUnknownCommand, line)
	default:
		err = cmd.Handler(r, target, args)
	}
	var usageErr *UsageError
	switch {
	case err == nil, errors.Is(err, errQuit):
	case errors.As(err, &usageErr):
		fmt.Fprintln(r.errOut, red(fmt.Sprintf("Usage: %s", cmd.Usage)))
	default:
		fmt.Fprintln(r.errOut, red(fmt.Sprintf("Error: %s", err)))
	}
	return err
}

// parseCommand splits a shell line into a command name, the export it
// targets and its integer arguments. Lines without arguments are returned
// as the command name. Arguments are separated by whitespace
// or commas.
func parseCommand(line string) (string, string, []int32, error) {
	switch {
	case strings.HasPrefix(line, functionsPrefix):
		target, raw, ok := splitCall(strings.TrimPrefix(line, functionsPrefix))
		if !ok {
			return callCommand, "", nil, &UsageError{}
		}
		var args []int32
		for _, s := range raw {
			v, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return callCommand, "", nil, fmt.Errorf("invalid i32 argument %q", s)
			}
			args = append(args, int32(v))
		}
		return callCommand, target, args, nil
	case strings.HasPrefix(line, globalsPrefix+"("):
		target, ok := parseGetter(strings.TrimPrefix(line, globalsPrefix))
		if !ok {
			return globalsPrefix, "", nil, &UsageError{}
		}
		return globalsPrefix, target, nil, nil
	case strings.HasPrefix(line, memoryPrefix+"("):
		target, ok := parseGetter(strings.TrimPrefix(line, memoryPrefix))
		if !ok {
			return memoryPrefix, "", nil, &UsageError{}
		}
		return memoryPrefix, target, nil, nil
	case line == "exit":
		return "quit", "", nil, nil
	}

	return line, "", nil, nil
}

// splitCall splits "name(a, b)" into its name and raw arguments.
func splitCall(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	inner := s[open+1 : len(s)-1]
	args := strings.FieldsFunc(inner, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	return strings.TrimSpace(s[:open]), args, true
}

// parseGetter parses "(name)".
func parseGetter(s string) (string, bool) {
	name, args, ok := splitCall(s)
	if !ok || name != "" || len(args) != 1 {
		return "", false
	}
	return args[0], true
}

func (r *repl) handleCall(name string, args []int32) error {
	if name == "" {
		return &UsageError{}
	}
	result, ok, err := r.instance.Invoke(name, args...)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(r.out, green(strconv.Itoa(int(result))))
	} else {
		fmt.Fprintln(r.out, green("(no result)"))
	}
	return nil
}

func (r *repl) handleGlobal(name string, _ []int32) error {
	if name == "" {
		return &UsageError{}
	}
	v, err := r.instance.GetGlobal(name)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, green(strconv.Itoa(int(v))))
	return nil
}

func (r *repl) handleMemory(name string, _ []int32) error {
	if name == "" {
		return &UsageError{}
	}
	memory, err := r.instance.GetMemory(name)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Memory in integers:")
	return memory.Dump(r.out)
}

func (r *repl) handleExports(string, []int32) error {
	for _, export := range r.instance.Exports() {
		fmt.Fprintf(r.out, "  %s %s -> %s\n", export.Kind, export.Name, export.Ref)
	}
	return nil
}

func (r *repl) handleHelp(string, []int32) error {
	fmt.Fprintln(r.out, "Commands:")
	for _, name := range helpOrder {
		fmt.Fprintf(r.out, "  %s\n", r.commands[name].Usage)
	}
	return nil
}

func (r *repl) handleClear(string, []int32) error {
	fmt.Fprint(r.out, clearScreen)
	return nil
}

func (r *repl) handleQuit(string, []int32) error {
	return errQuit
}
