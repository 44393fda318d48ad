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
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ziggy42/watvm/watvm"
)

// cli carries what every subcommand needs: the loaded configuration and the
// process output streams.
type cli struct {
	config fileConfig
	stdout io.Writer
	stderr io.Writer
}

func (c cli) flagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: watvm %s\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// instantiate loads source and instantiates it, sending printed values to
// out.
func (c cli) instantiate(source string, out io.Writer) (*watvm.Instance, error) {
	program, err := loadProgram(source)
	if err != nil {
		return nil, err
	}
	config := c.config.runtimeConfig()
	config.Stdout = out
	return watvm.NewRuntime().WithConfig(config).InstantiateProgram(program)
}

func (c cli) run(args []string) error {
	fs := c.flagSet("run", "run [-invoke <name>] <file> [args...]")
	invoke := fs.String("invoke", "", "exported function to run (default: the first function)")
	fuel := fs.Uint64("fuel", c.config.Runtime.Fuel, "instruction budget, 0 for unlimited")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errUsage
	}
	c.config.Runtime.Fuel = *fuel

	var params []int32
	for _, raw := range fs.Args()[1:] {
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid i32 argument %q", raw)
		}
		params = append(params, int32(v))
	}

	instance, err := c.instantiate(fs.Arg(0), c.stdout)
	if err != nil {
		return err
	}

	var (
		result int32
		ok     bool
	)
	if *invoke != "" {
		result, ok, err = instance.Invoke(*invoke, params...)
	} else {
		result, ok, err = instance.Call(watvm.LabelIndex(0), params...)
	}
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(c.stdout, result)
	}
	return nil
}

func (c cli) repl(args []string) error {
	fs := c.flagSet("repl", "repl <file>")
	history := fs.String("history", c.config.Repl.History, "history file, empty to disable")
	prompt := fs.String("prompt", c.config.Repl.Prompt, "shell prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	h, err := loadHistory(*history, c.config.Repl.HistoryLimit)
	if err != nil {
		return err
	}
	reader, err := newLineReader(*prompt, h)
	if err != nil {
		return err
	}
	onShutdown(func() { reader.Close() })
	defer reader.Close()

	out := reader.Output()
	instance, err := c.instantiate(fs.Arg(0), out)
	if err != nil {
		return err
	}
	errOut := c.stderr
	if _, raw := reader.(*terminalReader); raw {
		// In raw mode everything goes through the terminal.
		errOut = out
	}
	fmt.Fprintln(out, green(fmt.Sprintf("'%s' instantiated. Type help for commands.", fs.Arg(0))))
	return newRepl(instance, out, errOut).run(reader)
}

func (c cli) compile(args []string) error {
	fs := c.flagSet("compile", "compile [-o <out.wvm>] <file>")
	output := fs.String("o", "", "output path (default: <file> with a .wvm extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	source := fs.Arg(0)
	if isCompiled(source) {
		return fmt.Errorf("%s is already compiled", source)
	}

	program, err := loadProgram(source)
	if err != nil {
		return err
	}
	data, err := watvm.EncodeProgram(program)
	if err != nil {
		return err
	}
	path := *output
	if path == "" {
		path = compiledPath(source)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cliLog.Infof("wrote %s (%d bytes)", path, len(data))
	return nil
}

func (c cli) inspect(args []string) error {
	fs := c.flagSet("inspect", "inspect <file>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	program, err := loadProgram(fs.Arg(0))
	if err != nil {
		return err
	}
	return watvm.DumpYAML(c.stdout, program)
}
