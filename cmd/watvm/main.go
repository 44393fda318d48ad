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

// Command watvm compiles and runs WebAssembly text modules.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var cliLog = commonlog.GetLogger("watvm.cli")

const usageText = `Usage: watvm [options] <command> [arguments]

Commands:
  run [-invoke <name>] <file> [args...]   run a function and print its result
  repl <file>                             start an interactive shell
  compile [-o <out.wvm>] <file>           write the compiled program
  inspect <file>                          print the compiled program as YAML

<file> is a .wat source, a .wvm compiled program or an http(s) URL.

Options:
`

var errUsage = errors.New("invalid usage")

// verbosity is a repeatable boolean flag: every -v raises the log level.
type verbosity struct {
	level int
	set   bool
}

func (v *verbosity) String() string { return strconv.Itoa(v.level) }

func (v *verbosity) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		if !v.set {
			v.level = 0
		}
		v.level++
		v.set = true
	}
	return nil
}

func (v *verbosity) IsBoolFlag() bool { return true }

// shutdownHooks run on SIGINT/SIGTERM before the process exits.
var shutdownHooks struct {
	sync.Mutex
	hooks []func()
}

func onShutdown(hook func()) {
	shutdownHooks.Lock()
	defer shutdownHooks.Unlock()
	shutdownHooks.hooks = append(shutdownHooks.hooks, hook)
}

func handleSignals() {
	c := make(chan os.Signal, 1)
	notifyShutdown(c)
	go func() {
		sig := <-c
		cliLog.Infof("received %s, exiting", sig)
		shutdownHooks.Lock()
		for _, hook := range shutdownHooks.hooks {
			hook()
		}
		shutdownHooks.Unlock()
		fmt.Println("\nBye!")
		os.Exit(0)
	}()
}

func main() {
	enableVirtualTerminal()
	handleSignals()
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

// runMain parses the global options and dispatches to a subcommand. It
// returns the process exit code.
func runMain(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("watvm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a TOML config file (default ./watvm.toml)")
	logFile := fs.String("log-file", "", "write logs to this file instead of stderr")
	verbose := &verbosity{}
	fs.Var(verbose, "v", "increase log verbosity (repeatable)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, red(fmt.Sprintf("Error: %s", err)))
		return 1
	}
	if verbose.set {
		config.Log.Verbosity = verbose.level
	}
	if *logFile != "" {
		config.Log.File = *logFile
	}
	configureLogging(config.Log)

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	var run func(cli, []string) error
	switch fs.Arg(0) {
	case "run":
		run = cli.run
	case "repl":
		run = cli.repl
	case "compile":
		run = cli.compile
	case "inspect":
		run = cli.inspect
	case "help":
		fs.Usage()
		return 0
	default:
		fmt.Fprintln(stderr, red(fmt.Sprintf("Error: unknown command: %s", fs.Arg(0))))
		fs.Usage()
		return 2
	}

	c := cli{config: config, stdout: stdout, stderr: stderr}
	if err := run(c, fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(stderr, red(fmt.Sprintf("Error: %s", err)))
		return 1
	}
	return 0
}

func configureLogging(config logSection) {
	var path *string
	if config.File != "" {
		path = &config.File
	}
	commonlog.Configure(config.Verbosity, path)
}
