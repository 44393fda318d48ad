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
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ziggy42/watvm/watvm"
)

const (
	defaultConfigFile  = "watvm.toml"
	defaultHistoryFile = ".repl-history.txt"
	defaultPrompt      = ">>> "
	defaultVerbosity   = -1
)

// fileConfig is the layout of watvm.toml.
type fileConfig struct {
	Runtime runtimeSection `toml:"runtime"`
	Repl    replSection    `toml:"repl"`
	Log     logSection     `toml:"log"`
}

type runtimeSection struct {
	MaxCallDepth int    `toml:"max-call-depth"`
	Fuel         uint64 `toml:"fuel"`
}

type replSection struct {
	History      string `toml:"history"`
	HistoryLimit int    `toml:"history-limit"`
	Prompt       string `toml:"prompt"`
}

type logSection struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Runtime: runtimeSection{
			MaxCallDepth: watvm.DefaultConfig().MaxCallStackDepth,
		},
		Repl: replSection{
			History:      defaultHistoryFile,
			HistoryLimit: defaultHistoryLimit,
			Prompt:       defaultPrompt,
		},
		Log: logSection{Verbosity: defaultVerbosity},
	}
}

// loadConfig reads the TOML config at path. An empty path falls back to
// ./watvm.toml, which may be absent. Keys missing from the file keep their
// defaults.
func loadConfig(path string) (fileConfig, error) {
	config := defaultFileConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return config, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

// runtimeConfig converts the runtime section into an engine Config. A fuel
// of zero leaves fuel metering off.
func (c fileConfig) runtimeConfig() watvm.Config {
	config := watvm.DefaultConfig()
	if c.Runtime.MaxCallDepth > 0 {
		config.MaxCallStackDepth = c.Runtime.MaxCallDepth
	}
	if c.Runtime.Fuel > 0 {
		config.EnableFuel = true
		config.Fuel = c.Runtime.Fuel
	}
	return config
}
