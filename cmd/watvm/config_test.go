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

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watvm.toml")
	data := `
[runtime]
max-call-depth = 64
fuel = 5000

[repl]
prompt = "wat> "

[log]
verbosity = 2
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := loadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if config.Repl.Prompt != "wat> " {
		t.Fatalf("expected prompt %q, got %q", "wat> ", config.Repl.Prompt)
	}
	if config.Repl.History != defaultHistoryFile {
		t.Fatalf("expected default history file, got %q", config.Repl.History)
	}
	if config.Log.Verbosity != 2 {
		t.Fatalf("expected verbosity 2, got %d", config.Log.Verbosity)
	}

	runtime := config.runtimeConfig()
	if runtime.MaxCallStackDepth != 64 {
		t.Fatalf("expected depth 64, got %d", runtime.MaxCallStackDepth)
	}
	if !runtime.EnableFuel || runtime.Fuel != 5000 {
		t.Fatalf("expected fuel 5000, got %v %d", runtime.EnableFuel, runtime.Fuel)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	config, err := loadConfig("")
	if err != nil {
		t.Fatalf("expected missing default config to be fine, got %v", err)
	}
	if config != defaultFileConfig() {
		t.Fatalf("expected defaults, got %+v", config)
	}
	if config.runtimeConfig().EnableFuel {
		t.Fatalf("expected fuel to be off by default")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error for a missing explicit config")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[runtime\nfuel = "), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}
