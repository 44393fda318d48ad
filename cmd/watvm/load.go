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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziggy42/watvm/watvm"
)

// compiledExt marks files holding an encoded program rather than source.
const compiledExt = ".wvm"

// resolveModule opens source, which is a local path, a file:// URL or an
// http(s) URL.
func resolveModule(source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http", "https":
		return resolveHTTP(u)
	case "file":
		return os.Open(u.Path)
	default:
		// Fallback to os.Open if we don't have a scheme.
		return os.Open(source)
	}
}

func resolveHTTP(u *url.URL) (io.ReadCloser, error) {
	response, err := http.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		response.Body.Close()
		return nil, fmt.Errorf("unexpected http status: %s", response.Status)
	}
	return response.Body, nil
}

// loadProgram reads source and either decodes it, for .wvm files, or
// compiles it.
func loadProgram(source string) (*watvm.Program, error) {
	reader, err := resolveModule(source)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	if isCompiled(source) {
		cliLog.Debugf("decoding compiled program %s", source)
		return watvm.DecodeProgram(data)
	}
	cliLog.Debugf("compiling %s", source)
	return watvm.CompileProgram(data)
}

func isCompiled(source string) bool {
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		source = u.Path
	}
	return strings.EqualFold(filepath.Ext(source), compiledExt)
}

// compiledPath derives the default output path of `watvm compile`.
func compiledPath(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + compiledExt
}
