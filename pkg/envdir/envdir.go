// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package envdir reads environment variables declared in the env-dir convention, where each
// file name is a variable name and the file content is its value.
package envdir

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/laravelshim/buildpacks/pkg/buildpack"
)

var (
	nameRe = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

	// denied variables would change how the build tools themselves run.
	denied = map[string]bool{
		"PATH":         true,
		"GIT_DIR":      true,
		"CPATH":        true,
		"CPPATH":       true,
		"LD_PRELOAD":   true,
		"LIBRARY_PATH": true,
		"LANG":         true,
	}
)

// Denied reports whether the named variable is never imported.
func Denied(name string) bool {
	return denied[name]
}

// Read returns the variables declared in dir. A missing dir yields an empty map.
// Values are the verbatim file contents.
func Read(dir string) (map[string]string, error) {
	vars := map[string]string{}
	if dir == "" {
		return vars, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return vars, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading env dir %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if !nameRe.MatchString(name) || Denied(name) {
			continue
		}
		path := filepath.Join(dir, name)
		// Stat follows symlinks, as used by mounted secrets.
		fi, err := os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		vars[name] = string(content)
	}
	return vars, nil
}

// Import reads dir and exports every variable into the process environment so that child
// processes such as composer and artisan observe them.
func Import(ctx *buildpack.Context, dir string) (map[string]string, error) {
	vars, err := Read(dir)
	if err != nil {
		return nil, err
	}
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		if err := ctx.Setenv(name, vars[name]); err != nil {
			return nil, err
		}
	}
	return vars, nil
}
