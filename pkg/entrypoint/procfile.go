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

// Package entrypoint reads the process declarations of an application Procfile.
package entrypoint

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/buildpack"
)

// Procfile is the name of the process declaration file.
const Procfile = "Procfile"

var processRe = regexp.MustCompile(`(?m)^([A-Za-z0-9_-]+):\s*(.+)$`)

// Process is a single Procfile entry.
type Process struct {
	Name    string
	Command string
}

// Parse returns the processes declared in content, in file order.
// Only the first declaration of a name is kept.
func Parse(ctx *buildpack.Context, content string) ([]Process, error) {
	matches := processRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, buildererror.UserErrorf("did not find any processes in %s", Procfile)
	}

	var processes []Process
	seen := map[string]bool{}
	for _, match := range matches {
		name, command := match[1], strings.TrimSpace(match[2])
		if seen[name] {
			ctx.Warnf("Skipping duplicate %s process: %s", name, command)
			continue
		}
		seen[name] = true
		processes = append(processes, Process{Name: name, Command: command})
	}
	return processes, nil
}

// Read parses dir/Procfile. A missing Procfile yields no processes.
func Read(ctx *buildpack.Context, dir string) ([]Process, error) {
	content, err := os.ReadFile(filepath.Join(dir, Procfile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, buildererror.InternalErrorf("reading %s: %v", Procfile, err)
	}
	return Parse(ctx, string(content))
}
