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

// Package permissions normalises the modes of directories the application writes at runtime.
package permissions

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Rule sets Mode on Dir and everything below it. Dir is relative to the application root.
type Rule struct {
	Dir  string
	Mode os.FileMode
}

// Policy is an ordered list of rules.
type Policy []Rule

// Default is the policy for a Laravel application.
var Default = Policy{
	{Dir: "storage", Mode: 0775},
	{Dir: filepath.Join("bootstrap", "cache"), Mode: 0775},
}

// Apply creates every missing directory of p under root and then chmods it recursively.
// Every rule is attempted; the failures are returned joined.
func (p Policy) Apply(root string) error {
	var errs []error
	for _, r := range p {
		if err := r.apply(root); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r Rule) apply(root string) error {
	dir := filepath.Join(root, r.Dir)
	if err := os.MkdirAll(dir, r.Mode); err != nil {
		return fmt.Errorf("creating %s: %w", r.Dir, err)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if err := os.Chmod(path, r.Mode); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
		return nil
	})
}

// Script renders p as shell commands run from the application root. A failing rule prints a
// warning and does not stop a script running under set -e.
func (p Policy) Script() string {
	var b strings.Builder
	for _, r := range p {
		fmt.Fprintf(&b, "mkdir -p %[1]s && chmod -R %[2]o %[1]s || echo \"Warning: unable to set permissions on %[1]s, continuing\" >&2\n", r.Dir, r.Mode.Perm())
	}
	return b.String()
}
