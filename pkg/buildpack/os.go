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

package buildpack

import (
	"os"
	"path/filepath"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
)

// Rename is a pass through for os.Rename(...) and returns any error with proper user / system attribution
func (ctx *Context) Rename(old, new string) error {
	ctx.Debugf("Renaming %q to %q", old, new)
	if err := os.Rename(old, new); err != nil {
		return buildererror.InternalErrorf("renaming %s to %s: %v", old, new, err)
	}
	return nil
}

// MkdirAll is a pass through for os.MkdirAll(...) and returns any error with proper user / system attribution
func (ctx *Context) MkdirAll(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return buildererror.InternalErrorf("creating %s: %v", path, err)
	}
	return nil
}

// RemoveAll is a pass through for os.RemoveAll(...) and returns any error with proper user / system attribution
func (ctx *Context) RemoveAll(elem ...string) error {
	path := filepath.Join(elem...)
	if err := os.RemoveAll(path); err != nil {
		return buildererror.InternalErrorf("removing %s: %v", path, err)
	}
	return nil
}

// WriteFile writes data to the file at path, creating parent directories as needed.
func (ctx *Context) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := ctx.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return buildererror.InternalErrorf("writing %s: %v", path, err)
	}
	// WriteFile leaves the mode of an existing file untouched.
	return ctx.Chmod(path, perm)
}

// ReadFile is a pass through for os.ReadFile(...) and returns any error with proper user / system attribution
func (ctx *Context) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, buildererror.InternalErrorf("reading %s: %v", path, err)
	}
	return data, nil
}

// Chmod is a pass through for os.Chmod(...) and returns any error with proper user / system attribution
func (ctx *Context) Chmod(path string, mode os.FileMode) error {
	if err := os.Chmod(path, mode); err != nil {
		return buildererror.InternalErrorf("chmod %s: %v", path, err)
	}
	return nil
}

// FileExists returns true if a file exists at the path joined by elem
func (ctx *Context) FileExists(elem ...string) (bool, error) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, buildererror.InternalErrorf("stat %q: %v", path, err)
	}
	return true, nil
}

// Setenv is a pass through for os.Setenv(...) and returns any error with proper user / system attribution.
// Values are never logged since they may carry credentials.
func (ctx *Context) Setenv(key, value string) error {
	ctx.Debugf("Setting environment variable %s", key)
	if err := os.Setenv(key, value); err != nil {
		return buildererror.InternalErrorf("setting env var %s: %v", key, err)
	}
	return nil
}
