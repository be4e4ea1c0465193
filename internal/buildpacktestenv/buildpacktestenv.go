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

// Package buildpacktestenv contains utilities for setting up environments
// for buildpack tests.
package buildpacktestenv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// EnvTempDirs carries the JSON encoded TempDirs from a test to its helper process.
const EnvTempDirs = "BUILDPACKTEST_TEMP_DIRS"

// TempDirs represents temp directories used for buildpack environment setup.
type TempDirs struct {
	LayersDir    string
	PlatformDir  string
	CodeDir      string
	BuildpackDir string
	CacheDir     string
}

// EnvDir is the env dir inside the platform dir.
func (d TempDirs) EnvDir() string {
	return filepath.Join(d.PlatformDir, "env")
}

// Encode returns d in the form expected by DecodeTempDirs.
func (d TempDirs) Encode() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshalling temp dirs: %w", err)
	}
	return string(b), nil
}

// DecodeTempDirs parses the output of TempDirs.Encode.
func DecodeTempDirs(s string) (TempDirs, error) {
	var d TempDirs
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return TempDirs{}, fmt.Errorf("unmarshalling temp dirs %q: %w", s, err)
	}
	return d, nil
}

// SetUpTempDirs sets up temp directories that mimic the layout of a buildpack build.
func SetUpTempDirs(t *testing.T) TempDirs {
	t.Helper()
	temps := TempDirs{
		LayersDir:    t.TempDir(),
		PlatformDir:  t.TempDir(),
		CodeDir:      t.TempDir(),
		BuildpackDir: t.TempDir(),
		CacheDir:     t.TempDir(),
	}

	buildpackTOML := `
api = "0.10"

[buildpack]
id = "test/laravel"
version = "0.0.1"
name = "Laravel test buildpack"
`
	if err := os.WriteFile(filepath.Join(temps.BuildpackDir, "buildpack.toml"), []byte(buildpackTOML), 0644); err != nil {
		t.Fatalf("writing buildpack.toml: %v", err)
	}
	if err := os.MkdirAll(temps.EnvDir(), 0755); err != nil {
		t.Fatalf("creating env dir: %v", err)
	}
	return temps
}

// WriteFiles writes each name to content under root, creating directories as needed.
func WriteFiles(root string, files map[string]string) error {
	for name, content := range files {
		fn := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
			return fmt.Errorf("creating directory tree %s: %w", filepath.Dir(fn), err)
		}
		if err := os.WriteFile(fn, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing file %s: %w", fn, err)
		}
	}
	return nil
}
