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

// Package appyaml reads web server overrides from an application's app.yaml.
package appyaml

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"gopkg.in/yaml.v2"
)

// FileName is the name of the optional descriptor at the application root.
const FileName = "app.yaml"

type appYaml struct {
	RuntimeConfig RuntimeConfig `yaml:"runtime_config"`
}

// RuntimeConfig is the runtime_config block of app.yaml.
type RuntimeConfig struct {
	DocumentRoot        string `yaml:"document_root"`
	FrontControllerFile string `yaml:"front_controller_file"`
	NginxConfInclude    string `yaml:"nginx_conf_include"`
}

// Load returns the runtime_config declared in root/app.yaml, or the zero value if the file does
// not exist.
func Load(root string) (RuntimeConfig, error) {
	path := filepath.Join(root, FileName)
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return RuntimeConfig{}, nil
	}
	if err != nil {
		return RuntimeConfig{}, buildererror.UserErrorf("reading %s: %v", FileName, err)
	}
	var a appYaml
	if err := yaml.Unmarshal(content, &a); err != nil {
		return RuntimeConfig{}, buildererror.UserErrorf("parsing %s: %v", FileName, err)
	}
	rc := a.RuntimeConfig
	for _, p := range []string{rc.DocumentRoot, rc.FrontControllerFile, rc.NginxConfInclude} {
		if !insideRoot(p) {
			return RuntimeConfig{}, buildererror.UserErrorf("%s: path %q must be relative to the application root", FileName, p)
		}
	}
	return rc, nil
}

func insideRoot(p string) bool {
	if p == "" {
		return true
	}
	if filepath.IsAbs(p) {
		return false
	}
	clean := filepath.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}
