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

// Package laravel generates the Laravel specific files of the application.
package laravel

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/laravelshim/buildpacks/pkg/fileutil"
	"github.com/laravelshim/buildpacks/pkg/nginx"
	"github.com/laravelshim/buildpacks/pkg/permissions"
)

const (
	// Artisan is the Laravel console entry point at the application root.
	Artisan = "artisan"
	// DatabaseConfigPath is the generated Laravel database configuration.
	DatabaseConfigPath = "config/database.php"
	// StartScript is the launch entrypoint at the application root.
	StartScript = "start.sh"
	// DefaultPort is used by start.sh when the platform sets no PORT.
	DefaultPort = "8080"
)

// StorageDirs are the writable directories Laravel expects under storage/.
var StorageDirs = []string{
	"storage/framework/cache/data",
	"storage/framework/sessions",
	"storage/framework/views",
	"storage/logs",
}

// DatabaseConfig holds the values of config/database.php.
type DatabaseConfig struct {
	// DefaultConnection is used when DB_CONNECTION is unset at runtime.
	DefaultConnection string
}

// StartConfig holds the values of start.sh.
type StartConfig struct {
	Permissions permissions.Policy
	StorageDirs []string
	NginxConf   string
	FPMPrefix   string
	FPMConf     string
	PortToken   string
	DefaultPort string
}

// Files renders config/database.php and start.sh.
func Files(db DatabaseConfig, start StartConfig) ([]fileutil.File, error) {
	if start.StorageDirs == nil {
		start.StorageDirs = StorageDirs
	}
	if start.NginxConf == "" {
		start.NginxConf = nginx.ConfPath
	}
	if start.FPMPrefix == "" {
		start.FPMPrefix = nginx.FPMPrefix
	}
	if start.FPMConf == "" {
		start.FPMConf = nginx.FPMConfPath
	}
	if start.PortToken == "" {
		start.PortToken = nginx.PortToken
	}
	if start.DefaultPort == "" {
		start.DefaultPort = DefaultPort
	}

	dbConf, err := render(DatabaseTemplate, db)
	if err != nil {
		return nil, err
	}
	script, err := render(StartTemplate, start)
	if err != nil {
		return nil, err
	}
	return []fileutil.File{
		{Path: filepath.FromSlash(DatabaseConfigPath), Mode: 0644, Content: dbConf},
		{Path: StartScript, Mode: 0755, Content: script},
	}, nil
}

var funcs = template.FuncMap{
	"join": strings.Join,
	// sedLiteral escapes a token so sed matches it literally.
	"sedLiteral": func(s string) string {
		return strings.NewReplacer(`\`, `\\`, `$`, `\$`, `/`, `\/`, `.`, `\.`, `*`, `\*`, `[`, `\[`, `^`, `\^`).Replace(s)
	},
}

func render(t *template.Template, data any) ([]byte, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", t.Name(), err)
	}
	return b.Bytes(), nil
}
