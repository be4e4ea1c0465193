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

// Package config builds the immutable build configuration from the imported env dir and the
// process environment.
package config

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/laravelshim/buildpacks/pkg/appyaml"
	"github.com/laravelshim/buildpacks/pkg/dburl"
	"github.com/laravelshim/buildpacks/pkg/env"
)

// Database connection modes set up by the build. Any other DB_CONNECTION value is left to the
// application.
const (
	ModePgsql  = "pgsql"
	ModeSqlite = "sqlite"
)

const (
	defaultDocumentRoot    = "public"
	defaultFrontController = "index.php"
)

// Source describes where the application code comes from, if not from the build dir itself.
type Source struct {
	Repository string
	Revision   string
	Archive    string
}

// Configured reports whether any remote source is set.
func (s Source) Configured() bool {
	return s.Repository != "" || s.Archive != ""
}

// Web holds the web server overrides.
type Web struct {
	DocumentRoot    string
	FrontController string
	NginxInclude    string
}

// Config is the build configuration. It is built once and never modified.
type Config struct {
	appRoot  string
	envDir   string
	imported map[string]string
	debug    bool
	source   Source
	dbMode   string
	dbSet    bool
	db       dburl.Connection
	hasURL   bool
	port     string
	dbProbe  bool
	web      Web
	warnings []string
}

// New builds a Config. Values from the env dir take precedence over the process environment;
// surrounding whitespace is trimmed from looked up values. Invalid settings never fail the
// build: they fall back to defaults and are reported by Warnings.
func New(appRoot, envDir string, imported map[string]string) Config {
	c := Config{
		appRoot:  appRoot,
		envDir:   envDir,
		imported: maps.Clone(imported),
	}
	if c.imported == nil {
		c.imported = map[string]string{}
	}

	c.debug = c.flag(env.DebugMode)
	c.dbProbe = c.flag(env.DBProbe)

	c.source = Source{
		Repository: c.Lookup(env.AppRepository),
		Revision:   c.Lookup(env.AppRevision),
		Archive:    c.Lookup(env.AppSourceArchive),
	}
	if c.source.Repository != "" && c.source.Archive != "" {
		c.warnf("both %s and %s are set, ignoring %s", env.AppRepository, env.AppSourceArchive, env.AppSourceArchive)
		c.source.Archive = ""
	}
	c.port = c.Lookup(env.Port)
	if n, err := strconv.Atoi(c.port); c.port != "" && (err != nil || n < 1 || n > 65535) {
		c.warnf("%s=%q is not a valid port, ignoring it", env.Port, c.port)
		c.port = ""
	}

	conn := c.Lookup(env.DBConnection)
	c.dbSet = conn != ""
	if db, ok := dburl.Parse(c.Lookup(env.DatabaseURL)); ok {
		c.db, c.hasURL, c.dbMode = db, true, ModePgsql
	} else {
		c.db = dburl.Connection{
			Host:     c.Lookup(env.DBHost),
			Port:     c.Lookup(env.DBPort),
			Database: c.Lookup(env.DBDatabase),
			Username: c.Lookup(env.DBUsername),
			Password: c.Lookup(env.DBPassword),
		}
		if c.db.Port == "" {
			c.db.Port = dburl.DefaultPort
		}
		c.dbMode = conn
		if c.dbMode == "" {
			c.dbMode = ModeSqlite
		}
	}

	rc, err := appyaml.Load(appRoot)
	if err != nil {
		c.warnf("ignoring %s: %v", appyaml.FileName, err)
	}
	c.web = Web{
		DocumentRoot:    valueOr(rc.DocumentRoot, defaultDocumentRoot),
		FrontController: valueOr(rc.FrontControllerFile, defaultFrontController),
		NginxInclude:    rc.NginxConfInclude,
	}
	return c
}

func (c *Config) flag(name string) bool {
	v, err := env.ParseBool(name, c.Lookup(name))
	if err != nil {
		c.warnf("%v, treating %s as false", err, name)
		return false
	}
	return v
}

func (c *Config) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Lookup returns the trimmed value of name, preferring the env dir over the process
// environment.
func (c Config) Lookup(name string) string {
	if v, ok := c.imported[name]; ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(os.Getenv(name))
}

// AppRoot is the application root.
func (c Config) AppRoot() string { return c.appRoot }

// EnvDir is the env dir the config was imported from.
func (c Config) EnvDir() string { return c.envDir }

// Imported returns a copy of the variables read from the env dir.
func (c Config) Imported() map[string]string { return maps.Clone(c.imported) }

// Debug reports whether BUILDPACK_DEBUG is set.
func (c Config) Debug() bool { return c.debug }

// Source returns the remote source settings.
func (c Config) Source() Source { return c.source }

// DBMode is ModePgsql, ModeSqlite or the unmanaged DB_CONNECTION value.
func (c Config) DBMode() string { return c.dbMode }

// DBModeSet reports whether DB_CONNECTION was set explicitly.
func (c Config) DBModeSet() bool { return c.dbSet }

// Managed reports whether the build sets up the database connection.
func (c Config) Managed() bool { return c.dbMode == ModePgsql || c.dbMode == ModeSqlite }

// DB returns the pgsql connection settings.
func (c Config) DB() dburl.Connection { return c.db }

// HasURL reports whether the connection came from a parsed DATABASE_URL.
func (c Config) HasURL() bool { return c.hasURL }

// Port is the PORT known at build time, usually empty. start.sh falls back to it when the
// runtime sets no PORT.
func (c Config) Port() string { return c.port }

// DBProbe reports whether the pgsql connectivity probe is enabled.
func (c Config) DBProbe() bool { return c.dbProbe }

// Web returns the web server settings.
func (c Config) Web() Web { return c.web }

// Warnings lists the settings that were ignored or replaced by defaults.
func (c Config) Warnings() []string { return slices.Clone(c.warnings) }

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
