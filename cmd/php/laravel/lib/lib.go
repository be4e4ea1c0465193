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

// Package lib implements the detect and build phases of the laravel buildpack.
package lib

import (
	"context"
	"errors"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/builderoutput"
	"github.com/laravelshim/buildpacks/pkg/buildpack"
	"github.com/laravelshim/buildpacks/pkg/config"
	"github.com/laravelshim/buildpacks/pkg/database"
	"github.com/laravelshim/buildpacks/pkg/dotenv"
	"github.com/laravelshim/buildpacks/pkg/entrypoint"
	"github.com/laravelshim/buildpacks/pkg/env"
	"github.com/laravelshim/buildpacks/pkg/envdir"
	"github.com/laravelshim/buildpacks/pkg/fileutil"
	"github.com/laravelshim/buildpacks/pkg/laravel"
	"github.com/laravelshim/buildpacks/pkg/nginx"
	"github.com/laravelshim/buildpacks/pkg/permissions"
	"github.com/laravelshim/buildpacks/pkg/php"
	"github.com/laravelshim/buildpacks/pkg/pipeline"
)

const (
	configureStep = "Reading configuration"
	launchLayer   = "laravel"
)

// DetectFn opts in for PHP applications and for builds that fetch their source remotely.
func DetectFn(ctx *buildpack.Context) (buildpack.DetectResult, error) {
	for _, f := range []string{php.ComposerJSON, laravel.Artisan} {
		ok, err := ctx.FileExists(f)
		if err != nil {
			return nil, err
		}
		if ok {
			return buildpack.OptInFileFound(f), nil
		}
	}
	imported, err := envdir.Read(ctx.EnvDir())
	if err != nil {
		return nil, err
	}
	src := config.New(ctx.ApplicationRoot(), ctx.EnvDir(), imported).Source()
	if src.Repository != "" {
		return buildpack.OptInEnvSet(env.AppRepository, src.Repository), nil
	}
	if src.Archive != "" {
		return buildpack.OptInEnvSet(env.AppSourceArchive, src.Archive), nil
	}
	return buildpack.OptOut("neither composer.json nor artisan found and no remote source configured"), nil
}

// BuildFn imports the platform environment, builds the configuration and runs the steps.
func BuildFn(ctx *buildpack.Context) error {
	return pipeline.Run(ctx, configure(ctx), Steps())
}

// configure never fails: unreadable or invalid settings are reported as warnings.
func configure(ctx *buildpack.Context) config.Config {
	ctx.Headerf("%s", configureStep)
	start := time.Now()
	outcome, reason := builderoutput.OutcomeSuccess, ""

	// Child processes such as composer and artisan must see the platform variables too.
	imported, err := envdir.Import(ctx, ctx.EnvDir())
	if err != nil {
		outcome, reason = builderoutput.OutcomeSkipped, err.Error()
		ctx.Warnf("Ignoring the platform environment: %v", err)
	}
	cfg := config.New(ctx.ApplicationRoot(), ctx.EnvDir(), imported)
	ctx.RecordStep(configureStep, outcome, reason, time.Since(start))

	if names := slices.Sorted(maps.Keys(cfg.Imported())); len(names) > 0 {
		ctx.Debugf("Imported from %s: %s", cfg.EnvDir(), strings.Join(names, ", "))
	}
	for _, w := range cfg.Warnings() {
		ctx.Warnf("%s", w)
	}
	ctx.Logf("Database mode: %s", cfg.DBMode())
	if cfg.HasURL() {
		ctx.Logf("Using %s: %s", env.DatabaseURL, cfg.DB().Redacted())
	}
	return cfg
}

// Steps returns the build steps in execution order.
func Steps() []pipeline.Step {
	return []pipeline.Step{
		{Name: "Checking PHP runtime", Run: checkRuntime},
		{Name: "Fetching application source", Run: fetchSource},
		{Name: "Patching composer.json", Run: patchManifest},
		{Name: "Installing dependencies", Run: installDependencies},
		{Name: "Bootstrapping Laravel environment", Run: bootstrapEnv},
		{Name: "Setting permissions", Run: setPermissions},
		{Name: "Generating configuration", Run: materialize},
		{Name: "Configuring database", Run: configureDatabase},
		{Name: "Configuring launch", Run: configureLaunch},
	}
}

func checkRuntime(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	if !ctx.HasCommand("php") {
		return pipeline.Fail(buildererror.PreconditionErrorf("php was not found on PATH, a PHP runtime must be installed before this buildpack runs"))
	}
	if err := php.CheckVersion(ctx, cfg.AppRoot()); err != nil {
		return pipeline.Skip("unable to check the PHP version: %v", err)
	}
	return pipeline.Done()
}

func fetchSource(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	if !cfg.Source().Configured() {
		return pipeline.SkipQuietly("no remote source configured, building %s", cfg.AppRoot())
	}
	if err := fetchFn(ctx, cfg.Source(), cfg.AppRoot()); err != nil {
		return pipeline.Fail(err)
	}
	return pipeline.Done()
}

func patchManifest(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	err := php.PatchComposerJSON(cfg.AppRoot(), php.RequiredExtensions)
	if errors.Is(err, php.ErrNoManifest) {
		return pipeline.Skip("%s not found, no extensions added", php.ComposerJSON)
	}
	if err != nil {
		return pipeline.Skip("%v", err)
	}
	return pipeline.Done()
}

func installDependencies(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	ok, err := ctx.FileExists(cfg.AppRoot(), php.ComposerJSON)
	if err != nil {
		return pipeline.Skip("%v", err)
	}
	if !ok {
		return pipeline.SkipQuietly("no %s", php.ComposerJSON)
	}
	if !ctx.HasCommand("composer") {
		return pipeline.Skip("composer was not found on PATH, dependencies were not installed")
	}
	if err := php.ComposerInstall(ctx, cfg.AppRoot()); err != nil {
		return pipeline.Skip("composer install failed: %v", err)
	}
	return pipeline.Done()
}

func bootstrapEnv(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	if err := laravel.BootstrapEnv(ctx, cfg.AppRoot()); err != nil {
		return pipeline.Skip("%v", err)
	}
	return pipeline.Done()
}

func setPermissions(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	if err := permissions.Default.Apply(cfg.AppRoot()); err != nil {
		return pipeline.Skip("%v", err)
	}
	return pipeline.Done()
}

// Files returns the generated configuration files for cfg.
func Files(cfg config.Config) ([]fileutil.File, error) {
	web := cfg.Web()
	include := web.NginxInclude
	if include != "" {
		// nginx resolves includes against the directory of nginx.conf.
		include = filepath.Join("..", include)
	}
	files, err := nginx.Files(nginx.Config{
		DocumentRoot:    web.DocumentRoot,
		FrontController: web.FrontController,
		Include:         include,
	}, nginx.DefaultFPMConfig)
	if err != nil {
		return nil, err
	}
	app, err := laravel.Files(
		laravel.DatabaseConfig{DefaultConnection: cfg.DBMode()},
		laravel.StartConfig{Permissions: permissions.Default, DefaultPort: cfg.Port()})
	if err != nil {
		return nil, err
	}
	return append(files, app...), nil
}

func materialize(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	files, err := Files(cfg)
	if err != nil {
		return pipeline.Skip("%v", err)
	}
	var failed []error
	for _, f := range files {
		if err := ctx.WriteFile(filepath.Join(cfg.AppRoot(), f.Path), f.Content, f.Mode); err != nil {
			failed = append(failed, err)
			continue
		}
		ctx.Debugf("Wrote %s", f.Path)
	}
	if len(failed) > 0 {
		return pipeline.Skip("%v", errors.Join(failed...))
	}
	ctx.Logf("Wrote %d configuration files", len(files))
	return pipeline.Done()
}

func configureDatabase(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	switch cfg.DBMode() {
	case config.ModePgsql:
		return configurePgsql(ctx, cfg)
	case config.ModeSqlite:
		return configureSqlite(ctx, cfg)
	}
	return pipeline.SkipQuietly("%s=%s is configured by the application", env.DBConnection, cfg.DBMode())
}

func configurePgsql(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	if cfg.HasURL() {
		if err := dotenv.Merge(filepath.Join(cfg.AppRoot(), dotenv.FileName), cfg.DB().Env()); err != nil {
			return pipeline.Skip("%v", err)
		}
		ctx.Logf("Wrote %s connection settings to %s", env.DatabaseURL, dotenv.FileName)
	}
	if cfg.DBProbe() {
		if err := probeFn(context.Background(), cfg.DB()); err != nil {
			ctx.Warnf("Database is not reachable at build time: %v", err)
		} else {
			ctx.Logf("Database %s is reachable", cfg.DB().Redacted())
		}
	}
	return pipeline.Done()
}

func configureSqlite(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	path, created, err := database.EnsureSQLite(context.Background(), cfg.AppRoot())
	if err != nil {
		return pipeline.Skip("%v", err)
	}
	if created {
		ctx.Logf("Created %s", database.SQLitePath)
	}
	ctx.Debugf("Using sqlite database %s", path)

	envPath := filepath.Join(cfg.AppRoot(), dotenv.FileName)
	vars, err := dotenv.Read(envPath)
	if err != nil {
		return pipeline.Skip("%v", err)
	}
	current := vars[env.DBConnection]
	switch {
	case current == config.ModeSqlite:
	case current != "" && !cfg.DBModeSet():
		// sqlite is only the fallback here; the application chose its own connection.
		ctx.Logf("Keeping %s=%s from %s", env.DBConnection, current, dotenv.FileName)
	default:
		if err := dotenv.Merge(envPath, map[string]string{env.DBConnection: config.ModeSqlite}); err != nil {
			return pipeline.Skip("%v", err)
		}
	}
	return pipeline.Done()
}

func configureLaunch(ctx *buildpack.Context, cfg config.Config) pipeline.Result {
	procs, err := entrypoint.Read(ctx, cfg.AppRoot())
	if err != nil {
		ctx.Warnf("Ignoring %s: %v", entrypoint.Procfile, err)
	}
	for _, p := range procs {
		if p.Name == buildpack.WebProcess {
			ctx.Logf("Replacing the %s process of %s with %s", p.Name, entrypoint.Procfile, laravel.StartScript)
			continue
		}
		ctx.AddProcess(p.Name, []string{"bash", "-c", p.Command})
	}
	ctx.AddProcess(buildpack.WebProcess, []string{"bash", laravel.StartScript}, buildpack.AsDefaultProcess())

	if ctx.IsLegacy() {
		// The build directory is not the runtime location; start.sh resolves APP_DIR itself.
		return pipeline.Done()
	}
	l, err := ctx.Layer(launchLayer, buildpack.LaunchLayer)
	if err != nil {
		return pipeline.Skip("%v", err)
	}
	l.LaunchEnvironment.Default(env.AppDir, cfg.AppRoot())
	return pipeline.Done()
}
