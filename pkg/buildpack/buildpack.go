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

// Package buildpack is a framework for implementing buildpacks that run both under the Cloud
// Native Buildpacks lifecycle (https://buildpacks.io/) and the legacy bin/compile interface.
package buildpack

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/buildpacks/libcnb/v2"
	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/builderoutput"
	"github.com/laravelshim/buildpacks/pkg/env"
	"github.com/rs/xid"
)

const (
	// WebProcess is the name of the process that serves HTTP traffic.
	WebProcess = "web"

	headerPrefix = "-----> "
	// errorPrefix marks fatal messages; platforms surface lines carrying it to the user.
	errorPrefix = " !     "
)

var (
	logger = log.New(os.Stderr, "", 0)

	// InternalErrorf constructs an Error with status StatusInternal (buildpack-attributed).
	InternalErrorf = buildererror.InternalErrorf
	// UserErrorf constructs an Error with status StatusUnknown (user-attributed).
	UserErrorf = buildererror.UserErrorf
)

// DetectFn is the callback signature for detect.
type DetectFn func(*Context) (DetectResult, error)

// BuildFn is the callback signature for build and compile.
type BuildFn func(*Context) error

type stats struct {
	user time.Duration
}

// Context provides contextually aware functions for buildpack authors.
type Context struct {
	info            libcnb.BuildpackInfo
	logger          *log.Logger
	applicationRoot string
	buildpackRoot   string
	platformRoot    string
	envDir          string
	cacheDir        string
	legacy          bool
	debug           bool
	buildID         string
	buildContext    libcnb.BuildContext
	buildResult     libcnb.BuildResult
	layers          []*libcnb.Layer
	steps           []builderoutput.StepStat
	warnings        []string
	execCmd         func(name string, args ...string) *exec.Cmd
	lookPath        func(file string) (string, error)
	exiter          Exiter
	stats           stats
}

// ContextOption configures NewContext functions.
type ContextOption func(ctx *Context)

// WithApplicationRoot sets the application root in a context.
func WithApplicationRoot(root string) ContextOption {
	return func(ctx *Context) {
		ctx.applicationRoot = root
	}
}

// WithBuildpackRoot sets the buildpack root in a context.
func WithBuildpackRoot(root string) ContextOption {
	return func(ctx *Context) {
		ctx.buildpackRoot = root
	}
}

// WithBuildpackInfo sets the buildpack info in a context.
func WithBuildpackInfo(info libcnb.BuildpackInfo) ContextOption {
	return func(ctx *Context) {
		ctx.info = info
	}
}

// WithPlatformRoot sets the CNB platform directory; its env/ subdirectory becomes the env dir.
func WithPlatformRoot(root string) ContextOption {
	return func(ctx *Context) {
		ctx.platformRoot = root
		if root != "" {
			ctx.envDir = filepath.Join(root, "env")
		}
	}
}

// WithEnvDir sets the directory of one-file-per-variable environment declarations.
func WithEnvDir(dir string) ContextOption {
	return func(ctx *Context) {
		ctx.envDir = dir
	}
}

// WithCacheDir sets the legacy cache directory.
func WithCacheDir(dir string) ContextOption {
	return func(ctx *Context) {
		ctx.cacheDir = dir
	}
}

// WithLegacy marks the context as running under the legacy bin/compile interface.
func WithLegacy() ContextOption {
	return func(ctx *Context) {
		ctx.legacy = true
	}
}

// WithBuildContext sets the libcnb build context and everything derived from it.
func WithBuildContext(bctx libcnb.BuildContext) ContextOption {
	return func(ctx *Context) {
		ctx.buildContext = bctx
		ctx.info = bctx.Buildpack.Info
		if bctx.ApplicationPath != "" {
			ctx.applicationRoot = bctx.ApplicationPath
		}
		if bctx.Buildpack.Path != "" {
			ctx.buildpackRoot = bctx.Buildpack.Path
		}
		WithPlatformRoot(bctx.Platform.Path)(ctx)
	}
}

// WithLogger overrides the logger used by the context.
func WithLogger(l *log.Logger) ContextOption {
	return func(ctx *Context) {
		ctx.logger = l
	}
}

// WithExecCmd replaces exec.Command for commands run through ctx.Exec.
func WithExecCmd(execCmd func(name string, args ...string) *exec.Cmd) ContextOption {
	return func(ctx *Context) {
		ctx.execCmd = execCmd
	}
}

// WithLookPath replaces exec.LookPath for ctx.HasCommand.
func WithLookPath(lookPath func(file string) (string, error)) ContextOption {
	return func(ctx *Context) {
		ctx.lookPath = lookPath
	}
}

// WithExiter replaces the default process exiter.
func WithExiter(e Exiter) ContextOption {
	return func(ctx *Context) {
		ctx.exiter = e
	}
}

// NewContext creates a context.
func NewContext(opts ...ContextOption) *Context {
	debug, err := env.IsDebugMode()
	if err != nil {
		logger.Printf("Warning: failed to parse debug mode: %v", err)
	}
	ctx := &Context{
		debug:    debug,
		logger:   logger,
		buildID:  xid.New().String(),
		execCmd:  exec.Command,
		lookPath: exec.LookPath,
	}
	ctx.exiter = defaultExiter{ctx: ctx}
	for _, o := range opts {
		o(ctx)
	}
	if ctx.applicationRoot == "" {
		if wd, err := os.Getwd(); err == nil {
			ctx.applicationRoot = wd
		}
	}
	return ctx
}

// BuildpackID returns the buildpack id.
func (ctx *Context) BuildpackID() string {
	return ctx.info.ID
}

// BuildpackVersion returns the buildpack version.
func (ctx *Context) BuildpackVersion() string {
	return ctx.info.Version
}

// BuildpackName returns the buildpack name.
func (ctx *Context) BuildpackName() string {
	return ctx.info.Name
}

// ApplicationRoot returns the root folder of the application code.
func (ctx *Context) ApplicationRoot() string {
	return ctx.applicationRoot
}

// BuildpackRoot returns the root folder of the buildpack.
func (ctx *Context) BuildpackRoot() string {
	return ctx.buildpackRoot
}

// EnvDir returns the env-dir of the current invocation, empty if the platform provided none.
func (ctx *Context) EnvDir() string {
	return ctx.envDir
}

// IsLegacy reports whether the build runs under bin/compile.
func (ctx *Context) IsLegacy() bool {
	return ctx.legacy
}

// BuildID returns a unique id for this invocation.
func (ctx *Context) BuildID() string {
	return ctx.buildID
}

// Debug reports whether debug logging is enabled.
func (ctx *Context) Debug() bool {
	return ctx.debug
}

// Main is the main entrypoint to a buildpack's detect, build and compile functions.
func Main(d DetectFn, b BuildFn) {
	switch filepath.Base(os.Args[0]) {
	case "detect":
		detect(d)
	case "build":
		build(b)
	case "compile":
		compile(os.Args, b)
	default:
		logger.Print("Unknown command, expected 'detect', 'build' or 'compile'.")
		os.Exit(1)
	}
}

func detect(detectFn DetectFn) {
	libcnb.Detect(func(ldctx libcnb.DetectContext) (libcnb.DetectResult, error) {
		ctx := NewContext(
			WithApplicationRoot(ldctx.ApplicationPath),
			WithBuildpackRoot(ldctx.Buildpack.Path),
			WithBuildpackInfo(ldctx.Buildpack.Info),
			WithPlatformRoot(ldctx.Platform.Path))
		result, err := detectFn(ctx)
		if err != nil {
			ctx.Exit(1, fmt.Errorf("failed to run /bin/detect: %w", err))
		}
		ctx.Logf("%s", result.Reason())
		return result.Result(), nil
	}, libcnb.NewConfig())
}

func build(buildFn BuildFn) {
	libcnb.Build(func(bctx libcnb.BuildContext) (libcnb.BuildResult, error) {
		ctx := NewContext(WithBuildContext(bctx))
		return ctx.runBuild(buildFn), nil
	}, libcnb.NewConfig())
}

// Banner is the line that opens the build log.
func (ctx *Context) Banner() string {
	id := ctx.BuildpackID() + "@" + ctx.BuildpackVersion()
	if ctx.BuildpackName() == "" {
		return fmt.Sprintf("=== %s ===", id)
	}
	return fmt.Sprintf("=== %s (%s) ===", ctx.BuildpackName(), id)
}

func (ctx *Context) runBuild(buildFn BuildFn) libcnb.BuildResult {
	start := time.Now()
	ctx.Logf("%s", ctx.Banner())
	if err := buildFn(ctx); err != nil {
		ctx.Exit(1, err)
		return libcnb.BuildResult{}
	}
	for _, l := range ctx.layers {
		ctx.buildResult.Layers = append(ctx.buildResult.Layers, *l)
	}
	ctx.saveSuccessOutput(time.Since(start))
	return ctx.buildResult
}

// Exit causes the buildpack to exit with the given exit code and error.
func (ctx *Context) Exit(exitCode int, err error) {
	ctx.exiter.Exit(exitCode, err)
}

// Logf emits a structured logging line.
func (ctx *Context) Logf(format string, args ...any) {
	ctx.logger.Printf(format, args...)
}

// Headerf emits a status line marking the start of a build step.
func (ctx *Context) Headerf(format string, args ...any) {
	ctx.Logf(headerPrefix+format, args...)
}

// Debugf emits a structured logging line if the debug flag is set.
func (ctx *Context) Debugf(format string, args ...any) {
	if !ctx.debug {
		return
	}
	ctx.Logf("DEBUG: "+format, args...)
}

// Warnf emits a warning and records it for the builder output.
func (ctx *Context) Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ctx.warnings = append(ctx.warnings, msg)
	ctx.Logf("Warning: %s", msg)
}

// Warnings returns the warnings emitted so far.
func (ctx *Context) Warnings() []string {
	return ctx.warnings
}

// Tipf emits a hint for the user.
func (ctx *Context) Tipf(format string, args ...any) {
	ctx.Logf(format, args...)
}

type processOption func(p *libcnb.Process)

// AsDefaultProcess marks the process as the one started when no process type is requested.
func AsDefaultProcess() processOption {
	return func(p *libcnb.Process) {
		p.Default = true
	}
}

// AddProcess adds a process, overwriting any previous process of the same type.
func (ctx *Context) AddProcess(name string, cmd []string, opts ...processOption) {
	current := ctx.buildResult.Processes
	ctx.buildResult.Processes = []libcnb.Process{}
	for _, p := range current {
		if p.Type == name {
			ctx.Warnf("overwriting existing %s process %q.", name, p.Command)
			continue
		}
		ctx.buildResult.Processes = append(ctx.buildResult.Processes, p)
	}
	p := libcnb.Process{
		Type:    name,
		Command: cmd,
	}
	for _, o := range opts {
		o(&p)
	}
	ctx.buildResult.Processes = append(ctx.buildResult.Processes, p)
}

// Processes returns the processes added so far.
func (ctx *Context) Processes() []libcnb.Process {
	return ctx.buildResult.Processes
}
