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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/buildpacks/libcnb/v2"
)

const (
	procfileName = "Procfile"
	profileDir   = ".profile.d"
)

type buildpackDescriptor struct {
	API       string               `toml:"api"`
	Buildpack libcnb.BuildpackInfo `toml:"buildpack"`
}

// compile implements the legacy "bin/compile BUILD_DIR CACHE_DIR ENV_DIR" interface.
func compile(args []string, buildFn BuildFn) {
	ctx, err := newLegacyContext(args)
	if err != nil {
		logger.Printf("%s%v", errorPrefix, err)
		os.Exit(1)
	}
	ctx.runLegacy(buildFn)
}

// newLegacyContext moves into the build dir and derives the context from the compile arguments.
// The buildpack root is the parent of the directory holding the executable.
func newLegacyContext(args []string, opts ...ContextOption) (*Context, error) {
	if len(args) < 4 {
		return nil, fmt.Errorf("usage: %s BUILD_DIR CACHE_DIR ENV_DIR", filepath.Base(args[0]))
	}
	bin, err := filepath.Abs(args[0])
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", args[0], err)
	}
	bpRoot := filepath.Dir(filepath.Dir(bin))
	cacheDir, err := filepath.Abs(args[2])
	if err != nil {
		return nil, fmt.Errorf("resolving cache dir %s: %w", args[2], err)
	}
	envDir, err := filepath.Abs(args[3])
	if err != nil {
		return nil, fmt.Errorf("resolving env dir %s: %w", args[3], err)
	}
	if err := os.Chdir(args[1]); err != nil {
		return nil, fmt.Errorf("entering build dir: %w", err)
	}
	appRoot, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving build dir: %w", err)
	}
	info, err := readBuildpackInfo(filepath.Join(bpRoot, "buildpack.toml"))
	if err != nil {
		return nil, err
	}
	all := []ContextOption{
		WithLegacy(),
		WithApplicationRoot(appRoot),
		WithBuildpackRoot(bpRoot),
		WithBuildpackInfo(info),
		WithEnvDir(envDir),
		WithCacheDir(cacheDir),
	}
	return NewContext(append(all, opts...)...), nil
}

// readBuildpackInfo reads the [buildpack] table of buildpack.toml; a missing file yields empty info.
func readBuildpackInfo(path string) (libcnb.BuildpackInfo, error) {
	var d buildpackDescriptor
	if _, err := toml.DecodeFile(path, &d); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return libcnb.BuildpackInfo{}, nil
		}
		return libcnb.BuildpackInfo{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return d.Buildpack, nil
}

func (ctx *Context) runLegacy(buildFn BuildFn) {
	start := time.Now()
	ctx.Logf("%s", ctx.Banner())
	if err := buildFn(ctx); err != nil {
		ctx.Exit(1, err)
		return
	}
	if err := ctx.writeProcfile(); err != nil {
		ctx.Exit(1, err)
		return
	}
	if err := ctx.writeProfileD(); err != nil {
		ctx.Exit(1, err)
		return
	}
	ctx.saveSuccessOutput(time.Since(start))
}

// writeProcfile renders the registered processes into the application Procfile.
func (ctx *Context) writeProcfile() error {
	procs := ctx.Processes()
	if len(procs) == 0 {
		return nil
	}
	var b strings.Builder
	for _, p := range procs {
		fmt.Fprintf(&b, "%s: %s\n", p.Type, procfileCommand(p.Command))
	}
	return ctx.WriteFile(filepath.Join(ctx.ApplicationRoot(), procfileName), []byte(b.String()), 0644)
}

func procfileCommand(cmd []string) string {
	if len(cmd) == 3 && cmd[0] == "bash" && cmd[1] == "-c" {
		return cmd[2]
	}
	return strings.Join(cmd, " ")
}

// writeProfileD exports the launch environment of each layer from .profile.d, which legacy
// platforms source before starting a process.
func (ctx *Context) writeProfileD() error {
	for _, l := range ctx.layers {
		script := profileScript(l.SharedEnvironment, l.LaunchEnvironment)
		if script == "" {
			continue
		}
		path := filepath.Join(ctx.ApplicationRoot(), profileDir, l.Name+".sh")
		if err := ctx.WriteFile(path, []byte(script), 0644); err != nil {
			return err
		}
	}
	return nil
}

func profileScript(envs ...libcnb.Environment) string {
	var lines []string
	for _, e := range envs {
		keys := make([]string, 0, len(e))
		for k := range e {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			name, action, ok := strings.Cut(k, ".")
			if !ok {
				action = "override"
			}
			v := shellQuote(e[k])
			switch action {
			case "default":
				lines = append(lines, fmt.Sprintf("if [ -z \"${%s+x}\" ]; then export %s=%s; fi", name, name, v))
			case "override":
				lines = append(lines, fmt.Sprintf("export %s=%s", name, v))
			}
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
