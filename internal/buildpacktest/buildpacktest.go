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

// Package buildpacktest contains utilities for testing buildpacks that
// use the `buildpack` package.
package buildpacktest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/buildpacks/libcnb/v2"
	"github.com/laravelshim/buildpacks/internal/buildpacktestenv"
	"github.com/laravelshim/buildpacks/internal/mockprocess"
	"github.com/laravelshim/buildpacks/pkg/buildpack"
	"github.com/laravelshim/buildpacks/pkg/env"
)

type buildpackPhase string

const (
	detectPhase buildpackPhase = "Detect"
	buildPhase  buildpackPhase = "Build"

	// runTestAsHelperProcessEnv is an env variable that signals the current
	// golang test being run is actually a child process of the main golang
	// test process. The child process is used to execute the buildpack phase
	// under test without impacting the main test process. The env value is
	// the buildpackPhase to execute.
	//
	// This is similar to how the exec package tests exec.Command
	// (see https://golang.org/src/os/exec/exec_test.go).
	runTestAsHelperProcessEnv = "RUN_TEST_AS_HELPER_PROCESS"

	// summaryFile is written by the helper process next to buildpack.toml.
	summaryFile = "buildpacktest-summary.json"
)

type config struct {
	buildpackPhase buildpackPhase
	buildFn        buildpack.BuildFn
	detectFn       buildpack.DetectFn
	files          map[string]string
	envs           []string
	envDir         map[string]string
	mockProcesses  []*mockprocess.Mock
	commands       []string
	legacy         bool
}

// summary is what the helper process reports back about a successful phase.
type summary struct {
	Processes []libcnb.Process
	LaunchEnv map[string]libcnb.Environment
}

// Result encapsulates the result of a buildpack phase ran as a child process.
type Result struct {
	// Output is the combined stdout and stderr of executing the build function
	// or detect function in a child process. Debug mode is on for tests, so all
	// ctx.Exec commands are logged.
	//
	// Some extraneous Go test output appears in the Output here due to
	// re-using the main test binary as the entrypoint for the child process.
	Output string
	// ExitCode is the exit code of the child process that ran the buildpack
	// function.
	ExitCode int
	// CodeDir is the application root the phase ran against.
	CodeDir string
	// Processes are the processes registered by a successful build.
	Processes []libcnb.Process
	// LaunchEnv maps each layer created by a successful build to its launch environment.
	LaunchEnv map[string]libcnb.Environment
}

// CommandExecuted returns true if the command was executed using ctx.Exec, otherwise returns false.
func (r *Result) CommandExecuted(command string) bool {
	re := regexp.MustCompile(fmt.Sprintf(`(?s)Running.*%s.*Done`, regexp.QuoteMeta(command)))
	return re.FindString(r.Output) != ""
}

// Option is a type for buildpack test options.
type Option func(cfg *config)

// WithFiles writes the given files into the application root before the phase runs.
func WithFiles(files map[string]string) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithEnvs specifies env vars to set for the buildpack test.
func WithEnvs(envs ...string) Option {
	return func(cfg *config) {
		cfg.envs = append(cfg.envs, envs...)
	}
}

// WithEnvDir writes one file per variable into the platform env dir.
func WithEnvDir(vars map[string]string) Option {
	return func(cfg *config) {
		cfg.envDir = vars
	}
}

// WithExecMocks mocks the behavior of shell commands.
func WithExecMocks(mocks ...*mockprocess.Mock) Option {
	return func(cfg *config) {
		cfg.mockProcesses = append(cfg.mockProcesses, mocks...)
	}
}

// WithCommands sets the commands found on PATH. Without it the real PATH is searched.
func WithCommands(commands ...string) Option {
	return func(cfg *config) {
		cfg.commands = append([]string{}, commands...)
	}
}

// WithLegacy runs the phase the way bin/compile does.
func WithLegacy() Option {
	return func(cfg *config) {
		cfg.legacy = true
	}
}

// TestDetect is a helper for testing a buildpack's implementation of /bin/detect.
// A child process reruns the calling test and runs the detect phase instead.
func TestDetect(t *testing.T, detectFn buildpack.DetectFn, files map[string]string, envs []string, want int) {
	t.Helper()
	result, err := runBuildpackPhaseForTest(t, &config{
		buildpackPhase: detectPhase,
		detectFn:       detectFn,
		files:          files,
		envs:           envs,
	})

	if result.ExitCode != want {
		t.Errorf("unexpected exit status %d, want %d", result.ExitCode, want)
		t.Errorf("\ncombined stdout, stderr: %s", result.Output)
	}

	if err == nil && want != 0 {
		t.Errorf("unexpected exit status 0, want %d", want)
		t.Errorf("\ncombined stdout, stderr: %s", result.Output)
	}
}

// RunBuild is a helper for testing a buildpack's implementation of /bin/build.
// A child process reruns the calling test and runs the build phase instead.
func RunBuild(t *testing.T, buildFn buildpack.BuildFn, opts ...Option) (*Result, error) {
	t.Helper()
	cfg := &config{
		buildpackPhase: buildPhase,
		buildFn:        buildFn,
	}

	for _, o := range opts {
		o(cfg)
	}

	return runBuildpackPhaseForTest(t, cfg)
}

// runBuildpackPhaseForTest runs a buildpack phase as a separate child process.
// A child process is used to keep environment changes and calls to os.Exit()
// in the buildpack away from the test suite itself.
func runBuildpackPhaseForTest(t *testing.T, cfg *config) (*Result, error) {
	t.Helper()
	if phase := os.Getenv(runTestAsHelperProcessEnv); phase != "" {
		runBuildpackPhaseMain(cfg)
		return &Result{}, nil
	}

	temps := buildpacktestenv.SetUpTempDirs(t)
	if err := buildpacktestenv.WriteFiles(temps.CodeDir, cfg.files); err != nil {
		t.Fatal(err)
	}
	if err := buildpacktestenv.WriteFiles(temps.EnvDir(), cfg.envDir); err != nil {
		t.Fatal(err)
	}
	encoded, err := temps.Encode()
	if err != nil {
		t.Fatal(err)
	}

	testBinary, err := os.Executable()
	if err != nil {
		t.Fatalf("locating test binary: %v", err)
	}
	cmd := exec.Command(testBinary, "-test.run="+runPattern(t.Name()))
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%s", runTestAsHelperProcessEnv, cfg.buildpackPhase),
		fmt.Sprintf("%s=%s", buildpacktestenv.EnvTempDirs, encoded))
	cmd.Env = append(cmd.Env, cfg.envs...)

	t.Logf("running command %v", cmd)

	output, err := cmd.CombinedOutput()
	exitCode := 0
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		exitCode = ee.ExitCode()
	}
	result := &Result{
		Output:   string(output),
		ExitCode: exitCode,
		CodeDir:  temps.CodeDir,
	}
	if exitCode == 0 && cfg.buildpackPhase == buildPhase {
		var s summary
		raw, rerr := os.ReadFile(filepath.Join(temps.BuildpackDir, summaryFile))
		if rerr != nil {
			t.Fatalf("reading build summary: %v\n%s", rerr, output)
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			t.Fatalf("decoding build summary: %v", err)
		}
		result.Processes = s.Processes
		result.LaunchEnv = s.LaunchEnv
	}
	return result, err
}

// runPattern anchors every level of a (sub)test name for -test.run.
func runPattern(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = "^" + regexp.QuoteMeta(p) + "$"
	}
	return strings.Join(parts, "/")
}

// runBuildpackPhaseMain runs a buildpack phase. It is the equivalent
// of `func main()` for a helper process. To avoid confusion, it is written
// like the main of a standard Go app, using "log.Fatalf" in place of
// "t.Fatalf".
func runBuildpackPhaseMain(cfg *config) {
	phasePassed, err := runBuildpackPhase(cfg)
	if err != nil {
		log.Fatalf("buildpack error: %v", err)
	}

	if cfg.buildpackPhase == detectPhase && !phasePassed {
		// mimic the libcnb exit code for when /bin/detect runs but does
		// not detect anything.
		os.Exit(100)
	}

	// Do not allow any other Go test validation to continue in the child
	// process.
	os.Exit(0)
}

func runBuildpackPhase(cfg *config) (bool, error) {
	temps, err := buildpacktestenv.DecodeTempDirs(os.Getenv(buildpacktestenv.EnvTempDirs))
	if err != nil {
		return false, err
	}
	opts := []buildpack.ContextOption{
		buildpack.WithApplicationRoot(temps.CodeDir),
		buildpack.WithBuildpackRoot(temps.BuildpackDir),
		buildpack.WithBuildpackInfo(libcnb.BuildpackInfo{ID: "test/laravel", Version: "0.0.1"}),
	}
	if cfg.legacy {
		opts = append(opts,
			buildpack.WithLegacy(),
			buildpack.WithCacheDir(temps.CacheDir),
			buildpack.WithEnvDir(temps.EnvDir()))
	} else {
		opts = append(opts, buildpack.WithBuildContext(libcnb.BuildContext{
			ApplicationPath: temps.CodeDir,
			Buildpack: libcnb.Buildpack{
				Info: libcnb.BuildpackInfo{ID: "test/laravel", Version: "0.0.1"},
				Path: temps.BuildpackDir,
			},
			Layers:   libcnb.Layers{Path: temps.LayersDir},
			Platform: libcnb.Platform{Path: temps.PlatformDir},
		}))
	}

	// Mock out calls to ctx.Exec, if specified
	if len(cfg.mockProcesses) > 0 {
		eCmd, err := mockprocess.NewExecCmd(cfg.mockProcesses...)
		if err != nil {
			return false, fmt.Errorf("creating mock exec command: %v", err)
		}
		opts = append(opts, buildpack.WithExecCmd(eCmd))
	}
	if cfg.commands != nil {
		opts = append(opts, buildpack.WithLookPath(mockprocess.NewLookPath(cfg.commands...)))
	}

	// Logs all ctx.Exec commands to stderr
	os.Setenv(env.DebugMode, "true")
	ctx := buildpack.NewContext(opts...)

	if err := os.Chdir(temps.CodeDir); err != nil {
		return false, fmt.Errorf("changing to code dir %q: %v", temps.CodeDir, err)
	}

	if cfg.buildpackPhase == detectPhase {
		detect, err := cfg.detectFn(ctx)
		if err != nil {
			return false, fmt.Errorf("detect error: %v", err)
		}
		// Mimics the exit code of libcnb library when the detect function
		// succeeds but does not pass detect.
		return detect.Result().Pass, nil
	}

	if err := cfg.buildFn(ctx); err != nil {
		return false, fmt.Errorf("build error: %v", err)
	}
	s := summary{Processes: ctx.Processes(), LaunchEnv: map[string]libcnb.Environment{}}
	for _, l := range ctx.Layers() {
		s.LaunchEnv[l.Name] = l.LaunchEnvironment
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("encoding build summary: %v", err)
	}
	if err := os.WriteFile(filepath.Join(temps.BuildpackDir, summaryFile), raw, 0644); err != nil {
		return false, fmt.Errorf("writing build summary: %v", err)
	}
	return true, nil
}
