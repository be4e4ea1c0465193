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

// Package mockprocess provides testing utilities to mock out exec.Cmd
// shell commands with a mock process.
//
// The mock process is the running test binary itself. Packages using it must call MaybeRun
// from TestMain:
//
//	func TestMain(m *testing.M) {
//		mockprocess.MaybeRun()
//		os.Exit(m.Run())
//	}
package mockprocess

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/laravelshim/buildpacks/internal/mockprocess/mockprocessutil"
)

// envHelperMockProcess marks a re-executed test binary as a mock process.
const envHelperMockProcess = "HELPER_MOCK_PROCESS"

// Mock associates a mock process with a command.
type Mock struct {
	commandRegex  string
	processConfig *mockprocessutil.MockProcessConfig
}

// New mocks the behavior of a shell command executed by a
// ctx.Exec call. `commandRegex` is the command to mock; the regex must match
// the full command that would have been executed, though it
// does not have to be the beginning of the command.
//
// All commands executed through ctx.Exec have stdout and stderr redirected
// to the return parameters of ctx.Exec.
func New(commandRegex string, opts ...Option) *Mock {
	mp := &mockprocessutil.MockProcessConfig{}
	for _, o := range opts {
		o(mp)
	}
	return &Mock{
		commandRegex:  commandRegex,
		processConfig: mp,
	}
}

// Option are options that configure the behavior of the mock command
// that replaces ctx.Exec calls.
type Option func(*mockprocessutil.MockProcessConfig)

// WithStdout configures what a mocked command prints to stdout.
func WithStdout(msg string) Option {
	return func(mp *mockprocessutil.MockProcessConfig) {
		mp.Stdout = msg
	}
}

// WithStderr configures what a mocked command prints to stderr.
func WithStderr(msg string) Option {
	return func(mp *mockprocessutil.MockProcessConfig) {
		mp.Stderr = msg
	}
}

// WithExitCode configures what a mocked command uses as the exit code.
func WithExitCode(code int) Option {
	return func(mp *mockprocessutil.MockProcessConfig) {
		mp.ExitCode = code
	}
}

// WithFile makes the mocked command write a file, relative to its working directory.
func WithFile(path, content string) Option {
	return func(mp *mockprocessutil.MockProcessConfig) {
		if mp.Files == nil {
			mp.Files = map[string]string{}
		}
		mp.Files[path] = content
	}
}

// MaybeRun turns the current process into the mock process if it was started by an exec
// function from NewExecCmd. It never returns in that case.
func MaybeRun() {
	if os.Getenv(envHelperMockProcess) != "1" {
		return
	}
	os.Exit(mockprocessutil.Serve(os.Getenv(mockprocessutil.EnvHelperMockProcessMap), os.Args[1:], os.Stdout, os.Stderr))
}

// NewExecCmd constructs an command executor that can replace standard exec.Cmd
// calls with custom behavior for testing. It takes a series of mock commands
// created with mockprocess.New().
func NewExecCmd(mocks ...*Mock) (func(name string, args ...string) *exec.Cmd, error) {
	return NewRecordingExecCmd("", mocks...)
}

// NewRecordingExecCmd is NewExecCmd that also appends every command line to logPath, for
// reading back with Invocations.
func NewRecordingExecCmd(logPath string, mocks ...*Mock) (func(name string, args ...string) *exec.Cmd, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("unable to locate test binary: %w", err)
	}

	var processes []mockprocessutil.MockProcess
	for _, mock := range mocks {
		processes = append(processes, mockprocessutil.MockProcess{CommandRegex: mock.commandRegex, Config: mock.processConfig})
	}
	b, err := json.Marshal(processes)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal mock processes to JSON: %v", err)
	}

	return func(name string, args ...string) *exec.Cmd {
		cmd := exec.Command(self, append([]string{name}, args...)...)
		cmd.Env = append(os.Environ(),
			envHelperMockProcess+"=1",
			fmt.Sprintf("%s=%s", mockprocessutil.EnvHelperMockProcessMap, string(b)),
			fmt.Sprintf("%s=%s", mockprocessutil.EnvHelperMockProcessLog, logPath))
		return cmd
	}, nil
}

// Invocations returns the command lines recorded in logPath, in order.
func Invocations(logPath string) ([]string, error) {
	f, err := os.Open(logPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		if line := strings.TrimSpace(s.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, s.Err()
}

// NewLookPath returns a LookPath replacement that finds exactly the given commands.
func NewLookPath(available ...string) func(file string) (string, error) {
	found := map[string]bool{}
	for _, a := range available {
		found[a] = true
	}
	return func(file string) (string, error) {
		if found[file] {
			return "/usr/bin/" + file, nil
		}
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
}
