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

// Package mockprocessutil provides utils for syncing the mockprocess
// library with the mock process it re-executes.
package mockprocessutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// EnvHelperMockProcessMap is the env var used to communicate the intended
	// behavior of the mock process for various commands. It contains a
	// []MockProcess serialized to JSON.
	EnvHelperMockProcessMap = "HELPER_MOCK_PROCESS_MAP"
	// EnvHelperMockProcessLog names a file each invocation appends its command line to.
	EnvHelperMockProcessLog = "HELPER_MOCK_PROCESS_LOG"
)

// MockProcessConfig encapsulates the behavior of a mock process for test.
type MockProcessConfig struct {
	// Stdout is the message that should be printed to stdout.
	Stdout string
	// Stderr is the message that should be printed to stderr.
	Stderr string
	// ExitCode is the exit code that the process should use.
	ExitCode int
	// Files are written relative to the working directory before exiting.
	Files map[string]string
}

// MockProcess pairs a command regex with the behavior of the process.
type MockProcess struct {
	CommandRegex string
	Config       *MockProcessConfig
}

// UnmarshalMockProcesses is a utility function that unmarshals the mock list from JSON.
func UnmarshalMockProcesses(data string) ([]MockProcess, error) {
	var mocks []MockProcess
	if err := json.Unmarshal([]byte(data), &mocks); err != nil {
		return nil, err
	}
	return mocks, nil
}

// Serve acts as the mocked command described by args and returns the exit code. The first
// mock whose regex matches the full command wins; unmatched commands succeed silently.
func Serve(mocksJSON string, args []string, stdout, stderr io.Writer) int {
	mocks, err := UnmarshalMockProcesses(mocksJSON)
	if err != nil {
		fmt.Fprintf(stderr, "unable to unmarshal mock processes from JSON '%s': %v", mocksJSON, err)
		return 1
	}

	fullCommand := strings.Join(args, " ")
	if logPath := os.Getenv(EnvHelperMockProcessLog); logPath != "" {
		if err := appendLine(logPath, fullCommand); err != nil {
			fmt.Fprintf(stderr, "unable to record invocation: %v", err)
			return 1
		}
	}

	var match *MockProcessConfig
	for _, m := range mocks {
		if regexp.MustCompile(m.CommandRegex).MatchString(fullCommand) {
			match = m.Config
			break
		}
	}
	if match == nil {
		// To avoid needing to mock every call to Exec, assume
		// the process should pass if it wasn't specified by the test.
		return 0
	}

	for path, content := range match.Files {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			fmt.Fprint(stderr, err)
			return 1
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			fmt.Fprint(stderr, err)
			return 1
		}
	}
	if match.Stdout != "" {
		fmt.Fprint(stdout, match.Stdout)
	}
	if match.Stderr != "" {
		fmt.Fprint(stderr, match.Stderr)
	}
	return match.ExitCode
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
