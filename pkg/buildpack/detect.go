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
	"fmt"

	"github.com/buildpacks/libcnb/v2"
)

// detectOptOutCode is the exit code the legacy interface uses for "not applicable".
const detectOptOutCode = 100

// DetectResult is the outcome of the detect phase and the reason logged for it.
type DetectResult interface {
	Result() libcnb.DetectResult
	Reason() string
}

type detectResult struct {
	pass   bool
	reason string
}

func (d detectResult) Result() libcnb.DetectResult {
	return libcnb.DetectResult{Pass: d.pass}
}

func (d detectResult) Reason() string {
	return d.reason
}

// OptIn opts in to the build.
func OptIn(reason string) DetectResult {
	return detectResult{pass: true, reason: "Opting in: " + reason}
}

// OptInFileFound opts in because file exists.
func OptInFileFound(file string) DetectResult {
	return OptIn("found " + file)
}

// OptInEnvSet opts in because the platform set name to value.
func OptInEnvSet(name, value string) DetectResult {
	return OptIn(fmt.Sprintf("%s set to %q", name, value))
}

// OptOut opts out of the build.
func OptOut(reason string) DetectResult {
	return detectResult{reason: "Opting out: " + reason}
}
