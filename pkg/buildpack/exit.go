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
	"os"
	"strings"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/env"
)

var divider = strings.Repeat("-", 80)

// Exiter is responsible to exit the program appropriately; useful for unit tests.
type Exiter interface {
	Exit(exitCode int, err error)
}

type defaultExiter struct {
	ctx *Context
}

func (e defaultExiter) Exit(exitCode int, err error) {
	if err != nil {
		var be *buildererror.Error
		if !errors.As(err, &be) {
			be = buildererror.InternalErrorf("%s", err.Error())
		}
		e.ctx.saveErrorOutput(be)
		for _, line := range strings.Split(strings.TrimSpace(err.Error()), "\n") {
			e.ctx.Logf("%s%s", errorPrefix, line)
		}
	}

	if exitCode != 0 && exitCode != detectOptOutCode {
		e.ctx.Tipf("%s", divider)
		e.ctx.Tipf("The Laravel bootstrap could not complete.")
		e.ctx.Tipf("Re-run with %s=true for the full command output.", env.DebugMode)
		e.ctx.Tipf("%s", divider)
	}
	os.Exit(exitCode)
}
