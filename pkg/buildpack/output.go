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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/builderoutput"
	"github.com/laravelshim/buildpacks/pkg/env"
)

const builderOutputFilename = "output"

var maxMessageBytes = 3000

// MessageProducer is a function that produces a useful message from the result.
type MessageProducer func(result *ExecResult) string

// KeepCombinedTail returns the tail of the combined stdout/stderr from the result.
var KeepCombinedTail = func(result *ExecResult) string { return keepTail(result.Combined) }

// KeepStderrTail returns the tail of stderr from the result.
var KeepStderrTail = func(result *ExecResult) string { return keepTail(result.Stderr) }

// KeepStdoutTail returns the tail of stdout from the result.
var KeepStdoutTail = func(result *ExecResult) string { return keepTail(result.Stdout) }

// RecordStep stores the outcome of a bootstrap step for the builder output.
func (ctx *Context) RecordStep(name, outcome, reason string, d time.Duration) {
	ctx.steps = append(ctx.steps, builderoutput.StepStat{
		Name:       name,
		Outcome:    outcome,
		Reason:     reason,
		DurationMs: d.Milliseconds(),
	})
}

// Steps returns the recorded step outcomes.
func (ctx *Context) Steps() []builderoutput.StepStat {
	return ctx.steps
}

// saveErrorOutput saves to the builder output file, if appropriate.
func (ctx *Context) saveErrorOutput(be *buildererror.Error) {
	if os.Getenv(env.BuilderOutput) == "" {
		return
	}
	c := *be
	c.Message = keepTail(c.Message)
	c.BuildpackID, c.BuildpackVersion = ctx.BuildpackID(), ctx.BuildpackVersion()
	bo := ctx.builderOutput()
	bo.Error = c
	ctx.writeBuilderOutput(bo)
}

// saveSuccessOutput saves information from the context into BUILDER_OUTPUT.
func (ctx *Context) saveSuccessOutput(duration time.Duration) {
	if os.Getenv(env.BuilderOutput) == "" {
		return
	}
	bo := ctx.builderOutput()
	bo.Stats = append(bo.Stats, builderoutput.BuilderStat{
		BuildpackID:      ctx.BuildpackID(),
		BuildpackVersion: ctx.BuildpackVersion(),
		DurationMs:       duration.Milliseconds(),
		UserDurationMs:   ctx.stats.user.Milliseconds(),
	})
	ctx.writeBuilderOutput(bo)
}

func (ctx *Context) builderOutput() builderoutput.BuilderOutput {
	return builderoutput.BuilderOutput{
		BuildID:  ctx.buildID,
		Steps:    ctx.steps,
		Warnings: ctx.warnings,
	}
}

func (ctx *Context) writeBuilderOutput(bo builderoutput.BuilderOutput) {
	outputDir := os.Getenv(env.BuilderOutput)
	data, err := bo.JSON()
	if err != nil {
		ctx.Logf("Warning: failed to marshal builder output: %v", err)
		return
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		ctx.Logf("Warning: failed to create dir %s, skipping builder output: %v", outputDir, err)
		return
	}

	// Write to a temp file, then rename, so readers never see a partial file.
	tname := filepath.Join(outputDir, fmt.Sprintf("%s-%s", builderOutputFilename, ctx.buildID))
	if err := os.WriteFile(tname, data, 0644); err != nil {
		ctx.Logf("Warning: failed to write %s, skipping builder output: %v", tname, err)
		return
	}
	fname := filepath.Join(outputDir, builderOutputFilename)
	if err := os.Rename(tname, fname); err != nil {
		ctx.Logf("Warning: failed to move %s to %s: %v", tname, fname, err)
	}
}

func keepTail(message string) string {
	message = strings.TrimSpace(message)
	if len(message) <= maxMessageBytes {
		return message
	}
	return "..." + message[len(message)-maxMessageBytes+3:]
}
