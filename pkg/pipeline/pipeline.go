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

// Package pipeline runs build steps in order. Each step reports Success, Skipped or Fatal;
// only Fatal stops the run.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/builderoutput"
	"github.com/laravelshim/buildpacks/pkg/buildpack"
	"github.com/laravelshim/buildpacks/pkg/config"
)

// Kind tags a Result.
type Kind int

const (
	// Success means the step did its work.
	Success Kind = iota
	// Skipped means the step did not apply or degraded; the run continues.
	Skipped
	// Fatal means the run must stop.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Success:
		return builderoutput.OutcomeSuccess
	case Skipped:
		return builderoutput.OutcomeSkipped
	case Fatal:
		return builderoutput.OutcomeFatal
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Result is the outcome of a step.
type Result struct {
	Kind   Kind
	Reason string
	Err    error
	// quiet skips are expected, so they are logged but not raised as warnings.
	quiet bool
}

// Done reports success.
func Done() Result {
	return Result{Kind: Success}
}

// Skip reports a degraded step, raised as a warning.
func Skip(format string, args ...any) Result {
	return Result{Kind: Skipped, Reason: fmt.Sprintf(format, args...)}
}

// SkipQuietly reports a step that does not apply, logged without a warning.
func SkipQuietly(format string, args ...any) Result {
	return Result{Kind: Skipped, Reason: fmt.Sprintf(format, args...), quiet: true}
}

// Fail reports a fatal error.
func Fail(err error) Result {
	return Result{Kind: Fatal, Err: err}
}

// Step is a named unit of work.
type Step struct {
	Name string
	Run  func(ctx *buildpack.Context, cfg config.Config) Result
}

// Run executes steps in order and returns the error of the first Fatal step, tagged with the
// step name. Every outcome is recorded on ctx.
func Run(ctx *buildpack.Context, cfg config.Config, steps []Step) error {
	for _, s := range steps {
		ctx.Headerf("%s", s.Name)
		start := time.Now()
		r := s.Run(ctx, cfg)
		switch r.Kind {
		case Success:
			ctx.RecordStep(s.Name, r.Kind.String(), "", time.Since(start))
		case Skipped:
			if r.quiet {
				ctx.Logf("Skipping: %s", r.Reason)
			} else {
				ctx.Warnf("%s: %s", s.Name, r.Reason)
			}
			ctx.RecordStep(s.Name, r.Kind.String(), r.Reason, time.Since(start))
		case Fatal:
			be := asBuilderError(r.Err).InStep(s.Name)
			ctx.RecordStep(s.Name, r.Kind.String(), be.Message, time.Since(start))
			return be
		default:
			return buildererror.InternalErrorf("step %s returned unknown result %v", s.Name, r.Kind)
		}
	}
	return nil
}

func asBuilderError(err error) *buildererror.Error {
	if err == nil {
		return buildererror.InternalErrorf("step failed without an error")
	}
	var be *buildererror.Error
	if errors.As(err, &be) {
		return be
	}
	return buildererror.InternalErrorf("%v", err)
}
