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
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
)

// ExecResult bundles exec results.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Combined string
}

type execParams struct {
	cmd         []string
	userFailure bool
	userTiming  bool
	dir         string
	env         []string
	mp          MessageProducer
}

// ExecOption configures Exec.
type ExecOption func(o *execParams)

// WithMessageProducer sets a custom MessageProducer to produce the error message.
func WithMessageProducer(mp MessageProducer) ExecOption {
	return func(o *execParams) {
		o.mp = mp
	}
}

// WithEnv sets environment variables (of the form "KEY=value").
func WithEnv(env ...string) ExecOption {
	return func(o *execParams) {
		o.env = env
	}
}

// WithWorkDir sets a specific working directory.
func WithWorkDir(dir string) ExecOption {
	return func(o *execParams) {
		o.dir = dir
	}
}

// WithUserAttribution indicates that failure and timing both are attributed to the user.
var WithUserAttribution = func(o *execParams) {
	o.userFailure = true
	o.userTiming = true
}

// WithUserTimingAttribution indicates that only timing is attributed to the user.
var WithUserTimingAttribution = func(o *execParams) {
	o.userTiming = true
}

// WithUserFailureAttribution indicates that only failure is attributed to the user.
var WithUserFailureAttribution = func(o *execParams) {
	o.userFailure = true
}

// Exec runs the given command (with args). A command that cannot be started returns a nil
// result; a non-zero exit returns both the result and an attributed error.
func (ctx *Context) Exec(cmd []string, opts ...ExecOption) (*ExecResult, error) {
	params := execParams{cmd: cmd}
	for _, o := range opts {
		o(&params)
	}

	start := time.Now()
	result, err := ctx.configuredExec(params)
	if params.userTiming {
		ctx.stats.user += time.Since(start)
	}
	if err == nil {
		return result, nil
	}

	var be *buildererror.Error
	switch {
	case result == nil:
		be = buildererror.InternalErrorf("%s", err.Error())
	case params.mp != nil && params.userFailure:
		be = buildererror.UserErrorf("%s", params.mp(result))
	case params.mp != nil:
		be = buildererror.InternalErrorf("%s", params.mp(result))
	case params.userFailure:
		be = buildererror.UserErrorf("%s", KeepCombinedTail(result))
	default:
		be = buildererror.InternalErrorf("%s", KeepCombinedTail(result))
	}
	be.ID = buildererror.GenerateErrorID(params.cmd...)
	return result, be
}

// HasCommand reports whether the named executable is on PATH.
func (ctx *Context) HasCommand(name string) bool {
	_, err := ctx.lookPath(name)
	return err == nil
}

// LookPath resolves the named executable on PATH.
func (ctx *Context) LookPath(name string) (string, error) {
	return ctx.lookPath(name)
}

func (ctx *Context) configuredExec(params execParams) (*ExecResult, error) {
	if len(params.cmd) < 1 {
		return nil, fmt.Errorf("no command provided")
	}
	if params.cmd[0] == "" {
		return nil, fmt.Errorf("empty command provided")
	}

	// For "system" commands, we will only log if the debug flag is present.
	log := params.userFailure || ctx.debug
	optionalLogf := func(format string, args ...any) {
		if !log {
			return
		}
		ctx.Logf(format, args...)
	}

	readableCmd := strings.Join(params.cmd, " ")
	if len(params.env) > 0 {
		readableCmd = fmt.Sprintf("%s (%s)", readableCmd, strings.Join(params.env, " "))
	}
	optionalLogf("Running %q", readableCmd)

	defer func(start time.Time) {
		truncated := readableCmd
		if len(truncated) > 60 {
			truncated = truncated[:60] + "..."
		}
		optionalLogf("Done %q (%v)", truncated, time.Since(start))
	}(time.Now())

	ecmd := ctx.execCmd(params.cmd[0], params.cmd[1:]...)
	if params.dir != "" {
		ecmd.Dir = params.dir
	}
	if len(params.env) > 0 {
		base := ecmd.Env
		if base == nil {
			base = os.Environ()
		}
		ecmd.Env = append(base, params.env...)
	}

	var outb, errb bytes.Buffer
	combinedb := lockingBuffer{log: log, w: ctx.logger.Writer()}
	ecmd.Stdout = io.MultiWriter(&outb, &combinedb)
	ecmd.Stderr = io.MultiWriter(&errb, &combinedb)

	exitCode := 0
	if err := ecmd.Run(); err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("executing command %q: %v", readableCmd, err)
		}
		exitCode = ee.ExitCode()
	}

	result := &ExecResult{
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(outb.String()),
		Stderr:   strings.TrimSpace(errb.String()),
		Combined: strings.TrimSpace(string(combinedb.Bytes())),
	}
	if exitCode != 0 {
		return result, fmt.Errorf("executing command %q: exit code %d", readableCmd, exitCode)
	}
	return result, nil
}

type lockingBuffer struct {
	buf bytes.Buffer
	sync.Mutex

	// log tells the buffer to also copy the output to w.
	log bool
	w   io.Writer
}

func (lb *lockingBuffer) Write(p []byte) (int, error) {
	lb.Lock()
	defer lb.Unlock()
	if lb.log {
		lb.w.Write(p)
	}
	return lb.buf.Write(p)
}

func (lb *lockingBuffer) Bytes() []byte {
	lb.Lock()
	defer lb.Unlock()
	return lb.buf.Bytes()
}
