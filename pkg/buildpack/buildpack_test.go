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
	"log"
	"testing"

	"github.com/buildpacks/libcnb/v2"
	"github.com/google/go-cmp/cmp"
)

type fakeExiter struct {
	code int
	err  error
}

func (e *fakeExiter) Exit(exitCode int, err error) {
	e.code = exitCode
	e.err = err
}

func testContext(t *testing.T, opts ...ContextOption) (*Context, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	all := append([]ContextOption{
		WithApplicationRoot(t.TempDir()),
		WithLogger(log.New(buf, "", 0)),
		WithBuildpackInfo(libcnb.BuildpackInfo{ID: "laravel", Version: "1.0.0"}),
	}, opts...)
	return NewContext(all...), buf
}

func TestNewContextOptions(t *testing.T) {
	bctx := libcnb.BuildContext{
		ApplicationPath: "/workspace",
		Buildpack: libcnb.Buildpack{
			Info: libcnb.BuildpackInfo{ID: "laravel", Version: "2.0.0", Name: "Laravel"},
			Path: "/cnb/buildpacks/laravel",
		},
		Platform: libcnb.Platform{Path: "/platform"},
	}
	ctx := NewContext(WithBuildContext(bctx))

	if got, want := ctx.ApplicationRoot(), "/workspace"; got != want {
		t.Errorf("ApplicationRoot() = %q, want %q", got, want)
	}
	if got, want := ctx.BuildpackRoot(), "/cnb/buildpacks/laravel"; got != want {
		t.Errorf("BuildpackRoot() = %q, want %q", got, want)
	}
	if got, want := ctx.EnvDir(), "/platform/env"; got != want {
		t.Errorf("EnvDir() = %q, want %q", got, want)
	}
	if got, want := ctx.Banner(), "=== Laravel (laravel@2.0.0) ==="; got != want {
		t.Errorf("Banner() = %q, want %q", got, want)
	}
	if ctx.IsLegacy() {
		t.Error("IsLegacy() = true, want false")
	}
	if ctx.BuildID() == "" {
		t.Error("BuildID() is empty")
	}
}

func TestAddProcess(t *testing.T) {
	ctx, buf := testContext(t)

	ctx.AddProcess("worker", []string{"bash", "-c", "php artisan queue:work"})
	ctx.AddProcess(WebProcess, []string{"php", "-S"})
	ctx.AddProcess(WebProcess, []string{"bash", "start.sh"}, AsDefaultProcess())

	want := []libcnb.Process{
		{Type: "worker", Command: []string{"bash", "-c", "php artisan queue:work"}},
		{Type: WebProcess, Command: []string{"bash", "start.sh"}, Default: true},
	}
	if diff := cmp.Diff(want, ctx.Processes()); diff != "" {
		t.Errorf("Processes() mismatch (-want +got):\n%s", diff)
	}
	if len(ctx.Warnings()) != 1 {
		t.Errorf("got %d warnings, want 1 for the overwritten web process; log: %s", len(ctx.Warnings()), buf)
	}
}

func TestLogging(t *testing.T) {
	testCases := []struct {
		name  string
		debug bool
		log   func(ctx *Context)
		want  string
	}{
		{
			name: "header",
			log:  func(ctx *Context) { ctx.Headerf("Installing %s", "dependencies") },
			want: "-----> Installing dependencies\n",
		},
		{
			name: "warning",
			log:  func(ctx *Context) { ctx.Warnf("composer.json not found") },
			want: "Warning: composer.json not found\n",
		},
		{
			name: "debug off",
			log:  func(ctx *Context) { ctx.Debugf("hidden") },
		},
		{
			name:  "debug on",
			debug: true,
			log:   func(ctx *Context) { ctx.Debugf("shown") },
			want:  "DEBUG: shown\n",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, buf := testContext(t)
			ctx.debug = tc.debug

			tc.log(ctx)

			if got := buf.String(); got != tc.want {
				t.Errorf("log output = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRunBuildCollectsLayers(t *testing.T) {
	layersDir := t.TempDir()
	ctx, _ := testContext(t, WithBuildContext(libcnb.BuildContext{
		ApplicationPath: t.TempDir(),
		Layers:          libcnb.Layers{Path: layersDir},
	}))

	got := ctx.runBuild(func(ctx *Context) error {
		l, err := ctx.Layer("laravel", LaunchLayer)
		if err != nil {
			return err
		}
		l.LaunchEnvironment.Default("APP_DIR", ctx.ApplicationRoot())
		ctx.AddProcess(WebProcess, []string{"bash", "start.sh"}, AsDefaultProcess())
		return nil
	})

	if len(got.Layers) != 1 || got.Layers[0].Name != "laravel" || !got.Layers[0].Launch {
		t.Errorf("runBuild() layers = %+v, want one launch layer named laravel", got.Layers)
	}
	if len(got.Processes) != 1 {
		t.Errorf("runBuild() processes = %+v, want one", got.Processes)
	}
}

func TestRunBuildExitsOnError(t *testing.T) {
	exiter := &fakeExiter{}
	ctx, _ := testContext(t, WithExiter(exiter))

	ctx.runBuild(func(ctx *Context) error {
		return UserErrorf("php not found")
	})

	if exiter.code != 1 || exiter.err == nil {
		t.Errorf("Exit() called with (%d, %v), want (1, error)", exiter.code, exiter.err)
	}
}
