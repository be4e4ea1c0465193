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
	"os"
	"path/filepath"
	"testing"

	"github.com/buildpacks/libcnb/v2"
	"github.com/google/go-cmp/cmp"
)

func TestReadBuildpackInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildpack.toml")
	content := `api = "0.10"

[buildpack]
  id = "laravel/shim"
  version = "1.2.3"
  name = "Laravel shim"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readBuildpackInfo(path)
	if err != nil {
		t.Fatalf("readBuildpackInfo() got error: %v", err)
	}
	want := libcnb.BuildpackInfo{ID: "laravel/shim", Version: "1.2.3", Name: "Laravel shim"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("readBuildpackInfo() mismatch (-want +got):\n%s", diff)
	}

	missing, err := readBuildpackInfo(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("readBuildpackInfo(missing) got error: %v", err)
	}
	if missing.ID != "" {
		t.Errorf("readBuildpackInfo(missing) = %+v, want empty", missing)
	}
}

func TestNewLegacyContext(t *testing.T) {
	bpRoot := t.TempDir()
	buildDir := t.TempDir()
	cacheDir := t.TempDir()
	envDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(bpRoot, "buildpack.toml"), []byte("[buildpack]\nid = \"laravel\"\nversion = \"0.1.0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())

	ctx, err := newLegacyContext([]string{filepath.Join(bpRoot, "bin", "compile"), buildDir, cacheDir, envDir})
	if err != nil {
		t.Fatalf("newLegacyContext() got error: %v", err)
	}

	if !ctx.IsLegacy() {
		t.Error("IsLegacy() = false, want true")
	}
	if ctx.ApplicationRoot() != buildDir {
		t.Errorf("ApplicationRoot() = %q, want %q", ctx.ApplicationRoot(), buildDir)
	}
	if ctx.EnvDir() != envDir {
		t.Errorf("EnvDir() = %q, want %q", ctx.EnvDir(), envDir)
	}
	if ctx.BuildpackID() != "laravel" || ctx.BuildpackVersion() != "0.1.0" {
		t.Errorf("buildpack info = %s@%s, want laravel@0.1.0", ctx.BuildpackID(), ctx.BuildpackVersion())
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if wd != buildDir {
		t.Errorf("working dir = %q, want %q", wd, buildDir)
	}
}

func TestNewLegacyContextUsage(t *testing.T) {
	if _, err := newLegacyContext([]string{"bin/compile", "/tmp/build"}); err == nil {
		t.Error("newLegacyContext() with two arguments succeeded, want usage error")
	}
}

func TestRunLegacyWritesProcfileAndProfile(t *testing.T) {
	ctx, _ := testContext(t, WithLegacy(), WithCacheDir(t.TempDir()))

	ctx.runLegacy(func(ctx *Context) error {
		l, err := ctx.Layer("laravel", LaunchLayer)
		if err != nil {
			return err
		}
		l.LaunchEnvironment.Default("APP_DIR", "/app")
		ctx.AddProcess("worker", []string{"bash", "-c", "php artisan queue:work"})
		ctx.AddProcess(WebProcess, []string{"bash", "start.sh"}, AsDefaultProcess())
		return nil
	})

	procfile, err := os.ReadFile(filepath.Join(ctx.ApplicationRoot(), "Procfile"))
	if err != nil {
		t.Fatalf("reading Procfile: %v", err)
	}
	if want := "worker: php artisan queue:work\nweb: bash start.sh\n"; string(procfile) != want {
		t.Errorf("Procfile = %q, want %q", procfile, want)
	}
	profile, err := os.ReadFile(filepath.Join(ctx.ApplicationRoot(), ".profile.d", "laravel.sh"))
	if err != nil {
		t.Fatalf("reading profile script: %v", err)
	}
	if want := "if [ -z \"${APP_DIR+x}\" ]; then export APP_DIR='/app'; fi\n"; string(profile) != want {
		t.Errorf("profile script = %q, want %q", profile, want)
	}
}

func TestProfileScript(t *testing.T) {
	testCases := []struct {
		name string
		env  libcnb.Environment
		want string
	}{
		{
			name: "empty",
			env:  libcnb.Environment{},
		},
		{
			name: "override with quote",
			env:  libcnb.Environment{"GREETING.override": "it's"},
			want: "export GREETING='it'\\''s'\n",
		},
		{
			name: "unsupported action is skipped",
			env:  libcnb.Environment{"PATH.prepend": "/app/bin"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := profileScript(tc.env); got != tc.want {
				t.Errorf("profileScript() = %q, want %q", got, tc.want)
			}
		})
	}
}
