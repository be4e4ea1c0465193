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

package source

import (
	"archive/tar"
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/laravelshim/buildpacks/internal/mockprocess"
	"github.com/laravelshim/buildpacks/internal/testserver"
	"github.com/laravelshim/buildpacks/pkg/buildpack"
	"github.com/laravelshim/buildpacks/pkg/config"
)

func TestMain(m *testing.M) {
	mockprocess.MaybeRun()
	os.Exit(m.Run())
}

func newContext(t *testing.T, logPath string, mocks ...*mockprocess.Mock) *buildpack.Context {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())
	execCmd, err := mockprocess.NewRecordingExecCmd(logPath, mocks...)
	if err != nil {
		t.Fatal(err)
	}
	return buildpack.NewContext(
		buildpack.WithApplicationRoot(t.TempDir()),
		buildpack.WithExecCmd(execCmd),
		buildpack.WithLogger(log.New(new(bytes.Buffer), "", 0)))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestFetchClone(t *testing.T) {
	testCases := []struct {
		name       string
		src        config.Source
		wantInvoke string
	}{
		{
			name:       "default branch",
			src:        config.Source{Repository: "https://example.com/acme/app.git"},
			wantInvoke: "git clone --depth 1 https://example.com/acme/app.git src",
		},
		{
			name:       "revision",
			src:        config.Source{Repository: "https://example.com/acme/app.git", Revision: "v1.2.0"},
			wantInvoke: "git clone --depth 1 --branch v1.2.0 https://example.com/acme/app.git src",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "invocations")
			ctx := newContext(t, logPath, mockprocess.New(`^git clone`,
				mockprocess.WithFile("src/artisan", "#!/usr/bin/env php"),
				mockprocess.WithFile("src/.env", "APP_KEY=from-repo"),
				mockprocess.WithFile("src/.git/HEAD", "ref: refs/heads/main")))
			root := ctx.ApplicationRoot()
			if err := os.WriteFile(filepath.Join(root, ".env"), []byte("APP_KEY=local"), 0644); err != nil {
				t.Fatal(err)
			}

			if err := Fetch(ctx, tc.src, root); err != nil {
				t.Fatalf("Fetch() got error: %v", err)
			}

			got, err := mockprocess.Invocations(logPath)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{tc.wantInvoke}, got); diff != "" {
				t.Errorf("invocations mismatch (-want +got):\n%s", diff)
			}
			if _, err := os.Stat(filepath.Join(root, "artisan")); err != nil {
				t.Errorf("artisan was not copied: %v", err)
			}
			if _, err := os.Stat(filepath.Join(root, ".git")); err == nil {
				t.Error(".git was copied into the application root")
			}
			if got := readFile(t, filepath.Join(root, ".env")); got != "APP_KEY=local" {
				t.Errorf(".env = %q, want the pre-existing content", got)
			}
		})
	}
}

func TestFetchCloneFailure(t *testing.T) {
	ctx := newContext(t, filepath.Join(t.TempDir(), "invocations"),
		mockprocess.New(`^git clone`, mockprocess.WithStderr("fatal: repository not found"), mockprocess.WithExitCode(128)))

	err := Fetch(ctx, config.Source{Repository: "https://example.com/missing.git"}, ctx.ApplicationRoot())
	if err == nil {
		t.Fatal("Fetch() succeeded, want error")
	}
}

func TestFetchArchive(t *testing.T) {
	testCases := []struct {
		name    string
		entries []testserver.Entry
	}{
		{
			name: "wrapped in a top level directory",
			entries: []testserver.Entry{
				{Name: "app-1.0/", Typeflag: tar.TypeDir},
				{Name: "app-1.0/artisan", Content: "#!/usr/bin/env php"},
				{Name: "app-1.0/public/index.php", Content: "<?php"},
			},
		},
		{
			name: "flat",
			entries: []testserver.Entry{
				{Name: "artisan", Content: "#!/usr/bin/env php"},
				{Name: "public/index.php", Content: "<?php"},
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := testserver.New(t, testserver.WithBody(testserver.TarGz(t, tc.entries...)))
			ctx := newContext(t, filepath.Join(t.TempDir(), "invocations"))
			root := ctx.ApplicationRoot()

			if err := Fetch(ctx, config.Source{Archive: server.URL}, root); err != nil {
				t.Fatalf("Fetch() got error: %v", err)
			}
			if got := readFile(t, filepath.Join(root, "public", "index.php")); got != "<?php" {
				t.Errorf("public/index.php = %q, want %q", got, "<?php")
			}
			if _, err := os.Stat(filepath.Join(root, ".env")); err == nil {
				t.Error(".env was created although none existed")
			}
		})
	}
}

func TestFetchNotConfigured(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "invocations")
	ctx := newContext(t, logPath)

	if err := Fetch(ctx, config.Source{}, ctx.ApplicationRoot()); err != nil {
		t.Fatalf("Fetch() got error: %v", err)
	}
	got, err := mockprocess.Invocations(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Fetch() ran %v, want nothing", got)
	}
}
