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
	"strings"
	"testing"
)

func TestFileExists(t *testing.T) {
	ctx, _ := testContext(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "artisan"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name string
		elem []string
		want bool
	}{
		{name: "present", elem: []string{dir, "artisan"}, want: true},
		{name: "absent", elem: []string{dir, "composer.json"}},
		{name: "directory", elem: []string{dir}, want: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ctx.FileExists(tc.elem...)
			if err != nil {
				t.Fatalf("FileExists(%v) got error: %v", tc.elem, err)
			}
			if got != tc.want {
				t.Errorf("FileExists(%v) = %v, want %v", tc.elem, got, tc.want)
			}
		})
	}
}

func TestWriteFileCreatesParentsAndSetsMode(t *testing.T) {
	ctx, _ := testContext(t)
	path := filepath.Join(t.TempDir(), "a", "b", "start.sh")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ctx.WriteFile(path, []byte("#!/usr/bin/env bash\n"), 0755); err != nil {
		t.Fatalf("WriteFile() got error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0755 {
		t.Errorf("mode = %v, want %v", got, os.FileMode(0755))
	}
	got, err := ctx.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "#!/usr/bin/env bash\n" {
		t.Errorf("content = %q", got)
	}
}

func TestRemoveAllAndRename(t *testing.T) {
	ctx, _ := testContext(t)
	dir := t.TempDir()
	from, to := filepath.Join(dir, "from"), filepath.Join(dir, "to")
	if err := ctx.MkdirAll(filepath.Join(from, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := ctx.Rename(from, to); err != nil {
		t.Fatalf("Rename() got error: %v", err)
	}
	if err := ctx.RemoveAll(to); err != nil {
		t.Fatalf("RemoveAll() got error: %v", err)
	}
	if exists, _ := ctx.FileExists(to); exists {
		t.Errorf("%s still exists after RemoveAll()", to)
	}
}

func TestSetenvDoesNotLogValue(t *testing.T) {
	ctx, buf := testContext(t)
	ctx.debug = true
	t.Setenv("DB_PASSWORD", "")

	if err := ctx.Setenv("DB_PASSWORD", "s3cret"); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("DB_PASSWORD"); got != "s3cret" {
		t.Errorf("DB_PASSWORD = %q, want %q", got, "s3cret")
	}
	if strings.Contains(buf.String(), "s3cret") {
		t.Errorf("log output %q leaks the value", buf)
	}
}
