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

package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestMaybeCopyPathContents(t *testing.T) {
	src := map[string]string{
		"artisan":                 "#!/usr/bin/env php",
		"composer.json":           "{}",
		"app/Http/Kernel.php":     "<?php",
		".git/HEAD":               "ref: refs/heads/main",
		"vendor/autoload.php":     "<?php",
		"storage/logs/.gitignore": "*",
	}
	testCases := []struct {
		name          string
		copyCondition func(path string, d fs.DirEntry) (bool, error)
		wantExcluded  []string
	}{
		{
			name:          "copyAll",
			copyCondition: AllPaths,
		},
		{
			name: "skipFile",
			copyCondition: func(path string, d fs.DirEntry) (bool, error) {
				return filepath.Base(path) != "composer.json", nil
			},
			wantExcluded: []string{"composer.json"},
		},
		{
			name:          "skipDirs",
			copyCondition: ExcludeNames(".git", "vendor"),
			wantExcluded:  []string{".git/HEAD", "vendor/autoload.php"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srcDir := writeTree(t, src)
			dest := t.TempDir()

			if err := MaybeCopyPathContents(dest, srcDir, tc.copyCondition); err != nil {
				t.Fatalf("MaybeCopyPathContents() got error: %v", err)
			}

			excluded := map[string]bool{}
			for _, p := range tc.wantExcluded {
				excluded[p] = true
			}
			for rel := range src {
				_, err := os.Stat(filepath.Join(dest, rel))
				exists := !errors.Is(err, os.ErrNotExist)
				if exists == excluded[rel] {
					t.Errorf("%s copied = %v, want %v", rel, exists, !excluded[rel])
				}
			}
		})
	}
}

func TestMaybeCopyPathContentsMerges(t *testing.T) {
	srcDir := writeTree(t, map[string]string{"config/app.php": "new"})
	dest := writeTree(t, map[string]string{"config/app.php": "old", "config/local.php": "kept", ".env": "APP_KEY=x"})

	if err := MaybeCopyPathContents(dest, srcDir, AllPaths); err != nil {
		t.Fatalf("MaybeCopyPathContents() got error: %v", err)
	}

	for rel, want := range map[string]string{"config/app.php": "new", "config/local.php": "kept", ".env": "APP_KEY=x"} {
		got, err := os.ReadFile(filepath.Join(dest, rel))
		if err != nil {
			t.Fatalf("reading %s: %v", rel, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}
}

func TestCopyFileKeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "artisan")
	if err := os.WriteFile(src, []byte("#!/usr/bin/env php"), 0755); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "copy")

	if err := CopyFile(dest, src); err != nil {
		t.Fatalf("CopyFile() got error: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0755 {
		t.Errorf("mode = %v, want %v", got, os.FileMode(0755))
	}
}

func TestCopySymlink(t *testing.T) {
	srcDir := writeTree(t, map[string]string{"public/index.php": "<?php"})
	if err := os.Symlink("../storage/app/public", filepath.Join(srcDir, "public", "storage")); err != nil {
		t.Fatal(err)
	}
	dest := t.TempDir()

	if err := MaybeCopyPathContents(dest, srcDir, AllPaths); err != nil {
		t.Fatalf("MaybeCopyPathContents() got error: %v", err)
	}

	got, err := os.Readlink(filepath.Join(dest, "public", "storage"))
	if err != nil {
		t.Fatalf("Readlink() got error: %v", err)
	}
	if got != "../storage/app/public" {
		t.Errorf("link target = %q, want %q", got, "../storage/app/public")
	}
}
