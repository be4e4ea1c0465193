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

package laravel

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/laravelshim/buildpacks/pkg/fileutil"
	"github.com/laravelshim/buildpacks/pkg/permissions"
)

func TestFiles(t *testing.T) {
	files, err := Files(DatabaseConfig{DefaultConnection: "pgsql"}, StartConfig{Permissions: permissions.Default})
	if err != nil {
		t.Fatalf("Files() got error: %v", err)
	}
	byPath := map[string]fileutil.File{}
	var paths []string
	for _, f := range files {
		byPath[f.Path] = f
		paths = append(paths, f.Path)
	}
	if diff := cmp.Diff([]string{"config/database.php", "start.sh"}, paths); diff != "" {
		t.Fatalf("Files() paths mismatch (-want +got):\n%s", diff)
	}

	db := string(byPath[DatabaseConfigPath].Content)
	if !strings.Contains(db, "'default' => env('DB_CONNECTION', 'pgsql'),") {
		t.Errorf("database.php does not default to pgsql:\n%s", db)
	}

	start := byPath[StartScript]
	if start.Mode != 0755 {
		t.Errorf("start.sh mode = %v, want 0755", start.Mode)
	}
	script := string(start.Content)
	wantLines := []string{
		"#!/usr/bin/env bash",
		"mkdir -p storage/framework/cache/data storage/framework/sessions storage/framework/views storage/logs",
		`mkdir -p storage && chmod -R 775 storage || echo "Warning: unable to set permissions on storage, continuing" >&2`,
		`mkdir -p bootstrap/cache && chmod -R 775 bootstrap/cache || echo "Warning: unable to set permissions on bootstrap/cache, continuing" >&2`,
		"if ! php artisan migrate --force; then",
		`sed -i 's/\$PORT/'"${PORT:-8080}"'/g' nginx/nginx.conf`,
		`php-fpm -p "$APP_DIR/.heroku/php" -y "$APP_DIR/.heroku/php/etc/php-fpm.conf" &`,
		`exec nginx -p "$APP_DIR" -c "$APP_DIR/nginx/nginx.conf"`,
	}
	lines := strings.Split(script, "\n")
	for _, want := range wantLines {
		found := false
		for _, l := range lines {
			if l == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("start.sh is missing line %q:\n%s", want, script)
		}
	}
	if !strings.HasSuffix(script, "nginx/nginx.conf\"\n") {
		t.Errorf("start.sh must end by exec'ing nginx:\n%s", script)
	}
}

func TestFilesDeterministic(t *testing.T) {
	first, err := Files(DatabaseConfig{DefaultConnection: "sqlite"}, StartConfig{Permissions: permissions.Default})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Files(DatabaseConfig{DefaultConnection: "sqlite"}, StartConfig{Permissions: permissions.Default})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Files() is not deterministic (-first +second):\n%s", diff)
	}
}
