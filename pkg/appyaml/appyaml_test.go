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

package appyaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    RuntimeConfig
		wantErr bool
	}{
		{
			name: "no app.yaml",
		},
		{
			name:    "no runtime_config",
			content: "runtime: php",
		},
		{
			name: "overrides",
			content: `runtime: php
runtime_config:
  document_root: web
  front_controller_file: app.php
  nginx_conf_include: nginx-app.conf
`,
			want: RuntimeConfig{DocumentRoot: "web", FrontControllerFile: "app.php", NginxConfInclude: "nginx-app.conf"},
		},
		{
			name:    "invalid yaml",
			content: "runtime_config: [",
			wantErr: true,
		},
		{
			name:    "absolute document root",
			content: "runtime_config:\n  document_root: /etc\n",
			wantErr: true,
		},
		{
			name:    "escaping document root",
			content: "runtime_config:\n  document_root: ../other\n",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			if tc.content != "" {
				if err := os.WriteFile(filepath.Join(root, FileName), []byte(tc.content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			got, err := Load(root)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Load() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() got error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
