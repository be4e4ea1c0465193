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

package env

import (
	"os"
	"testing"
)

func TestIsDebugMode(t *testing.T) {
	testCases := []struct {
		name    string
		notSet  bool
		value   string
		wantErr bool
		want    bool
	}{
		{
			name:   "not set",
			notSet: true,
		},
		{
			name: "set to empty",
		},
		{
			name:    "set to bad value",
			value:   "not a bool",
			wantErr: true,
		},
		{
			name:  "set to true",
			value: "true",
			want:  true,
		},
		{
			name:  "set to false",
			value: "false",
			want:  false,
		},
		{
			name:  "set to truthy",
			value: "1",
			want:  true,
		},
		{
			name:  "set to falsey",
			value: "0",
			want:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(DebugMode, tc.value)
			if tc.notSet {
				if err := os.Unsetenv(DebugMode); err != nil {
					t.Fatalf("Failed to unset env: %v", err)
				}
			}

			got, err := IsDebugMode()
			if tc.wantErr == (err == nil) {
				t.Fatalf("IsDebugMode() got error: %v, want error? %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("IsDebugMode() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	if _, err := ParseBool(DBProbe, "yes please"); err == nil {
		t.Errorf("ParseBool(%q) got nil error, want error", "yes please")
	}
	got, err := ParseBool(DBProbe, "TRUE")
	if err != nil || !got {
		t.Errorf("ParseBool(%q) = %v, %v, want true, nil", "TRUE", got, err)
	}
}
