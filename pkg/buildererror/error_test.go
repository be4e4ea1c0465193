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

package buildererror

import (
	"errors"
	"fmt"
	"testing"
)

func TestGenerateErrorId(t *testing.T) {
	result1 := GenerateErrorID("abc", "def")
	if len(result1) != errorIDLength {
		t.Fatalf("len errorId got %d, want %d", len(result1), errorIDLength)
	}

	result2 := GenerateErrorID("abc")
	if result2 == result1 {
		t.Errorf("error IDs are not unique to different inputs")
	}
}

func TestErrorf(t *testing.T) {
	testCases := []struct {
		name     string
		err      *Error
		wantUser bool
	}{
		{
			name:     "user",
			err:      UserErrorf("bad %s", "composer.json"),
			wantUser: true,
		},
		{
			name:     "precondition",
			err:      PreconditionErrorf("php not found"),
			wantUser: true,
		},
		{
			name: "internal",
			err:  InternalErrorf("writing %s", "nginx.conf"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.IsUser(); got != tc.wantUser {
				t.Errorf("IsUser() = %v, want %v", got, tc.wantUser)
			}
			if tc.err.ID != GenerateErrorID(tc.err.Message) {
				t.Errorf("ID = %q, want hash of message %q", tc.err.ID, tc.err.Message)
			}
		})
	}
}

func TestInStep(t *testing.T) {
	orig := UserErrorf("boom")
	tagged := orig.InStep("fetch source")
	if tagged.Step != "fetch source" {
		t.Errorf("Step = %q, want %q", tagged.Step, "fetch source")
	}
	if orig.Step != "" {
		t.Errorf("InStep modified the receiver: Step = %q", orig.Step)
	}
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("running step: %w", UserErrorf("boom"))
	var be *Error
	if !errors.As(wrapped, &be) {
		t.Fatalf("errors.As(%v) = false, want true", wrapped)
	}
	if be.Message != "boom" {
		t.Errorf("Message = %q, want %q", be.Message, "boom")
	}
}
