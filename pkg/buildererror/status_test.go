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
	"bytes"
	"testing"
)

func TestUnmarshalJSON(t *testing.T) {
	testCases := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: `"PERMISSION_DENIED"`, want: StatusPermissionDenied},
		{in: `"failed_precondition"`, want: StatusFailedPrecondition},
		{in: `"NOPE"`, wantErr: true},
	}
	for _, tc := range testCases {
		var s Status
		err := s.UnmarshalJSON([]byte(tc.in))
		if tc.wantErr != (err != nil) {
			t.Fatalf("UnmarshalJSON(%s) got error %v, want error? %v", tc.in, err, tc.wantErr)
		}
		if err == nil && s != tc.want {
			t.Errorf("UnmarshalJSON(%s) = %v, want %v", tc.in, s, tc.want)
		}
	}
}

func TestMarshalJSON(t *testing.T) {
	s := StatusInternal

	j, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("Failed to marshal %v: %v", s, err)
	}
	want := []byte(`"INTERNAL"`)
	if !bytes.Equal(want, j) {
		t.Errorf("got %s, want %s", j, want)
	}
}

func TestStringUnnamed(t *testing.T) {
	if got := Status(42).String(); got != "STATUS(42)" {
		t.Errorf("String() = %q, want %q", got, "STATUS(42)")
	}
}
