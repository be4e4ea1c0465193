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
	"encoding/json"
	"fmt"
	"strings"
)

// Status is a canonical status code.
type Status int

// Only the codes the buildpack reports are named; values follow the canonical numbering.
const (
	StatusOk                 Status = 0
	StatusUnknown            Status = 2
	StatusInvalidArgument    Status = 3
	StatusNotFound           Status = 5
	StatusPermissionDenied   Status = 7
	StatusFailedPrecondition Status = 9
	StatusUnavailable        Status = 14
	StatusInternal           Status = 13
)

var statusNames = map[Status]string{
	StatusOk:                 "OK",
	StatusUnknown:            "UNKNOWN",
	StatusInvalidArgument:    "INVALID_ARGUMENT",
	StatusNotFound:           "NOT_FOUND",
	StatusPermissionDenied:   "PERMISSION_DENIED",
	StatusFailedPrecondition: "FAILED_PRECONDITION",
	StatusInternal:           "INTERNAL",
	StatusUnavailable:        "UNAVAILABLE",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("STATUS(%d)", int(s))
}

var _ json.Marshaler = (*Status)(nil)
var _ json.Unmarshaler = (*Status)(nil)

// MarshalJSON encodes the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s)), nil
}

// UnmarshalJSON decodes a status name, case-insensitively.
func (s *Status) UnmarshalJSON(b []byte) error {
	var val string
	if err := json.Unmarshal(b, &val); err != nil {
		return err
	}
	for st, name := range statusNames {
		if strings.EqualFold(name, val) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown value %q", val)
}
