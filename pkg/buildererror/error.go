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

// Package buildererror carries attributed build failures: who is to blame (user or builder), a
// short stable ID for support, and the pipeline step that produced the failure.
package buildererror

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
)

const (
	errorIDLength = 8
)

// ID is a short hash identifying an error message.
type ID string

// Error is a build failure.
type Error struct {
	BuildpackID      string `json:"buildpackId"`
	BuildpackVersion string `json:"buildpackVersion"`
	Step             string `json:"step,omitempty"`
	Status           Status `json:"canonicalCode"`
	ID               ID     `json:"errorId"`
	Message          string `json:"errorMessage"`
}

func (e *Error) Error() string {
	if e.ID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s [id:%s]", e.Message, e.ID)
}

// IsUser reports whether the failure is attributed to the application or its configuration.
func (e *Error) IsUser() bool {
	return e.Status != StatusInternal
}

// InStep returns a copy of the error tagged with the pipeline step name.
func (e *Error) InStep(step string) *Error {
	c := *e
	c.Step = step
	return &c
}

// Errorf constructs an Error.
func Errorf(status Status, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Status:  status,
		ID:      GenerateErrorID(msg),
		Message: msg,
	}
}

// InternalErrorf constructs an Error attributed to the buildpack itself.
func InternalErrorf(format string, args ...any) *Error {
	return Errorf(StatusInternal, format, args...)
}

// UserErrorf constructs an Error attributed to the application being built.
func UserErrorf(format string, args ...any) *Error {
	return Errorf(StatusUnknown, format, args...)
}

// PreconditionErrorf constructs a user Error for a missing build prerequisite.
func PreconditionErrorf(format string, args ...any) *Error {
	return Errorf(StatusFailedPrecondition, format, args...)
}

// GenerateErrorID hashes the given parts into a short, lowercase ID.
func GenerateErrorID(parts ...string) ID {
	h := sha256.New()
	for _, p := range parts {
		io.WriteString(h, p)
	}
	result := fmt.Sprintf("%x", h.Sum(nil))
	return ID(strings.ToLower(result[:errorIDLength]))
}
