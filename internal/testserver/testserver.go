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

// Package testserver provides utility functions for stubbing HTTP requests in tests.
package testserver

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type config struct {
	httpStatus  int
	body        []byte
	contentType string
	failures    int32
}

// Option configures test servers.
type Option func(o *config)

// WithStatus sets the http response code to return.
func WithStatus(httpStatus int) Option {
	return func(c *config) {
		c.httpStatus = httpStatus
	}
}

// WithJSON sets the JSON payload the server sends in the response body.
func WithJSON(json string) Option {
	return func(c *config) {
		c.body = []byte(json)
		c.contentType = "application/json"
	}
}

// WithBody sets the raw response body.
func WithBody(body []byte) Option {
	return func(c *config) {
		c.body = body
	}
}

// WithTransientFailures answers the first n requests with 503 Service Unavailable.
func WithTransientFailures(n int) Option {
	return func(c *config) {
		c.failures = int32(n)
	}
}

// Server is a started test server that counts the requests it has served.
type Server struct {
	*httptest.Server
	requests atomic.Int32
}

// Requests returns the number of requests served so far.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// New creates and starts a test server with the provided configurations.
func New(t *testing.T, opts ...Option) *Server {
	t.Helper()
	options := config{}
	for _, o := range opts {
		o(&options)
	}

	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := s.requests.Add(1)
		if n <= options.failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if options.contentType != "" {
			w.Header().Set("Content-Type", options.contentType)
		}
		if options.httpStatus != 0 {
			w.WriteHeader(options.httpStatus)
		}
		if _, err := w.Write(options.body); err != nil {
			// Not using Fatalf because this runs in a separate Go Routine.
			t.Errorf("sending stubbed http response: %v", err)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// Entry is a single member of a generated tarball.
type Entry struct {
	Name     string
	Content  string
	Mode     int64
	Typeflag byte
	Linkname string
}

// TarGz builds a gzipped tarball from entries. Regular files are the default entry type.
func TarGz(t *testing.T, entries ...Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: e.Mode, Typeflag: e.Typeflag, Linkname: e.Linkname}
		if hdr.Typeflag == 0 {
			hdr.Typeflag = tar.TypeReg
		}
		if hdr.Mode == 0 {
			hdr.Mode = 0644
			if hdr.Typeflag == tar.TypeDir {
				hdr.Mode = 0755
			}
		}
		if hdr.Typeflag == tar.TypeReg {
			hdr.Size = int64(len(e.Content))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header %q: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.Content)); err != nil {
				t.Fatalf("writing tar entry %q: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
