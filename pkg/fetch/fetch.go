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

// Package fetch downloads application sources via HTTP.
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/laravelshim/buildpacks/pkg/buildererror"
)

const (
	userAgent = "laravel-buildpack"
	// DefaultTimeout bounds a whole download including retries.
	DefaultTimeout = 5 * time.Minute
)

// retryWaitMin is the first backoff between attempts.
var retryWaitMin = time.Second

// Tarball downloads a gzipped tarball from a URL and extracts it into dir.
// The leading stripComponents path elements of every entry are dropped.
func Tarball(ctx context.Context, url, dir string, stripComponents int) error {
	response, err := doGet(ctx, url)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return buildererror.InternalErrorf("creating directory %q: %v", dir, err)
	}
	return untar(dir, response.Body, stripComponents)
}

// untar extracts a tarball from a reader and writes it to the given directory.
func untar(dir string, r io.Reader, stripComponents int) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return buildererror.UserErrorf("reading gzip stream: %v", err)
	}
	defer gzr.Close()

	madeDir := map[string]bool{}
	tr := tar.NewReader(gzr)

	for {
		header, err := tr.Next()

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return buildererror.UserErrorf("untaring file: %v", err)
		case header == nil:
			continue
		}

		target, err := tarDestination(header.Name, dir, header.Typeflag, stripComponents)
		if err != nil {
			return err
		}
		if target == "" {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode).Perm()|0700); err != nil {
				return buildererror.InternalErrorf("creating directory %q: %v", target, err)
			}
			madeDir[target] = true
		case tar.TypeReg:
			parent := filepath.Dir(target)
			if !madeDir[parent] {
				if err := os.MkdirAll(parent, 0755); err != nil {
					return buildererror.InternalErrorf("creating directory %q: %v", parent, err)
				}
				madeDir[parent] = true
			}

			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode).Perm())
			if err != nil {
				return buildererror.InternalErrorf("opening file %q: %v", target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return buildererror.InternalErrorf("copying file %q: %v", target, err)
			}
			if err := f.Close(); err != nil {
				return buildererror.InternalErrorf("closing file %q: %v", target, err)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) {
				return buildererror.UserErrorf("symlink %q -> %q is absolute", target, header.Linkname)
			}
			targetPath := filepath.Join(filepath.Dir(target), header.Linkname)
			if !isValidTarDestination(targetPath, dir, tar.TypeReg) {
				return buildererror.UserErrorf("symlink %q -> %q traverses out of root", target, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return buildererror.InternalErrorf("creating directory for %q: %v", target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return buildererror.InternalErrorf("symlinking %q to %q: %v", target, header.Linkname, err)
			}
		case tar.TypeLink:
			link, err := tarDestination(header.Linkname, dir, header.Typeflag, stripComponents)
			if err != nil {
				return err
			}
			if err := os.Link(link, target); err != nil {
				return buildererror.InternalErrorf("linking %q to %q: %v", target, link, err)
			}
		case tar.TypeXGlobalHeader:
			// GitHub archives carry the commit id in a pax global header.
		default:
			return buildererror.UserErrorf("unsupported tar entry %q (type %q)", header.Name, header.Typeflag)
		}
	}
}

// tarDestination returns the filepath that a tar entry should be written to when extracted.
// An empty path means the entry was stripped away.
func tarDestination(tarPath, rootDir string, tarType byte, stripComponents int) (string, error) {
	rootDir = filepath.Clean(rootDir)
	rel := filepath.Clean(strings.TrimPrefix(filepath.ToSlash(tarPath), "/"))

	if stripComponents > 0 {
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) <= stripComponents {
			if tarType == tar.TypeDir || tarType == tar.TypeXGlobalHeader {
				return "", nil
			}
			return "", buildererror.UserErrorf("stripped too many components (%v) from %q", stripComponents, tarPath)
		}
		rel = filepath.Join(parts[stripComponents:]...)
	}

	path := filepath.Join(rootDir, rel)
	// Only allow extraction either directly into the root, or within a subdirectory from the root.
	if isValidTarDestination(path, rootDir, tarType) {
		return path, nil
	}
	return "", buildererror.UserErrorf("tar entry %q traverses out of root", tarPath)
}

// isValidTarDestination reports whether dest stays within rootDir.
func isValidTarDestination(dest, rootDir string, tarType byte) bool {
	destDir := dest
	if tarType != tar.TypeDir {
		destDir = filepath.Dir(dest)
	}
	return destDir == rootDir ||
		strings.HasPrefix(destDir, rootDir+string(filepath.Separator))
}

// doGet performs an HTTP GET request for a URL, retrying transient failures.
func doGet(ctx context.Context, url string) (*http.Response, error) {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = retryWaitMin
	retryClient.Logger = nil
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, buildererror.UserErrorf("fetching %s: %v", url, err)
	}

	req.Header.Set("User-Agent", userAgent)

	response, err := retryClient.StandardClient().Do(req)
	if err != nil {
		return nil, buildererror.UserErrorf("requesting %s: %v", url, err)
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		defer response.Body.Close()
		return nil, buildererror.UserErrorf("fetching %s returned HTTP status: %d", url, response.StatusCode)
	}
	return response, nil
}
