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

// Package fileutil contains utilities for filesystem operations.
package fileutil

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File is a generated file, relative to the application root.
type File struct {
	Path    string
	Mode    os.FileMode
	Content []byte
}

// AllPaths indicates all paths should be recursively walked for functions
// that walk the filesystem.
var AllPaths = func(path string, d fs.DirEntry) (bool, error) {
	return true, nil
}

// ExcludeNames returns a condition that skips entries with any of the given base names.
func ExcludeNames(names ...string) func(path string, d fs.DirEntry) (bool, error) {
	skip := map[string]bool{}
	for _, n := range names {
		skip[n] = true
	}
	return func(path string, d fs.DirEntry) (bool, error) {
		return !skip[filepath.Base(path)], nil
	}
}

// MaybeCopyPathContents recursively copies the contents of srcPath to destPath, merging into
// existing directories and overwriting existing files.
func MaybeCopyPathContents(destPath, srcPath string, copyCondition func(path string, d fs.DirEntry) (bool, error)) error {
	return filepath.WalkDir(srcPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip the root
		if path == srcPath {
			return nil
		}

		shouldCopy, err := copyCondition(path, d)
		if err != nil {
			return err
		}
		if !shouldCopy {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(srcPath, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(destPath, relPath)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(dest, info.Mode().Perm()|0700)
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.RemoveAll(dest); err != nil {
				return err
			}
			return os.Symlink(target, dest)
		default:
			return CopyFile(dest, path)
		}
	})
}

// CopyFile copies a file from src to dest, keeping the permission bits of src.
func CopyFile(dest, src string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, srcFile); err != nil {
		destFile.Close()
		return err
	}
	if err := destFile.Close(); err != nil {
		return err
	}
	return os.Chmod(dest, info.Mode().Perm())
}
