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

// Package source fetches the application code from a git repository or a tarball and merges it
// into the build directory.
package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/buildpack"
	"github.com/laravelshim/buildpacks/pkg/config"
	"github.com/laravelshim/buildpacks/pkg/dotenv"
	"github.com/laravelshim/buildpacks/pkg/fetch"
	"github.com/laravelshim/buildpacks/pkg/fileutil"
	"github.com/rs/xid"
)

// checkout is the directory inside the scratch dir that receives the code.
const checkout = "src"

// Fetch retrieves src into a scratch directory and copies it over appRoot. The .git directory
// is not copied and an existing appRoot/.env survives unchanged.
func Fetch(ctx *buildpack.Context, src config.Source, appRoot string) error {
	if !src.Configured() {
		return nil
	}
	scratch := filepath.Join(os.TempDir(), "laravel-source-"+xid.New().String())
	if err := ctx.MkdirAll(scratch, 0755); err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			ctx.Debugf("Removing %s: %v", scratch, err)
		}
	}()

	var root string
	var err error
	if src.Repository != "" {
		root, err = clone(ctx, src, scratch)
	} else {
		root, err = download(ctx, src.Archive, scratch)
	}
	if err != nil {
		return err
	}
	return merge(ctx, root, appRoot)
}

func clone(ctx *buildpack.Context, src config.Source, scratch string) (string, error) {
	cmd := []string{"git", "clone", "--depth", "1"}
	if src.Revision != "" {
		cmd = append(cmd, "--branch", src.Revision)
	}
	cmd = append(cmd, src.Repository, checkout)
	ctx.Logf("Cloning %s", src.Repository)
	if _, err := ctx.Exec(cmd,
		buildpack.WithWorkDir(scratch),
		buildpack.WithEnv("GIT_TERMINAL_PROMPT=0"),
		buildpack.WithUserAttribution); err != nil {
		return "", err
	}
	return filepath.Join(scratch, checkout), nil
}

func download(ctx *buildpack.Context, url, scratch string) (string, error) {
	dir := filepath.Join(scratch, checkout)
	c, cancel := context.WithTimeout(context.Background(), fetch.DefaultTimeout)
	defer cancel()
	ctx.Logf("Downloading %s", url)
	if err := fetch.Tarball(c, url, dir, 0); err != nil {
		return "", err
	}
	return singleTopLevelDir(dir)
}

// singleTopLevelDir descends into dir's only entry when that entry is a directory, which is
// how hosted archives wrap a repository.
func singleTopLevelDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", buildererror.InternalErrorf("reading %s: %v", dir, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

func merge(ctx *buildpack.Context, from, appRoot string) error {
	envPath := filepath.Join(appRoot, dotenv.FileName)
	snapshot, err := os.ReadFile(envPath)
	hadEnv := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return buildererror.InternalErrorf("reading %s: %v", dotenv.FileName, err)
	}

	if err := fileutil.MaybeCopyPathContents(appRoot, from, fileutil.ExcludeNames(".git")); err != nil {
		return buildererror.InternalErrorf("copying fetched source into %s: %v", appRoot, err)
	}

	if hadEnv {
		if err := ctx.WriteFile(envPath, snapshot, 0644); err != nil {
			return err
		}
		ctx.Debugf("Restored existing %s", dotenv.FileName)
	}
	return nil
}
