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

package laravel

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"maps"
	"path/filepath"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/buildpack"
	"github.com/laravelshim/buildpacks/pkg/dotenv"
)

const (
	// EnvExample is the template Laravel ships for .env.
	EnvExample = ".env.example"
	// AppKey is the encryption key variable.
	AppKey = "APP_KEY"

	keyBytes = 32
)

// minimalEnv seeds a .env that the buildpack has to create from scratch.
var minimalEnv = map[string]string{
	"APP_ENV":     "production",
	"APP_DEBUG":   "false",
	"LOG_CHANNEL": "stderr",
}

// GenerateKey returns a fresh APP_KEY value in Laravel's base64: form.
func GenerateKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return "base64:" + base64.StdEncoding.EncodeToString(b), nil
}

// BootstrapEnv makes sure root/.env exists and carries an APP_KEY. With an artisan script the
// key comes from `php artisan key:generate`; without one, or when that fails, a random key is
// written directly. An existing key is never replaced by the fallback.
func BootstrapEnv(ctx *buildpack.Context, root string) error {
	envPath := filepath.Join(root, dotenv.FileName)
	hasArtisan, err := ctx.FileExists(root, Artisan)
	if err != nil {
		return err
	}
	if hasArtisan {
		if err := ensureEnvFile(ctx, root); err != nil {
			return err
		}
		_, err := ctx.Exec([]string{"php", Artisan, "key:generate", "--force"},
			buildpack.WithWorkDir(root), buildpack.WithUserAttribution)
		if err == nil {
			return nil
		}
		ctx.Warnf("php artisan key:generate failed, writing %s directly: %v", AppKey, err)
	} else {
		ctx.Logf("No %s script found, writing %s directly.", Artisan, AppKey)
	}
	return writeFallbackKey(ctx, envPath)
}

// ensureEnvFile copies .env.example to .env when needed and makes sure an APP_KEY line exists
// for key:generate to replace.
func ensureEnvFile(ctx *buildpack.Context, root string) error {
	envPath := filepath.Join(root, dotenv.FileName)
	exists, err := dotenv.Exists(envPath)
	if err != nil {
		return buildererror.InternalErrorf("checking %s: %v", dotenv.FileName, err)
	}
	if !exists {
		examplePath := filepath.Join(root, EnvExample)
		hasExample, err := dotenv.Exists(examplePath)
		if err != nil {
			return buildererror.InternalErrorf("checking %s: %v", EnvExample, err)
		}
		var content []byte
		if hasExample {
			if content, err = ctx.ReadFile(examplePath); err != nil {
				return err
			}
			ctx.Logf("Creating %s from %s", dotenv.FileName, EnvExample)
		}
		if err := ctx.WriteFile(envPath, content, 0644); err != nil {
			return err
		}
	}

	vars, err := dotenv.Read(envPath)
	if err != nil {
		return buildererror.UserErrorf("%v", err)
	}
	if _, ok := vars[AppKey]; ok {
		return nil
	}
	content, err := ctx.ReadFile(envPath)
	if err != nil {
		return err
	}
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		content = append(content, '\n')
	}
	content = append(content, AppKey+"=\n"...)
	return ctx.WriteFile(envPath, content, 0644)
}

func writeFallbackKey(ctx *buildpack.Context, envPath string) error {
	exists, err := dotenv.Exists(envPath)
	if err != nil {
		return buildererror.InternalErrorf("checking %s: %v", dotenv.FileName, err)
	}
	if exists {
		has, err := dotenv.HasValue(envPath, AppKey)
		if err != nil {
			return buildererror.UserErrorf("%v", err)
		}
		if has {
			ctx.Debugf("%s already sets %s", dotenv.FileName, AppKey)
			return nil
		}
	}

	key, err := GenerateKey()
	if err != nil {
		return buildererror.InternalErrorf("generating %s: %v", AppKey, err)
	}
	vars := map[string]string{AppKey: key}
	if !exists {
		maps.Copy(vars, minimalEnv)
	}
	if err := dotenv.Merge(envPath, vars); err != nil {
		return buildererror.InternalErrorf("%v", err)
	}
	return ctx.Chmod(envPath, 0644)
}
