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

// Package php contains PHP buildpack library code.
package php

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/laravelshim/buildpacks/pkg/buildererror"
	"github.com/laravelshim/buildpacks/pkg/buildpack"
	"github.com/laravelshim/buildpacks/pkg/version"
)

const (
	// ComposerJSON is the name of the Composer package descriptor file.
	ComposerJSON = "composer.json"

	composerCacheLayer = "composer-cache"
)

// RequiredExtensions are forced into the require block of composer.json.
var RequiredExtensions = map[string]string{
	"ext-mbstring":   "*",
	"ext-pdo_sqlite": "*",
}

// ErrNoManifest is returned when the application has no composer.json.
var ErrNoManifest = errors.New("composer.json not found")

// composerInstallFlags skip dev dependencies and produce an optimized autoloader.
var composerInstallFlags = []string{"--no-dev", "--no-interaction", "--prefer-dist", "--optimize-autoloader"}

// Manifest represents the parts of composer.json the buildpack reads.
type Manifest struct {
	Require map[string]string `json:"require"`
}

// ReadComposerJSON returns the deserialized composer.json from the given dir.
func ReadComposerJSON(dir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ComposerJSON))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoManifest
	}
	if err != nil {
		return nil, buildererror.InternalErrorf("reading %s: %v", ComposerJSON, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, buildererror.UserErrorf("unmarshalling %s: %v", ComposerJSON, err)
	}
	return &m, nil
}

// PatchComposerJSON sets each of require into the require block of dir/composer.json. Every
// other key keeps its value and position; new requirements are appended in name order, so
// patching twice is a no-op.
func PatchComposerJSON(dir string, require map[string]string) error {
	path := filepath.Join(dir, ComposerJSON)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNoManifest
	}
	if err != nil {
		return buildererror.InternalErrorf("reading %s: %v", ComposerJSON, err)
	}

	doc, err := decodeObject(raw)
	if err != nil {
		return buildererror.UserErrorf("unmarshalling %s: %v", ComposerJSON, err)
	}
	var req object
	if r, ok := doc.get("require"); ok && string(bytes.TrimSpace(r)) != "null" {
		if req, err = decodeObject(r); err != nil {
			return buildererror.UserErrorf("unmarshalling require block of %s: %v", ComposerJSON, err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(require)) {
		v, err := json.Marshal(require[name])
		if err != nil {
			return buildererror.InternalErrorf("marshalling constraint for %s: %v", name, err)
		}
		req.set(name, v)
	}
	reqRaw, err := req.encode("")
	if err != nil {
		return err
	}
	doc.set("require", reqRaw)

	out, err := doc.encode("")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
		return buildererror.InternalErrorf("writing %s: %v", ComposerJSON, err)
	}
	return nil
}

type member struct {
	key   string
	value json.RawMessage
}

// object is a JSON object that remembers the order of its keys.
type object []member

func (o object) get(key string) (json.RawMessage, bool) {
	for _, m := range o {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

func (o *object) set(key string, value json.RawMessage) {
	for i := range *o {
		if (*o)[i].key == key {
			(*o)[i].value = value
			return
		}
	}
	*o = append(*o, member{key: key, value: value})
}

func decodeObject(raw []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if tok != json.Delim('{') {
		return nil, fmt.Errorf("want a JSON object, got %v", tok)
	}
	o := object{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("want an object key, got %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		o.set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after the top-level object")
	}
	return o, nil
}

// encode writes o in composer's own style: four-space indent, no HTML escaping. Nested values
// are reindented to the depth given by prefix.
func (o object) encode(prefix string) (json.RawMessage, error) {
	if len(o) == 0 {
		return json.RawMessage("{}"), nil
	}
	inner := prefix + "    "
	var b bytes.Buffer
	b.WriteString("{\n")
	for i, m := range o {
		key, err := marshalString(m.key)
		if err != nil {
			return nil, err
		}
		b.WriteString(inner)
		b.Write(key)
		b.WriteString(": ")
		if err := json.Indent(&b, m.value, inner, "    "); err != nil {
			return nil, buildererror.InternalErrorf("marshalling %s: %v", ComposerJSON, err)
		}
		if i < len(o)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(prefix + "}")
	return b.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, buildererror.InternalErrorf("marshalling %s: %v", ComposerJSON, err)
	}
	return bytes.TrimRight(b.Bytes(), "\n"), nil
}

// Version returns the installed version of PHP.
func Version(ctx *buildpack.Context) (string, error) {
	result, err := ctx.Exec([]string{"php", "-r", "echo PHP_VERSION;"})
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// CheckVersion compares the installed PHP against the require.php constraint in composer.json
// and warns on a mismatch. Nothing is checked without a manifest or constraint.
func CheckVersion(ctx *buildpack.Context, dir string) error {
	m, err := ReadComposerJSON(dir)
	if errors.Is(err, ErrNoManifest) {
		return nil
	}
	if err != nil {
		return err
	}
	constraint := m.Require["php"]
	if constraint == "" {
		return nil
	}
	installed, err := Version(ctx)
	if err != nil {
		return err
	}
	ok, err := version.Satisfies(constraint, installed)
	if err != nil {
		ctx.Warnf("Unable to compare PHP %s with constraint %q: %v", installed, constraint, err)
		return nil
	}
	if !ok {
		ctx.Warnf("PHP %s does not satisfy the constraint %q in %s.", installed, constraint, ComposerJSON)
		return nil
	}
	ctx.Logf("Using PHP %s (%s requires %q).", installed, ComposerJSON, constraint)
	return nil
}

// ComposerInstall runs `composer install` in dir. Downloads are cached in a cache layer.
func ComposerInstall(ctx *buildpack.Context, dir string) error {
	opts := []buildpack.ExecOption{buildpack.WithWorkDir(dir), buildpack.WithUserAttribution}
	if l, err := ctx.Layer(composerCacheLayer, buildpack.CacheLayer); err != nil {
		ctx.Debugf("Composer download cache unavailable: %v", err)
	} else {
		opts = append(opts, buildpack.WithEnv("COMPOSER_CACHE_DIR="+l.Path))
	}
	cmd := append([]string{"composer", "install"}, composerInstallFlags...)
	_, err := ctx.Exec(cmd, opts...)
	return err
}
