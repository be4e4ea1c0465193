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

package buildpack

import (
	"path/filepath"

	"github.com/buildpacks/libcnb/v2"
	"github.com/laravelshim/buildpacks/pkg/buildererror"
)

const layerMode = 0755

// LayerOption configures a layer returned by Context.Layer.
type LayerOption func(ctx *Context, l *libcnb.Layer) error

// BuildLayer specifies that the layer is available during build.
func BuildLayer(ctx *Context, l *libcnb.Layer) error {
	l.Build = true
	return nil
}

// CacheLayer specifies that the layer is cached between builds.
func CacheLayer(ctx *Context, l *libcnb.Layer) error {
	l.Cache = true
	return nil
}

// LaunchLayer specifies that the layer is available at launch.
func LaunchLayer(ctx *Context, l *libcnb.Layer) error {
	l.Launch = true
	return nil
}

// Layer returns a layer, creating its directory if necessary. Under bin/compile the layer lives
// in the cache dir and its launch environment is exported through .profile.d.
func (ctx *Context) Layer(name string, opts ...LayerOption) (*libcnb.Layer, error) {
	var l libcnb.Layer
	if ctx.legacy {
		l = libcnb.Layer{
			Name:              name,
			Path:              filepath.Join(ctx.cacheDir, "layers", name),
			BuildEnvironment:  libcnb.Environment{},
			LaunchEnvironment: libcnb.Environment{},
			SharedEnvironment: libcnb.Environment{},
		}
	} else {
		var err error
		l, err = ctx.buildContext.Layers.Layer(name)
		if err != nil {
			return nil, buildererror.InternalErrorf("creating %s layer: %v", name, err)
		}
	}
	for _, o := range opts {
		if err := o(ctx, &l); err != nil {
			return nil, buildererror.InternalErrorf("applying layer option to %s: %v", name, err)
		}
	}
	if err := ctx.MkdirAll(l.Path, layerMode); err != nil {
		return nil, err
	}
	ctx.layers = append(ctx.layers, &l)
	return &l, nil
}

// Layers returns the layers created so far.
func (ctx *Context) Layers() []libcnb.Layer {
	layers := make([]libcnb.Layer, 0, len(ctx.layers))
	for _, l := range ctx.layers {
		layers = append(layers, *l)
	}
	return layers
}
