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

// Package nginx renders the nginx and php-fpm configuration served at launch.
package nginx

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/laravelshim/buildpacks/pkg/fileutil"
)

// Paths of the generated files, relative to the application root.
const (
	MimeTypesPath     = "nginx/mime.types"
	FastCGIParamsPath = "nginx/fastcgi_params"
	ConfPath          = "nginx/nginx.conf"
	FPMConfPath       = ".heroku/php/etc/php-fpm.conf"
	FPMPoolPath       = ".heroku/php/etc/php-fpm.d/www.conf"
	// FPMPrefix is the php-fpm prefix; include paths in FPMConfPath are relative to it.
	FPMPrefix = ".heroku/php"
)

const (
	// PortToken is left in nginx.conf and replaced by start.sh once the platform assigns a port.
	PortToken = "$PORT"
	// DefaultFPMListen is the FastCGI address shared by nginx and php-fpm.
	DefaultFPMListen = "127.0.0.1:9000"
)

// Config represents the content values of the nginx config file.
type Config struct {
	Port            string
	DocumentRoot    string
	FrontController string
	FPMListen       string
	// Include is an optional app-provided file included in the server block.
	Include string
}

// FPMConfig represents the content values of the php-fpm pool config.
type FPMConfig struct {
	ListenAddress   string
	MaxChildren     int
	StartServers    int
	MinSpareServers int
	MaxSpareServers int
}

// DefaultFPMConfig is the fixed pool sizing.
var DefaultFPMConfig = FPMConfig{
	ListenAddress:   DefaultFPMListen,
	MaxChildren:     5,
	StartServers:    2,
	MinSpareServers: 1,
	MaxSpareServers: 3,
}

// NginxTemplate produces the complete nginx.conf. Relative paths resolve against the nginx
// prefix, which start.sh sets to the application root.
var NginxTemplate = template.Must(template.New("nginx").Parse(`daemon off;
worker_processes auto;
pid /tmp/nginx.pid;
error_log stderr;

events {
	worker_connections 1024;
}

http {
	include mime.types;
	default_type application/octet-stream;

	access_log /dev/stdout;
	sendfile on;
	keepalive_timeout 65;
	client_max_body_size 32m;
	server_tokens off;

	client_body_temp_path /tmp/nginx_client_body;
	fastcgi_temp_path /tmp/nginx_fastcgi;
	proxy_temp_path /tmp/nginx_proxy;
	uwsgi_temp_path /tmp/nginx_uwsgi;
	scgi_temp_path /tmp/nginx_scgi;

	upstream php_fpm {
		server {{.FPMListen}} fail_timeout=0;
	}

	server {
		listen {{.Port}} default_server;
		server_name _;
		root {{.DocumentRoot}};
		index {{.FrontController}};
		charset utf-8;

		location / {
			try_files $uri $uri/ /{{.FrontController}}?$query_string;
		}

		location = /favicon.ico { access_log off; log_not_found off; }
		location = /robots.txt  { access_log off; log_not_found off; }

		location ~ \.php$ {
			try_files $uri =404;
			fastcgi_split_path_info ^(.+\.php)(/.+)$;
			fastcgi_pass php_fpm;
			fastcgi_index {{.FrontController}};
			include fastcgi_params;
			fastcgi_param SCRIPT_FILENAME $realpath_root$fastcgi_script_name;
			fastcgi_param DOCUMENT_ROOT $realpath_root;
		}

		location ~ /\.(?!well-known).* {
			deny all;
		}
{{- if .Include}}

		include {{.Include}};
{{- end}}
	}
}
`))

// FPMTemplate produces the global php-fpm config.
var FPMTemplate = template.Must(template.New("php-fpm").Parse(`[global]
pid = /tmp/php-fpm.pid
; Send errors to stderr.
error_log = /proc/self/fd/2
log_level = warning
daemonize = no

include = etc/php-fpm.d/*.conf
`))

// FPMPoolTemplate produces the www pool config.
var FPMPoolTemplate = template.Must(template.New("www").Parse(`[www]
listen = {{.ListenAddress}}

pm = dynamic
pm.max_children = {{.MaxChildren}}
pm.start_servers = {{.StartServers}}
pm.min_spare_servers = {{.MinSpareServers}}
pm.max_spare_servers = {{.MaxSpareServers}}

; Keep the environment variables of the parent.
clear_env = no

catch_workers_output = yes
decorate_workers_output = no
`))

// Files renders the nginx and php-fpm configuration. Empty fields of c take their defaults.
func Files(c Config, fpm FPMConfig) ([]fileutil.File, error) {
	if c.Port == "" {
		c.Port = PortToken
	}
	if c.FPMListen == "" {
		c.FPMListen = DefaultFPMListen
	}
	if fpm.ListenAddress == "" {
		fpm.ListenAddress = c.FPMListen
	}
	conf, err := render(NginxTemplate, c)
	if err != nil {
		return nil, err
	}
	global, err := render(FPMTemplate, fpm)
	if err != nil {
		return nil, err
	}
	pool, err := render(FPMPoolTemplate, fpm)
	if err != nil {
		return nil, err
	}
	return []fileutil.File{
		{Path: MimeTypesPath, Mode: 0644, Content: []byte(mimeTypes)},
		{Path: FastCGIParamsPath, Mode: 0644, Content: []byte(fastCGIParams)},
		{Path: ConfPath, Mode: 0644, Content: conf},
		{Path: FPMConfPath, Mode: 0644, Content: global},
		{Path: FPMPoolPath, Mode: 0644, Content: pool},
	}, nil
}

func render(t *template.Template, data any) ([]byte, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", t.Name(), err)
	}
	return b.Bytes(), nil
}
