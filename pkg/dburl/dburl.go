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

// Package dburl decomposes a DATABASE_URL connection string into Laravel DB_* settings.
package dburl

import (
	"net"
	"net/url"
	"strings"

	"github.com/laravelshim/buildpacks/pkg/env"
)

const (
	prefix = "postgres://"

	// Driver is the Laravel connection name for PostgreSQL.
	Driver = "pgsql"
	// DefaultPort is used when the URL carries no port.
	DefaultPort = "5432"
)

// Connection holds the discrete fields of a connection URL.
type Connection struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
}

// Parse decomposes raw if it starts with postgres://. Any other value, or a URL that does not
// parse, reports ok=false and must leave existing DB_* settings untouched.
// Percent-encoded credentials are decoded.
func Parse(raw string) (Connection, bool) {
	if !strings.HasPrefix(raw, prefix) {
		return Connection{}, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Connection{}, false
	}
	c := Connection{
		Host: u.Hostname(),
		Port: u.Port(),
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if i := strings.LastIndex(u.Path, "/"); i >= 0 {
		c.Database = u.Path[i+1:]
	}
	if u.User != nil {
		c.Username = u.User.Username()
		c.Password, _ = u.User.Password()
	}
	return c, true
}

// Env returns the Laravel variables describing the connection.
func (c Connection) Env() map[string]string {
	return map[string]string{
		env.DBConnection: Driver,
		env.DBHost:       c.Host,
		env.DBPort:       c.Port,
		env.DBDatabase:   c.Database,
		env.DBUsername:   c.Username,
		env.DBPassword:   c.Password,
	}
}

// Address returns host:port.
func (c Connection) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DSN returns a URL suitable for a PostgreSQL driver, with credentials re-encoded.
func (c Connection) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   c.Address(),
		Path:   "/" + c.Database,
	}
	if c.Username != "" || c.Password != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String()
}

// Redacted returns the connection as a URL with the password masked, for logging.
func (c Connection) Redacted() string {
	u, err := url.Parse(c.DSN())
	if err != nil {
		return c.Address()
	}
	return u.Redacted()
}
