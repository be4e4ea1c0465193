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

// Package database prepares and checks the application database at build time.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/laravelshim/buildpacks/pkg/dburl"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// SQLitePath is the default Laravel sqlite database, relative to the application root.
var SQLitePath = filepath.Join("database", "database.sqlite")

// ProbeTimeout bounds a reachability probe.
const ProbeTimeout = 10 * time.Second

// EnsureSQLite creates root/database/database.sqlite if needed and checks that it opens as a
// sqlite database. It returns the absolute path of the file and whether it was created.
func EnsureSQLite(ctx context.Context, root string) (string, bool, error) {
	path := filepath.Join(root, SQLitePath)
	created := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", false, fmt.Errorf("creating %s: %w", filepath.Dir(SQLitePath), err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return "", false, fmt.Errorf("creating %s: %w", SQLitePath, err)
		}
		if err := f.Close(); err != nil {
			return "", false, fmt.Errorf("closing %s: %w", SQLitePath, err)
		}
		created = true
	} else if err != nil {
		return "", false, fmt.Errorf("checking %s: %w", SQLitePath, err)
	}

	if err := checkSQLite(ctx, path); err != nil {
		return path, created, err
	}
	return path, created, nil
}

func checkSQLite(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", SQLitePath, err)
	}
	defer db.Close()

	// The schema query forces sqlite to read the file header.
	var n int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		return fmt.Errorf("reading %s: %w", SQLitePath, err)
	}
	return nil
}

// Probe connects to the PostgreSQL server described by c and pings it.
func Probe(ctx context.Context, c dburl.Connection) error {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, c.DSN())
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.Redacted(), err)
	}
	defer conn.Close(context.Background())

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("pinging %s: %w", c.Redacted(), err)
	}
	return nil
}
