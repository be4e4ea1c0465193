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

// Package dotenv reads and rewrites the application's .env file.
package dotenv

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// FileName is the Laravel environment file at the application root.
const FileName = ".env"

// assignment matches the start of a KEY=value line, as accepted by godotenv.
var assignment = regexp.MustCompile(`^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_.]*)\s*[=:]`)

// Read parses the variables in path. A missing file yields an empty map.
func Read(path string) (map[string]string, error) {
	envMap, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading environment variables at %v: %w", path, err)
	}
	return envMap, nil
}

// Merge sets vars in the file at path, creating it if missing. Lines assigning one of vars are
// replaced where they stand and the remaining vars are appended in name order. Every other
// line, comments and ${VAR} references included, is kept byte for byte.
func Merge(path string, vars map[string]string) error {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading environment variables at %v: %w", path, err)
	}
	out, err := upsert(string(content), vars)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return fmt.Errorf("writing environment variables to %v: %w", path, err)
	}
	return nil
}

func upsert(content string, vars map[string]string) (string, error) {
	var lines []string
	if content != "" {
		lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	}
	set := map[string]bool{}
	var out []string
	for i := 0; i < len(lines); i++ {
		m := assignment.FindStringSubmatchIndex(lines[i])
		if m == nil {
			out = append(out, lines[i])
			continue
		}
		key := lines[i][m[2]:m[3]]
		end := valueEnd(lines, i, lines[i][m[1]:])
		v, ok := vars[key]
		if !ok {
			out = append(out, lines[i:end+1]...)
			i = end
			continue
		}
		line, err := format(key, v)
		if err != nil {
			return "", err
		}
		out = append(out, line)
		set[key] = true
		i = end
	}
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		if set[key] {
			continue
		}
		line, err := format(key, vars[key])
		if err != nil {
			return "", err
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return "", nil
	}
	return strings.Join(out, "\n") + "\n", nil
}

// valueEnd returns the index of the last line of the assignment starting at lines[i]. Quoted
// values may span lines until their closing quote.
func valueEnd(lines []string, i int, value string) int {
	value = strings.TrimLeft(value, " \t")
	if value == "" || (value[0] != '"' && value[0] != '\'') {
		return i
	}
	q := value[0]
	if closesQuote(value[1:], q) {
		return i
	}
	for j := i + 1; j < len(lines); j++ {
		if closesQuote(lines[j], q) {
			return j
		}
	}
	return len(lines) - 1
}

func closesQuote(s string, q byte) bool {
	for k := 0; k < len(s); k++ {
		if s[k] == q && (k == 0 || s[k-1] != '\\') {
			return true
		}
	}
	return false
}

func format(key, value string) (string, error) {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return "", fmt.Errorf("formatting %s: %w", key, err)
	}
	return line, nil
}

// HasValue reports whether path sets key to a non-empty value.
func HasValue(path, key string) (bool, error) {
	envMap, err := Read(path)
	if err != nil {
		return false, err
	}
	return envMap[key] != "", nil
}

// Exists reports whether the file at path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
