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

// Package version provides utility methods for working with semantic versions.
package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver"
)

var (
	releaseRe   = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)
	stabilityRe = regexp.MustCompile(`@[a-zA-Z]+`)
	singlePipe  = regexp.MustCompile(`\s*\|{1,2}\s*`)
	operatorRe  = regexp.MustCompile(`([<>=!~^]+)\s+`)
)

// Release extracts the release part of a version string such as "8.3.0-dev" or
// "PHP 8.2.12 (cli)", dropping any pre-release or build suffix.
func Release(s string) (string, error) {
	m := releaseRe.FindString(s)
	if m == "" {
		return "", fmt.Errorf("no version found in %q", s)
	}
	return m, nil
}

// Satisfies reports whether version meets a composer-style constraint such as "^8.1",
// "~8.2.0", ">=8.1 <9.0" or "^8.1|^9.0". Stability flags are ignored.
func Satisfies(constraint, version string) (bool, error) {
	c, err := semver.NewConstraint(normalizeConstraint(constraint))
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	release, err := Release(version)
	if err != nil {
		return false, err
	}
	v, err := semver.NewVersion(release)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", version, err)
	}
	return c.Check(v), nil
}

// normalizeConstraint maps composer syntax onto semver syntax. Composer separates AND-ed
// ranges with spaces and accepts a single pipe for OR.
func normalizeConstraint(constraint string) string {
	c := stabilityRe.ReplaceAllString(strings.TrimSpace(constraint), "")
	c = singlePipe.ReplaceAllString(c, " || ")
	c = operatorRe.ReplaceAllString(c, "$1")
	var groups []string
	for _, g := range strings.Split(c, " || ") {
		groups = append(groups, strings.Join(strings.Fields(strings.ReplaceAll(g, ",", " ")), ", "))
	}
	return strings.Join(groups, " || ")
}
