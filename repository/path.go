// Copyright 2025 The sourcify-go Authors
// This file is part of the sourcify-go library.
//
// The sourcify-go library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The sourcify-go library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the sourcify-go library. If not, see <http://www.gnu.org/licenses/>.

// Package repository defines the deterministic path scheme under which
// verified contract artifacts are stored, and writes them through a
// filesystem abstraction.
package repository

import (
	"regexp"
	"strings"
)

var unsafeChar = regexp.MustCompile(`[^a-zA-Z0-9_./-]`)

// Sanitize rewrites a source filename into a safe repository path fragment.
// Characters outside [a-zA-Z0-9_./-] become underscores, and any path
// segment consisting solely of dots collapses to a single underscore, so a
// crafted filename like "../../etc/passwd" cannot escape the repository
// root. Sanitization is deterministic: re-verifying the same sources lands
// on the same paths.
func Sanitize(name string) string {
	name = unsafeChar.ReplaceAllString(name, "_")
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		if seg != "" && strings.Trim(seg, ".") == "" {
			segments[i] = "_"
		}
	}
	return strings.Join(segments, "/")
}
