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

package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// versionPattern is the solc release shape metadata documents carry, e.g.
// "0.8.17+commit.8df45f5f" or "0.8.18-nightly.2023.1.4+commit.7a9e7eb8".
// The version string names an executable under Dir, so anything outside
// this shape is rejected before a path is built from it; a crafted version
// with path separators must never select a binary outside Dir.
var versionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+(-[0-9A-Za-z.]+)?\+commit\.[0-9a-f]+$`)

// Solidity runs version-pinned solc executables via --standard-json. A
// metadata document pins the exact release that built the deployed contract
// (e.g. "0.8.17+commit.8df45f5f"); recompiling under any other release
// cannot reproduce the deployed bytecode, so there is no fallback binary.
type Solidity struct {
	// Dir holds one executable per release, named solc-v<version>.
	Dir string

	// Path, when set, is used for every version. Intended for tests and
	// single-version deployments.
	Path string
}

// Compile implements Compiler by invoking the solc release named by version.
// The version string comes from the submitted metadata and is untrusted; it
// is validated against the solc release shape before any path is built.
func (s *Solidity) Compile(ctx context.Context, version string, input *StandardInput) (*StandardOutput, error) {
	if !versionPattern.MatchString(version) {
		return nil, fmt.Errorf("invalid solc version %q", version)
	}
	bin := s.Path
	if bin == "" {
		bin = filepath.Join(s.Dir, "solc-v"+version)
	}
	in, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, "--standard-json")
	cmd.Stdin = bytes.NewReader(in)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("solc %s: %w: %s", version, err, bytes.TrimSpace(stderr.Bytes()))
	}

	var out StandardOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("solc %s produced invalid output: %w", version, err)
	}
	log.Debug("Recompiled sources", "version", version, "sources", len(input.Sources), "elapsed", common.PrettyDuration(time.Since(start)))
	return &out, nil
}
