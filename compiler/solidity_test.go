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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolidityRejectsMalformedVersions(t *testing.T) {
	dir := t.TempDir()
	// A binary outside the solc directory that must never be selected.
	outside := filepath.Join(dir, "outside-binary")
	require.NoError(t, os.WriteFile(outside, []byte("#!/bin/sh\ntouch "+filepath.Join(dir, "marker")+"\n"), 0o755))

	solc := &Solidity{Dir: filepath.Join(dir, "bin")}
	input := &StandardInput{Language: "Solidity"}

	versions := []string{
		"",
		"../../../outside-binary",
		"0.8.17/../../outside-binary",
		"0.8.17+commit.8df45f5f/x",
		"0.8.17+commit.8DF45F5F", // commit hashes are lowercase hex
		"latest",
		"0.8+commit.8df45f5f",
		"-0.8.17+commit.8df45f5f",
	}
	for _, version := range versions {
		_, err := solc.Compile(context.Background(), version, input)
		require.ErrorContains(t, err, "invalid solc version", "version %q must be rejected", version)
	}
	_, err := os.Stat(filepath.Join(dir, "marker"))
	require.True(t, os.IsNotExist(err), "a rejected version still executed a binary")
}

func TestSolidityVersionPattern(t *testing.T) {
	valid := []string{
		"0.8.17+commit.8df45f5f",
		"0.4.24+commit.e67f0147",
		"0.8.18-nightly.2023.1.4+commit.7a9e7eb8",
		"10.0.0+commit.00000000",
	}
	for _, v := range valid {
		if !versionPattern.MatchString(v) {
			t.Errorf("version %q rejected, want accepted", v)
		}
	}
}

func TestSolidityMissingBinary(t *testing.T) {
	solc := &Solidity{Dir: t.TempDir()}
	_, err := solc.Compile(context.Background(), "0.8.17+commit.8df45f5f", &StandardInput{Language: "Solidity"})
	require.ErrorContains(t, err, "solc 0.8.17+commit.8df45f5f")
}
