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

package bytecode

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

// appendTrailer appends a CBOR-encoded metadata reference plus its two-byte
// big-endian length to a hex bytecode body, the way solc emits it.
func appendTrailer(body string, ref map[string]any) string {
	blob, err := cbor.Marshal(ref)
	if err != nil {
		panic(err)
	}
	return body + hex.EncodeToString(blob) + fmt.Sprintf("%04x", len(blob))
}

var (
	swarmHash = mustHex("d5f86b3d19ab4bb23e2ab2f1b7b2f66ac6bd9a9ce6a9dd7a0a83ab7b2e6bd9a9")
	ipfsHash  = mustHex("1220a0b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b1")
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestCompare(t *testing.T) {
	logic := "0x6080604052348015600e575f5ffd5b50603e80601a5f395ff3fe"
	v1 := appendTrailer(logic, map[string]any{"bzzr1": swarmHash})
	v2 := appendTrailer(logic, map[string]any{"ipfs": ipfsHash})

	tests := []struct {
		name               string
		deployed, compiled string
		want               Status
	}{
		{"identical", v1, v1, PerfectMatch},
		{"identical without prefix", v1[2:], v1, PerfectMatch},
		{"empty deployed", "", v1, NoMatch},
		{"empty code sentinel", "0x", v1, NoMatch},
		{"trailer differs only", v1, v2, PartialMatch},
		{"logic differs", appendTrailer("0xdead", map[string]any{"bzzr1": swarmHash}), v1, NoMatch},
		{"deployed shorter than trailer", "0xffff", v1, NoMatch},
		{"mixed case", "0x" + strings.ToUpper(v1[2:]), v1, PerfectMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.deployed, tt.compiled); got != tt.want {
				t.Errorf("Compare(%.20q, %.20q) = %v, want %v", tt.deployed, tt.compiled, got, tt.want)
			}
		})
	}
}

func TestComparePerfectForAnyNonEmpty(t *testing.T) {
	for _, code := range []string{"0x00", "0x60806040", appendTrailer("0x6080", map[string]any{"ipfs": ipfsHash})} {
		if got := Compare(code, code); got != PerfectMatch {
			t.Errorf("Compare(%q, %q) = %v, want PerfectMatch", code, code, got)
		}
	}
}

func TestTrimTrailer(t *testing.T) {
	logic := "0x60806040"
	full := appendTrailer(logic, map[string]any{"bzzr0": swarmHash})

	trimmed, ok := TrimTrailer(full)
	if !ok || trimmed != logic {
		t.Fatalf("TrimTrailer(%q) = %q, %v; want %q, true", full, trimmed, ok, logic)
	}

	// Underflow must report failure, never panic or go negative.
	for _, code := range []string{"", "0x", "0x60", "0xffff", "0x600060ff"} {
		trimmed, ok := TrimTrailer(code)
		if ok {
			t.Errorf("TrimTrailer(%q) = %q, true; want failure", code, trimmed)
		}
	}
}

func TestStatusString(t *testing.T) {
	if PerfectMatch.String() != "perfect" || PartialMatch.String() != "partial" || NoMatch.String() != "none" {
		t.Fatalf("unexpected status strings: %v %v %v", PerfectMatch, PartialMatch, NoMatch)
	}
}
