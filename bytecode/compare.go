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

// Package bytecode classifies how closely a recompiled contract matches the
// bytecode deployed on chain, and decodes the metadata reference that Solidity
// compilers append to runtime bytecode.
package bytecode

import (
	"strconv"
	"strings"
)

// Status is the outcome of comparing deployed against recompiled bytecode.
type Status int

const (
	// NoMatch means the two bytecodes differ in their executable portion,
	// or the deployed code is empty.
	NoMatch Status = iota

	// PartialMatch means the bytecodes are identical except for the
	// trailing metadata reference appended by the compiler.
	PartialMatch

	// PerfectMatch means the bytecodes are byte-identical, metadata
	// trailer included.
	PerfectMatch
)

func (s Status) String() string {
	switch s {
	case PerfectMatch:
		return "perfect"
	case PartialMatch:
		return "partial"
	default:
		return "none"
	}
}

// emptyCode is what an RPC node returns for an address with no contract.
const emptyCode = "0x"

// Compare classifies deployed on-chain bytecode against recompiled bytecode.
// Both are hex strings; a missing 0x prefix and mixed case are tolerated.
//
// Empty deployed code never matches anything. Byte-identical code is a
// PerfectMatch. Code that is identical after stripping the metadata trailer
// from both sides is a PartialMatch: the contract logic was reproduced
// exactly and only the embedded compiler fingerprint differs.
func Compare(deployed, compiled string) Status {
	deployed, compiled = normalize(deployed), normalize(compiled)
	if deployed == "" || deployed == emptyCode {
		return NoMatch
	}
	if deployed == compiled {
		return PerfectMatch
	}
	dtrim, dok := TrimTrailer(deployed)
	ctrim, cok := TrimTrailer(compiled)
	if dok && cok && dtrim == ctrim {
		return PartialMatch
	}
	return NoMatch
}

// TrimTrailer removes the length-prefixed metadata trailer from a hex
// bytecode string. The last two bytes of runtime bytecode encode, big endian,
// the byte length of the CBOR blob that precedes them; the blob and the two
// length bytes are removed. ok is false when the declared length exceeds the
// bytecode itself, which happens for malformed or truncated input.
func TrimTrailer(code string) (trimmed string, ok bool) {
	hexstr := strings.TrimPrefix(code, "0x")
	if len(hexstr) < 4 {
		return code, false
	}
	blobLen, err := strconv.ParseUint(hexstr[len(hexstr)-4:], 16, 16)
	if err != nil {
		return code, false
	}
	// Two hex characters per blob byte, plus the four for the length itself.
	cut := int(blobLen)*2 + 4
	if cut > len(hexstr) {
		return code, false
	}
	return "0x" + hexstr[:len(hexstr)-cut], true
}

func normalize(code string) string {
	code = strings.ToLower(code)
	if code == "" || strings.HasPrefix(code, "0x") {
		return code
	}
	return "0x" + code
}
