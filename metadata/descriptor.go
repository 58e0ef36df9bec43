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

// Package metadata parses Solidity compiler metadata documents and
// reconstructs the exact source set a document commits to.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Language is the only source language this verifier handles.
const Language = "Solidity"

// RawFile is an uploaded blob as submitted, identified only by its content.
// The path is advisory; source resolution goes by keccak-256 digest.
type RawFile struct {
	Path string
	Data []byte
}

// SourceInfo describes one source file a metadata document references. The
// keccak-256 digest is the commitment; content may additionally be inlined.
type SourceInfo struct {
	Content   string   `json:"content,omitempty"`
	Keccak256 string   `json:"keccak256"`
	URLs      []string `json:"urls,omitempty"`
}

// CompilerInfo names the exact compiler release the document was built with.
type CompilerInfo struct {
	Version string `json:"version"`
}

// Descriptor is a parsed compiler metadata document. It is treated as
// immutable once verification starts: compiler input is derived from it, the
// document itself is never modified. Settings entries other than
// compilationTarget are carried opaquely so the recompilation sees the exact
// settings the original build used.
type Descriptor struct {
	Language string                     `json:"language"`
	Compiler CompilerInfo               `json:"compiler"`
	Settings map[string]json.RawMessage `json:"settings"`
	Sources  map[string]SourceInfo      `json:"sources"`

	raw []byte
}

// ErrNoMetadata is returned when no uploaded file parses as a Solidity
// compiler metadata document.
var ErrNoMetadata = errors.New("metadata file not found or invalid")

// TargetError reports a compilationTarget that does not resolve to exactly
// one contract.
type TargetError struct {
	Count int
}

func (e *TargetError) Error() string {
	if e.Count == 0 {
		return "metadata settings carry no compilationTarget"
	}
	return fmt.Sprintf("compilationTarget is ambiguous: %d entries, want exactly 1", e.Count)
}

// Parse decodes a single metadata document. The original bytes are retained
// so the document can be re-serialized exactly as uploaded.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	d.raw = data
	return &d, nil
}

// JSON returns the document exactly as it was uploaded.
func (d *Descriptor) JSON() []byte {
	return d.raw
}

// Target resolves the document's compilation target. A valid document names
// exactly one (source file, contract name) pair; zero or several fail with a
// TargetError.
func (d *Descriptor) Target() (file, contract string, err error) {
	rawTarget, ok := d.Settings["compilationTarget"]
	if !ok {
		return "", "", &TargetError{}
	}
	var target map[string]string
	if err := json.Unmarshal(rawTarget, &target); err != nil {
		return "", "", fmt.Errorf("invalid compilationTarget: %w", err)
	}
	if len(target) != 1 {
		return "", "", &TargetError{Count: len(target)}
	}
	for f, c := range target {
		file, contract = f, c
	}
	return file, contract, nil
}

// Select filters uploaded files down to Solidity metadata documents. Files
// that do not parse as JSON are skipped without complaint, since uploads mix
// metadata with sources and arbitrary extras. Input order is preserved.
func Select(files []RawFile) ([]*Descriptor, error) {
	var selected []*Descriptor
	for _, f := range files {
		d, err := Parse(f.Data)
		if err != nil {
			continue
		}
		if d.Language != Language {
			continue
		}
		selected = append(selected, d)
	}
	if len(selected) == 0 {
		return nil, ErrNoMetadata
	}
	return selected, nil
}

// declaredHash parses a source's declared keccak-256 digest. The 0x prefix
// is optional in the wild.
func (s *SourceInfo) declaredHash() (common.Hash, error) {
	in := s.Keccak256
	if !strings.HasPrefix(in, "0x") {
		in = "0x" + in
	}
	b, err := hexutil.Decode(in)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid keccak256 digest %q", s.Keccak256)
	}
	return common.BytesToHash(b), nil
}
