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

package metadata

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SourceSet maps source filename to its verified content. Every entry's
// keccak-256 digest equals the digest its descriptor declared.
type SourceSet map[string]string

// SourceHashMismatchError reports inline source content whose digest does
// not equal the digest the descriptor declared for it.
type SourceHashMismatchError struct {
	File     string
	Declared common.Hash
	Actual   common.Hash
}

func (e *SourceHashMismatchError) Error() string {
	return fmt.Sprintf("source %q hash mismatch: declared %s, content hashes to %s", e.File, e.Declared.Hex(), e.Actual.Hex())
}

// SourceNotFoundError reports a declared source for which no uploaded file
// carries the declared digest.
type SourceNotFoundError struct {
	File     string
	Declared common.Hash
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source %q not found: no uploaded file hashes to %s", e.File, e.Declared.Hex())
}

// Assemble reconstructs the source set a descriptor commits to. Uploaded
// files are indexed by keccak-256 digest; each declared source is satisfied
// either by inline content (verified against the declared digest) or by
// digest lookup in the uploads. Uploads the descriptor does not reference
// are ignored. This is the tamper-detection boundary: the bytes handed to
// the compiler are exactly the bytes the descriptor's author committed to.
func Assemble(d *Descriptor, files []RawFile) (SourceSet, error) {
	byHash := make(map[common.Hash]string, len(files))
	for _, f := range files {
		byHash[crypto.Keccak256Hash(f.Data)] = string(f.Data)
	}

	sources := make(SourceSet, len(d.Sources))
	for name, info := range d.Sources {
		declared, err := info.declaredHash()
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		if info.Content != "" {
			actual := crypto.Keccak256Hash([]byte(info.Content))
			if actual != declared {
				return nil, &SourceHashMismatchError{File: name, Declared: declared, Actual: actual}
			}
			sources[name] = info.Content
			continue
		}
		content, ok := byHash[declared]
		if !ok {
			return nil, &SourceNotFoundError{File: name, Declared: declared}
		}
		sources[name] = content
	}
	return sources, nil
}
