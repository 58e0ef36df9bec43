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
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
)

// MetadataReference is the CBOR map the Solidity compiler appends to runtime
// bytecode. It points at the metadata document by content hash, on Swarm or
// IPFS depending on compiler version and settings. Unknown keys are ignored.
type MetadataReference struct {
	Bzzr0 []byte `cbor:"bzzr0"`
	Bzzr1 []byte `cbor:"bzzr1"`
	IPFS  []byte `cbor:"ipfs"`
	Solc  []byte `cbor:"solc"`
}

var (
	// ErrNoTrailer is returned when the bytecode is too short to carry a
	// length-prefixed trailer or the declared length overruns the bytecode.
	ErrNoTrailer = errors.New("bytecode carries no metadata trailer")

	// ErrNoMetadataReference is returned when the trailer decodes but
	// contains none of the recognized content-hash keys.
	ErrNoMetadataReference = errors.New("metadata trailer carries no recognized content reference")
)

// decMode accepts standard CBOR with string map keys. Non-map trailers and
// non-string keys are decode errors rather than silent zero values.
var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("bytecode: CBOR decoder initialization failed: " + err.Error())
	}
}

// DecodeTrailer extracts and decodes the metadata trailer of a hex bytecode
// string. The trailer's byte length is read from the final two bytes; the
// CBOR blob of that length precedes them.
func DecodeTrailer(code string) (*MetadataReference, error) {
	hexstr := strings.TrimPrefix(strings.ToLower(code), "0x")
	if len(hexstr) < 4 {
		return nil, ErrNoTrailer
	}
	blobLen, err := strconv.ParseUint(hexstr[len(hexstr)-4:], 16, 16)
	if err != nil {
		return nil, ErrNoTrailer
	}
	end := len(hexstr) - 4
	start := end - int(blobLen)*2
	if start < 0 {
		return nil, ErrNoTrailer
	}
	blob, err := hex.DecodeString(hexstr[start:end])
	if err != nil {
		return nil, fmt.Errorf("invalid trailer hex: %w", err)
	}
	var ref MetadataReference
	if err := decMode.Unmarshal(blob, &ref); err != nil {
		return nil, fmt.Errorf("invalid trailer CBOR: %w", err)
	}
	return &ref, nil
}

// ContentAddress is a repository path fragment derived from the content hash
// a compiled bytecode embeds, e.g. /swarm/bzzr1/<hex> or /ipfs/<base58>.
type ContentAddress string

// Locate derives the content address referenced by a compiled bytecode's
// metadata trailer. Keys are checked in the order bzzr0, bzzr1, ipfs; the
// first one present wins. Bytecode whose trailer carries none of them fails
// with ErrNoMetadataReference. A bytecode that just produced a perfect match
// always carries whatever reference the compiler emitted, so for that caller
// this error indicates an integrity fault, not a recoverable condition.
func Locate(code string) (ContentAddress, error) {
	ref, err := DecodeTrailer(code)
	if err != nil {
		return "", err
	}
	switch {
	case len(ref.Bzzr0) > 0:
		return ContentAddress("/swarm/bzzr0/" + hex.EncodeToString(ref.Bzzr0)), nil
	case len(ref.Bzzr1) > 0:
		return ContentAddress("/swarm/bzzr1/" + hex.EncodeToString(ref.Bzzr1)), nil
	case len(ref.IPFS) > 0:
		return ContentAddress("/ipfs/" + base58.Encode(ref.IPFS)), nil
	}
	return "", ErrNoMetadataReference
}
