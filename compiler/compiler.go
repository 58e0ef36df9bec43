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

// Package compiler defines the external compiler contract the verification
// pipeline consumes, the solc standard-JSON structures it speaks, and a
// runner that shells out to version-pinned solc executables.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/sourcify-go/metadata"
)

// Compiler recompiles sources under a pinned compiler release. The pipeline
// owns input derivation and output extraction; implementations only run the
// compiler.
type Compiler interface {
	Compile(ctx context.Context, version string, input *StandardInput) (*StandardOutput, error)
}

// SourceContent is the literal content of one input source.
type SourceContent struct {
	Content string `json:"content"`
}

// StandardInput is a solc --standard-json input document.
type StandardInput struct {
	Language string                     `json:"language"`
	Sources  map[string]SourceContent   `json:"sources"`
	Settings map[string]json.RawMessage `json:"settings"`
}

// BytecodeObject wraps the hex object string solc emits for a bytecode.
type BytecodeObject struct {
	Object string `json:"object"`
}

// ContractOutput is the per-contract slice of a standard-JSON output.
type ContractOutput struct {
	EVM struct {
		Bytecode         BytecodeObject `json:"bytecode"`
		DeployedBytecode BytecodeObject `json:"deployedBytecode"`
	} `json:"evm"`
	Metadata string `json:"metadata"`
}

// Diagnostic is one entry of the output's errors array.
type Diagnostic struct {
	Severity         string `json:"severity"`
	Type             string `json:"type"`
	Message          string `json:"message"`
	FormattedMessage string `json:"formattedMessage"`
}

// StandardOutput is a solc --standard-json output document, reduced to the
// fields verification consumes.
type StandardOutput struct {
	Errors    []Diagnostic                         `json:"errors,omitempty"`
	Contracts map[string]map[string]ContractOutput `json:"contracts,omitempty"`
}

// Result is the compiled artifact triple for a verification target. Both
// bytecodes are 0x-prefixed hex; Metadata is the canonical metadata document
// the compiler re-emitted for this exact compilation.
type Result struct {
	Bytecode         string
	DeployedBytecode string
	Metadata         string
}

// Error reports a failed compilation: fatal compiler diagnostics, or output
// that does not contain the requested contract.
type Error struct {
	Target      string
	Diagnostics []Diagnostic
}

func (e *Error) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("compilation produced no output for %s", e.Target)
	}
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = strings.TrimSpace(d.FormattedMessage)
		if msgs[i] == "" {
			msgs[i] = d.Message
		}
	}
	return fmt.Sprintf("compilation of %s failed: %s", e.Target, strings.Join(msgs, "; "))
}

// DeriveInput builds the standard-JSON input that reproduces the compilation
// a metadata descriptor describes. The descriptor's settings are carried
// verbatim with two changes: compilationTarget is removed (it is a metadata
// artifact, not a compiler setting) and outputSelection is overridden to
// request exactly the artifacts verification needs, scoped to the resolved
// target. The descriptor itself is never modified.
func DeriveInput(d *metadata.Descriptor, sources metadata.SourceSet) (input *StandardInput, file, contract string, err error) {
	file, contract, err = d.Target()
	if err != nil {
		return nil, "", "", err
	}

	settings := make(map[string]json.RawMessage, len(d.Settings)+1)
	for k, v := range d.Settings {
		if k == "compilationTarget" {
			continue
		}
		settings[k] = v
	}
	selection, err := json.Marshal(map[string]map[string][]string{
		file: {contract: {"evm.bytecode", "evm.deployedBytecode", "metadata"}},
	})
	if err != nil {
		return nil, "", "", err
	}
	settings["outputSelection"] = selection

	in := &StandardInput{
		Language: d.Language,
		Sources:  make(map[string]SourceContent, len(sources)),
		Settings: settings,
	}
	for name, content := range sources {
		in.Sources[name] = SourceContent{Content: content}
	}
	return in, file, contract, nil
}

// Contract extracts the verification target's artifacts from a compiler
// output. Fatal diagnostics fail the extraction, as does output lacking the
// requested contract; warnings are tolerated. Bytecodes are returned with
// the 0x prefix solc omits.
func (out *StandardOutput) Contract(file, contract string) (*Result, error) {
	target := file + ":" + contract
	var fatal []Diagnostic
	for _, d := range out.Errors {
		if d.Severity == "error" {
			fatal = append(fatal, d)
		}
	}
	if len(fatal) > 0 {
		return nil, &Error{Target: target, Diagnostics: fatal}
	}
	c, ok := out.Contracts[file][contract]
	if !ok {
		return nil, &Error{Target: target}
	}
	return &Result{
		Bytecode:         prefixHex(c.EVM.Bytecode.Object),
		DeployedBytecode: prefixHex(c.EVM.DeployedBytecode.Object),
		Metadata:         c.Metadata,
	}, nil
}

func prefixHex(s string) string {
	if s == "" || strings.HasPrefix(s, "0x") {
		return s
	}
	return "0x" + s
}
