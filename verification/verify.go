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

// Package verification orchestrates the pipeline that proves submitted
// sources reproduce the bytecode deployed at a chain address: metadata
// selection, source assembly, recompilation, bytecode matching, and storage
// of verified artifacts.
package verification

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum/sourcify-go/bytecode"
	"github.com/ethereum/sourcify-go/chain"
	"github.com/ethereum/sourcify-go/compiler"
	"github.com/ethereum/sourcify-go/metadata"
	"github.com/ethereum/sourcify-go/repository"
)

// Input is one verification submission.
type Input struct {
	// Chain identifies the chain the candidate addresses live on.
	Chain string

	// Addresses are the candidate deployment addresses, in order of
	// preference: the first candidate whose code matches wins.
	Addresses []string

	// Files are the submitted blobs: metadata documents, sources, and
	// whatever else the client uploaded alongside them.
	Files []metadata.RawFile

	// Bytecode optionally carries pre-fetched on-chain code for
	// Addresses[0], typically supplied by an upstream deployment monitor.
	// When set, the address scan is skipped and the comparison runs once
	// against this value.
	Bytecode string
}

// Verifier runs verification pipelines. It is safe for concurrent use: the
// chain registry is read-only and each run keeps its own state.
type Verifier struct {
	registry *chain.Registry
	compiler compiler.Compiler
	repo     *repository.Writer

	// Parallel fans candidate code reads out concurrently. Tie-breaking
	// stays by input index, so results are identical to the sequential
	// scan; only latency differs.
	Parallel bool

	logger log.Logger
}

// New wires a Verifier from its collaborators.
func New(registry *chain.Registry, comp compiler.Compiler, repo *repository.Writer) *Verifier {
	return &Verifier{
		registry: registry,
		compiler: comp,
		repo:     repo,
		logger:   log.New("module", "verification"),
	}
}

// Verify runs the full pipeline for one submission and returns the match.
// Stages run strictly in order and storage is last, so a failure at any
// earlier stage leaves the repository untouched for this submission. Errors
// are terminal for the submission; nothing is retried here.
func (v *Verifier) Verify(ctx context.Context, in *Input) (*Match, error) {
	if err := v.validate(in); err != nil {
		return nil, err
	}
	descriptors, err := metadata.Select(in.Files)
	if err != nil {
		return nil, err
	}
	// A submission normally carries a single metadata document; when
	// several parse, the first is authoritative. Any error it produces
	// halts the submission rather than falling through to the next one.
	return v.verifyOne(ctx, in, descriptors[0])
}

func (v *Verifier) validate(in *Input) error {
	if in.Chain == "" {
		return &InputError{Reason: "missing chain identifier"}
	}
	if len(in.Addresses) == 0 {
		return &InputError{Chain: in.Chain, Reason: "empty candidate address list"}
	}
	for _, a := range in.Addresses {
		if !common.IsHexAddress(a) {
			return &InputError{Chain: in.Chain, Reason: fmt.Sprintf("malformed address %q", a)}
		}
	}
	return nil
}

func (v *Verifier) verifyOne(ctx context.Context, in *Input, d *metadata.Descriptor) (*Match, error) {
	sources, err := metadata.Assemble(d, in.Files)
	if err != nil {
		return nil, fmt.Errorf("assembling sources: %w", err)
	}
	input, file, contract, err := compiler.DeriveInput(d, sources)
	if err != nil {
		return nil, fmt.Errorf("deriving compiler input: %w", err)
	}
	target := file + ":" + contract

	out, err := v.compiler.Compile(ctx, d.Compiler.Version, input)
	if err != nil {
		return nil, fmt.Errorf("recompiling %s: %w", target, err)
	}
	res, err := out.Contract(file, contract)
	if err != nil {
		return nil, err
	}

	addresses := make([]common.Address, len(in.Addresses))
	for i, a := range in.Addresses {
		addresses[i] = common.HexToAddress(a)
	}
	match, err := v.match(ctx, in, addresses, res.DeployedBytecode)
	if err != nil {
		return nil, err
	}
	if match.Status == bytecode.NoMatch {
		checksummed := make([]string, len(addresses))
		for i, a := range addresses {
			checksummed[i] = a.Hex()
		}
		return nil, &NoMatchError{Chain: in.Chain, Target: target, Addresses: checksummed}
	}

	if err := v.store(in.Chain, match, res, d, sources); err != nil {
		return nil, err
	}
	v.logger.Info("Contract verified", "chain", in.Chain, "address", match.Address.Hex(), "target", target, "status", match.Status)
	return &match, nil
}

// match evaluates the candidates, either against pre-fetched bytecode or by
// scanning the chain.
func (v *Verifier) match(ctx context.Context, in *Input, addresses []common.Address, compiled string) (Match, error) {
	if in.Bytecode != "" {
		// Direct path: the caller already holds the deployed code for
		// the first (and typically only) candidate.
		if status := bytecode.Compare(in.Bytecode, compiled); status != bytecode.NoMatch {
			return Match{Address: &addresses[0], Status: status}, nil
		}
		return Match{}, nil
	}
	reader, ok := v.registry.Reader(in.Chain)
	if !ok {
		return Match{}, &InputError{Chain: in.Chain, Reason: "no reader registered for chain"}
	}
	if v.Parallel {
		return MatchAddressesParallel(ctx, reader, addresses, compiled, v.logger)
	}
	return MatchAddresses(ctx, reader, addresses, compiled, v.logger)
}

// store persists the verified artifacts. The metadata written is the
// canonical document the compiler re-emitted for this exact compilation;
// the uploaded document is the fallback for compiler backends that do not
// return one.
func (v *Verifier) store(chainID string, match Match, res *compiler.Result, d *metadata.Descriptor, sources metadata.SourceSet) error {
	meta := []byte(res.Metadata)
	if len(meta) == 0 {
		meta = d.JSON()
	}
	address := match.Address.Hex()

	if match.Status == bytecode.PerfectMatch {
		content, err := bytecode.Locate(res.DeployedBytecode)
		if err != nil {
			// Perfect-matching bytecode is byte-identical to deployed
			// code and must carry whatever reference the compiler
			// emitted. A miss here is an integrity fault.
			return fmt.Errorf("locating metadata reference after perfect match on chain %s at %s: %w", chainID, address, err)
		}
		return v.repo.StoreFullMatch(chainID, address, meta, sources, content)
	}
	return v.repo.StorePartialMatch(chainID, address, meta, sources)
}
