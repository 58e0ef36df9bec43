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

package verification

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/ethereum/sourcify-go/bytecode"
	"github.com/ethereum/sourcify-go/chain"
)

// Match is the outcome of a verification: the address whose deployed code
// the recompilation reproduced, and how exactly. A nil address means no
// candidate matched; such a Match is never persisted.
type Match struct {
	Address *common.Address
	Status  bytecode.Status
}

// MarshalJSON renders the wire shape clients expect:
// {"address": "0x..."|null, "status": "perfect"|"partial"|null}.
// The address is EIP-55 checksummed.
func (m Match) MarshalJSON() ([]byte, error) {
	var out struct {
		Address *string `json:"address"`
		Status  *string `json:"status"`
	}
	if m.Address != nil {
		a := m.Address.Hex()
		out.Address = &a
	}
	if m.Status != bytecode.NoMatch {
		s := m.Status.String()
		out.Status = &s
	}
	return json.Marshal(out)
}

// MatchAddresses scans candidate addresses strictly in input order and
// returns the first whose deployed code matches the compiled bytecode,
// perfectly or partially. The scan stops at the first match; it does not
// keep looking for a possibly better match further down the list. A failed
// code read is logged and skipped — one unreachable candidate must never
// abort the search — unless the caller's context is done, which aborts the
// scan. Exhausting the list returns a zero Match, which is not an error
// here; raising NoMatch is the pipeline's call.
func MatchAddresses(ctx context.Context, reader chain.Reader, addresses []common.Address, compiled string, logger log.Logger) (Match, error) {
	for _, addr := range addresses {
		code, err := reader.CodeAt(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return Match{}, ctx.Err()
			}
			logger.Warn("Skipping candidate address, code read failed", "address", addr, "err", err)
			continue
		}
		if status := bytecode.Compare(hexutil.Encode(code), compiled); status != bytecode.NoMatch {
			return Match{Address: &addr, Status: status}, nil
		}
	}
	return Match{}, nil
}

// maxConcurrentReads bounds the parallel scan's in-flight code reads, so a
// long candidate list cannot flood the RPC endpoint.
const maxConcurrentReads = 8

// MatchAddressesParallel fans the code reads out concurrently while
// preserving MatchAddresses semantics exactly: the winner is the matching
// candidate with the lowest input index, never the first response to
// arrive. Once every candidate before some matching index has completed,
// outstanding reads are cancelled. Reads cancelled this way all concern
// higher indices than the winner, so cancellation cannot change the result.
func MatchAddressesParallel(ctx context.Context, reader chain.Reader, addresses []common.Address, compiled string, logger log.Logger) (Match, error) {
	if ctx.Err() != nil {
		return Match{}, ctx.Err()
	}
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		completed = make([]bool, len(addresses))
		statuses  = make([]bytecode.Status, len(addresses))
	)
	g, scanCtx := errgroup.WithContext(scanCtx)
	g.SetLimit(maxConcurrentReads)
	for i, addr := range addresses {
		g.Go(func() error {
			status := bytecode.NoMatch
			code, err := reader.CodeAt(scanCtx, addr)
			switch {
			case err == nil:
				status = bytecode.Compare(hexutil.Encode(code), compiled)
			case scanCtx.Err() != nil:
				// Cancelled: either the winner is already settled or the
				// caller gave up. Leave the slot unmatched.
			default:
				logger.Warn("Skipping candidate address, code read failed", "address", addr, "err", err)
			}

			mu.Lock()
			defer mu.Unlock()
			completed[i] = true
			statuses[i] = status
			// Settle the scan as soon as an unbroken prefix of completed
			// candidates contains a match.
			for j := range addresses {
				if !completed[j] {
					break
				}
				if statuses[j] != bytecode.NoMatch {
					cancel()
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Match{}, err
	}
	if err := ctx.Err(); err != nil {
		return Match{}, err
	}
	for i, status := range statuses {
		if status != bytecode.NoMatch {
			return Match{Address: &addresses[i], Status: status}, nil
		}
	}
	return Match{}, nil
}
