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
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/ethereum/sourcify-go/bytecode"
)

// readerFunc adapts a function to chain.Reader.
type readerFunc func(ctx context.Context, addr common.Address) ([]byte, error)

func (f readerFunc) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	return f(ctx, addr)
}

func testLogger() log.Logger {
	return log.New("test", true)
}

func TestMatchAddressesNoCandidateMatches(t *testing.T) {
	reader := &stubReader{}
	addrs := []common.Address{common.HexToAddress(addrA), common.HexToAddress(addrB)}

	match, err := MatchAddresses(context.Background(), reader, addrs, compiledDeployed, testLogger())
	require.NoError(t, err)
	require.Nil(t, match.Address)
	require.Equal(t, bytecode.NoMatch, match.Status)
	require.Len(t, reader.reads, 2, "every candidate must be checked before giving up")
}

func TestMatchAddressesAbortsOnDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := readerFunc(func(ctx context.Context, addr common.Address) ([]byte, error) {
		return nil, ctx.Err()
	})
	addrs := []common.Address{common.HexToAddress(addrA), common.HexToAddress(addrB)}

	_, err := MatchAddresses(ctx, reader, addrs, compiledDeployed, testLogger())
	require.ErrorIs(t, err, context.Canceled)
}

func TestMatchAddressesParallelLowestIndexWins(t *testing.T) {
	a, b := common.HexToAddress(addrA), common.HexToAddress(addrB)
	reader := readerFunc(func(ctx context.Context, addr common.Address) ([]byte, error) {
		// The lower-index candidate responds last; it must still win.
		if addr == a {
			time.Sleep(20 * time.Millisecond)
			return hexutil.MustDecode(variantDeployed), nil
		}
		return hexutil.MustDecode(compiledDeployed), nil
	})

	match, err := MatchAddressesParallel(context.Background(), reader, []common.Address{a, b}, compiledDeployed, testLogger())
	require.NoError(t, err)
	require.Equal(t, a, *match.Address)
	require.Equal(t, bytecode.PartialMatch, match.Status)
}

func TestMatchAddressesParallelCancelsLosers(t *testing.T) {
	a, b := common.HexToAddress(addrA), common.HexToAddress(addrB)
	cancelled := make(chan struct{})
	reader := readerFunc(func(ctx context.Context, addr common.Address) ([]byte, error) {
		if addr == b {
			// The higher-index read never answers on its own; it can
			// only return once the settled scan cancels it.
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return hexutil.MustDecode(compiledDeployed), nil
	})

	match, err := MatchAddressesParallel(context.Background(), reader, []common.Address{a, b}, compiledDeployed, testLogger())
	require.NoError(t, err)
	require.Equal(t, a, *match.Address)
	require.Equal(t, bytecode.PerfectMatch, match.Status)

	select {
	case <-cancelled:
	default:
		t.Fatal("outstanding read was not cancelled after the winner settled")
	}
}

func TestMatchAddressesParallelSkipsFailures(t *testing.T) {
	a, b := common.HexToAddress(addrA), common.HexToAddress(addrB)
	reader := readerFunc(func(ctx context.Context, addr common.Address) ([]byte, error) {
		if addr == a {
			return nil, errors.New("connection refused")
		}
		return hexutil.MustDecode(compiledDeployed), nil
	})

	match, err := MatchAddressesParallel(context.Background(), reader, []common.Address{a, b}, compiledDeployed, testLogger())
	require.NoError(t, err)
	require.Equal(t, b, *match.Address)
	require.Equal(t, bytecode.PerfectMatch, match.Status)
}

func TestMatchAddressesParallelNoMatch(t *testing.T) {
	reader := readerFunc(func(ctx context.Context, addr common.Address) ([]byte, error) {
		return nil, nil
	})
	addrs := []common.Address{common.HexToAddress(addrA), common.HexToAddress(addrB), common.HexToAddress(addrC)}

	match, err := MatchAddressesParallel(context.Background(), reader, addrs, compiledDeployed, testLogger())
	require.NoError(t, err)
	require.Nil(t, match.Address)
}
