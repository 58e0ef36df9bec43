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

// Package chain provides read-only access to deployed contract code across
// the chains a verifier instance serves.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Reader reads deployed contract code from one chain. Implementations fail
// independently per call; a failed read concerns only the address it was
// issued for.
type Reader interface {
	CodeAt(ctx context.Context, addr common.Address) ([]byte, error)
}

// Config describes one chain's RPC endpoint.
type Config struct {
	URL string

	// Timeout bounds each code read. Zero means no per-read timeout, in
	// which case an unresponsive endpoint stalls the scan that hit it.
	Timeout time.Duration `toml:",omitempty"`

	// CacheBytes sizes an in-process cache of non-empty code reads.
	// Zero disables caching. Deployed runtime code is immutable short of
	// selfdestruct, so a bounded cache is safe for verification reads.
	CacheBytes int `toml:",omitempty"`
}

// Client is a Reader backed by an RPC endpoint via ethclient.
type Client struct {
	name    string
	ec      *ethclient.Client
	timeout time.Duration
	cache   *fastcache.Cache
}

// Dial connects a Client for the named chain. For HTTP endpoints no traffic
// occurs until the first read.
func Dial(name string, cfg Config) (*Client, error) {
	ec, err := ethclient.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", name, err)
	}
	c := &Client{name: name, ec: ec, timeout: cfg.Timeout}
	if cfg.CacheBytes > 0 {
		c.cache = fastcache.New(cfg.CacheBytes)
	}
	return c, nil
}

// CodeAt returns the code deployed at addr at the latest block.
func (c *Client) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	if c.cache != nil {
		if code, ok := c.cache.HasGet(nil, addr.Bytes()); ok {
			return code, nil
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	code, err := c.ec.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("chain %s: code read for %s: %w", c.name, addr.Hex(), err)
	}
	// Empty code is not cached: the address may receive a deployment later.
	if c.cache != nil && len(code) > 0 {
		c.cache.Set(addr.Bytes(), code)
	}
	return code, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.ec.Close()
}

// Registry maps chain identifiers to their readers. It is built once at
// startup and never mutated afterwards, so any number of concurrent
// verifications may consult it without locking.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry builds a registry over pre-constructed readers. The map is
// copied; later changes to the argument do not affect the registry.
func NewRegistry(readers map[string]Reader) *Registry {
	m := make(map[string]Reader, len(readers))
	for name, r := range readers {
		m[name] = r
	}
	return &Registry{readers: m}
}

// DialRegistry connects a client for every configured chain. On failure the
// clients dialed so far are closed before the error is returned.
func DialRegistry(configs map[string]Config) (*Registry, error) {
	readers := make(map[string]Reader, len(configs))
	var dialed []*Client
	for name, cfg := range configs {
		c, err := Dial(name, cfg)
		if err != nil {
			for _, d := range dialed {
				d.Close()
			}
			return nil, err
		}
		dialed = append(dialed, c)
		readers[name] = c
	}
	return &Registry{readers: readers}, nil
}

// Reader returns the reader for a chain identifier.
func (r *Registry) Reader(name string) (Reader, bool) {
	rd, ok := r.readers[name]
	return rd, ok
}
