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

package repository

import (
	"fmt"
	gopath "path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/ethereum/sourcify-go/bytecode"
	"github.com/ethereum/sourcify-go/metadata"
)

// Layout selects the directory scheme verified artifacts are stored under.
type Layout int

const (
	// LayoutCurrent separates full from partial matches:
	// contracts/{full,partial}_match/{chain}/{address}/...
	LayoutCurrent Layout = iota

	// LayoutLegacy is the original flat scheme, contract/{chain}/{address},
	// which predates the match-level split. Kept for repositories that
	// still serve the old tree.
	LayoutLegacy
)

// MetadataFile is the filename the canonical metadata document is stored as.
const MetadataFile = "metadata.json"

// Writer stores verified artifacts under a repository root. All writes are
// overwrites: output is a pure function of verified inputs, so re-verifying
// a contract rewrites byte-identical files and concurrent writers for the
// same contract are safe without locking.
type Writer struct {
	fs     billy.Filesystem
	layout Layout
}

// NewWriter stores artifacts on the given filesystem, which is rooted at
// the repository root. Tests pass an in-memory filesystem.
func NewWriter(fs billy.Filesystem, layout Layout) *Writer {
	return &Writer{fs: fs, layout: layout}
}

// New stores artifacts under the given directory on the local filesystem.
func New(root string, layout Layout) *Writer {
	return NewWriter(osfs.New(root), layout)
}

// StoreFullMatch persists a perfect verification: the canonical metadata and
// sources under the full_match contract path, plus the metadata again at its
// content address, so clients holding only the on-chain metadata hash can
// retrieve the document.
func (w *Writer) StoreFullMatch(chain, address string, meta []byte, sources metadata.SourceSet, content bytecode.ContentAddress) error {
	if err := w.storeContract("full_match", chain, address, meta, sources); err != nil {
		return err
	}
	return w.write(strings.TrimPrefix(string(content), "/"), meta)
}

// StorePartialMatch persists a partial verification under the partial_match
// contract path only. No content-address copy is written: the metadata hash
// embedded in the deployed bytecode does not correspond to this document.
func (w *Writer) StorePartialMatch(chain, address string, meta []byte, sources metadata.SourceSet) error {
	return w.storeContract("partial_match", chain, address, meta, sources)
}

func (w *Writer) storeContract(level, chain, address string, meta []byte, sources metadata.SourceSet) error {
	dir := w.contractDir(level, chain, address)
	if err := w.write(gopath.Join(dir, MetadataFile), meta); err != nil {
		return err
	}
	for name, content := range sources {
		p := gopath.Join(dir, "sources", Sanitize(name))
		if err := w.write(p, []byte(content)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) contractDir(level, chain, address string) string {
	if w.layout == LayoutLegacy {
		return gopath.Join("contract", chain, address)
	}
	return gopath.Join("contracts", level, chain, address)
}

func (w *Writer) write(p string, data []byte) error {
	if err := w.fs.MkdirAll(gopath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("repository: creating %s: %w", gopath.Dir(p), err)
	}
	if err := util.WriteFile(w.fs, p, data, 0o644); err != nil {
		return fmt.Errorf("repository: writing %s: %w", p, err)
	}
	return nil
}
