// Copyright 2025 The sourcify-go Authors
// This file is part of sourcify-go.
//
// sourcify-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sourcify-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with sourcify-go. If not, see <http://www.gnu.org/licenses/>.

// sourcify is a command-line verifier for Solidity contract sources: it
// recompiles a submission under its metadata settings, compares the result
// against bytecode deployed on chain, and stores verified sources in a
// content-addressed repository.
package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/sourcify-go/chain"
	"github.com/ethereum/sourcify-go/compiler"
	"github.com/ethereum/sourcify-go/internal/flags"
	"github.com/ethereum/sourcify-go/metadata"
	"github.com/ethereum/sourcify-go/repository"
	"github.com/ethereum/sourcify-go/verification"
)

const clientVersion = "0.2.0"

var (
	chainFlag = &cli.StringFlag{
		Name:     "chain",
		Usage:    "Chain identifier the candidate addresses live on",
		Value:    "1",
		Category: flags.ChainCategory,
	}
	addressFlag = &cli.StringSliceFlag{
		Name:     "address",
		Usage:    "Candidate deployment address (repeatable, order matters)",
		Category: flags.ChainCategory,
	}
	rpcFlag = &cli.StringFlag{
		Name:     "rpc",
		Usage:    "RPC endpoint for the selected chain (overrides the config file)",
		Category: flags.ChainCategory,
	}
	bytecodeFlag = &cli.StringFlag{
		Name:     "bytecode",
		Usage:    "Pre-fetched on-chain bytecode for the first address (skips the address scan)",
		Category: flags.ChainCategory,
	}
	repositoryFlag = &flags.DirectoryFlag{
		Name:     "repository",
		Usage:    "Root directory verified artifacts are written to",
		Value:    "verified-contracts",
		Category: flags.VerifierCategory,
	}
	legacyLayoutFlag = &cli.BoolFlag{
		Name:     "legacy-layout",
		Usage:    "Store artifacts under the legacy contract/{chain}/{address} scheme",
		Category: flags.VerifierCategory,
	}
	solcDirFlag = &flags.DirectoryFlag{
		Name:     "solc.dir",
		Usage:    "Directory holding solc-v<version> executables",
		Category: flags.VerifierCategory,
	}
	solcPathFlag = &cli.StringFlag{
		Name:     "solc.path",
		Usage:    "Single solc executable to use for every version",
		Category: flags.VerifierCategory,
	}
	parallelFlag = &cli.BoolFlag{
		Name:     "parallel",
		Usage:    "Fan candidate code reads out concurrently",
		Category: flags.VerifierCategory,
	}
	verbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		Category: flags.LoggingCategory,
	}
)

var app = flags.NewApp(clientVersion, "the sourcify-go contract source verifier")

func init() {
	app.Action = verify
	app.ArgsUsage = "<file-or-directory>..."
	app.Flags = flags.Merge(
		[]cli.Flag{configFileFlag, repositoryFlag, legacyLayoutFlag, solcDirFlag, solcPathFlag, parallelFlag},
		[]cli.Flag{chainFlag, addressFlag, rpcFlag, bytecodeFlag},
		[]cli.Flag{verbosityFlag},
	)
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx)
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, useColor)))
}

// verify runs one verification pipeline over the files given as arguments
// and prints the resulting match as JSON.
func verify(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("no input files: pass source and metadata files or directories")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	files, err := collectFiles(ctx.Args().Slice())
	if err != nil {
		return err
	}
	registry, err := chain.DialRegistry(cfg.Chains)
	if err != nil {
		return err
	}
	solc := &compiler.Solidity{Dir: cfg.SolcDir, Path: ctx.String(solcPathFlag.Name)}

	layout := repository.LayoutCurrent
	if ctx.Bool(legacyLayoutFlag.Name) {
		layout = repository.LayoutLegacy
	}
	verifier := verification.New(registry, solc, repository.New(cfg.Repository, layout))
	verifier.Parallel = cfg.Parallel

	match, err := verifier.Verify(ctx.Context, &verification.Input{
		Chain:     ctx.String(chainFlag.Name),
		Addresses: ctx.StringSlice(addressFlag.Name),
		Files:     files,
		Bytecode:  ctx.String(bytecodeFlag.Name),
	})
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(match, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// collectFiles reads every named file, descending into directories. Paths
// recorded for directory entries are relative to the directory argument.
func collectFiles(args []string) ([]metadata.RawFile, error) {
	var files []metadata.RawFile
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			data, err := os.ReadFile(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, metadata.RawFile{Path: filepath.Base(arg), Data: data})
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(arg, path)
			if err != nil {
				return err
			}
			files = append(files, metadata.RawFile{Path: filepath.ToSlash(rel), Data: data})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
