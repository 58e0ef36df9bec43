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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/sourcify-go/chain"
	"github.com/ethereum/sourcify-go/internal/flags"
)

var configFileFlag = &cli.StringFlag{
	Name:     "config",
	Usage:    "TOML configuration file",
	Category: flags.VerifierCategory,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// sourcifyConfig is the on-disk configuration. Chains maps a chain
// identifier (typically the decimal chain id) to its RPC endpoint.
type sourcifyConfig struct {
	Repository string
	SolcDir    string
	Parallel   bool
	Chains     map[string]chain.Config
}

func defaultConfig() sourcifyConfig {
	return sourcifyConfig{
		Repository: "verified-contracts",
		Chains: map[string]chain.Config{
			"1": {URL: "http://localhost:8545", Timeout: 10 * time.Second},
		},
	}
}

func loadConfigFile(file string, cfg *sourcifyConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// loadConfig merges defaults, the optional config file, and command line
// flags, in that order of precedence.
func loadConfig(ctx *cli.Context) (sourcifyConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		cfg.Chains = nil // the file's chain table replaces the default one
		if err := loadConfigFile(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(repositoryFlag.Name) {
		cfg.Repository = ctx.String(repositoryFlag.Name)
	}
	if ctx.IsSet(solcDirFlag.Name) {
		cfg.SolcDir = ctx.String(solcDirFlag.Name)
	}
	if ctx.IsSet(parallelFlag.Name) {
		cfg.Parallel = ctx.Bool(parallelFlag.Name)
	}
	if ctx.IsSet(rpcFlag.Name) {
		// Ad-hoc single-chain setup, overriding any chain table.
		cfg.Chains = map[string]chain.Config{
			ctx.String(chainFlag.Name): {URL: ctx.String(rpcFlag.Name), Timeout: 10 * time.Second},
		}
	}
	return cfg, nil
}
