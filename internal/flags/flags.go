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

// Package flags holds the CLI plumbing shared by sourcify-go commands.
package flags

import (
	"flag"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
)

// DirectoryString is a cli flag value that expands "~" and environment
// variables to an absolute path when the argument is parsed.
type DirectoryString string

func (s *DirectoryString) String() string {
	return string(*s)
}

func (s *DirectoryString) Set(value string) error {
	*s = DirectoryString(expandPath(value))
	return nil
}

var (
	_ cli.Flag              = (*DirectoryFlag)(nil)
	_ cli.RequiredFlag      = (*DirectoryFlag)(nil)
	_ cli.VisibleFlag       = (*DirectoryFlag)(nil)
	_ cli.DocGenerationFlag = (*DirectoryFlag)(nil)
	_ cli.CategorizableFlag = (*DirectoryFlag)(nil)
)

// DirectoryFlag is a cli.Flag whose string value is expanded to an absolute
// path, e.g. ~/verified -> /home/username/verified.
type DirectoryFlag struct {
	Name string

	Category string
	Usage    string
	EnvVars  []string
	Required bool
	Hidden   bool

	Value DirectoryString

	Aliases []string

	hasBeenSet bool
}

func (f *DirectoryFlag) Names() []string { return append([]string{f.Name}, f.Aliases...) }
func (f *DirectoryFlag) IsSet() bool     { return f.hasBeenSet }
func (f *DirectoryFlag) String() string  { return cli.FlagStringer(f) }

func (f *DirectoryFlag) Apply(set *flag.FlagSet) error {
	for _, envVar := range f.EnvVars {
		if value, found := os.LookupEnv(envVar); found {
			f.Value.Set(value)
			f.hasBeenSet = true
			break
		}
	}
	eachName(f, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
	return nil
}

func (f *DirectoryFlag) IsRequired() bool     { return f.Required }
func (f *DirectoryFlag) IsVisible() bool      { return !f.Hidden }
func (f *DirectoryFlag) GetCategory() string  { return f.Category }
func (f *DirectoryFlag) TakesValue() bool     { return true }
func (f *DirectoryFlag) GetUsage() string     { return f.Usage }
func (f *DirectoryFlag) GetValue() string     { return f.Value.String() }
func (f *DirectoryFlag) GetEnvVars() []string { return f.EnvVars }

func (f *DirectoryFlag) GetDefaultText() string {
	return f.GetValue()
}

func eachName(f cli.Flag, fn func(string)) {
	for _, name := range f.Names() {
		fn(strings.TrimSpace(name))
	}
}

// NewApp creates a cli app with sane defaults shared by all sourcify-go
// commands.
func NewApp(version, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Version = version
	app.Usage = usage
	app.Copyright = "Copyright 2025 The sourcify-go Authors"
	return app
}

// Merge concatenates flag slices, keeping declaration order.
func Merge(groups ...[]cli.Flag) []cli.Flag {
	var merged []cli.Flag
	for _, group := range groups {
		merged = append(merged, group...)
	}
	return merged
}

// expandPath expands a leading tilde and environment variables, then cleans
// the result.
func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home := homeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
