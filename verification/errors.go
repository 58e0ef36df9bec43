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
	"fmt"
	"strings"
)

// InputError reports a submission that is malformed before any pipeline
// stage runs: missing chain, empty address list, unparsable addresses, or a
// chain this instance has no reader for.
type InputError struct {
	Chain  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Chain == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input for chain %s: %s", e.Chain, e.Reason)
}

// NoMatchError reports that the recompiled target matched none of the
// candidate addresses. It carries the full candidate list for diagnostics;
// every address in it was checked (or skipped due to a read failure).
type NoMatchError struct {
	Chain     string
	Target    string
	Addresses []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("%s does not match deployed bytecode on chain %s at any of [%s]",
		e.Target, e.Chain, strings.Join(e.Addresses, ", "))
}
