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

package flags

const (
	// VerifierCategory groups flags controlling the verification run itself.
	VerifierCategory = "VERIFIER"

	// ChainCategory groups flags selecting chains and candidate addresses.
	ChainCategory = "CHAIN"

	// LoggingCategory groups logging and debugging flags.
	LoggingCategory = "LOGGING"
)
