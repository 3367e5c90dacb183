// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package result

import "errors"

var (
	errNotArray   = errors.New("row is not an array")
	errNestedCell = errors.New("row cell is not a scalar")
)
