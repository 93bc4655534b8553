// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package mathutil holds the small integer helpers the tree-bitset layout
// and memory-guard arithmetic need: overflow-checked multiplication and
// ceiling division, in the style of erigon-lib/common/math.
package mathutil

import "math/bits"

// SafeMul returns x*y and reports whether the multiplication overflowed.
func SafeMul(x, y uint64) (uint64, bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// SafeAdd returns x+y and reports whether the addition overflowed.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum, carryOut := bits.Add64(x, y, 0)
	return sum, carryOut != 0
}

// CeilDivUint64 returns ceil(x/y) for y > 0.
func CeilDivUint64(x, y uint64) uint64 {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}

// Log2Floor returns floor(log2(x)) for x > 0, and 0 for x == 0.
func Log2Floor(x uint64) uint {
	if x == 0 {
		return 0
	}
	return uint(bits.Len64(x) - 1)
}

// LogCeil returns ceil(log_base(val)) for val >= 1 and base >= 2 when both
// are powers of two. Other inputs are rounded down to a power of two
// before the division, so the result is not exact for them.
func LogCeil(base, val uint64) uint64 {
	if val <= 1 {
		return 0
	}
	logVal := Log2Floor(val)
	logBase := Log2Floor(base)
	return CeilDivUint64(uint64(logVal), uint64(logBase))
}
