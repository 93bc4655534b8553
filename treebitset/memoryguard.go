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

package treebitset

import (
	"fmt"

	"github.com/pbnjay/memory"

	"github.com/erigontech/treebitset/internal/mathutil"
)

// maxBudgetFraction is the share of total system memory a single Bitset's
// backing array is allowed to claim before WithMemoryGuard(true) (the
// default) refuses construction. A caller genuinely needing more must opt
// out explicitly via WithMemoryGuard(false); this is a sanity rail against
// a mistyped exponent allocating terabytes, not a capacity planner.
const maxBudgetFraction = 0.75

// checkMemoryBudget reports an error if totalBlocks*wordBytes would exceed
// maxBudgetFraction of total system memory. memory.TotalMemory returning 0
// (undetectable, e.g. inside some containers) disables the check rather
// than rejecting every construction.
func checkMemoryBudget(totalBlocks, wordBytes uint64) error {
	needed, overflow := mathutil.SafeMul(totalBlocks, wordBytes)
	if overflow {
		return fmt.Errorf("treebitset: backing storage size overflows uint64 (totalBlocks=%d, wordBytes=%d)", totalBlocks, wordBytes)
	}

	total := memory.TotalMemory()
	if total == 0 {
		return nil
	}

	budget := uint64(float64(total) * maxBudgetFraction)
	if needed > budget {
		return fmt.Errorf("treebitset: requested backing storage of %d bytes exceeds %.0f%% of detected system memory (%d bytes); use WithMemoryGuard(false) to override", needed, maxBudgetFraction*100, total)
	}
	return nil
}
