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

import "fmt"

// SetFreeForRange marks every id in [min, max) as free (value == true) or
// used (value == false). It resolves the open question left by spec.md §9:
// leaf words that lie entirely inside the range are written in a single
// op, boundary words are updated bit-by-bit through SetFree, and
// updateMetadata runs once per touched leaf block rather than once per id.
func (bs *Bitset[W]) SetFreeForRange(min, max uint64, value bool) error {
	if min > max || max > bs.lo.maxElements {
		return fmt.Errorf("treebitset: invalid range [%d, %d) for capacity %d", min, max, bs.lo.maxElements)
	}
	if min == max {
		return nil
	}

	bpb := uint64(bs.lo.bitsPerBlock)
	firstBlock := min >> bs.lo.log2Block
	lastBlock := (max - 1) >> bs.lo.log2Block

	if firstBlock == lastBlock {
		bs.setFreeBitByBit(min, max, value)
		return nil
	}

	firstBlockStart := firstBlock * bpb
	if min != firstBlockStart {
		bs.setFreeBitByBit(min, firstBlockStart+bpb, value)
		firstBlock++
	}

	lastBlockStart := lastBlock * bpb
	lastBlockEnd := lastBlockStart + bpb
	if max != lastBlockEnd {
		bs.setFreeBitByBit(lastBlockStart, max, value)
		lastBlock--
	}

	if firstBlock <= lastBlock {
		for blockIdx := firstBlock; blockIdx <= lastBlock; blockIdx++ {
			bs.setWholeLeafBlock(blockIdx, value)
		}
	}

	return nil
}

// setFreeBitByBit updates every id in [lo, hi) one bit at a time via
// SetFree, which already drives per-id metadata propagation.
func (bs *Bitset[W]) setFreeBitByBit(lo, hi uint64, value bool) {
	for id := lo; id < hi; id++ {
		bs.SetFree(id, value)
	}
}

// setWholeLeafBlock writes an entire leaf block in one op and propagates
// metadata exactly once for it, instead of once per contained id.
func (bs *Bitset[W]) setWholeLeafBlock(blockIdx uint64, value bool) {
	storageIdx := bs.lo.summaryBlocks + blockIdx
	wasEmpty := bs.isEmptyOfFree(bs.blocks[storageIdx])

	if value {
		bs.blocks[storageIdx] = bs.fullWord()
	} else {
		bs.blocks[storageIdx] = bs.emptyWord()
	}

	firstID := blockIdx * uint64(bs.lo.bitsPerBlock)
	lastID := firstID + uint64(bs.lo.bitsPerBlock) - 1

	if bs.cfg.maxIDPolicy == KeepMaxIDCurrent {
		if value {
			if bs.maxUsed != InvalidID && bs.maxUsed >= firstID && bs.maxUsed <= lastID {
				bs.maxUsed = bs.findNewSmallerMaxUsedID()
			}
		} else if bs.maxUsed == InvalidID || lastID > bs.maxUsed {
			bs.maxUsed = lastID
		}
	}

	if bs.cfg.metrics != nil {
		for i := 0; i < bs.lo.bitsPerBlock; i++ {
			bs.cfg.metrics.RecordTransition(value)
		}
	}

	isEmptyNow := bs.isEmptyOfFree(bs.blocks[storageIdx])
	if wasEmpty != isEmptyNow {
		bs.updateMetadata(firstID, value)
	}
}
