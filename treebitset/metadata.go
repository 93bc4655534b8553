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

// updateMetadata walks the summary levels bottom-up from the leaf that
// owns id, flipping the corresponding summary bit at each level, and
// stopping as soon as a level's summary word doesn't need to change the
// level above it (spec.md §4.5).
func (bs *Bitset[W]) updateMetadata(id uint64, newValue bool) {
	if bs.lo.levels == 0 {
		return
	}

	lvlBitOffset := id
	levelStart := bs.lo.summaryBlocks
	bpbMask := uint64(bs.lo.bitsPerBlock) - 1

	for lvlIdx := uint8(0); lvlIdx < bs.lo.levels; lvlIdx++ {
		lvlBitOffset >>= bs.lo.log2Block
		bit := int(lvlBitOffset & bpbMask)
		levelStart -= summaryBlocksOnLevel(bs.lo.bitsPerBlock, bs.lo.levels-lvlIdx-1)

		blockIdx := lvlBitOffset >> bs.lo.log2Block
		storageIdx := levelStart + blockIdx

		if newValue {
			needHigherLevel := bs.isEmptyOfFree(bs.blocks[storageIdx])
			bs.setBit(&bs.blocks[storageIdx], bit, true)
			if !needHigherLevel {
				break
			}
		} else {
			bs.setBit(&bs.blocks[storageIdx], bit, false)
			if !bs.isEmptyOfFree(bs.blocks[storageIdx]) {
				break
			}
		}
	}
}

// findNewSmallerMaxUsedID scans leaf blocks downward from the one that
// held the previous maximum (or the last leaf block if it is unknown)
// until it finds one that isn't fully free, then returns the position of
// its highest used bit (spec.md §4.7).
func (bs *Bitset[W]) findNewSmallerMaxUsedID() uint64 {
	firstDataBlock := bs.lo.summaryBlocks
	var initialBlock uint64
	if bs.maxUsed != InvalidID {
		initialBlock = bs.maxUsed >> bs.lo.log2Block
	} else {
		initialBlock = bs.lo.leafBlocks - 1
	}

	idx := firstDataBlock + initialBlock
	for idx != firstDataBlock && bs.isFullyFree(bs.blocks[idx]) {
		idx--
	}

	dataBlockIdx := idx - firstDataBlock
	firstIDOfBlock := dataBlockIdx * uint64(bs.lo.bitsPerBlock)

	blockData := bs.blocks[idx]
	if bs.lo.levels == 0 {
		blockData = bs.markReservedAsFree(blockData, bs.lo.rootMask)
	}

	maxBit := bs.lo.bitsPerBlock - bs.leadingFreeRun(blockData, bs.lo.bitsPerBlock)
	if maxBit != 0 {
		return firstIDOfBlock + uint64(maxBit) - 1
	}
	return InvalidID
}

// Obtain returns the smallest free id, marks it used, and returns it, or
// InvalidID if the Bitset is exhausted (spec.md §4.6).
func (bs *Bitset[W]) Obtain() uint64 {
	if bs.isEmptyOfFree(bs.blocks[0]) {
		if bs.cfg.metrics != nil {
			bs.cfg.metrics.RecordObtain(false)
		}
		return InvalidID
	}

	var blockIdx, offset uint64
	for lvlIdx := uint8(0); lvlIdx < bs.lo.levels; lvlIdx++ {
		w := bs.blocks[offset+blockIdx]
		t := bs.firstFreeBit(w)
		blockIdx = blockIdx*uint64(bs.lo.bitsPerBlock) + uint64(t)
		offset += summaryBlocksOnLevel(bs.lo.bitsPerBlock, lvlIdx)
	}

	storageIdx := bs.lo.summaryBlocks + blockIdx
	bit := bs.firstFreeBit(bs.blocks[storageIdx])
	bs.setBit(&bs.blocks[storageIdx], bit, false)

	id := uint64(bit) + blockIdx*uint64(bs.lo.bitsPerBlock)
	if bs.cfg.maxIDPolicy == KeepMaxIDCurrent {
		if bs.maxUsed == InvalidID || id > bs.maxUsed {
			bs.maxUsed = id
		}
	}
	if bs.isEmptyOfFree(bs.blocks[storageIdx]) {
		bs.updateMetadata(id, false)
	}

	if bs.cfg.metrics != nil {
		bs.cfg.metrics.RecordObtain(true)
	}
	return id
}
