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

	"github.com/erigontech/treebitset/internal/mathutil"
)

// layout is the pure derivation of the tree shape from (exp, bitsPerBlock).
// It never allocates and never touches storage.
type layout struct {
	bitsPerBlock int
	log2Block    uint

	maxElements   uint64
	levels        uint8
	leafBlocks    uint64
	summaryBlocks uint64
	totalBlocks   uint64

	// rootMask masks off bits of the root block (or, when levels == 0, the
	// sole leaf block) that correspond to identifiers beyond maxElements.
	// Zero means "no masking required".
	rootMask uint64
}

func newLayout(exp uint, bitsPerBlock int) (layout, error) {
	if bitsPerBlock < 16 {
		return layout{}, fmt.Errorf("treebitset: block width must be >= 16 bits, got %d", bitsPerBlock)
	}
	log2Block := mathutil.Log2Floor(uint64(bitsPerBlock))
	if uint64(bitsPerBlock) != uint64(1)<<log2Block {
		return layout{}, fmt.Errorf("treebitset: block width must be a power of two, got %d", bitsPerBlock)
	}
	if exp >= uint(bitsPerBlock) {
		return layout{}, fmt.Errorf("treebitset: exponent %d must be < block width %d (root summary must fit in one block)", exp, bitsPerBlock)
	}

	maxElements := uint64(1) << exp
	leafBlocks := maxElements >> log2Block
	if leafBlocks < 1 {
		leafBlocks = 1
	}

	l := mathutil.LogCeil(uint64(bitsPerBlock), maxElements)
	var levels uint8
	if l > 0 {
		levels = uint8(l - 1)
	}

	var summaryBlocks uint64
	for k := uint8(0); k < levels; k++ {
		summaryBlocks += summaryBlocksOnLevel(bitsPerBlock, k)
	}

	lo := layout{
		bitsPerBlock:  bitsPerBlock,
		log2Block:     log2Block,
		maxElements:   maxElements,
		levels:        levels,
		leafBlocks:    leafBlocks,
		summaryBlocks: summaryBlocks,
		totalBlocks:   summaryBlocks + leafBlocks,
		rootMask:      rootMask(bitsPerBlock, maxElements, levels, log2Block),
	}
	return lo, nil
}

// summaryBlocksOnLevel returns the number of summary blocks at level k,
// which is bitsPerBlock^k (level 0, the root, always has a single block).
func summaryBlocksOnLevel(bitsPerBlock int, k uint8) uint64 {
	return uint64(1) << (uint(k) * uint(mathutil.Log2Floor(uint64(bitsPerBlock))))
}

// levelStart returns the storage offset of summary level k.
func (lo layout) levelStart(k uint8) uint64 {
	var start uint64
	for i := uint8(0); i < k; i++ {
		start += summaryBlocksOnLevel(lo.bitsPerBlock, i)
	}
	return start
}

// rootMask computes spec.md's §3 root-mask: the low maxElements/B^levels
// bits of the root block (or sole leaf block, when levels == 0) are the
// only bits corresponding to real identifiers. When the root is exactly
// filled, no masking is required and rootMask is 0.
func rootMask(bitsPerBlock int, maxElements uint64, levels uint8, log2Block uint) uint64 {
	shift := uint64(levels) * uint64(log2Block)
	v := maxElements >> shift
	if v >= uint64(bitsPerBlock) {
		// Root block exactly full: every bit position is a real identifier.
		return 0
	}
	return (uint64(1) << v) - 1
}
