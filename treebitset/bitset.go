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

// Package treebitset implements a fixed-capacity hierarchical bitset
// identifier allocator: a tree of summary bits over a flat array of leaf
// words lets Obtain find the smallest free identifier in O(levels) time
// instead of a linear scan.
package treebitset

import (
	"fmt"

	"github.com/erigontech/erigon-lib/log/v3"
)

// InvalidID is the sentinel identifier returned by Obtain and MaxUsedID
// when no applicable id exists. It is the maximum value of uint64 and
// must never be reused as a real identifier (spec.md §9).
const InvalidID uint64 = ^uint64(0)

// Bitset is a fixed-capacity, single-writer identifier allocator over
// [0, 2^exp). It is movable but not implicitly copyable: copying the
// struct by value aliases the backing slice, so use Clone for an
// independent copy (spec.md §3 "Ownership").
type Bitset[W Word] struct {
	cfg     config
	lo      layout
	blocks  []W
	maxUsed uint64 // InvalidID when unknown/none, under KeepMaxIDCurrent
}

// New constructs a Bitset with capacity 2^exp. exp must satisfy
// 0 <= exp < bitsPerBlock(W) (the root summary must fit in one block).
func New[W Word](exp uint, opts ...Option) (*Bitset[W], error) {
	bpb := bitsPerBlock[W]()
	lo, err := newLayout(exp, bpb)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.memoryGuard {
		if err := checkMemoryBudget(lo.totalBlocks, uint64(bpb/8)); err != nil {
			return nil, err
		}
	}

	bs := &Bitset[W]{cfg: cfg, lo: lo}
	bs.blocks = make([]W, lo.totalBlocks)
	if cfg.freeBitPolicy == FreeBitZero {
		// make already returned zeroed storage, which is the "everything
		// free" state under FreeBitZero: only the root mask needs applying.
		if lo.rootMask != 0 {
			bs.setRootMask()
		}
		bs.maxUsed = InvalidID
	} else {
		bs.resetStorage()
	}

	if lo.totalBlocks > 1<<20 {
		log.Warn("treebitset: constructing large bitset", "exp", exp, "totalBlocks", lo.totalBlocks)
	}
	return bs, nil
}

// resetStorage fills the backing array to its "everything free" state and
// masks off bits that correspond to identifiers beyond MaxElements. Shared
// by New and Clean so clean never reallocates (spec.md §4.2).
func (bs *Bitset[W]) resetStorage() {
	full := bs.fullWord()
	for i := range bs.blocks {
		bs.blocks[i] = full
	}
	if bs.lo.rootMask != 0 {
		bs.setRootMask()
	}
	bs.maxUsed = InvalidID
}

// setRootMask clears the bits of block 0 (the root summary, or the sole
// leaf block when there are no summary levels) that don't correspond to a
// real identifier, so they read back as "used".
func (bs *Bitset[W]) setRootMask() {
	mask := W(bs.lo.rootMask)
	if bs.cfg.freeBitPolicy == FreeBitZero {
		// Under FreeBitZero, "used" is represented by a set bit, so the
		// reserved high bits must be *set*, not cleared.
		bs.blocks[0] |= ^mask
	} else {
		bs.blocks[0] &= mask
	}
}

// Clean frees every identifier without reallocating storage (spec.md §4.2).
func (bs *Bitset[W]) Clean() {
	bs.resetStorage()
}

// IsFree reports whether id is currently free. id must be < MaxElements.
func (bs *Bitset[W]) IsFree(id uint64) bool {
	blockIdx := id >> bs.lo.log2Block
	storageIdx := bs.lo.summaryBlocks + blockIdx
	bit := int(id & (uint64(bs.lo.bitsPerBlock) - 1))
	return bs.bitIsFree(bs.blocks[storageIdx], bit)
}

// SetFree marks id as free (value == true) or used (value == false).
// id must be < MaxElements.
func (bs *Bitset[W]) SetFree(id uint64, value bool) {
	blockIdx := id >> bs.lo.log2Block
	storageIdx := bs.lo.summaryBlocks + blockIdx
	bit := int(id & (uint64(bs.lo.bitsPerBlock) - 1))

	shouldUpdateMetadata := false
	if value {
		shouldUpdateMetadata = bs.isEmptyOfFree(bs.blocks[storageIdx])
		bs.setBit(&bs.blocks[storageIdx], bit, true)
		if bs.cfg.maxIDPolicy == KeepMaxIDCurrent && id == bs.maxUsed {
			bs.maxUsed = bs.findNewSmallerMaxUsedID()
		}
	} else {
		if bs.cfg.maxIDPolicy == KeepMaxIDCurrent {
			if bs.maxUsed == InvalidID || id > bs.maxUsed {
				bs.maxUsed = id
			}
		}
		bs.setBit(&bs.blocks[storageIdx], bit, false)
		shouldUpdateMetadata = bs.isEmptyOfFree(bs.blocks[storageIdx])
	}

	if bs.cfg.metrics != nil {
		bs.cfg.metrics.RecordTransition(value)
	}

	if shouldUpdateMetadata {
		bs.updateMetadata(id, value)
	}
}

// MaxUsedID returns the largest id currently marked used, or InvalidID if
// none exists. Under OnDemandMaxID this recomputes from scratch every call.
func (bs *Bitset[W]) MaxUsedID() uint64 {
	if bs.cfg.maxIDPolicy == OnDemandMaxID {
		return bs.findNewSmallerMaxUsedID()
	}
	return bs.maxUsed
}

// MaxElements returns the capacity N = 2^exp.
func (bs *Bitset[W]) MaxElements() uint64 { return bs.lo.maxElements }

// NumMetadataLevels returns the number of summary levels above the leaves.
func (bs *Bitset[W]) NumMetadataLevels() uint8 { return bs.lo.levels }

// NumElementBlocks returns the number of leaf (element) blocks.
func (bs *Bitset[W]) NumElementBlocks() uint64 { return bs.lo.leafBlocks }

// NumMetadataBlocks returns the total number of summary blocks.
func (bs *Bitset[W]) NumMetadataBlocks() uint64 { return bs.lo.summaryBlocks }

// Clone returns an independent copy with its own backing storage
// (spec.md §3 "Ownership": copy must be explicit).
func (bs *Bitset[W]) Clone() *Bitset[W] {
	clone := &Bitset[W]{cfg: bs.cfg, lo: bs.lo, maxUsed: bs.maxUsed}
	clone.blocks = make([]W, len(bs.blocks))
	copy(clone.blocks, bs.blocks)
	return clone
}

func (bs *Bitset[W]) String() string {
	return fmt.Sprintf("Bitset[N=%d levels=%d]", bs.lo.maxElements, bs.lo.levels)
}
