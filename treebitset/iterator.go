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

import "iter"

// Cursor walks used ids in ascending order over the leaf blocks directly,
// skipping summary levels entirely (spec.md §4.8): a linear scan over the
// leaves is already the cheapest correct traversal since no summary level
// can tell the iterator more than "some descendant is used". Cursor holds
// only an index into the leaf array plus an in-progress word, so it never
// holds a raw pointer into Bitset's storage and stays valid across
// mutation of ids in leaf blocks the cursor has not yet reached (spec.md
// §9 "Iterator invalidation"). The current block's word is read once, so
// a mutation later in that same block is not seen.
type Cursor[W Word] struct {
	bs        *Bitset[W]
	blockIdx  uint64
	remaining W
	started   bool
}

// NewCursor returns a Cursor positioned before the first used id.
func (bs *Bitset[W]) NewCursor() *Cursor[W] {
	return &Cursor[W]{bs: bs}
}

// Next advances the cursor to the next used id and reports whether one
// was found.
func (c *Cursor[W]) Next() (uint64, bool) {
	bs := c.bs
	if !c.started {
		c.started = true
		if bs.lo.leafBlocks > 0 {
			c.remaining = c.usedBitsAt(0)
		}
	}

	for {
		if c.remaining != 0 {
			bit := trailingZeros(c.remaining)
			c.remaining &^= W(1) << uint(bit)
			return c.blockIdx*uint64(bs.lo.bitsPerBlock) + uint64(bit), true
		}
		c.blockIdx++
		if c.blockIdx >= bs.lo.leafBlocks {
			return 0, false
		}
		c.remaining = c.usedBitsAt(c.blockIdx)
	}
}

// usedBitsAt returns the "used" bits of leaf block blockIdx, regardless
// of FreeBitPolicy, with any reserved high bits (identifiers beyond
// MaxElements, only possible when levels == 0 and the sole leaf doubles
// as the root) forced to read as free — the same correction
// findNewSmallerMaxUsedID applies via markReservedAsFree before scanning,
// so the iterator never reports a nonexistent id as used.
func (c *Cursor[W]) usedBitsAt(blockIdx uint64) W {
	bs := c.bs
	w := bs.blocks[bs.lo.summaryBlocks+blockIdx]
	if bs.lo.levels == 0 && blockIdx == 0 {
		w = bs.markReservedAsFree(w, bs.lo.rootMask)
	}
	if bs.cfg.freeBitPolicy == FreeBitZero {
		return w
	}
	return ^w
}

// UsedIDs returns a range-over-func iterator over every id currently
// marked used, in ascending order (spec.md §4.8). Mutating the Bitset
// while ranging over this sequence is not supported — construct a
// Cursor manually if interleaved mutation and iteration is needed.
func (bs *Bitset[W]) UsedIDs() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		c := bs.NewCursor()
		for {
			id, ok := c.Next()
			if !ok {
				return
			}
			if !yield(id) {
				return
			}
		}
	}
}
