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

import "github.com/erigontech/treebitset/treebitset/rle"

// Pack emits bs's backing block array run-length encoded: abbrevCB
// receives each maximal all-zero/all-one run worth abbreviating, blockCB
// receives every other block verbatim, both in ascending block order
// (spec.md §4.9).
func (bs *Bitset[W]) Pack(abbrevCB func(rle.Abbreviation), blockCB func(W)) {
	rle.Pack(bs.blocks, abbrevCB, blockCB)
}

// Unpack rebuilds a Bitset's backing storage from a packed representation
// produced by Pack. packed and abbreviations must together describe
// exactly bs.NumMetadataBlocks()+bs.NumElementBlocks() blocks, in the same
// order Pack produced them.
func (bs *Bitset[W]) Unpack(packed []W, abbreviations []rle.Abbreviation) {
	rle.Unpack(bs.blocks, len(bs.blocks), packed, abbreviations)
	bs.maxUsed = InvalidID
	if bs.cfg.maxIDPolicy == KeepMaxIDCurrent {
		bs.maxUsed = bs.findNewSmallerMaxUsedID()
	}
}
