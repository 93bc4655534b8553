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

// Package rle implements the run-length pack/unpack codec for treebitset
// block arrays: runs of all-zero or all-one blocks collapse into a single
// 16-byte Abbreviation record instead of being stored block-by-block.
package rle

import "unsafe"

// signBit is the high bit of a uint64, used to steal one bit of
// PositionAndVal for the run's value, exactly as the reference packs
// position and value into a single field.
const signBit = uint64(1) << 63

// Abbreviation is a run of nblocks identical all-zero or all-one blocks
// starting at block index Position, laid out as two explicit uint64
// fields (not reinterpreted raw bytes) so the record stays portable
// across architectures.
type Abbreviation struct {
	// PositionAndVal packs the run's starting block index in the low 63
	// bits and the run's repeated bit value (0 or 1) in the high bit.
	PositionAndVal uint64
	NBlocks        uint64
}

// Position returns the block index the run starts at.
func (a Abbreviation) Position() uint64 { return a.PositionAndVal &^ signBit }

// Value reports whether the run's blocks are all-ones (true) or
// all-zero (false).
func (a Abbreviation) Value() bool { return a.PositionAndVal&signBit != 0 }

func newAbbreviation(position uint64, value bool, nblocks uint64) Abbreviation {
	pv := position
	if value {
		pv |= signBit
	}
	return Abbreviation{PositionAndVal: pv, NBlocks: nblocks}
}

// Word constrains the block types rle can pack, matching treebitset.Word.
type Word interface {
	~uint16 | ~uint32 | ~uint64
}

func isBitPackable[W Word](val W) bool {
	var zero W
	return val == zero || val == ^zero
}

// wordBytes returns sizeof(W) computed the same way treebitset derives
// bitsPerBlock, kept local so this package has no dependency on the core
// package's generics.
func wordBytes[W Word]() uint64 {
	var w W
	return uint64(unsafe.Sizeof(w))
}

// abbreviationBytes is sizeof(Abbreviation): two uint64 fields, 16 bytes
// on every platform Go supports.
const abbreviationBytes = 16

// Pack scans blocks and emits each maximal all-zero or all-one run worth
// more than 16 bytes of storage as a single Abbreviation via abbrevCB, and
// every other block individually via blockCB, in original order —
// exactly the decision spec.md §4.9 describes ("only abbreviate if
// sizeof(word)*nblocks > 16 bytes").
func Pack[W Word](blocks []W, abbrevCB func(Abbreviation), blockCB func(W)) {
	if len(blocks) == 0 {
		return
	}

	wb := wordBytes[W]()
	blockValue := blocks[0]
	blockStart := uint64(0)

	addAbbr := func(i uint64, value bool, start uint64) bool {
		nreps := i - start
		if wb*nreps > abbreviationBytes {
			abbrevCB(newAbbreviation(start, value, nreps))
			return true
		}
		return false
	}

	for i := 1; i < len(blocks); i++ {
		val := blocks[i]
		if val != blockValue {
			added := false
			if isBitPackable(blockValue) {
				added = addAbbr(uint64(i), blockValue != W(0), blockStart)
			}
			if !added {
				for idx := blockStart; idx < uint64(i); idx++ {
					blockCB(blocks[idx])
				}
			}
			blockStart = uint64(i)
			blockValue = val
		}
	}

	n := uint64(len(blocks))
	if !isBitPackable(blockValue) || !addAbbr(n, blockValue != W(0), blockStart) {
		for idx := blockStart; idx < n; idx++ {
			blockCB(blocks[idx])
		}
	}
}

// Unpack reconstructs unpacked (length unpackedCount) from packed blocks
// (the non-abbreviated blocks in original order) and abbreviations (each
// run's position and repeated value), inverting Pack exactly.
func Unpack[W Word](unpacked []W, unpackedCount int, packed []W, abbreviations []Abbreviation) {
	var zero W
	full := ^zero

	packedIdx := 0
	unpackedIdx := uint64(0)

	for _, abbr := range abbreviations {
		position := abbr.Position()
		for unpackedIdx < position {
			unpacked[unpackedIdx] = packed[packedIdx]
			unpackedIdx++
			packedIdx++
		}
		fill := zero
		if abbr.Value() {
			fill = full
		}
		for i := uint64(0); i < abbr.NBlocks; i++ {
			unpacked[unpackedIdx] = fill
			unpackedIdx++
		}
	}

	for unpackedIdx < uint64(unpackedCount) {
		unpacked[unpackedIdx] = packed[packedIdx]
		unpackedIdx++
		packedIdx++
	}
}
