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

// Equal reports whether bs and other track the same capacity and the same
// set of used ids. The cached max-used-id is compared too when both sides
// maintain it under KeepMaxIDCurrent; OnDemandMaxID sides are compared
// purely on backing storage since neither caches a value worth trusting.
func (bs *Bitset[W]) Equal(other *Bitset[W]) bool {
	if bs == other {
		return true
	}
	if other == nil {
		return false
	}
	if bs.lo.maxElements != other.lo.maxElements {
		return false
	}
	if bs.cfg.maxIDPolicy == KeepMaxIDCurrent && other.cfg.maxIDPolicy == KeepMaxIDCurrent {
		if bs.maxUsed != other.maxUsed {
			return false
		}
	}
	if bs.cfg.freeBitPolicy == other.cfg.freeBitPolicy {
		if len(bs.blocks) != len(other.blocks) {
			return false
		}
		for i := range bs.blocks {
			if bs.blocks[i] != other.blocks[i] {
				return false
			}
		}
		return true
	}
	return equalUsedIDs(bs, other)
}

// equalUsedIDs compares two bitsets by their used-id sets directly,
// needed when their FreeBitPolicy differs and a raw word comparison would
// be meaningless.
func equalUsedIDs[W Word](a, b *Bitset[W]) bool {
	ca, cb := a.NewCursor(), b.NewCursor()
	for {
		ia, oka := ca.Next()
		ib, okb := cb.Next()
		if oka != okb {
			return false
		}
		if !oka {
			return true
		}
		if ia != ib {
			return false
		}
	}
}
