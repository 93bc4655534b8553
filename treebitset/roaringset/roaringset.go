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

// Package roaringset converts between a treebitset.Bitset's used-id set
// and a roaring bitmap, the on-disk/interop format erigon-shaped systems
// already use for tx-num and block-num sets (erigon-lib requires both
// RoaringBitmap/roaring/v2 directly and RoaringBitmap/roaring
// transitively).
package roaringset

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/erigontech/treebitset/treebitset"
)

// ToRoaring materializes every used id of bs into a fresh 64-bit roaring
// bitmap. The 64-bit variant is used rather than the 32-bit
// roaring.Bitmap because a Bitset's ids span up to 2^63, one bit short of
// the full uint64 range the allocator's MaxElements can express.
func ToRoaring[W treebitset.Word](bs *treebitset.Bitset[W]) *roaring64.Bitmap {
	rb := roaring64.New()
	for id := range bs.UsedIDs() {
		rb.Add(id)
	}
	return rb
}

// FromRoaring builds a fresh Bitset[W] of the given capacity and marks
// every id present in rb as used.
func FromRoaring[W treebitset.Word](rb *roaring64.Bitmap, exp uint, opts ...treebitset.Option) (*treebitset.Bitset[W], error) {
	bs, err := treebitset.New[W](exp, opts...)
	if err != nil {
		return nil, err
	}
	it := rb.Iterator()
	for it.HasNext() {
		bs.SetFree(it.Next(), false)
	}
	return bs, nil
}
