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

// NewWithStorage builds a Bitset over a caller-supplied backing array
// instead of an internally allocated one — for backends like
// treebitset/mmapstore that hand back a memory-mapped []W. storage must
// have exactly the length layout for (exp, bitsPerBlock(W)) requires;
// the memory guard never applies since the caller already owns the
// allocation decision.
func NewWithStorage[W Word](exp uint, storage []W, opts ...Option) (*Bitset[W], error) {
	lo, err := newLayout(exp, bitsPerBlock[W]())
	if err != nil {
		return nil, err
	}
	if uint64(len(storage)) != lo.totalBlocks {
		return nil, fmt.Errorf("treebitset: storage has %d blocks, want %d for exp=%d", len(storage), lo.totalBlocks, exp)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	bs := &Bitset[W]{cfg: cfg, lo: lo, blocks: storage}
	bs.resetStorage()
	return bs, nil
}
