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

package rle

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func packUnpack[W Word](t *testing.T, blocks []W) []W {
	t.Helper()
	var abbrevs []Abbreviation
	var literals []W
	Pack(blocks, func(a Abbreviation) { abbrevs = append(abbrevs, a) }, func(w W) { literals = append(literals, w) })

	got := make([]W, len(blocks))
	Unpack(got, len(blocks), literals, abbrevs)
	return got
}

func TestRoundTripAllZeroAllOne(t *testing.T) {
	blocks := make([]uint64, 300)
	got := packUnpack(t, blocks)
	require.Equal(t, blocks, got)

	for i := range blocks {
		blocks[i] = ^uint64(0)
	}
	got = packUnpack(t, blocks)
	require.Equal(t, blocks, got)
}

func TestRoundTripMixedRuns(t *testing.T) {
	blocks := make([]uint32, 200)
	for i := 50; i < 150; i++ {
		blocks[i] = ^uint32(0)
	}
	for i := 150; i < 160; i++ {
		blocks[i] = uint32(i) // too short a run, and not bit-packable anyway
	}
	got := packUnpack(t, blocks)
	require.Equal(t, blocks, got)
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	blocks := make([]uint16, 500)
	for i := range blocks {
		switch rng.IntN(3) {
		case 0:
			blocks[i] = 0
		case 1:
			blocks[i] = ^uint16(0)
		default:
			blocks[i] = uint16(rng.IntN(1 << 16))
		}
	}
	got := packUnpack(t, blocks)
	require.Equal(t, blocks, got)
}

func TestAbbreviationThreshold(t *testing.T) {
	// sizeof(uint64)*nreps > 16 bytes requires nreps > 2; a run of exactly
	// 2 all-one uint64 blocks must stay literal.
	blocks := []uint64{^uint64(0), ^uint64(0), 5}
	var abbrevs []Abbreviation
	var literals []uint64
	Pack(blocks, func(a Abbreviation) { abbrevs = append(abbrevs, a) }, func(w uint64) { literals = append(literals, w) })

	require.Empty(t, abbrevs)
	require.Equal(t, blocks, literals)
}

func TestAbbreviationAboveThreshold(t *testing.T) {
	blocks := []uint64{^uint64(0), ^uint64(0), ^uint64(0), 5}
	var abbrevs []Abbreviation
	var literals []uint64
	Pack(blocks, func(a Abbreviation) { abbrevs = append(abbrevs, a) }, func(w uint64) { literals = append(literals, w) })

	require.Len(t, abbrevs, 1)
	require.Equal(t, uint64(0), abbrevs[0].Position())
	require.True(t, abbrevs[0].Value())
	require.Equal(t, uint64(3), abbrevs[0].NBlocks)
	require.Equal(t, []uint64{5}, literals)
}
