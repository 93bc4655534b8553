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
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/treebitset/treebitset/rle"
)

// packAll drains bs.Pack into plain slices for round-trip tests.
func packAll[W Word](bs *Bitset[W]) ([]rle.Abbreviation, []W) {
	var abbrevs []rle.Abbreviation
	var literals []W
	bs.Pack(func(a rle.Abbreviation) { abbrevs = append(abbrevs, a) }, func(w W) { literals = append(literals, w) })
	return abbrevs, literals
}

func TestObtainExhaustsInOrder(t *testing.T) {
	bs, err := New[uint64](6, WithMemoryGuard(false))
	require.NoError(t, err)

	for i := uint64(0); i < 64; i++ {
		id := bs.Obtain()
		require.Equal(t, i, id)
	}
	require.Equal(t, InvalidID, bs.Obtain())
	require.Equal(t, InvalidID, bs.Obtain(), "exhaustion is stable until a free happens")
}

func TestObtainExhaustsInOrderTwoLevels(t *testing.T) {
	bs, err := New[uint64](12, WithMemoryGuard(false))
	require.NoError(t, err)

	for i := uint64(0); i < 4096; i++ {
		require.Equal(t, i, bs.Obtain())
	}
	require.Equal(t, InvalidID, bs.Obtain())
}

func TestMaxUsedIDAfterFreeingTheMaximum(t *testing.T) {
	bs, err := New[uint64](13, WithMemoryGuard(false))
	require.NoError(t, err)

	for i := 0; i < 4096; i++ {
		bs.Obtain()
	}
	require.Equal(t, uint64(4095), bs.MaxUsedID())

	bs.SetFree(4095, true)
	require.Equal(t, uint64(4094), bs.MaxUsedID())

	require.Equal(t, uint64(4095), bs.Obtain())
}

func TestRandomizedTraceAgainstShadow(t *testing.T) {
	bs, err := New[uint64](5, WithMemoryGuard(false))
	require.NoError(t, err)

	shadow := make([]bool, 32) // true == free
	for i := range shadow {
		shadow[i] = true
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for step := 0; step < 1000; step++ {
		id := uint64(rng.IntN(32))
		value := rng.IntN(2) == 1
		bs.SetFree(id, value)
		shadow[id] = value

		for i := uint64(0); i < 32; i++ {
			require.Equal(t, shadow[i], bs.IsFree(i), "step %d id %d", step, i)
		}
	}
}

func TestUsedIDsIterationFaithfulness(t *testing.T) {
	bs, err := New[uint64](13, WithMemoryGuard(false))
	require.NoError(t, err)

	for _, id := range []uint64{100, 200, 300} {
		bs.SetFree(id, false)
	}

	var got []uint64
	for id := range bs.UsedIDs() {
		got = append(got, id)
	}
	require.Equal(t, []uint64{100, 200, 300}, got)
}

func TestSummaryInvariantAfterMixedOps(t *testing.T) {
	bs, err := New[uint32](12, WithMemoryGuard(false))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 9))
	for i := 0; i < 2000; i++ {
		id := uint64(rng.IntN(int(bs.MaxElements())))
		if rng.IntN(3) == 0 {
			bs.Obtain()
			continue
		}
		bs.SetFree(id, rng.IntN(2) == 1)
	}

	requireSummaryInvariant(t, bs)
}

// requireSummaryInvariant recomputes every summary level from the leaves
// up and checks it against the live storage (spec.md §8 "Summary
// invariant").
func requireSummaryInvariant[W Word](t *testing.T, bs *Bitset[W]) {
	t.Helper()
	if bs.lo.levels == 0 {
		return
	}

	bpb := uint64(bs.lo.bitsPerBlock)
	childNonEmpty := make([]bool, bs.lo.leafBlocks)
	for i := uint64(0); i < bs.lo.leafBlocks; i++ {
		childNonEmpty[i] = !bs.isEmptyOfFree(bs.blocks[bs.lo.summaryBlocks+i])
	}

	for lvl := int(bs.lo.levels) - 1; lvl >= 0; lvl-- {
		levelStart := bs.lo.levelStart(uint8(lvl))
		nBlocksAtLevel := summaryBlocksOnLevel(bs.lo.bitsPerBlock, uint8(lvl))
		nextNonEmpty := make([]bool, nBlocksAtLevel)

		for childIdx, nonEmpty := range childNonEmpty {
			if !nonEmpty {
				continue
			}
			parentBlock := uint64(childIdx) / bpb
			nextNonEmpty[parentBlock] = true
		}

		for blockIdx := uint64(0); blockIdx < nBlocksAtLevel; blockIdx++ {
			word := bs.blocks[levelStart+blockIdx]
			require.Equal(t, nextNonEmpty[blockIdx], !bs.isEmptyOfFree(word),
				"summary mismatch at level %d block %d", lvl, blockIdx)
		}
		childNonEmpty = nextNonEmpty
	}
}

func TestFreeBitZeroPolicyMirrorsFreeBitOne(t *testing.T) {
	one, err := New[uint64](12, WithMemoryGuard(false), WithFreeBitPolicy(FreeBitOne))
	require.NoError(t, err)
	zero, err := New[uint64](12, WithMemoryGuard(false), WithFreeBitPolicy(FreeBitZero))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 500; i++ {
		id := uint64(rng.IntN(int(one.MaxElements())))
		value := rng.IntN(2) == 1
		one.SetFree(id, value)
		zero.SetFree(id, value)
		require.Equal(t, one.IsFree(id), zero.IsFree(id))
	}
	require.True(t, one.Equal(zero))
}

func TestSetFreeForRangeMatchesBitByBit(t *testing.T) {
	bs, err := New[uint64](13, WithMemoryGuard(false))
	require.NoError(t, err)
	shadow, err := New[uint64](13, WithMemoryGuard(false))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(11, 12))
	for i := 0; i < 200; i++ {
		lo := uint64(rng.IntN(int(bs.MaxElements())))
		hi := uint64(rng.IntN(int(bs.MaxElements()) + 1))
		if lo > hi {
			lo, hi = hi, lo
		}
		value := rng.IntN(2) == 1

		require.NoError(t, bs.SetFreeForRange(lo, hi, value))
		for id := lo; id < hi; id++ {
			shadow.SetFree(id, value)
		}
	}

	require.True(t, bs.Equal(shadow))
}

func TestCloneIsIndependent(t *testing.T) {
	bs, err := New[uint64](12, WithMemoryGuard(false))
	require.NoError(t, err)
	bs.SetFree(5, false)

	clone := bs.Clone()
	require.True(t, bs.Equal(clone))

	clone.SetFree(6, false)
	require.True(t, bs.IsFree(6))
	require.False(t, clone.IsFree(6))
}

func TestPackUnpackRoundTrip(t *testing.T) {
	bs, err := New[uint64](12, WithMemoryGuard(false))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(42, 42))
	for id := uint64(0); id < bs.MaxElements(); id++ {
		if rng.IntN(2) == 0 {
			bs.SetFree(id, false)
		}
	}

	abbrevs, literals := packAll(bs)

	roundTrip, err := New[uint64](12, WithMemoryGuard(false))
	require.NoError(t, err)
	roundTrip.Unpack(literals, abbrevs)

	require.True(t, bs.Equal(roundTrip))
}
