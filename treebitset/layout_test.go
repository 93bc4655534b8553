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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayoutRegressionTable(t *testing.T) {
	cases := []struct {
		exp           uint
		levels        uint8
		leafBlocks    uint64
		summaryBlocks uint64
		maxElements   uint64
	}{
		{exp: 0, levels: 0, leafBlocks: 1, summaryBlocks: 0, maxElements: 1},
		{exp: 6, levels: 0, leafBlocks: 1, summaryBlocks: 0, maxElements: 64},
		{exp: 12, levels: 1, leafBlocks: 64, summaryBlocks: 1, maxElements: 4096},
		{exp: 13, levels: 2, leafBlocks: 128, summaryBlocks: 65, maxElements: 8192},
	}

	for _, tc := range cases {
		lo, err := newLayout(tc.exp, 64)
		require.NoError(t, err)
		require.Equal(t, tc.levels, lo.levels, "levels for exp=%d", tc.exp)
		require.Equal(t, tc.leafBlocks, lo.leafBlocks, "leafBlocks for exp=%d", tc.exp)
		require.Equal(t, tc.summaryBlocks, lo.summaryBlocks, "summaryBlocks for exp=%d", tc.exp)
		require.Equal(t, tc.maxElements, lo.maxElements, "maxElements for exp=%d", tc.exp)
		require.Equal(t, tc.summaryBlocks+tc.leafBlocks, lo.totalBlocks)
	}
}

func TestLayoutRejectsExpGEBitsPerBlock(t *testing.T) {
	_, err := newLayout(64, 64)
	require.Error(t, err)

	_, err = newLayout(65, 64)
	require.Error(t, err)
}

func TestLayoutRootMaskExactlyFullRoot(t *testing.T) {
	lo, err := newLayout(6, 64)
	require.NoError(t, err)
	require.Zero(t, lo.rootMask, "capacity exactly fills the root: no masking needed")
}

func TestLayoutRootMaskPartialRoot(t *testing.T) {
	lo, err := newLayout(0, 64)
	require.NoError(t, err)
	require.Equal(t, uint64(1), lo.rootMask)
}
