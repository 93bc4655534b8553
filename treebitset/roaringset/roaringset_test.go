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

package roaringset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/treebitset/treebitset"
)

func TestRoundTrip(t *testing.T) {
	bs, err := treebitset.New[uint64](13, treebitset.WithMemoryGuard(false))
	require.NoError(t, err)
	for _, id := range []uint64{1, 100, 8191} {
		bs.SetFree(id, false)
	}

	rb := ToRoaring(bs)
	require.Equal(t, uint64(3), rb.GetCardinality())
	require.True(t, rb.Contains(100))

	back, err := FromRoaring[uint64](rb, 13, treebitset.WithMemoryGuard(false))
	require.NoError(t, err)
	require.True(t, bs.Equal(back))
}
