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

package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/treebitset/treebitset"
)

func TestRegisterGetRemove(t *testing.T) {
	r := New[uint64]()
	require.Equal(t, 0, r.Len())

	bs, err := treebitset.New[uint64](6, treebitset.WithMemoryGuard(false))
	require.NoError(t, err)

	require.NoError(t, r.Register("tx_num", bs))
	require.Equal(t, 1, r.Len())

	got, ok := r.Get("tx_num")
	require.True(t, ok)
	require.Same(t, bs, got)

	_, ok = r.Get("missing")
	require.False(t, ok)

	r.Remove("tx_num")
	require.Equal(t, 0, r.Len())
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := New[uint64]()
	bs, err := treebitset.New[uint64](6, treebitset.WithMemoryGuard(false))
	require.NoError(t, err)
	require.Error(t, r.Register("", bs))
}

func TestNamesAscendingOrder(t *testing.T) {
	r := New[uint64]()
	bs, err := treebitset.New[uint64](6, treebitset.WithMemoryGuard(false))
	require.NoError(t, err)

	for _, name := range []string{"tx_num", "block_num", "step_num"} {
		require.NoError(t, r.Register(name, bs))
	}

	var got []string
	r.Names(func(name string) bool {
		got = append(got, name)
		return true
	})
	require.Equal(t, []string{"block_num", "step_num", "tx_num"}, got)
}
