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

//go:build !windows

package mmapstore

import "golang.org/x/sys/unix"

// madvise hints that access to the mapping is random, matching the tree
// traversal's access pattern better than the kernel's default readahead
// assumption. Advisory only: a failure here never affects correctness.
func madvise(mm []byte) {
	if len(mm) == 0 {
		return
	}
	_ = unix.Madvise(mm, unix.MADV_RANDOM)
}
