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
	"iter"
	"sync"
)

// Safe wraps a Bitset[W] behind a sync.RWMutex for callers who want the
// "shared for reads across threads only if no concurrent mutation occurs"
// sharing policy (spec.md §5) enforced for them instead of hand-rolled.
// It changes nothing about the underlying algorithm's single-writer
// contract: concurrent mutation is still unsupported, Safe only
// serializes access to the same instance.
type Safe[W Word] struct {
	mu sync.RWMutex
	bs *Bitset[W]
}

// NewSafe wraps an already-constructed Bitset. The Bitset must not be
// used outside of the returned Safe afterward.
func NewSafe[W Word](bs *Bitset[W]) *Safe[W] {
	return &Safe[W]{bs: bs}
}

func (s *Safe[W]) IsFree(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bs.IsFree(id)
}

func (s *Safe[W]) MaxUsedID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bs.MaxUsedID()
}

func (s *Safe[W]) SetFree(id uint64, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bs.SetFree(id, value)
}

func (s *Safe[W]) SetFreeForRange(min, max uint64, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bs.SetFreeForRange(min, max, value)
}

func (s *Safe[W]) Obtain() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bs.Obtain()
}

func (s *Safe[W]) Clean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bs.Clean()
}

func (s *Safe[W]) Clone() *Bitset[W] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bs.Clone()
}

// UsedIDs snapshots the used-id set under a read lock and returns an
// iterator over that snapshot, so the lock isn't held for the lifetime of
// a range-over-func loop (which could otherwise deadlock against a
// writer if the caller breaks out slowly or calls back into Safe).
func (s *Safe[W]) UsedIDs() iter.Seq[uint64] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint64, 0, s.bs.lo.leafBlocks)
	for id := range s.bs.UsedIDs() {
		ids = append(ids, id)
	}
	return func(yield func(uint64) bool) {
		for _, id := range ids {
			if !yield(id) {
				return
			}
		}
	}
}
