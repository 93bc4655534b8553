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

// Package registry manages multiple named treebitset.Bitset instances
// ordered by name, for systems that track more than one id space at once
// (one per state-history "domain" the way erigon-lib/kv/tables.go
// enumerates domains: block-num pool, tx-num pool, one per snapshot
// type).
package registry

import (
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/erigontech/treebitset/treebitset"
)

const defaultDegree = 32

type entry[W treebitset.Word] struct {
	name string
	bs   *treebitset.Bitset[W]
}

func less[W treebitset.Word](a, b entry[W]) bool {
	return a.name < b.name
}

// Registry holds multiple named Bitset[W] instances in name order.
// Methods are safe for concurrent use; the per-Bitset single-writer
// contract still applies to whatever holds a Bitset obtained via Get.
type Registry[W treebitset.Word] struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[entry[W]]
}

// New returns an empty Registry.
func New[W treebitset.Word]() *Registry[W] {
	return &Registry[W]{tree: btree.NewG(defaultDegree, less[W])}
}

// Register adds bs under name, replacing any previous entry with the
// same name. Returns an error if name is empty.
func (r *Registry[W]) Register(name string, bs *treebitset.Bitset[W]) error {
	if name == "" {
		return fmt.Errorf("treebitset/registry: name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.ReplaceOrInsert(entry[W]{name: name, bs: bs})
	return nil
}

// Get returns the Bitset registered under name, or nil and false if none.
func (r *Registry[W]) Get(name string) (*treebitset.Bitset[W], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tree.Get(entry[W]{name: name})
	if !ok {
		return nil, false
	}
	return e.bs, true
}

// Remove deletes the entry registered under name, if any.
func (r *Registry[W]) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Delete(entry[W]{name: name})
}

// Len returns the number of registered names.
func (r *Registry[W]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tree.Len()
}

// Names calls fn for every registered name in ascending order, stopping
// early if fn returns false.
func (r *Registry[W]) Names(fn func(name string) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.tree.Ascend(func(e entry[W]) bool {
		return fn(e.name)
	})
}
