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

// Package mmapstore provides a memory-mapped alternative to a plain heap
// slice for a treebitset.Bitset's backing block array, for the
// "very large E" case: levels <= 3 already covers ~16M ids, which implies
// multi-megabyte storage arrays at larger E, better left to the OS page
// cache than the Go heap and GC.
package mmapstore

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

// Store is a memory-mapped backing array for a treebitset.Bitset,
// reinterpreting the mapped byte region as a []W slice.
type Store[W ~uint16 | ~uint32 | ~uint64] struct {
	file *os.File
	mm   mmap.MMap
}

// Open memory-maps a file at path sized to hold totalBlocks words of type
// W, creating and zero-extending it if it doesn't already exist or is
// smaller than required, and returns the mapped region reinterpreted as
// []W. Closing the returned io.Closer unmaps the region and closes the
// file.
func Open[W ~uint16 | ~uint32 | ~uint64](path string, totalBlocks int) (words []W, closer io.Closer, err error) {
	var w W
	wordSize := int64(unsafe.Sizeof(w))
	wantSize := wordSize * int64(totalBlocks)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("treebitset/mmapstore: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("treebitset/mmapstore: stat %s: %w", path, err)
	}
	if info.Size() < wantSize {
		if err := f.Truncate(wantSize); err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("treebitset/mmapstore: truncate %s to %d bytes: %w", path, wantSize, err)
		}
	}

	mm, err := mmap.MapRegion(f, int(wantSize), mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("treebitset/mmapstore: mmap %s: %w", path, err)
	}

	madvise(mm)

	s := &Store[W]{file: f, mm: mm}
	return unsafe.Slice((*W)(unsafe.Pointer(&mm[0])), totalBlocks), s, nil
}

// Close flushes, unmaps, and closes the underlying file.
func (s *Store[W]) Close() error {
	if err := s.mm.Flush(); err != nil {
		s.mm.Unmap()
		s.file.Close()
		return fmt.Errorf("treebitset/mmapstore: flush: %w", err)
	}
	if err := s.mm.Unmap(); err != nil {
		s.file.Close()
		return fmt.Errorf("treebitset/mmapstore: unmap: %w", err)
	}
	return s.file.Close()
}
