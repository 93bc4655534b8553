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

// Package snapshot persists a packed treebitset.Bitset to disk as a
// zstd-compressed segment, mirroring erigon's .seg snapshot-file
// convention (see turbo/snapshotsync). This is additive persistence
// tooling layered on top of the pack codec in treebitset/rle — it never
// changes that codec's own contract, and it does not make mutation of
// the resulting Bitset safe across processes; the advisory flock only
// keeps concurrent writers from corrupting the same file mid-write.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"

	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/erigontech/treebitset/internal/mathutil"
	"github.com/erigontech/treebitset/treebitset"
	"github.com/erigontech/treebitset/treebitset/rle"
)

// magic identifies a treebitset snapshot segment; version allows the
// wire layout to evolve without breaking readers of older files.
const (
	magic          = uint32(0x74627473) // "tbts"
	formatVersion  = uint32(1)
	headerByteSize = 4 + 4 + 8 + 1 + 8 + 8

	// abbreviationByteSize is the encoded size of one rle.Abbreviation
	// (two uint64 fields), used to estimate a segment's declared size.
	abbreviationByteSize = 16
)

// WriteFile packs bs and writes it to path as a zstd-compressed segment,
// holding an advisory file lock for the duration of the write so
// concurrent erigon processes don't race on the same snapshot file.
func WriteFile[W treebitset.Word](path string, bs *treebitset.Bitset[W]) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("treebitset/snapshot: lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("treebitset/snapshot: %s is locked by another writer", path)
	}
	defer lock.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("treebitset/snapshot: create %s: %w", path, err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("treebitset/snapshot: new zstd writer: %w", err)
	}

	var abbrevs []rle.Abbreviation
	var blocks []W
	bs.Pack(func(a rle.Abbreviation) { abbrevs = append(abbrevs, a) }, func(w W) { blocks = append(blocks, w) })

	if err := writeHeader(zw, bs, uint64(len(abbrevs)), uint64(len(blocks))); err != nil {
		zw.Close()
		return err
	}
	for _, a := range abbrevs {
		if err := binary.Write(zw, binary.LittleEndian, a); err != nil {
			zw.Close()
			return fmt.Errorf("treebitset/snapshot: write abbreviation: %w", err)
		}
	}
	for _, w := range blocks {
		if err := binary.Write(zw, binary.LittleEndian, w); err != nil {
			zw.Close()
			return fmt.Errorf("treebitset/snapshot: write block: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("treebitset/snapshot: close zstd writer: %w", err)
	}

	if info, statErr := f.Stat(); statErr == nil {
		log.Debug("treebitset/snapshot: wrote segment", "path", path, "size", datasize.ByteSize(info.Size()).HumanReadable())
	}
	return nil
}

func writeHeader[W treebitset.Word](w io.Writer, bs *treebitset.Bitset[W], nAbbrevs, nBlocks uint64) error {
	var bpb W
	header := struct {
		Magic         uint32
		Version       uint32
		MaxElements   uint64
		WordBytes     uint8
		NAbbrevs      uint64
		NPackedBlocks uint64
	}{
		Magic:         magic,
		Version:       formatVersion,
		MaxElements:   bs.MaxElements(),
		WordBytes:     uint8(wordSize(bpb)),
		NAbbrevs:      nAbbrevs,
		NPackedBlocks: nBlocks,
	}
	return binary.Write(w, binary.LittleEndian, header)
}

func wordSize[W treebitset.Word](w W) int {
	switch any(w).(type) {
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// declaredSize computes the total on-disk size a header's own counts imply
// (headerByteSize plus the abbreviation and packed-block payloads), so a
// corrupt or hostile NAbbrevs/NPackedBlocks can't be used to size an
// unreasonably large allocation without at least being logged first.
func declaredSize(nAbbrevs, nBlocks, wordBytes uint64) (size uint64, overflow bool) {
	abbrevSize, ovf := mathutil.SafeMul(nAbbrevs, abbreviationByteSize)
	if ovf {
		return 0, true
	}
	blockSize, ovf := mathutil.SafeMul(nBlocks, wordBytes)
	if ovf {
		return 0, true
	}
	return mathutil.SafeAdd(headerByteSize+abbrevSize, blockSize)
}

// ReadFile reads a segment written by WriteFile and unpacks it into bs,
// which must already have been constructed with the matching capacity
// and word type.
func ReadFile[W treebitset.Word](path string, bs *treebitset.Bitset[W]) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("treebitset/snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("treebitset/snapshot: new zstd reader: %w", err)
	}
	defer zr.Close()

	var header struct {
		Magic         uint32
		Version       uint32
		MaxElements   uint64
		WordBytes     uint8
		NAbbrevs      uint64
		NPackedBlocks uint64
	}
	if err := binary.Read(zr, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("treebitset/snapshot: read header: %w", err)
	}
	if header.Magic != magic {
		return fmt.Errorf("treebitset/snapshot: %s is not a treebitset segment", path)
	}
	if header.Version != formatVersion {
		return fmt.Errorf("treebitset/snapshot: %s has unsupported format version %d", path, header.Version)
	}
	if header.MaxElements != bs.MaxElements() {
		return fmt.Errorf("treebitset/snapshot: %s has capacity %d, want %d", path, header.MaxElements, bs.MaxElements())
	}
	var bpb W
	if wantBytes := wordSize(bpb); int(header.WordBytes) != wantBytes {
		return fmt.Errorf("treebitset/snapshot: %s was packed with %d-byte words, want %d", path, header.WordBytes, wantBytes)
	}

	declared, overflow := declaredSize(header.NAbbrevs, header.NPackedBlocks, uint64(header.WordBytes))
	if overflow {
		return fmt.Errorf("treebitset/snapshot: %s declares a size that overflows uint64 (nAbbrevs=%d, nBlocks=%d)", path, header.NAbbrevs, header.NPackedBlocks)
	}
	log.Debug("treebitset/snapshot: reading segment", "path", path, "declaredSize", datasize.ByteSize(declared).HumanReadable())

	abbrevs := make([]rle.Abbreviation, header.NAbbrevs)
	for i := range abbrevs {
		if err := binary.Read(zr, binary.LittleEndian, &abbrevs[i]); err != nil {
			return fmt.Errorf("treebitset/snapshot: read abbreviation %d: %w", i, err)
		}
	}
	blocks := make([]W, header.NPackedBlocks)
	for i := range blocks {
		if err := binary.Read(zr, binary.LittleEndian, &blocks[i]); err != nil {
			return fmt.Errorf("treebitset/snapshot: read block %d: %w", i, err)
		}
	}

	bs.Unpack(blocks, abbrevs)
	return nil
}
