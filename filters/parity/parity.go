// Package parity
// Copyright (C) 2025 Alex Gaetano Padula & VFSLite Contributors
//
// This library is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 2.1 of the License, or (at your option) any later version.
//
// This library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public
// License along with this library; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301  USA

// Package parity is a reference filter that erasure-codes each block with
// Reed-Solomon parity shards, so a bounded number of corrupted shards can
// be reconstructed before the block stream's own CRC check ever sees
// them. It trades space (parity shards add overhead) for resilience to
// bit rot in the underlying device.
package parity

import (
	"encoding/binary"
	"hash/crc32"

	"vafs/filter"
	"vafs/vfserr"

	"github.com/klauspost/reedsolomon"
)

// FamilyID is the persisted filter family identifier for this filter.
const FamilyID = 2

const (
	dataShards   = 4
	parityShards = 2
	totalShards  = dataShards + parityShards

	shardChecksumSize = 4
	headerSize        = 4 + 2 + 2 + 4 // original length, data shards, parity shards, shard size
)

// Ops returns the encode/decode pair to install via Config.FilterOps.
func Ops() *filter.Ops {
	return &filter.Ops{Encode: encode, Decode: decode}
}

func encode(decoded []byte) ([]byte, error) {
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, err
	}

	shardSize := (len(decoded) + dataShards - 1) / dataShards
	if shardSize == 0 {
		shardSize = 1
	}

	shards := make([][]byte, totalShards)
	for i := 0; i < dataShards; i++ {
		shards[i] = make([]byte, shardSize)
		start := i * shardSize
		if start < len(decoded) {
			end := start + shardSize
			if end > len(decoded) {
				end = len(decoded)
			}
			copy(shards[i], decoded[start:end])
		}
	}
	for i := dataShards; i < totalShards; i++ {
		shards[i] = make([]byte, shardSize)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, err
	}

	out := make([]byte, headerSize+totalShards*(shardSize+shardChecksumSize))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(decoded)))
	binary.LittleEndian.PutUint16(out[4:6], uint16(dataShards))
	binary.LittleEndian.PutUint16(out[6:8], uint16(parityShards))
	binary.LittleEndian.PutUint32(out[8:12], uint32(shardSize))

	offset := headerSize
	for _, shard := range shards {
		copy(out[offset:], shard)
		binary.LittleEndian.PutUint32(out[offset+shardSize:], crc32.ChecksumIEEE(shard))
		offset += shardSize + shardChecksumSize
	}
	return out, nil
}

// decode reconstructs as many corrupted shards as the configured parity
// count allows. If corruption exceeds that capacity it deliberately does
// not fail outright: it reassembles whatever it has (corrupted shards
// zeroed rather than trusted), so the block stream's own CRC-over-decoded
// check is the thing that reports io_integrity, not this filter.
func decode(encoded []byte, output []byte) (int, error) {
	if len(encoded) < headerSize {
		return 0, vfserr.New(vfserr.IOIntegrity, "parity_decode", "truncated parity header")
	}
	originalLength := binary.LittleEndian.Uint32(encoded[0:4])
	nData := int(binary.LittleEndian.Uint16(encoded[4:6]))
	nParity := int(binary.LittleEndian.Uint16(encoded[6:8]))
	shardSize := int(binary.LittleEndian.Uint32(encoded[8:12]))
	total := nData + nParity

	expected := headerSize + total*(shardSize+shardChecksumSize)
	if len(encoded) < expected {
		return 0, vfserr.New(vfserr.IOIntegrity, "parity_decode", "truncated parity shards")
	}

	shards := make([][]byte, total)
	offset := headerSize
	for i := 0; i < total; i++ {
		payload := encoded[offset : offset+shardSize]
		storedChecksum := binary.LittleEndian.Uint32(encoded[offset+shardSize : offset+shardSize+shardChecksumSize])
		if crc32.ChecksumIEEE(payload) == storedChecksum {
			shards[i] = append([]byte(nil), payload...)
		}
		// left nil: this shard is either missing or its checksum
		// disagrees, a candidate for reconstruction.
		offset += shardSize + shardChecksumSize
	}

	enc, err := reedsolomon.New(nData, nParity)
	if err != nil {
		return 0, err
	}
	if err := enc.Reconstruct(shards); err != nil {
		// Beyond recovery capacity: fall back to zero-filled shards so a
		// (wrong) decoded buffer is still produced; the caller's CRC
		// check over the fully decoded payload is what must now fail.
		for i, s := range shards {
			if s == nil {
				shards[i] = make([]byte, shardSize)
			}
		}
	}

	n := 0
	for i := 0; i < nData && n < int(originalLength); i++ {
		n += copy(output[n:originalLength], shards[i])
	}
	return n, nil
}
