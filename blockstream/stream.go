// Package blockstream
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

// Package blockstream implements the fixed-block-size codec layered over
// a device.Device: the block table, per-block CRC, optional filter
// encode/decode, and the bounded block cache. One Stream instance backs
// the descriptor stream and each data stream of an image.
package blockstream

import (
	"encoding/binary"

	"vafs/device"
	"vafs/filter"
	"vafs/vfserr"
)

const (
	// StreamMagic is "VSM1" read little-endian, the stream header magic.
	StreamMagic = 0x314D5356

	MinBlockSize = 8 * 1024
	MaxBlockSize = 1 << 20

	// DefaultDataBlockSize is used for data streams unless overridden by
	// the image configuration.
	DefaultDataBlockSize = 128 * 1024

	// DescriptorBlockSize is fixed for every descriptor stream.
	DescriptorBlockSize = 8 * 1024

	streamHeaderSize = 16
	tableEntrySize   = 16
)

// TableEntry mirrors the on-disk block table row.
type TableEntry struct {
	LengthOnDisk uint32
	Offset       uint32
	Crc          uint32
	Flags        uint16
	Reserved     uint16
}

type streamHeader struct {
	Magic       uint32
	BlockSize   uint32
	TableOffset uint32
	BlockCount  uint32
}

// Stream is a block stream: a header, a sequence of independently
// compressed/CRC'd blocks, and a block table, all layered over a single
// device.Device. DeviceOffset is where the stream's header begins within
// that device - 0 for the temporary devices used while building an image,
// the header-declared offset for a stream opened from a finished image.
type Stream struct {
	dev          device.Device
	deviceOffset int64
	header       streamHeader
	table        []TableEntry

	filterOps      *filter.Ops
	filterRequired bool

	cache *blockCache

	staging []byte

	// write state
	writable      bool
	stagingOffset uint32

	// read state: which block (if any) staging currently holds decoded
	// bytes for, how many of those bytes are valid, and the read cursor.
	curBlock      uint32
	curBlockValid bool
	curBlockLen   uint32
	cursor        uint32
}

// Create starts a brand-new, writable block stream at deviceOffset on dev.
// A provisional header (magic and block size set, table offset and block
// count still zero) is written immediately so the write path never needs
// to seek backwards into it until Finish.
func Create(dev device.Device, deviceOffset int64, blockSize uint32) (*Stream, error) {
	if blockSize < MinBlockSize || blockSize > MaxBlockSize {
		return nil, vfserr.New(vfserr.InvalidArgument, "blockstream_create", "block size out of range")
	}
	if _, err := dev.Seek(deviceOffset, device.SeekSet); err != nil {
		return nil, err
	}

	s := &Stream{
		dev:          dev,
		deviceOffset: deviceOffset,
		header:       streamHeader{Magic: StreamMagic, BlockSize: blockSize},
		writable:     true,
		staging:      make([]byte, blockSize),
		cache:        newBlockCache(DefaultCacheSize),
	}
	if err := s.writeHeader(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open loads an existing, read-only block stream whose header starts at
// deviceOffset on dev.
func Open(dev device.Device, deviceOffset int64) (*Stream, error) {
	if _, err := dev.Seek(deviceOffset, device.SeekSet); err != nil {
		return nil, err
	}
	hdr, err := readStreamHeader(dev)
	if err != nil {
		return nil, err
	}
	if hdr.Magic != StreamMagic {
		return nil, vfserr.New(vfserr.IOIntegrity, "blockstream_open", "bad stream magic")
	}
	if hdr.BlockSize < MinBlockSize || hdr.BlockSize > MaxBlockSize {
		return nil, vfserr.New(vfserr.IOIntegrity, "blockstream_open", "block size out of range")
	}

	if _, err := dev.Seek(deviceOffset+int64(hdr.TableOffset), device.SeekSet); err != nil {
		return nil, err
	}
	table := make([]TableEntry, hdr.BlockCount)
	for i := range table {
		entry, err := readTableEntry(dev)
		if err != nil {
			return nil, err
		}
		table[i] = entry
	}

	return &Stream{
		dev:          dev,
		deviceOffset: deviceOffset,
		header:       hdr,
		table:        table,
		staging:      make([]byte, hdr.BlockSize),
		cache:        newBlockCache(DefaultCacheSize),
	}, nil
}

// SetFilter installs the matched encode/decode pair for this stream. It is
// configuration only - never serialized to disk.
func (s *Stream) SetFilter(ops *filter.Ops) {
	s.filterOps = ops
}

// SetFilterRequired marks that the image this stream belongs to names a
// filter family; reads will fail with vfserr.UnsupportedFilter unless a
// decode callback has also been installed via SetFilter.
func (s *Stream) SetFilterRequired(required bool) {
	s.filterRequired = required
}

// SetCacheSize overrides the default block cache bound. 0 disables
// caching entirely but must not change read results (cache transparency).
func (s *Stream) SetCacheSize(maxBlocks int) {
	obs := s.cache.observer
	s.cache = newBlockCache(maxBlocks)
	s.cache.observer = obs
}

// BlockSize reports the fixed block size this stream was configured with.
func (s *Stream) BlockSize() uint32 { return s.header.BlockSize }

// Lock/Unlock pass through to the underlying device: the stream borrows
// the device's single-owner lock rather than maintaining its own.
func (s *Stream) Lock() error   { return s.dev.Lock() }
func (s *Stream) Unlock() error { return s.dev.Unlock() }

// Position reports the write cursor as a block index and in-block offset,
// used to record a newly created file's data_position.
func (s *Stream) Position() (blockIndex uint32, blockOffset uint32) {
	return uint32(len(s.table)), s.stagingOffset
}

// Write appends buf to the stream, flushing full blocks as they fill.
func (s *Stream) Write(buf []byte) (int, error) {
	if !s.writable {
		return 0, vfserr.New(vfserr.PermissionDenied, "blockstream_write", "stream is read-only")
	}
	total := 0
	for len(buf) > 0 {
		room := s.header.BlockSize - s.stagingOffset
		n := uint32(len(buf))
		if n > room {
			n = room
		}
		copy(s.staging[s.stagingOffset:], buf[:n])
		s.stagingOffset += n
		buf = buf[n:]
		total += int(n)

		if s.stagingOffset == s.header.BlockSize {
			if err := s.flushBlock(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func (s *Stream) flushBlock() error {
	if s.stagingOffset == 0 {
		return nil
	}
	decoded := s.staging[:s.stagingOffset]

	var encoded []byte
	if s.filterOps != nil && s.filterOps.Encode != nil {
		e, err := s.filterOps.Encode(decoded)
		if err != nil {
			return vfserr.Wrap(vfserr.InvalidArgument, "blockstream_flush", err)
		}
		encoded = e
	} else {
		encoded = append([]byte(nil), decoded...)
	}

	pos, err := s.dev.Seek(0, device.SeekCurrent)
	if err != nil {
		return err
	}
	crc := blockCRC(decoded)
	if _, err := s.dev.Write(encoded); err != nil {
		return err
	}

	s.table = append(s.table, TableEntry{
		LengthOnDisk: uint32(len(encoded)),
		Offset:       uint32(pos - s.deviceOffset),
		Crc:          crc,
	})
	s.stagingOffset = 0
	return nil
}

// Finish flushes any partial trailing block, writes the block table, and
// rewrites the stream header in place with the final table offset and
// block count. The device cursor is left at the start of the stream so it
// can be copied wholesale into its final home.
func (s *Stream) Finish() error {
	if !s.writable {
		return vfserr.New(vfserr.PermissionDenied, "blockstream_finish", "stream is read-only")
	}
	if err := s.flushBlock(); err != nil {
		return err
	}

	tableOffset, err := s.dev.Seek(0, device.SeekCurrent)
	if err != nil {
		return err
	}
	for _, entry := range s.table {
		if err := writeTableEntry(s.dev, entry); err != nil {
			return err
		}
	}

	s.header.TableOffset = uint32(tableOffset - s.deviceOffset)
	s.header.BlockCount = uint32(len(s.table))
	if err := s.writeHeader(); err != nil {
		return err
	}

	_, err = s.dev.Seek(s.deviceOffset, device.SeekSet)
	return err
}

func (s *Stream) writeHeader() error {
	if _, err := s.dev.Seek(s.deviceOffset, device.SeekSet); err != nil {
		return err
	}
	return writeStreamHeader(s.dev, s.header)
}

// Seek positions the read cursor at blockIndex:blockOffset, loading the
// block if it isn't already resident in the staging buffer.
func (s *Stream) Seek(blockIndex uint32, blockOffset uint32) error {
	if !s.curBlockValid || s.curBlock != blockIndex {
		if err := s.loadBlock(blockIndex); err != nil {
			return err
		}
	}
	s.cursor = blockOffset
	return nil
}

// Read copies decoded bytes into buf starting at the current cursor,
// advancing across block boundaries as needed. Returns vfserr.EndOfStream
// once the last block has been exhausted.
func (s *Stream) Read(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		if !s.curBlockValid || s.cursor >= s.curBlockLen {
			next := uint32(0)
			if s.curBlockValid {
				next = s.curBlock + 1
			}
			if int(next) >= len(s.table) {
				if total > 0 {
					return total, nil
				}
				return 0, vfserr.New(vfserr.EndOfStream, "blockstream_read", "end of stream")
			}
			if err := s.loadBlock(next); err != nil {
				return total, err
			}
			s.cursor = 0
		}

		n := copy(buf[total:], s.staging[s.cursor:s.curBlockLen])
		s.cursor += uint32(n)
		total += n
	}
	return total, nil
}

func (s *Stream) loadBlock(index uint32) error {
	if int(index) >= len(s.table) {
		return vfserr.New(vfserr.EndOfStream, "blockstream_read", "block index out of range")
	}

	if data, ok := s.cache.get(index); ok {
		copy(s.staging, data)
		s.curBlock = index
		s.curBlockLen = uint32(len(data))
		s.curBlockValid = true
		return nil
	}

	if s.filterRequired && (s.filterOps == nil || s.filterOps.Decode == nil) {
		return vfserr.New(vfserr.UnsupportedFilter, "blockstream_read", "image filter has no registered callbacks")
	}

	entry := s.table[index]
	if _, err := s.dev.Seek(s.deviceOffset+int64(entry.Offset), device.SeekSet); err != nil {
		return err
	}
	scratch := make([]byte, entry.LengthOnDisk)
	if err := readFull(s.dev, scratch); err != nil {
		return err
	}

	var decodedLen int
	if s.filterOps != nil && s.filterOps.Decode != nil {
		n, err := s.filterOps.Decode(scratch, s.staging[:s.header.BlockSize])
		if err != nil {
			return vfserr.Wrap(vfserr.UnsupportedFilter, "blockstream_read", err)
		}
		decodedLen = n
	} else {
		decodedLen = copy(s.staging, scratch)
	}

	if blockCRC(s.staging[:decodedLen]) != entry.Crc {
		return vfserr.New(vfserr.IOIntegrity, "blockstream_read", "block CRC mismatch")
	}

	s.cache.set(index, s.staging[:decodedLen])
	s.curBlock = index
	s.curBlockLen = uint32(decodedLen)
	s.curBlockValid = true
	return nil
}

func readFull(dev device.Device, buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := dev.Read(buf[read:])
		read += n
		if err != nil {
			if read == len(buf) {
				return nil
			}
			if vfserr.Is(err, vfserr.EndOfStream) {
				return vfserr.New(vfserr.ShortRead, "blockstream_read", "truncated block")
			}
			return err
		}
		if n == 0 {
			return vfserr.New(vfserr.ShortRead, "blockstream_read", "truncated block")
		}
	}
	return nil
}

func readStreamHeader(dev device.Device) (streamHeader, error) {
	buf := make([]byte, streamHeaderSize)
	if err := readFull(dev, buf); err != nil {
		return streamHeader{}, err
	}
	return streamHeader{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		BlockSize:   binary.LittleEndian.Uint32(buf[4:8]),
		TableOffset: binary.LittleEndian.Uint32(buf[8:12]),
		BlockCount:  binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

func writeStreamHeader(dev device.Device, h streamHeader) error {
	buf := make([]byte, streamHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.BlockSize)
	binary.LittleEndian.PutUint32(buf[8:12], h.TableOffset)
	binary.LittleEndian.PutUint32(buf[12:16], h.BlockCount)
	_, err := dev.Write(buf)
	return err
}

func readTableEntry(dev device.Device) (TableEntry, error) {
	buf := make([]byte, tableEntrySize)
	if err := readFull(dev, buf); err != nil {
		return TableEntry{}, err
	}
	return TableEntry{
		LengthOnDisk: binary.LittleEndian.Uint32(buf[0:4]),
		Offset:       binary.LittleEndian.Uint32(buf[4:8]),
		Crc:          binary.LittleEndian.Uint32(buf[8:12]),
		Flags:        binary.LittleEndian.Uint16(buf[12:14]),
		Reserved:     binary.LittleEndian.Uint16(buf[14:16]),
	}, nil
}

func writeTableEntry(dev device.Device, e TableEntry) error {
	buf := make([]byte, tableEntrySize)
	binary.LittleEndian.PutUint32(buf[0:4], e.LengthOnDisk)
	binary.LittleEndian.PutUint32(buf[4:8], e.Offset)
	binary.LittleEndian.PutUint32(buf[8:12], e.Crc)
	binary.LittleEndian.PutUint16(buf[12:14], e.Flags)
	binary.LittleEndian.PutUint16(buf[14:16], e.Reserved)
	_, err := dev.Write(buf)
	return err
}
