// Package vafs
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
package vafs

import (
	"vafs/device"
	"vafs/vfserr"
)

// FileHandle is an open reference to a file's contents: either a
// read-mode cursor into the data stream, or (when created via
// DirectoryHandle.FileCreate) a write-time appender. A handle never
// switches between the two.
type FileHandle struct {
	image    *Image
	entry    *entry
	position uint32
	writing  bool
}

// FileOpen resolves path (following symlinks) and opens it for reading.
// Valid on a read-mode image; the path must name a file, not a directory.
func (img *Image) FileOpen(path string) (*FileHandle, error) {
	res, err := img.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if res.isRoot || res.entry.kind == entryDirectory {
		return nil, vfserr.New(vfserr.IsADirectory, "file_open", "is a directory: "+path)
	}
	return &FileHandle{image: img, entry: res.entry}, nil
}

// Length reports the file's total byte length.
func (h *FileHandle) Length() uint32 { return h.entry.fileLength }

// Permissions reports the file's stored permission bits.
func (h *FileHandle) Permissions() uint32 { return h.entry.permissions }

// normalizePosition converts a (blockIndex, blockOffset) data_position
// plus a byte delta into the (blockIndex, blockOffset) pair addressing
// that many bytes further into the stream's decoded byte space, which is
// contiguous blockSize segments regardless of how a filter compresses
// each block on disk.
func normalizePosition(blockSize uint32, pos blockPosition, delta uint32) (uint32, uint32) {
	absolute := uint64(pos.BlockIndex)*uint64(blockSize) + uint64(pos.BlockOffset) + uint64(delta)
	return uint32(absolute / uint64(blockSize)), uint32(absolute % uint64(blockSize))
}

// Read fills buf from the current position, up to the file's length.
// Returns vfserr.EndOfStream once the cursor reaches Length().
func (h *FileHandle) Read(buf []byte) (int, error) {
	if h.writing {
		return 0, vfserr.New(vfserr.PermissionDenied, "file_read", "handle is in write mode")
	}
	if h.position >= h.entry.fileLength {
		return 0, vfserr.New(vfserr.EndOfStream, "file_read", "end of file")
	}

	remaining := h.entry.fileLength - h.position
	n := uint32(len(buf))
	if n > remaining {
		n = remaining
	}

	if err := h.image.dataStream.Lock(); err != nil {
		return 0, err
	}
	defer h.image.dataStream.Unlock()

	blockIndex, blockOffset := normalizePosition(h.image.dataStream.BlockSize(), h.entry.dataPosition, h.position)
	if err := h.image.dataStream.Seek(blockIndex, blockOffset); err != nil {
		return 0, err
	}

	read, err := h.image.dataStream.Read(buf[:n])
	h.position += uint32(read)
	return read, err
}

// Seek repositions the read cursor, clamped to [0, Length()]. Invalid on
// a write-time handle - the original's append-only write path never
// supported seeking either.
func (h *FileHandle) Seek(offset int64, whence device.Whence) (int64, error) {
	if h.writing {
		return 0, vfserr.New(vfserr.PermissionDenied, "file_seek", "cannot seek while writing")
	}
	var target int64
	switch whence {
	case device.SeekSet:
		target = offset
	case device.SeekCurrent:
		target = int64(h.position) + offset
	case device.SeekEnd:
		target = int64(h.entry.fileLength) + offset
	default:
		return 0, vfserr.New(vfserr.InvalidArgument, "file_seek", "bad whence")
	}
	if target < 0 {
		target = 0
	}
	if target > int64(h.entry.fileLength) {
		target = int64(h.entry.fileLength)
	}
	h.position = uint32(target)
	return target, nil
}

// Write appends buf to the file. Only valid on a handle obtained from
// DirectoryHandle.FileCreate on a write-mode image. The data stream is
// locked on the first write and unlocked on Close, mirroring the
// original's handle state transition into its Write state.
func (h *FileHandle) Write(buf []byte) (int, error) {
	if h.image.mode != modeWrite {
		return 0, vfserr.New(vfserr.PermissionDenied, "file_write", "image is read-only")
	}
	if !h.writing {
		if err := h.image.dataStream.Lock(); err != nil {
			return 0, err
		}
		h.writing = true
		if !h.entry.dataPosition.valid() {
			blockIndex, blockOffset := h.image.dataStream.Position()
			h.entry.dataPosition = blockPosition{BlockIndex: blockIndex, BlockOffset: blockOffset}
		}
	}

	n, err := h.image.dataStream.Write(buf)
	h.entry.fileLength += uint32(n)
	return n, err
}

// Close unlocks the data stream if this handle ever wrote to it.
func (h *FileHandle) Close() error {
	if h.writing {
		h.writing = false
		return h.image.dataStream.Unlock()
	}
	return nil
}
