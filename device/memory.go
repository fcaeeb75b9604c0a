// Package device
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
package device

import (
	"sync"

	"vafs/vfserr"
)

// memoryDevice is a contiguous byte buffer with a logical cursor. Owned
// buffers grow by geometric doubling on write; borrowed buffers (handed in
// by the caller, e.g. an opened image blob) never grow and instead fail
// writes past their capacity.
type memoryDevice struct {
	buf      []byte
	size     int // logical length written/visible so far
	pos      int
	borrowed bool
	writable bool
	mu       sync.Mutex
	locked   bool
}

// CreateMemory returns a new, growable, writable memory-backed device used
// as a temporary staging area for a stream under construction.
func CreateMemory() Device {
	return &memoryDevice{buf: make([]byte, 4096), writable: true}
}

// OpenMemory wraps an existing, fully-populated buffer for read-only
// access. The buffer is borrowed: it must stay valid for the device's
// lifetime and is never resized.
func OpenMemory(buf []byte) Device {
	return &memoryDevice{buf: buf, size: len(buf), borrowed: true, writable: false}
}

func (d *memoryDevice) Seek(offset int64, whence Whence) (int64, error) {
	var target int64
	switch whence {
	case SeekSet:
		target = offset
	case SeekCurrent:
		target = int64(d.pos) + offset
	case SeekEnd:
		target = int64(d.size) + offset
	default:
		return 0, vfserr.New(vfserr.InvalidArgument, "device_seek", "bad whence")
	}
	if target < 0 {
		target = 0
	}
	if !d.writable && target > int64(d.size) {
		return 0, vfserr.New(vfserr.NoSuchEntry, "device_seek", "seek past end of read-only device")
	}
	d.pos = int(target)
	return target, nil
}

func (d *memoryDevice) Read(buf []byte) (int, error) {
	if d.pos >= d.size {
		return 0, vfserr.New(vfserr.EndOfStream, "device_read", "end of stream")
	}
	n := copy(buf, d.buf[d.pos:d.size])
	d.pos += n
	if n < len(buf) {
		// Partial read is only legal because we hit end-of-stream.
		return n, vfserr.New(vfserr.EndOfStream, "device_read", "end of stream")
	}
	return n, nil
}

func (d *memoryDevice) Write(buf []byte) (int, error) {
	if !d.writable {
		return 0, vfserr.New(vfserr.PermissionDenied, "device_write", "device is read-only")
	}
	end := d.pos + len(buf)
	if end > len(d.buf) {
		if d.borrowed {
			return 0, vfserr.New(vfserr.PermissionDenied, "device_write", "borrowed buffer cannot grow")
		}
		d.grow(end)
	}
	copy(d.buf[d.pos:end], buf)
	d.pos = end
	if end > d.size {
		d.size = end
	}
	return len(buf), nil
}

func (d *memoryDevice) grow(minCap int) {
	newCap := len(d.buf)
	if newCap == 0 {
		newCap = 4096
	}
	for newCap < minCap {
		newCap *= 2
	}
	grown := make([]byte, newCap)
	copy(grown, d.buf[:d.size])
	d.buf = grown
}

func (d *memoryDevice) Close() error { return nil }

func (d *memoryDevice) Lock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return vfserr.New(vfserr.WouldBlock, "device_lock", "device already locked")
	}
	d.locked = true
	return nil
}

func (d *memoryDevice) Unlock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.locked {
		return vfserr.New(vfserr.InvalidArgument, "device_unlock", "device not locked")
	}
	d.locked = false
	return nil
}
