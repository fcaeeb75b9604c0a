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

// Package device provides the uniform seek/read/write/close abstraction
// that every block stream is layered on top of, plus a single-owner
// exclusive lock per device.
package device

import (
	"vafs/vfserr"
)

// Whence mirrors the io.Seeker origins without importing io, since the
// contract here intentionally stays narrow (seek/read/write/close/lock).
type Whence int

const (
	SeekSet Whence = iota
	SeekCurrent
	SeekEnd
)

// BounceBufferSize is the chunk size Copy uses to move bytes between two
// devices without staging the entire source in memory.
const BounceBufferSize = 1 << 20 // 1 MiB

// Device is the storage abstraction every block stream is built on: a
// file, an in-memory buffer, or a caller-supplied set of callbacks.
type Device interface {
	Seek(offset int64, whence Whence) (int64, error)
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	Close() error

	// Lock acquires the device's single-owner mutual exclusion primitive.
	// Acquisition is a try-lock: it fails with vfserr.WouldBlock if another
	// operation already holds it.
	Lock() error
	Unlock() error
}

// Copy transfers the full contents of src (from its current position to
// its end) into dst, using a bounded bounce buffer so neither device needs
// to fit entirely in memory.
func Copy(dst, src Device) error {
	buf := make([]byte, BounceBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := writeFull(dst, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if vfserr.Is(err, vfserr.EndOfStream) {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func writeFull(dst Device, buf []byte) (int, error) {
	return dst.Write(buf)
}
