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
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"vafs/vfserr"
)

type fileDevice struct {
	file     *os.File
	writable bool
	mu       sync.Mutex
	locked   bool
}

// OpenFile opens path for read-only access by a read-only image.
func OpenFile(path string) (Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, vfserr.Wrap(vfserr.NoSuchEntry, "device_open_file", err)
	}
	return &fileDevice{file: f, writable: false}, nil
}

// CreateFile creates (or truncates) path for a write-only image.
func CreateFile(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, vfserr.Wrap(vfserr.InvalidArgument, "device_create_file", err)
	}
	return &fileDevice{file: f, writable: true}, nil
}

func (d *fileDevice) Seek(offset int64, whence Whence) (int64, error) {
	pos, err := d.file.Seek(offset, int(whence))
	if err != nil {
		return 0, vfserr.Wrap(vfserr.InvalidArgument, "device_seek", err)
	}
	return pos, nil
}

func (d *fileDevice) Read(buf []byte) (int, error) {
	n, err := d.file.Read(buf)
	if err != nil {
		if err == io.EOF {
			return n, vfserr.New(vfserr.EndOfStream, "device_read", "end of stream")
		}
		return n, vfserr.Wrap(vfserr.ShortRead, "device_read", err)
	}
	return n, nil
}

func (d *fileDevice) Write(buf []byte) (int, error) {
	if !d.writable {
		return 0, vfserr.New(vfserr.PermissionDenied, "device_write", "device is read-only")
	}
	n, err := d.file.Write(buf)
	if err != nil {
		return n, vfserr.Wrap(vfserr.InvalidArgument, "device_write", err)
	}
	if n != len(buf) {
		return n, vfserr.New(vfserr.ShortRead, "device_write", "short write")
	}
	return n, nil
}

func (d *fileDevice) Close() error {
	return d.file.Close()
}

// Lock takes an exclusive, non-blocking OS-level advisory lock (flock(2))
// on the underlying file, so two processes locking the same path can't
// both hold the lock. The in-process mu/locked pair catches the
// double-Lock case within a single fileDevice without round-tripping
// through the kernel.
func (d *fileDevice) Lock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return vfserr.New(vfserr.WouldBlock, "device_lock", "device already locked")
	}
	if err := unix.Flock(int(d.file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return vfserr.Wrap(vfserr.WouldBlock, "device_lock", err)
	}
	d.locked = true
	return nil
}

func (d *fileDevice) Unlock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.locked {
		return vfserr.New(vfserr.InvalidArgument, "device_unlock", "device not locked")
	}
	if err := unix.Flock(int(d.file.Fd()), unix.LOCK_UN); err != nil {
		return vfserr.Wrap(vfserr.InvalidArgument, "device_unlock", err)
	}
	d.locked = false
	return nil
}
