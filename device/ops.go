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

// Operations lets a caller plug in their own backing store (a raw device,
// a loopback interface, anything with seek+read semantics) instead of the
// built-in file or memory devices. Write is optional: leave it nil for a
// read-only backend.
type Operations struct {
	Seek  func(userData any, offset int64, whence Whence) (int64, error)
	Read  func(userData any, buf []byte) (int, error)
	Write func(userData any, buf []byte) (int, error)
	Close func(userData any) error
}

type opsDevice struct {
	ops      *Operations
	userData any
	mu       sync.Mutex
	locked   bool
}

// OpenOps wraps a caller-supplied operations table as a Device. Seek and
// Read are mandatory; Write and Close are optional.
func OpenOps(ops *Operations, userData any) (Device, error) {
	if ops == nil || ops.Seek == nil || ops.Read == nil {
		return nil, vfserr.New(vfserr.InvalidArgument, "device_open_ops", "seek and read are required")
	}
	return &opsDevice{ops: ops, userData: userData}, nil
}

func (d *opsDevice) Seek(offset int64, whence Whence) (int64, error) {
	return d.ops.Seek(d.userData, offset, whence)
}

func (d *opsDevice) Read(buf []byte) (int, error) {
	return d.ops.Read(d.userData, buf)
}

func (d *opsDevice) Write(buf []byte) (int, error) {
	if d.ops.Write == nil {
		return 0, vfserr.New(vfserr.PermissionDenied, "device_write", "operations table has no write callback")
	}
	return d.ops.Write(d.userData, buf)
}

func (d *opsDevice) Close() error {
	if d.ops.Close == nil {
		return nil
	}
	return d.ops.Close(d.userData)
}

func (d *opsDevice) Lock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.locked {
		return vfserr.New(vfserr.WouldBlock, "device_lock", "device already locked")
	}
	d.locked = true
	return nil
}

func (d *opsDevice) Unlock() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.locked {
		return vfserr.New(vfserr.InvalidArgument, "device_unlock", "device not locked")
	}
	d.locked = false
	return nil
}
