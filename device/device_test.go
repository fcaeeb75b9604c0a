// Package device tests
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
	"bytes"
	"os"
	"testing"

	"vafs/vfserr"
)

func TestMemoryDeviceGrowsOnWrite(t *testing.T) {
	d := CreateMemory()

	payload := bytes.Repeat([]byte{0x42}, 10000)
	n, err := d.Write(payload)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("expected %d bytes written, got %d", len(payload), n)
	}

	if _, err := d.Seek(0, SeekSet); err != nil {
		t.Fatalf("seek failed: %v", err)
	}

	out := make([]byte, len(payload))
	n, err = d.Read(out)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(out[:n], payload) {
		t.Fatal("read back bytes do not match what was written")
	}
}

func TestBorrowedMemoryDeviceCannotGrow(t *testing.T) {
	buf := make([]byte, 16)
	d := OpenMemory(buf)

	if _, err := d.Write(make([]byte, 32)); err == nil {
		t.Fatal("expected write past capacity of a borrowed buffer to fail")
	}
}

func TestMemoryDeviceLockIsExclusive(t *testing.T) {
	d := CreateMemory()

	if err := d.Lock(); err != nil {
		t.Fatalf("first lock should succeed: %v", err)
	}
	if err := d.Lock(); !vfserr.Is(err, vfserr.WouldBlock) {
		t.Fatalf("second lock should fail with would_block, got %v", err)
	}
	if err := d.Unlock(); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if err := d.Lock(); err != nil {
		t.Fatalf("lock after unlock should succeed: %v", err)
	}
}

func TestFileDeviceRoundTrip(t *testing.T) {
	path := "test_device.bin"
	defer os.Remove(path)

	w, err := CreateFile(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := w.Write([]byte("hello world")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	r, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	buf := make([]byte, 11)
	if _, err := r.Read(buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf) != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", string(buf))
	}

	if _, err := r.Write([]byte("x")); !vfserr.Is(err, vfserr.PermissionDenied) {
		t.Fatalf("expected permission_denied writing to a read-only device, got %v", err)
	}
}

func TestDeviceCopy(t *testing.T) {
	src := CreateMemory()
	payload := bytes.Repeat([]byte{0x7, 0x8}, 1<<20)
	if _, err := src.Write(payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := src.Seek(0, SeekSet); err != nil {
		t.Fatalf("seek failed: %v", err)
	}

	dst := CreateMemory()
	if err := Copy(dst, src); err != nil {
		t.Fatalf("copy failed: %v", err)
	}

	if _, err := dst.Seek(0, SeekSet); err != nil {
		t.Fatalf("seek failed: %v", err)
	}
	out := make([]byte, len(payload))
	if _, err := dst.Read(out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatal("copied bytes do not match source")
	}
}
