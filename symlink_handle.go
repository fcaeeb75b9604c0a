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

import "vafs/vfserr"

// SymlinkHandle is an open reference to a symlink itself - its target
// string, not whatever it points at.
type SymlinkHandle struct {
	entry *entry
}

// SymlinkOpen resolves path without following a symlink in the terminal
// position: the named entry must itself be a symlink. Intermediate
// symlinks earlier in path are still followed normally.
func (img *Image) SymlinkOpen(path string) (*SymlinkHandle, error) {
	res, err := img.resolvePathLstat(path)
	if err != nil {
		return nil, err
	}
	if res.isRoot || res.entry.kind != entrySymlink {
		return nil, vfserr.New(vfserr.InvalidArgument, "symlink_open", "not a symlink: "+path)
	}
	return &SymlinkHandle{entry: res.entry}, nil
}

// Target returns the symlink's stored target string, exactly as written.
func (h *SymlinkHandle) Target() string { return h.entry.target }

// Close is a no-op, kept for symmetry with FileHandle and DirectoryHandle.
func (h *SymlinkHandle) Close() error { return nil }
