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

// blockPosition addresses a byte range within a block stream: the block it
// starts in, and the offset inside that (decoded) block. It backs the
// on-disk root_descriptor, a directory's descriptor_position and a file's
// data_position alike.
type blockPosition struct {
	BlockIndex  uint32
	BlockOffset uint32
}

var invalidPosition = blockPosition{BlockIndex: 0xFFFFFFFF, BlockOffset: 0xFFFFFFFF}

func (p blockPosition) valid() bool {
	return p != invalidPosition
}
