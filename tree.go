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
	"encoding/binary"

	"vafs/blockstream"
	"vafs/vfserr"
)

// entryKind discriminates the three descriptor payload shapes - the Go
// sum-type stand-in for the original's tagged union.
type entryKind int

const (
	entryFile entryKind = iota
	entryDirectory
	entrySymlink
)

// entry is one child of a directoryNode: a file, a nested directory, or a
// symlink. Only the fields relevant to its kind are populated.
type entry struct {
	kind        entryKind
	name        string
	permissions uint32

	// file
	fileLength   uint32
	dataPosition blockPosition

	// directory
	dir *directoryNode

	// symlink
	target string
}

// directoryNode is either a write-time, fully in-memory directory (built
// directly by create calls, always loaded) or a read-time lazy directory
// reader: it starts in the Open state with position known and children
// empty, and transitions to Loaded on first enumeration or lookup.
type directoryNode struct {
	permissions uint32
	children    []*entry
	position    blockPosition

	loaded bool
	image  *Image
}

// ensureLoaded transitions a read-time directory from Open to Loaded,
// seeking the descriptor stream under its lock, reading {count} then that
// many records.
func (d *directoryNode) ensureLoaded() error {
	if d.loaded {
		return nil
	}
	if d.image == nil {
		// A write-time directory is always already "loaded" (built
		// directly); reaching here means a read-time node lost its
		// image borrow, which is a programming error.
		d.loaded = true
		return nil
	}

	stream := d.image.descriptorStream
	if err := stream.Lock(); err != nil {
		return err
	}
	defer stream.Unlock()

	if err := stream.Seek(d.position.BlockIndex, d.position.BlockOffset); err != nil {
		return err
	}

	countBuf := make([]byte, 4)
	if _, err := stream.Read(countBuf); err != nil {
		return err
	}
	count := binary.LittleEndian.Uint32(countBuf)

	children := make([]*entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := readDescriptor(stream)
		if err != nil {
			return err
		}
		if e.kind == entryDirectory {
			e.dir.image = d.image
		}
		children = append(children, e)
	}

	d.children = children
	d.loaded = true
	return nil
}

func (d *directoryNode) findChild(name string) (*entry, error) {
	if err := d.ensureLoaded(); err != nil {
		return nil, err
	}
	for _, e := range d.children {
		if e.name == name {
			return e, nil
		}
	}
	return nil, vfserr.New(vfserr.NoSuchEntry, "directory_lookup", "no such entry: "+name)
}

func (d *directoryNode) addChild(e *entry) error {
	for _, existing := range d.children {
		if existing.name == e.name {
			return vfserr.New(vfserr.AlreadyExists, "directory_create", "name already exists: "+e.name)
		}
	}
	d.children = append(d.children, e)
	return nil
}

// flushDirectory performs the post-order descriptor-tree write described
// in SPEC_FULL.md §4.3: children directories are flushed (and so acquire a
// known descriptor_position) before the directory's own body - which
// references them - is emitted.
func flushDirectory(stream *blockstream.Stream, d *directoryNode) error {
	for _, e := range d.children {
		if e.kind == entryDirectory {
			if err := flushDirectory(stream, e.dir); err != nil {
				return err
			}
		}
	}

	blockIndex, blockOffset := stream.Position()
	d.position = blockPosition{BlockIndex: blockIndex, BlockOffset: blockOffset}

	countBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(countBuf, uint32(len(d.children)))
	if _, err := stream.Write(countBuf); err != nil {
		return err
	}

	for _, e := range d.children {
		if err := writeDescriptor(stream, e); err != nil {
			return err
		}
	}
	return nil
}
