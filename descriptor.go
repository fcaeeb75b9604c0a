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

// descriptorType is the wire tag distinguishing the three record kinds -
// the Go counterpart of the original's discriminated union, matched by
// type tag rather than pointer-cast.
type descriptorType uint16

const (
	descriptorFile      descriptorType = 1
	descriptorDirectory descriptorType = 2
	descriptorSymlink   descriptorType = 3
)

const descriptorBaseSize = 4 // type u16 + length u16

// writeDescriptor serializes e's on-disk record (base header, typed
// middle fields, trailing name/target strings) to stream.
func writeDescriptor(stream *blockstream.Stream, e *entry) error {
	switch e.kind {
	case entryFile:
		return writeFileDescriptor(stream, e)
	case entryDirectory:
		return writeDirectoryDescriptor(stream, e)
	case entrySymlink:
		return writeSymlinkDescriptor(stream, e)
	default:
		return vfserr.New(vfserr.InvalidArgument, "descriptor_write", "unknown entry kind")
	}
}

func writeFileDescriptor(stream *blockstream.Stream, e *entry) error {
	nameBytes := []byte(e.name)
	length := uint16(descriptorBaseSize + 16 + len(nameBytes))

	buf := make([]byte, length)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(descriptorFile))
	binary.LittleEndian.PutUint16(buf[2:4], length)
	binary.LittleEndian.PutUint32(buf[4:8], e.dataPosition.BlockIndex)
	binary.LittleEndian.PutUint32(buf[8:12], e.dataPosition.BlockOffset)
	binary.LittleEndian.PutUint32(buf[12:16], e.fileLength)
	binary.LittleEndian.PutUint32(buf[16:20], e.permissions)
	copy(buf[20:], nameBytes)

	_, err := stream.Write(buf)
	return err
}

func writeDirectoryDescriptor(stream *blockstream.Stream, e *entry) error {
	nameBytes := []byte(e.name)
	length := uint16(descriptorBaseSize + 12 + len(nameBytes))

	buf := make([]byte, length)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(descriptorDirectory))
	binary.LittleEndian.PutUint16(buf[2:4], length)
	binary.LittleEndian.PutUint32(buf[4:8], e.dir.position.BlockIndex)
	binary.LittleEndian.PutUint32(buf[8:12], e.dir.position.BlockOffset)
	binary.LittleEndian.PutUint32(buf[12:16], e.permissions)
	copy(buf[16:], nameBytes)

	_, err := stream.Write(buf)
	return err
}

func writeSymlinkDescriptor(stream *blockstream.Stream, e *entry) error {
	nameBytes := []byte(e.name)
	targetBytes := []byte(e.target)
	length := uint16(descriptorBaseSize + 4 + len(nameBytes) + len(targetBytes))

	buf := make([]byte, length)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(descriptorSymlink))
	binary.LittleEndian.PutUint16(buf[2:4], length)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(nameBytes)))
	binary.LittleEndian.PutUint16(buf[6:8], uint16(len(targetBytes)))
	copy(buf[8:8+len(nameBytes)], nameBytes)
	copy(buf[8+len(nameBytes):], targetBytes)

	_, err := stream.Write(buf)
	return err
}

// readDescriptor parses one record from stream, whatever its type.
func readDescriptor(stream *blockstream.Stream) (*entry, error) {
	base := make([]byte, descriptorBaseSize)
	if _, err := stream.Read(base); err != nil {
		return nil, err
	}
	kind := descriptorType(binary.LittleEndian.Uint16(base[0:2]))
	length := binary.LittleEndian.Uint16(base[2:4])
	if length < descriptorBaseSize {
		return nil, vfserr.New(vfserr.IOIntegrity, "descriptor_read", "descriptor length too short")
	}

	rest := make([]byte, length-descriptorBaseSize)
	if len(rest) > 0 {
		if _, err := stream.Read(rest); err != nil {
			return nil, err
		}
	}

	switch kind {
	case descriptorFile:
		return parseFileDescriptor(rest)
	case descriptorDirectory:
		return parseDirectoryDescriptor(rest)
	case descriptorSymlink:
		return parseSymlinkDescriptor(rest)
	default:
		return nil, vfserr.New(vfserr.IOIntegrity, "descriptor_read", "unknown descriptor type")
	}
}

func parseFileDescriptor(rest []byte) (*entry, error) {
	if len(rest) < 16 {
		return nil, vfserr.New(vfserr.IOIntegrity, "descriptor_read", "truncated file descriptor")
	}
	name := string(rest[16:])
	if len(name) > maxNameLength {
		return nil, vfserr.New(vfserr.NameTooLong, "descriptor_read", "file name exceeds limit")
	}
	return &entry{
		kind: entryFile,
		name: name,
		dataPosition: blockPosition{
			BlockIndex:  binary.LittleEndian.Uint32(rest[0:4]),
			BlockOffset: binary.LittleEndian.Uint32(rest[4:8]),
		},
		fileLength:  binary.LittleEndian.Uint32(rest[8:12]),
		permissions: binary.LittleEndian.Uint32(rest[12:16]),
	}, nil
}

func parseDirectoryDescriptor(rest []byte) (*entry, error) {
	if len(rest) < 12 {
		return nil, vfserr.New(vfserr.IOIntegrity, "descriptor_read", "truncated directory descriptor")
	}
	name := string(rest[12:])
	if len(name) > maxNameLength {
		return nil, vfserr.New(vfserr.NameTooLong, "descriptor_read", "directory name exceeds limit")
	}
	position := blockPosition{
		BlockIndex:  binary.LittleEndian.Uint32(rest[0:4]),
		BlockOffset: binary.LittleEndian.Uint32(rest[4:8]),
	}
	permissions := binary.LittleEndian.Uint32(rest[8:12])
	return &entry{
		kind:        entryDirectory,
		name:        name,
		permissions: permissions,
		dir: &directoryNode{
			permissions: permissions,
			position:    position,
		},
	}, nil
}

func parseSymlinkDescriptor(rest []byte) (*entry, error) {
	if len(rest) < 4 {
		return nil, vfserr.New(vfserr.IOIntegrity, "descriptor_read", "truncated symlink descriptor")
	}
	nameLen := binary.LittleEndian.Uint16(rest[0:2])
	targetLen := binary.LittleEndian.Uint16(rest[2:4])
	if int(4+nameLen+targetLen) > len(rest) {
		return nil, vfserr.New(vfserr.IOIntegrity, "descriptor_read", "truncated symlink strings")
	}
	if nameLen > maxNameLength {
		return nil, vfserr.New(vfserr.NameTooLong, "descriptor_read", "symlink name exceeds limit")
	}
	if targetLen > maxTargetLength {
		return nil, vfserr.New(vfserr.NameTooLong, "descriptor_read", "symlink target exceeds limit")
	}
	name := string(rest[4 : 4+nameLen])
	target := string(rest[4+nameLen : 4+nameLen+targetLen])
	return &entry{
		kind:   entrySymlink,
		name:   name,
		target: target,
	}, nil
}
