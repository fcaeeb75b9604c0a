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

	"vafs/device"
	"vafs/vfserr"
)

type header struct {
	Magic                 uint32
	Version               uint32
	Architecture          uint32
	FeatureCount          uint16
	Reserved              uint16
	Attributes            uint32
	DescriptorBlockOffset uint32
	DataBlockOffset       uint32
	RootDescriptor        blockPosition
}

func readHeader(dev device.Device) (header, error) {
	buf := make([]byte, headerSize)
	if err := readFullDevice(dev, buf); err != nil {
		return header{}, err
	}
	h := header{
		Magic:                 binary.LittleEndian.Uint32(buf[0:4]),
		Version:               binary.LittleEndian.Uint32(buf[4:8]),
		Architecture:          binary.LittleEndian.Uint32(buf[8:12]),
		FeatureCount:          binary.LittleEndian.Uint16(buf[12:14]),
		Reserved:              binary.LittleEndian.Uint16(buf[14:16]),
		Attributes:            binary.LittleEndian.Uint32(buf[16:20]),
		DescriptorBlockOffset: binary.LittleEndian.Uint32(buf[20:24]),
		DataBlockOffset:       binary.LittleEndian.Uint32(buf[24:28]),
		RootDescriptor: blockPosition{
			BlockIndex:  binary.LittleEndian.Uint32(buf[28:32]),
			BlockOffset: binary.LittleEndian.Uint32(buf[32:36]),
		},
	}
	if h.Magic != imageMagic {
		return header{}, vfserr.New(vfserr.IOIntegrity, "header_read", "bad image magic")
	}
	if h.Version != imageVersion {
		return header{}, vfserr.New(vfserr.IOIntegrity, "header_read", "unsupported image version")
	}
	return h, nil
}

func writeHeader(dev device.Device, h header) error {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.Architecture)
	binary.LittleEndian.PutUint16(buf[12:14], h.FeatureCount)
	binary.LittleEndian.PutUint16(buf[14:16], h.Reserved)
	binary.LittleEndian.PutUint32(buf[16:20], h.Attributes)
	binary.LittleEndian.PutUint32(buf[20:24], h.DescriptorBlockOffset)
	binary.LittleEndian.PutUint32(buf[24:28], h.DataBlockOffset)
	binary.LittleEndian.PutUint32(buf[28:32], h.RootDescriptor.BlockIndex)
	binary.LittleEndian.PutUint32(buf[32:36], h.RootDescriptor.BlockOffset)
	_, err := dev.Write(buf)
	return err
}

// readFullDevice is the root package's counterpart to blockstream's
// internal readFull: headers, feature records and descriptor records are
// all fixed/declared-length reads that must never return short of a
// legitimate end-of-stream.
func readFullDevice(dev device.Device, buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := dev.Read(buf[read:])
		read += n
		if err != nil {
			if read == len(buf) {
				return nil
			}
			if vfserr.Is(err, vfserr.EndOfStream) {
				return vfserr.New(vfserr.ShortRead, "device_read", "truncated record")
			}
			return err
		}
		if n == 0 {
			return vfserr.New(vfserr.ShortRead, "device_read", "truncated record")
		}
	}
	return nil
}
