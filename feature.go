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

	"github.com/google/uuid"
)

const featureRecordHeaderSize = 16 + 4 // GUID + total length

// OverviewFeatureGUID identifies the builtin persistent feature carrying
// aggregate counts of the image contents.
var OverviewFeatureGUID = uuid.MustParse("b9f35a9c-df1a-4a9e-9f6e-1f6e9e6d9a10")

// FilterFeatureGUID identifies the builtin persistent feature naming the
// filter family used by the data stream.
var FilterFeatureGUID = uuid.MustParse("c27d3a52-2e1e-4bb0-9a77-2b6a6e9f5d41")

// Feature is a GUID-tagged extension record. Persistent features round
// trip through the feature table; FilterOps (the callback pair itself) is
// never persisted - only the integer filter family it implements is.
type Feature struct {
	GUID    uuid.UUID
	Payload []byte
}

type overviewPayload struct {
	Files                 uint32
	Directories           uint32
	Symlinks              uint32
	TotalUncompressedSize uint32
}

func (o overviewPayload) encode() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], o.Files)
	binary.LittleEndian.PutUint32(buf[4:8], o.Directories)
	binary.LittleEndian.PutUint32(buf[8:12], o.Symlinks)
	binary.LittleEndian.PutUint32(buf[12:16], o.TotalUncompressedSize)
	return buf
}

func decodeOverview(buf []byte) (overviewPayload, error) {
	if len(buf) < 16 {
		return overviewPayload{}, vfserr.New(vfserr.IOIntegrity, "feature_decode", "truncated overview payload")
	}
	return overviewPayload{
		Files:                 binary.LittleEndian.Uint32(buf[0:4]),
		Directories:           binary.LittleEndian.Uint32(buf[4:8]),
		Symlinks:              binary.LittleEndian.Uint32(buf[8:12]),
		TotalUncompressedSize: binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

func encodeFilterFamily(family uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, family)
	return buf
}

func decodeFilterFamily(buf []byte) (uint32, error) {
	if len(buf) < 4 {
		return 0, vfserr.New(vfserr.IOIntegrity, "feature_decode", "truncated filter payload")
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// FeatureAdd appends feature to img's feature table. Duplicate GUIDs fail
// already_exists. Only meaningful before Close on a writable image - the
// feature table is serialized once, at finalize time.
func (img *Image) FeatureAdd(feature Feature) error {
	for _, existing := range img.features {
		if existing.GUID == feature.GUID {
			return vfserr.New(vfserr.AlreadyExists, "feature_add", "duplicate feature GUID")
		}
	}
	img.features = append(img.features, feature)
	return nil
}

// FeatureQuery returns the feature identified by guid, if present.
func (img *Image) FeatureQuery(guid uuid.UUID) (Feature, bool) {
	for _, f := range img.features {
		if f.GUID == guid {
			return f, true
		}
	}
	return Feature{}, false
}

func featureTableSize(features []Feature) uint32 {
	total := uint32(0)
	for _, f := range features {
		total += featureRecordHeaderSize + uint32(len(f.Payload))
	}
	return total
}

func writeFeatureTable(dev device.Device, features []Feature) error {
	for _, f := range features {
		buf := make([]byte, featureRecordHeaderSize)
		copy(buf[0:16], f.GUID[:])
		binary.LittleEndian.PutUint32(buf[16:20], featureRecordHeaderSize+uint32(len(f.Payload)))
		if _, err := dev.Write(buf); err != nil {
			return err
		}
		if len(f.Payload) > 0 {
			if _, err := dev.Write(f.Payload); err != nil {
				return err
			}
		}
	}
	return nil
}

func readFeatureTable(dev device.Device, count uint16) ([]Feature, error) {
	features := make([]Feature, 0, count)
	for i := uint16(0); i < count; i++ {
		hdr := make([]byte, featureRecordHeaderSize)
		if err := readFullDevice(dev, hdr); err != nil {
			return nil, err
		}
		guid, err := uuid.FromBytes(hdr[0:16])
		if err != nil {
			return nil, vfserr.Wrap(vfserr.IOIntegrity, "feature_read", err)
		}
		totalLength := binary.LittleEndian.Uint32(hdr[16:20])
		if totalLength < featureRecordHeaderSize {
			return nil, vfserr.New(vfserr.IOIntegrity, "feature_read", "feature record too short")
		}
		payload := make([]byte, totalLength-featureRecordHeaderSize)
		if len(payload) > 0 {
			if err := readFullDevice(dev, payload); err != nil {
				return nil, err
			}
		}
		features = append(features, Feature{GUID: guid, Payload: payload})
	}
	return features, nil
}
