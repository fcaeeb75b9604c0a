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
	"vafs/blockstream"
	"vafs/device"
	"vafs/vfserr"
)

// Image is a single archive: either under construction (mode == modeWrite,
// its descriptor and data streams backed by temporary memory devices) or
// finalized and readable (mode == modeRead, streams opened directly
// against the on-disk layout). A value never moves backwards from read to
// write.
type Image struct {
	config Config
	mode   mode
	closed bool

	logger  Logger
	metrics Metrics

	device device.Device

	// write-mode only: the scratch devices the descriptor/data streams are
	// built on before being copied into device at Close.
	descDevice device.Device
	dataDevice device.Device

	descriptorStream *blockstream.Stream
	dataStream       *blockstream.Stream

	root *directoryNode

	features     []Feature
	filterActive bool
}

// Create begins a new, write-only image backed by a regular file at path.
func Create(path string, cfg Config) (*Image, error) {
	dev, err := device.CreateFile(path)
	if err != nil {
		return nil, err
	}
	return newWriteImage(dev, cfg)
}

// CreateMemory begins a new, write-only image built entirely in memory.
func CreateMemory(cfg Config) (*Image, error) {
	return newWriteImage(device.CreateMemory(), cfg)
}

// CreateOps begins a new, write-only image backed by a caller-supplied
// operations table.
func CreateOps(ops *device.Operations, userData any, cfg Config) (*Image, error) {
	dev, err := device.OpenOps(ops, userData)
	if err != nil {
		return nil, err
	}
	return newWriteImage(dev, cfg)
}

// OpenFile opens an existing, finalized image from a regular file at path.
func OpenFile(path string, cfg Config) (*Image, error) {
	dev, err := device.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return openImage(dev, cfg)
}

// OpenMemory opens an existing, finalized image from a borrowed in-memory
// buffer (e.g. one loaded by the caller from wherever init images live).
func OpenMemory(buf []byte, cfg Config) (*Image, error) {
	return openImage(device.OpenMemory(buf), cfg)
}

// OpenOps opens an existing, finalized image backed by a caller-supplied
// operations table.
func OpenOps(ops *device.Operations, userData any, cfg Config) (*Image, error) {
	dev, err := device.OpenOps(ops, userData)
	if err != nil {
		return nil, err
	}
	return openImage(dev, cfg)
}

func newWriteImage(dev device.Device, cfg Config) (*Image, error) {
	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	descDevice := device.CreateMemory()
	descStream, err := blockstream.Create(descDevice, 0, blockstream.DescriptorBlockSize)
	if err != nil {
		return nil, err
	}

	dataDevice := device.CreateMemory()
	dataStream, err := blockstream.Create(dataDevice, 0, resolved.DataBlockSize)
	if err != nil {
		return nil, err
	}

	img := &Image{
		config:     resolved,
		mode:       modeWrite,
		logger:     loggerOrNoop(resolved.Logger),
		metrics:    resolved.Metrics,
		device:     dev,
		descDevice: descDevice,
		dataDevice: dataDevice,

		descriptorStream: descStream,
		dataStream:       dataStream,

		root: &directoryNode{permissions: 0777, loaded: true},
	}

	descStream.SetObserver(observerFor(resolved.Metrics, "descriptor"))
	dataStream.SetObserver(observerFor(resolved.Metrics, "data"))

	if resolved.FilterOps != nil {
		dataStream.SetFilter(resolved.FilterOps)
		img.filterActive = true
	}

	img.logger.Infof("image created, architecture=%s", resolved.Architecture)
	return img, nil
}

func openImage(dev device.Device, cfg Config) (img *Image, err error) {
	defer func() {
		if err != nil {
			dev.Close()
		}
	}()

	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	if _, err := dev.Seek(0, device.SeekSet); err != nil {
		return nil, err
	}
	hdr, err := readHeader(dev)
	if err != nil {
		return nil, err
	}
	features, err := readFeatureTable(dev, hdr.FeatureCount)
	if err != nil {
		return nil, err
	}

	descStream, err := blockstream.Open(dev, int64(hdr.DescriptorBlockOffset))
	if err != nil {
		return nil, err
	}
	dataStream, err := blockstream.Open(dev, int64(hdr.DataBlockOffset))
	if err != nil {
		return nil, err
	}

	img = &Image{
		config:  resolved,
		mode:    modeRead,
		logger:  loggerOrNoop(resolved.Logger),
		metrics: resolved.Metrics,
		device:  dev,

		descriptorStream: descStream,
		dataStream:       dataStream,

		features: features,
	}
	img.root = &directoryNode{position: hdr.RootDescriptor, image: img}

	descStream.SetObserver(observerFor(resolved.Metrics, "descriptor"))
	dataStream.SetObserver(observerFor(resolved.Metrics, "data"))

	if family, ok := img.FeatureQuery(FilterFeatureGUID); ok {
		if _, err := decodeFilterFamily(family.Payload); err != nil {
			return nil, err
		}
		dataStream.SetFilterRequired(true)
		img.filterActive = true
		if resolved.FilterOps != nil {
			dataStream.SetFilter(resolved.FilterOps)
		}
	}

	img.logger.Infof("image opened, architecture=%s", resolved.Architecture)
	return img, nil
}

// Close finalizes a write-mode image (flushing the descriptor tree,
// sealing both block streams, and assembling the final on-disk layout)
// then releases the underlying device. Calling Close twice, or on an
// already-read-only image obtained via Open*, still only closes the
// device once.
func (img *Image) Close() error {
	if img.closed {
		return vfserr.New(vfserr.InvalidArgument, "image_close", "image already closed")
	}
	if img.mode == modeWrite {
		if err := img.finalize(); err != nil {
			return err
		}
	}
	img.closed = true
	return img.device.Close()
}

// finalize implements the write-to-read transition: flush the directory
// tree into the descriptor stream, seal both streams, lay out header +
// feature table + descriptor bytes + data bytes in that order against the
// real device, and write them out.
func (img *Image) finalize() error {
	if err := flushDirectory(img.descriptorStream, img.root); err != nil {
		return err
	}
	if err := img.descriptorStream.Finish(); err != nil {
		return err
	}
	if err := img.dataStream.Finish(); err != nil {
		return err
	}

	img.addAutoFeatures()

	descSize, err := deviceSize(img.descDevice)
	if err != nil {
		return err
	}

	descriptorBlockOffset := uint32(headerSize) + featureTableSize(img.features)
	dataBlockOffset := descriptorBlockOffset + uint32(descSize)

	hdr := header{
		Magic:                 imageMagic,
		Version:               imageVersion,
		Architecture:          uint32(img.config.Architecture),
		FeatureCount:          uint16(len(img.features)),
		DescriptorBlockOffset: descriptorBlockOffset,
		DataBlockOffset:       dataBlockOffset,
		RootDescriptor:        img.root.position,
	}

	if _, err := img.device.Seek(0, device.SeekSet); err != nil {
		return err
	}
	if err := writeHeader(img.device, hdr); err != nil {
		return err
	}
	if err := writeFeatureTable(img.device, img.features); err != nil {
		return err
	}

	if _, err := img.descDevice.Seek(0, device.SeekSet); err != nil {
		return err
	}
	if err := device.Copy(img.device, img.descDevice); err != nil {
		return err
	}
	if _, err := img.dataDevice.Seek(0, device.SeekSet); err != nil {
		return err
	}
	if err := device.Copy(img.device, img.dataDevice); err != nil {
		return err
	}

	img.mode = modeRead
	img.logger.Infof("image finalized: %d features, descriptor_offset=%d data_offset=%d",
		len(img.features), descriptorBlockOffset, dataBlockOffset)
	return nil
}

// addAutoFeatures appends the builtin Overview feature (unless the caller
// already added one of their own) and the Filter feature naming the
// active filter family, if any. Called once, at finalize.
func (img *Image) addAutoFeatures() {
	if _, ok := img.FeatureQuery(OverviewFeatureGUID); !ok {
		files, dirs, symlinks, totalBytes := countTree(img.root)
		_ = img.FeatureAdd(Feature{
			GUID: OverviewFeatureGUID,
			Payload: overviewPayload{
				Files:                 files,
				Directories:           dirs,
				Symlinks:              symlinks,
				TotalUncompressedSize: totalBytes,
			}.encode(),
		})
	}
	if img.filterActive {
		if _, ok := img.FeatureQuery(FilterFeatureGUID); !ok {
			_ = img.FeatureAdd(Feature{
				GUID:    FilterFeatureGUID,
				Payload: encodeFilterFamily(img.config.FilterFamily),
			})
		}
	}
}

func countTree(d *directoryNode) (files, directories, symlinks, totalBytes uint32) {
	for _, e := range d.children {
		switch e.kind {
		case entryFile:
			files++
			totalBytes += e.fileLength
		case entryDirectory:
			directories++
			cf, cd, cs, cb := countTree(e.dir)
			files += cf
			directories += cd
			symlinks += cs
			totalBytes += cb
		case entrySymlink:
			symlinks++
		}
	}
	return
}

func deviceSize(dev device.Device) (int64, error) {
	return dev.Seek(0, device.SeekEnd)
}
