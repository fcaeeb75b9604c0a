// Package deflate
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

// Package deflate is a reference filter compressing each block
// independently with DEFLATE. Every block is its own stream - there is no
// cross-block dictionary - so blocks stay independently readable, the
// same property the block cache and random-access file reads both rely
// on.
package deflate

import (
	"bytes"
	"io"

	"vafs/filter"

	"github.com/klauspost/compress/flate"
)

// FamilyID is the persisted filter family identifier for this filter.
const FamilyID = 1

// Level is the compression level new block streams are encoded at.
var Level = flate.DefaultCompression

// Ops returns the encode/decode pair to install via Config.FilterOps.
func Ops() *filter.Ops {
	return &filter.Ops{Encode: encode, Decode: decode}
}

func encode(decoded []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, Level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(decoded); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(encoded []byte, output []byte) (int, error) {
	r := flate.NewReader(bytes.NewReader(encoded))
	defer r.Close()

	n, err := io.ReadFull(r, output)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	return n, nil
}
