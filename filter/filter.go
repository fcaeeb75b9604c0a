// Package filter
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

// Package filter defines the pluggable per-block encode/decode contract.
// Concrete filters (compression, erasure coding, encryption, ...) are the
// caller's responsibility; the engine only ever calls through this
// interface.
package filter

// EncodeFunc is invoked on flush of a full (or final, partial) block with
// the decoded payload. It must return an owned buffer; the block stream
// takes responsibility for it from that point on.
type EncodeFunc func(decoded []byte) ([]byte, error)

// DecodeFunc is invoked on block load. It must never write beyond
// cap(output) and must return the exact decoded byte count.
type DecodeFunc func(encoded []byte, output []byte) (int, error)

// Ops is the matched encode/decode pair a caller installs on an image at
// open/create time. It is configuration of the block streams, not a
// feature persisted to disk: the image only ever records which filter
// family was used (see the builtin Filter feature), never the callbacks.
type Ops struct {
	Encode EncodeFunc
	Decode DecodeFunc
}
