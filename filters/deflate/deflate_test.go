// Package deflate tests
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
package deflate

import (
	"bytes"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	ops := Ops()
	decoded := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog ", 200))

	encoded, err := ops.Encode(decoded)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(encoded) >= len(decoded) {
		t.Fatalf("expected compression on repetitive input: encoded=%d decoded=%d", len(encoded), len(decoded))
	}

	output := make([]byte, len(decoded))
	n, err := ops.Decode(encoded, output)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if n != len(decoded) {
		t.Fatalf("expected %d decoded bytes, got %d", len(decoded), n)
	}
	if !bytes.Equal(output[:n], decoded) {
		t.Fatal("round-tripped bytes do not match original")
	}
}

func TestRoundTripEmptyBlock(t *testing.T) {
	ops := Ops()
	encoded, err := ops.Encode(nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	output := make([]byte, 0)
	if _, err := ops.Decode(encoded, output); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
}
