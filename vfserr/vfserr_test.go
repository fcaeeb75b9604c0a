// Package vfserr tests
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
package vfserr

import (
	"errors"
	"testing"
)

func TestIsMatchesOwnKind(t *testing.T) {
	err := New(NoSuchEntry, "directory_open", "missing child")
	if !Is(err, NoSuchEntry) {
		t.Fatal("expected Is to match the error's own kind")
	}
	if Is(err, AlreadyExists) {
		t.Fatal("expected Is to reject a non-matching kind")
	}
}

func TestWrapPreservesCauseAndKind(t *testing.T) {
	cause := errors.New("short read from device")
	wrapped := Wrap(ShortRead, "block_load", cause)

	if !Is(wrapped, ShortRead) {
		t.Fatal("expected wrapped error to carry the given kind")
	}

	var ve *Error
	if !errors.As(wrapped, &ve) {
		t.Fatal("expected wrapped error to be a *Error")
	}
	if !errors.Is(ve.Unwrap(), cause) {
		t.Fatal("expected the original cause to still be reachable via Unwrap")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(InvalidArgument, "op", nil) != nil {
		t.Fatal("expected Wrap(nil) to return nil")
	}
}

func TestIsReturnsFalseForPlainError(t *testing.T) {
	if Is(errors.New("plain"), InvalidArgument) {
		t.Fatal("expected Is to reject an error that isn't a *Error")
	}
}

func TestKindString(t *testing.T) {
	if IOIntegrity.String() != "io_integrity" {
		t.Fatalf("unexpected Kind.String(): %q", IOIntegrity.String())
	}
}
