// Package vfserr
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

// Package vfserr defines the error taxonomy shared by every layer of the
// image engine, from the stream device up to the public handle API.
package vfserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an error independently of the layer that raised it, so
// callers can branch on "what went wrong" without caring whether the
// failure came from the device, the block codec or the descriptor tree.
type Kind int

const (
	InvalidArgument Kind = iota
	NoSuchEntry
	AlreadyExists
	NotADirectory
	IsADirectory
	PermissionDenied
	WouldBlock
	IOIntegrity
	UnsupportedFilter
	NameTooLong
	TooManyLinks
	OutOfMemory
	EndOfStream
	ShortRead
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NoSuchEntry:
		return "no_such_entry"
	case AlreadyExists:
		return "already_exists"
	case NotADirectory:
		return "not_a_directory"
	case IsADirectory:
		return "is_a_directory"
	case PermissionDenied:
		return "permission_denied"
	case WouldBlock:
		return "would_block"
	case IOIntegrity:
		return "io_integrity"
	case UnsupportedFilter:
		return "unsupported_filter"
	case NameTooLong:
		return "name_too_long"
	case TooManyLinks:
		return "too_many_links"
	case OutOfMemory:
		return "out_of_memory"
	case EndOfStream:
		return "end_of_stream"
	case ShortRead:
		return "short_read"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every exported operation in
// the engine. Op names the failing operation (e.g. "directory_open") so
// diagnostics stay useful without needing a stack trace.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error carrying no wrapped cause.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an Error that also carries the underlying cause. The cause is
// given a stack trace (if it doesn't already carry one) so a failure deep in
// the device or block-codec layers can still be located once it surfaces at
// the handle API.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

// Is reports whether the first *Error found in err's wrap chain (err itself
// or the nearest one it wraps) carries the given Kind. *Errors wrapped
// beneath that first one are not consulted.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ve, ok := err.(*Error); ok {
			e = ve
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
