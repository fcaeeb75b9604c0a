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

import "vafs/vfserr"

// rootPermissions is the hardcoded mode reported for the image root,
// mirroring the original's S_IFDIR|0755 special case - the root has no
// descriptor record of its own to carry real permission bits.
const rootPermissions = 0755

// Stat is the result of PathStat: enough to tell what kind of entry a
// path names and, for a file, how long it is.
type Stat struct {
	Type        FileType
	Permissions uint32
	Length      uint32 // meaningful only when Type == FileTypeFile
}

// PathStat resolves path (following symlinks fully, including a terminal
// one) and reports what it names.
func (img *Image) PathStat(path string) (Stat, error) {
	res, err := img.resolvePath(path)
	if err != nil {
		return Stat{}, err
	}
	if res.isRoot {
		return Stat{Type: FileTypeDirectory, Permissions: rootPermissions}, nil
	}
	switch res.entry.kind {
	case entryDirectory:
		return Stat{Type: FileTypeDirectory, Permissions: res.entry.permissions}, nil
	case entryFile:
		return Stat{Type: FileTypeFile, Permissions: res.entry.permissions, Length: res.entry.fileLength}, nil
	default:
		return Stat{}, vfserr.New(vfserr.IOIntegrity, "path_stat", "unresolved symlink in terminal position")
	}
}
