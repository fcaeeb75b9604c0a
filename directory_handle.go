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

// FileType is the public counterpart of the internal entryKind, handed
// back to callers enumerating a directory.
type FileType int

const (
	FileTypeFile FileType = iota
	FileTypeDirectory
	FileTypeSymlink
)

func (t FileType) String() string {
	switch t {
	case FileTypeDirectory:
		return "directory"
	case FileTypeSymlink:
		return "symlink"
	default:
		return "file"
	}
}

func toFileType(k entryKind) FileType {
	switch k {
	case entryDirectory:
		return FileTypeDirectory
	case entrySymlink:
		return FileTypeSymlink
	default:
		return FileTypeFile
	}
}

// DirEntry describes one child of a listed directory.
type DirEntry struct {
	Name        string
	Type        FileType
	Permissions uint32
}

// DirectoryHandle is an open reference to one directory in the tree, for
// either enumeration (any image) or creation of new children (write-mode
// images only).
type DirectoryHandle struct {
	image *Image
	node  *directoryNode
}

// DirectoryOpen resolves path (following symlinks) and opens it as a
// directory. The empty path and "/" both refer to the image root.
func (img *Image) DirectoryOpen(path string) (*DirectoryHandle, error) {
	res, err := img.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if res.isRoot {
		return &DirectoryHandle{image: img, node: img.root}, nil
	}
	if res.entry.kind != entryDirectory {
		return nil, vfserr.New(vfserr.NotADirectory, "directory_open", "not a directory: "+path)
	}
	return &DirectoryHandle{image: img, node: res.dir}, nil
}

// Close is a no-op: a DirectoryHandle holds no stream lock or other
// resource of its own between calls. It exists for symmetry with
// FileHandle and SymlinkHandle.
func (h *DirectoryHandle) Close() error { return nil }

// Permissions reports the directory's stored permission bits.
func (h *DirectoryHandle) Permissions() uint32 { return h.node.permissions }

// List returns the handle's immediate children, loading them from the
// descriptor stream on first use for a read-mode image.
func (h *DirectoryHandle) List() ([]DirEntry, error) {
	if err := h.node.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(h.node.children))
	for _, e := range h.node.children {
		out = append(out, DirEntry{Name: e.name, Type: toFileType(e.kind), Permissions: e.permissions})
	}
	return out, nil
}

// ReadEntry returns the child at the given zero-based index, loading the
// directory from the descriptor stream on first use. It fails with
// vfserr.NoSuchEntry once index reaches the child count, mirroring the
// original's vafs_directory_read iterator.
func (h *DirectoryHandle) ReadEntry(index int) (DirEntry, error) {
	if err := h.node.ensureLoaded(); err != nil {
		return DirEntry{}, err
	}
	if index < 0 || index >= len(h.node.children) {
		return DirEntry{}, vfserr.New(vfserr.NoSuchEntry, "directory_read", "no entry at index")
	}
	e := h.node.children[index]
	return DirEntry{Name: e.name, Type: toFileType(e.kind), Permissions: e.permissions}, nil
}

// OpenDirectory looks up name among the handle's children and opens it as a
// subdirectory, without going back through Image.DirectoryOpen and a
// reconstructed path. Mirrors the original's vafs_directory_open_directory.
func (h *DirectoryHandle) OpenDirectory(name string) (*DirectoryHandle, error) {
	e, err := h.node.findChild(name)
	if err != nil {
		return nil, err
	}
	if e.kind != entryDirectory {
		return nil, vfserr.New(vfserr.NotADirectory, "directory_open_directory", "not a directory: "+name)
	}
	return &DirectoryHandle{image: h.image, node: e.dir}, nil
}

// OpenFile looks up name among the handle's children and opens it for
// reading. Mirrors the original's vafs_directory_open_file.
func (h *DirectoryHandle) OpenFile(name string) (*FileHandle, error) {
	e, err := h.node.findChild(name)
	if err != nil {
		return nil, err
	}
	if e.kind == entryDirectory {
		return nil, vfserr.New(vfserr.IsADirectory, "directory_open_file", "is a directory: "+name)
	}
	if e.kind != entryFile {
		return nil, vfserr.New(vfserr.InvalidArgument, "directory_open_file", "not a file: "+name)
	}
	return &FileHandle{image: h.image, entry: e}, nil
}

// ReadSymlink looks up name among the handle's children and returns a
// handle to it as a symlink, without following it. Mirrors the original's
// vafs_directory_read_symlink.
func (h *DirectoryHandle) ReadSymlink(name string) (*SymlinkHandle, error) {
	e, err := h.node.findChild(name)
	if err != nil {
		return nil, err
	}
	if e.kind != entrySymlink {
		return nil, vfserr.New(vfserr.InvalidArgument, "directory_read_symlink", "not a symlink: "+name)
	}
	return &SymlinkHandle{entry: e}, nil
}

// DirectoryCreate adds a new, empty subdirectory and returns a handle to
// it. Valid only on a write-mode image.
func (h *DirectoryHandle) DirectoryCreate(name string, permissions uint32) (*DirectoryHandle, error) {
	if h.image.mode != modeWrite {
		return nil, vfserr.New(vfserr.PermissionDenied, "directory_create", "image is read-only")
	}
	if len(name) > maxNameLength {
		return nil, vfserr.New(vfserr.NameTooLong, "directory_create", "name exceeds limit")
	}
	child := &directoryNode{permissions: permissions, loaded: true}
	e := &entry{kind: entryDirectory, name: name, permissions: permissions, dir: child}
	if err := h.node.addChild(e); err != nil {
		return nil, err
	}
	return &DirectoryHandle{image: h.image, node: child}, nil
}

// FileCreate adds a new, empty file and returns a write handle to it.
// Valid only on a write-mode image.
func (h *DirectoryHandle) FileCreate(name string, permissions uint32) (*FileHandle, error) {
	if h.image.mode != modeWrite {
		return nil, vfserr.New(vfserr.PermissionDenied, "file_create", "image is read-only")
	}
	if len(name) > maxNameLength {
		return nil, vfserr.New(vfserr.NameTooLong, "file_create", "name exceeds limit")
	}
	e := &entry{kind: entryFile, name: name, permissions: permissions, dataPosition: invalidPosition}
	if err := h.node.addChild(e); err != nil {
		return nil, err
	}
	return &FileHandle{image: h.image, entry: e}, nil
}

// SymlinkCreate adds a new symlink named name pointing at target. Valid
// only on a write-mode image.
func (h *DirectoryHandle) SymlinkCreate(name, target string) error {
	if h.image.mode != modeWrite {
		return vfserr.New(vfserr.PermissionDenied, "symlink_create", "image is read-only")
	}
	if len(name) > maxNameLength {
		return vfserr.New(vfserr.NameTooLong, "symlink_create", "name exceeds limit")
	}
	if len(target) > maxTargetLength {
		return vfserr.New(vfserr.NameTooLong, "symlink_create", "target exceeds limit")
	}
	e := &entry{kind: entrySymlink, name: name, target: target}
	return h.node.addChild(e)
}
