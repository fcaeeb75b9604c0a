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
	"path"
	"strings"

	"vafs/vfserr"
)

// resolution is the outcome of walking a path: either the root directory,
// or a specific entry reached from it.
type resolution struct {
	isRoot bool
	entry  *entry
	dir    *directoryNode // populated when the result is a directory (root or entry.dir)
}

// tokenize splits a path on '/', collapsing consecutive separators and
// ignoring a leading separator. Empty path and "/" both yield zero tokens
// (the root directory).
func tokenize(p string) ([]string, error) {
	raw := strings.Split(p, "/")
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if tok == "" {
			continue
		}
		if len(tok) > maxNameLength {
			return nil, vfserr.New(vfserr.NameTooLong, "path_resolve", "path component exceeds name limit")
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func canonicalizeSymlink(consumedDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(target)
	}
	return path.Clean(path.Join(consumedDir, target))
}

// resolvePath walks path from root, following symlinks (canonicalized and
// capped at maxSymlinkHops redirections) as they're encountered, whether
// mid-path or at the final component.
func (img *Image) resolvePath(p string) (resolution, error) {
	return img.resolveInternal(p, 0, true)
}

// resolvePathLstat walks path like resolvePath, except a symlink that is
// the terminal component is returned as-is rather than followed - the
// basis for SymlinkOpen, which inspects the link itself.
func (img *Image) resolvePathLstat(p string) (resolution, error) {
	return img.resolveInternal(p, 0, false)
}

func (img *Image) resolveInternal(p string, hops int, followLast bool) (resolution, error) {
	if hops > maxSymlinkHops {
		return resolution{}, vfserr.New(vfserr.TooManyLinks, "path_resolve", "too many symlink redirections")
	}

	tokens, err := tokenize(p)
	if err != nil {
		return resolution{}, err
	}
	if len(tokens) == 0 {
		return resolution{isRoot: true, dir: img.root}, nil
	}

	dir := img.root
	consumed := ""

	for i, tok := range tokens {
		e, err := dir.findChild(tok)
		if err != nil {
			return resolution{}, err
		}
		last := i == len(tokens)-1

		switch e.kind {
		case entryDirectory:
			if last {
				return resolution{entry: e, dir: e.dir}, nil
			}
			dir = e.dir
			consumed = consumed + "/" + tok

		case entryFile:
			if !last {
				return resolution{}, vfserr.New(vfserr.NotADirectory, "path_resolve", "not a directory: "+tok)
			}
			return resolution{entry: e}, nil

		case entrySymlink:
			if last && !followLast {
				return resolution{entry: e}, nil
			}
			canonical := canonicalizeSymlink(consumed, e.target)
			if remaining := tokens[i+1:]; len(remaining) > 0 {
				canonical = canonical + "/" + strings.Join(remaining, "/")
			}
			return img.resolveInternal(canonical, hops+1, followLast)
		}
	}

	// Unreachable: the loop above always returns on its last iteration.
	return resolution{}, vfserr.New(vfserr.NoSuchEntry, "path_resolve", "no such entry: "+p)
}
