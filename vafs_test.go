// Package vafs tests
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
	"bytes"
	"encoding/binary"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"vafs/filter"
	"vafs/filters/parity"
	"vafs/vfserr"
)

func imagePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "image.vafs")
}

func TestSingleFileRoundTrip(t *testing.T) {
	path := imagePath(t)

	cfg := DefaultConfig()
	cfg.Architecture = ArchitectureX64
	img, err := Create(path, cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	root, err := img.DirectoryOpen("/")
	if err != nil {
		t.Fatalf("directory_open failed: %v", err)
	}
	f, err := root.FileCreate("hello.txt", 0644)
	if err != nil {
		t.Fatalf("file_create failed: %v", err)
	}
	if _, err := f.Write([]byte{0x48, 0x69, 0x0A}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file close failed: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("image close failed: %v", err)
	}

	img, err = OpenFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer img.Close()

	st, err := img.PathStat("/hello.txt")
	if err != nil {
		t.Fatalf("path_stat failed: %v", err)
	}
	if st.Type != FileTypeFile || st.Permissions != 0644 || st.Length != 3 {
		t.Fatalf("unexpected stat: %+v", st)
	}

	rf, err := img.FileOpen("/hello.txt")
	if err != nil {
		t.Fatalf("file_open failed: %v", err)
	}
	defer rf.Close()
	buf := make([]byte, 3)
	if _, err := io.ReadFull(rf, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x48, 0x69, 0x0A}) {
		t.Fatalf("unexpected content: %v", buf)
	}
}

func TestDirectoryAndSymlink(t *testing.T) {
	path := imagePath(t)

	img, err := Create(path, DefaultConfig())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	root, err := img.DirectoryOpen("/")
	if err != nil {
		t.Fatalf("directory_open failed: %v", err)
	}
	d, err := root.DirectoryCreate("d", 0755)
	if err != nil {
		t.Fatalf("directory_create failed: %v", err)
	}
	a, err := d.FileCreate("a", 0644)
	if err != nil {
		t.Fatalf("file_create failed: %v", err)
	}
	if _, err := a.Write([]byte("a")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := root.SymlinkCreate("link", "d/a"); err != nil {
		t.Fatalf("symlink_create failed: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("image close failed: %v", err)
	}

	img, err = OpenFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer img.Close()

	f, err := img.FileOpen("/link")
	if err != nil {
		t.Fatalf("file_open via symlink failed: %v", err)
	}
	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if buf[0] != 'a' {
		t.Fatalf("expected 'a', got %q", buf)
	}

	dh, err := img.DirectoryOpen("/d")
	if err != nil {
		t.Fatalf("directory_open failed: %v", err)
	}
	entries, err := dh.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "a" || entries[0].Type != FileTypeFile {
		t.Fatalf("unexpected directory listing: %+v", entries)
	}

	sl, err := img.SymlinkOpen("/link")
	if err != nil {
		t.Fatalf("symlink_open failed: %v", err)
	}
	if sl.Target() != "d/a" {
		t.Fatalf("unexpected symlink target: %q", sl.Target())
	}
}

func TestDirectoryHandleChildNavigation(t *testing.T) {
	path := imagePath(t)

	img, err := Create(path, DefaultConfig())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	root, err := img.DirectoryOpen("/")
	if err != nil {
		t.Fatalf("directory_open failed: %v", err)
	}
	sub, err := root.DirectoryCreate("sub", 0755)
	if err != nil {
		t.Fatalf("directory_create failed: %v", err)
	}
	f, err := sub.FileCreate("a", 0644)
	if err != nil {
		t.Fatalf("file_create failed: %v", err)
	}
	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := sub.SymlinkCreate("link", "a"); err != nil {
		t.Fatalf("symlink_create failed: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("image close failed: %v", err)
	}

	img, err = OpenFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer img.Close()

	root, err = img.DirectoryOpen("/")
	if err != nil {
		t.Fatalf("directory_open failed: %v", err)
	}

	// Iterator surface: walk children by index until it runs out.
	seen := map[string]bool{}
	for i := 0; ; i++ {
		e, err := root.ReadEntry(i)
		if err != nil {
			if !vfserr.Is(err, vfserr.NoSuchEntry) {
				t.Fatalf("read_entry failed at index %d: %v", i, err)
			}
			break
		}
		seen[e.Name] = true
	}
	if !seen["sub"] || len(seen) != 1 {
		t.Fatalf("unexpected iterator result: %+v", seen)
	}

	subHandle, err := root.OpenDirectory("sub")
	if err != nil {
		t.Fatalf("open_directory failed: %v", err)
	}
	if _, err := subHandle.OpenDirectory("a"); err == nil {
		t.Fatal("expected open_directory on a non-directory child to fail")
	}

	fh, err := subHandle.OpenFile("a")
	if err != nil {
		t.Fatalf("open_file failed: %v", err)
	}
	defer fh.Close()
	buf := make([]byte, 5)
	if _, err := fh.Read(buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf) != "hello" {
		t.Fatalf("unexpected file contents: %q", buf)
	}
	if _, err := subHandle.OpenFile("link"); err == nil {
		t.Fatal("expected open_file on a symlink child to fail")
	}

	sh, err := subHandle.ReadSymlink("link")
	if err != nil {
		t.Fatalf("read_symlink failed: %v", err)
	}
	if sh.Target() != "a" {
		t.Fatalf("unexpected symlink target: %q", sh.Target())
	}
	if _, err := subHandle.ReadSymlink("a"); err == nil {
		t.Fatal("expected read_symlink on a non-symlink child to fail")
	}
}

func TestEmptyImage(t *testing.T) {
	path := imagePath(t)

	img, err := Create(path, DefaultConfig())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	img, err = OpenFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer img.Close()

	st, err := img.PathStat("/")
	if err != nil {
		t.Fatalf("path_stat failed: %v", err)
	}
	if st.Type != FileTypeDirectory || st.Permissions != rootPermissions {
		t.Fatalf("unexpected root stat: %+v", st)
	}

	dh, err := img.DirectoryOpen("/")
	if err != nil {
		t.Fatalf("directory_open failed: %v", err)
	}
	entries, err := dh.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected an empty root, got %d entries", len(entries))
	}
}

// chainName deterministically names the i-th symlink in a redirection
// chain, avoiding collisions for chains well past 26 hops.
func chainName(i int) string {
	return "l" + string(rune('a'+i%26)) + string(rune('A'+i/26))
}

func buildSymlinkChain(t *testing.T, hops int) (*Image, string) {
	t.Helper()
	img, err := CreateMemory(DefaultConfig())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	root, err := img.DirectoryOpen("/")
	if err != nil {
		t.Fatalf("directory_open failed: %v", err)
	}
	target, err := root.FileCreate("target", 0644)
	if err != nil {
		t.Fatalf("file_create failed: %v", err)
	}
	if _, err := target.Write([]byte("x")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := target.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	name := "target"
	for i := 0; i < hops; i++ {
		next := chainName(i)
		if err := root.SymlinkCreate(next, name); err != nil {
			t.Fatalf("symlink_create failed: %v", err)
		}
		name = next
	}
	if err := img.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	return img, name
}

func TestSymlinkChainRedirectionCap(t *testing.T) {
	t.Run("within cap", func(t *testing.T) {
		img, head := buildSymlinkChain(t, maxSymlinkHops)
		defer img.Close()
		if _, err := img.FileOpen("/" + head); err != nil {
			t.Fatalf("expected chain at the hop cap to resolve, got %v", err)
		}
	})

	t.Run("beyond cap", func(t *testing.T) {
		img, head := buildSymlinkChain(t, maxSymlinkHops+1)
		defer img.Close()
		_, err := img.FileOpen("/" + head)
		if !vfserr.Is(err, vfserr.TooManyLinks) {
			t.Fatalf("expected too_many_links beyond the hop cap, got %v", err)
		}
	})
}

func TestFilterTransparencyRequiresMatchingCallbacks(t *testing.T) {
	xor := &filter.Ops{
		Encode: func(decoded []byte) ([]byte, error) {
			out := make([]byte, len(decoded))
			for i, b := range decoded {
				out[i] = b ^ 0x5A
			}
			return out, nil
		},
		Decode: func(encoded []byte, output []byte) (int, error) {
			n := copy(output, encoded)
			for i := range output[:n] {
				output[i] ^= 0x5A
			}
			return n, nil
		},
	}

	path := imagePath(t)
	cfg := DefaultConfig()
	cfg.FilterOps = xor
	cfg.FilterFamily = 99

	img, err := Create(path, cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	root, _ := img.DirectoryOpen("/")
	f, err := root.FileCreate("zeroes", 0644)
	if err != nil {
		t.Fatalf("file_create failed: %v", err)
	}
	payload := make([]byte, 200*1024)
	if _, err := f.Write(payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("image close failed: %v", err)
	}

	withoutFilter, err := OpenFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer withoutFilter.Close()
	rf, err := withoutFilter.FileOpen("/zeroes")
	if err != nil {
		t.Fatalf("file_open failed: %v", err)
	}
	if _, err := rf.Read(make([]byte, 16)); !vfserr.Is(err, vfserr.UnsupportedFilter) {
		t.Fatalf("expected unsupported_filter without a matching filter, got %v", err)
	}

	withFilter, err := OpenFile(path, Config{FilterOps: xor})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer withFilter.Close()
	rf2, err := withFilter.FileOpen("/zeroes")
	if err != nil {
		t.Fatalf("file_open failed: %v", err)
	}
	out := make([]byte, len(payload))
	if _, err := io.ReadFull(rf2, out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatal("expected the original all-zero payload back")
	}
}

func TestParityFilterAbsorbsBoundedCorruption(t *testing.T) {
	path := imagePath(t)
	cfg := DefaultConfig()
	cfg.FilterOps = parity.Ops()
	cfg.FilterFamily = parity.FamilyID

	img, err := Create(path, cfg)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	root, _ := img.DirectoryOpen("/")
	f, err := root.FileCreate("parity.bin", 0644)
	if err != nil {
		t.Fatalf("file_create failed: %v", err)
	}
	rng := rand.New(rand.NewSource(1))
	payload := make([]byte, 2*int(cfg.DataBlockSize))
	rng.Read(payload)
	if _, err := f.Write(payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("image close failed: %v", err)
	}

	// Flip one byte inside the first shard of the first data block: the
	// block starts right after the 16-byte data stream header, and its
	// first shard right after the 12-byte parity header.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading image failed: %v", err)
	}
	dataBlockOffset := binary.LittleEndian.Uint32(raw[24:28])
	raw[dataBlockOffset+16+12] ^= 0xFF
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("writing corrupted image failed: %v", err)
	}

	img, err = OpenFile(path, Config{FilterOps: parity.Ops()})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer img.Close()

	rf, err := img.FileOpen("/parity.bin")
	if err != nil {
		t.Fatalf("file_open failed: %v", err)
	}
	out := make([]byte, len(payload))
	if _, err := io.ReadFull(rf, out); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatal("expected parity-protected payload to round trip uncorrupted")
	}
}

func TestFeatureOverviewAutoAdded(t *testing.T) {
	path := imagePath(t)
	img, err := Create(path, DefaultConfig())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	root, _ := img.DirectoryOpen("/")
	f, _ := root.FileCreate("a", 0644)
	f.Write([]byte("x"))
	f.Close()
	root.DirectoryCreate("d", 0755)
	root.SymlinkCreate("s", "a")
	if err := img.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	img, err = OpenFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer img.Close()

	feature, ok := img.FeatureQuery(OverviewFeatureGUID)
	if !ok {
		t.Fatal("expected an overview feature to be present")
	}
	overview, err := decodeOverview(feature.Payload)
	if err != nil {
		t.Fatalf("decode overview failed: %v", err)
	}
	if overview.Files != 1 || overview.Directories != 1 || overview.Symlinks != 1 || overview.TotalUncompressedSize != 1 {
		t.Fatalf("unexpected overview counts: %+v", overview)
	}
}

func TestDoubleCloseFails(t *testing.T) {
	path := imagePath(t)
	img, err := Create(path, DefaultConfig())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := img.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := img.Close(); !vfserr.Is(err, vfserr.InvalidArgument) {
		t.Fatalf("expected invalid_argument on double close, got %v", err)
	}
}
