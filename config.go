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
	"io"

	"vafs/blockstream"
	"vafs/filter"
	"vafs/vfserr"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config carries the knobs create() and open() accept. Any zero-valued
// field is filled in from DefaultConfig() before use, so a caller only
// ever has to state what they want to override.
type Config struct {
	Architecture        Architecture `yaml:"architecture"`
	DescriptorBlockSize uint32       `yaml:"-"` // fixed; present for symmetry, not overridable
	DataBlockSize       uint32       `yaml:"data_block_size"`
	FilterFamily        uint32       `yaml:"filter_family"`

	FilterOps *filter.Ops `yaml:"-"`
	Logger    Logger      `yaml:"-"`
	Metrics   Metrics     `yaml:"-"`
}

// DefaultConfig mirrors the original library's own config initializer
// (architecture unknown, block size left at the stream codec's default)
// rather than inventing new defaults.
func DefaultConfig() Config {
	return Config{
		Architecture:        ArchitectureUnknown,
		DescriptorBlockSize: blockstream.DescriptorBlockSize,
		DataBlockSize:       blockstream.DefaultDataBlockSize,
	}
}

// LoadConfig parses a YAML document into a Config, then resolves it
// against DefaultConfig(). It performs no I/O beyond reading r - callers
// such as the out-of-scope archiver CLI use this to describe build
// parameters declaratively.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, vfserr.Wrap(vfserr.InvalidArgument, "config_load", err)
	}
	return resolveConfig(cfg)
}

// resolveConfig merges a caller-provided Config over the package defaults:
// any field left at its zero value in cfg is filled in from the defaults.
func resolveConfig(cfg Config) (Config, error) {
	resolved := cfg
	if err := mergo.Merge(&resolved, DefaultConfig()); err != nil {
		return Config{}, vfserr.Wrap(vfserr.InvalidArgument, "config_resolve", err)
	}
	return resolved, nil
}

func loggerOrNoop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}
