// Package blockstream
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
package blockstream

// Observer receives purely diagnostic block cache events. It never
// influences admission or eviction - a Stream with no observer attached
// behaves identically to one with an observer attached (cache
// transparency).
type Observer interface {
	CacheHit()
	CacheMiss()
	CacheEviction()
}

type noopObserver struct{}

func (noopObserver) CacheHit()      {}
func (noopObserver) CacheMiss()     {}
func (noopObserver) CacheEviction() {}

// SetObserver installs a diagnostic observer for this stream's block
// cache. Passing nil restores the no-op observer.
func (s *Stream) SetObserver(obs Observer) {
	if obs == nil {
		obs = noopObserver{}
	}
	s.cache.observer = obs
}
