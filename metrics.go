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
	"vafs/blockstream"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics observes block cache behavior. It never influences admission or
// eviction decisions (cache transparency, SPEC_FULL.md §8) - it only
// counts what already happened.
type Metrics interface {
	CacheHit(stream string)
	CacheMiss(stream string)
	CacheEviction(stream string)
}

type noopMetrics struct{}

func (noopMetrics) CacheHit(string)      {}
func (noopMetrics) CacheMiss(string)     {}
func (noopMetrics) CacheEviction(string) {}

// PrometheusMetrics implements Metrics with three counter vectors labeled
// by stream role ("descriptor" or "data"). Register it with any
// prometheus.Registerer the caller already runs.
type PrometheusMetrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
}

// NewPrometheusMetrics builds and registers the counter vectors against reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vafs_block_cache_hits_total",
			Help: "Block cache hits, by stream role.",
		}, []string{"stream"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vafs_block_cache_misses_total",
			Help: "Block cache misses, by stream role.",
		}, []string{"stream"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vafs_block_cache_evictions_total",
			Help: "Block cache evictions, by stream role.",
		}, []string{"stream"}),
	}
	reg.MustRegister(m.hits, m.misses, m.evictions)
	return m
}

func (m *PrometheusMetrics) CacheHit(stream string)      { m.hits.WithLabelValues(stream).Inc() }
func (m *PrometheusMetrics) CacheMiss(stream string)     { m.misses.WithLabelValues(stream).Inc() }
func (m *PrometheusMetrics) CacheEviction(stream string) { m.evictions.WithLabelValues(stream).Inc() }

// metricsObserver adapts a Metrics (or nil) to blockstream's narrower
// observer contract, pre-binding the owning stream's role so blockstream
// itself never needs to know about Metrics or Prometheus.
type metricsObserver struct {
	m      Metrics
	stream string
}

func (o metricsObserver) CacheHit()      { o.m.CacheHit(o.stream) }
func (o metricsObserver) CacheMiss()     { o.m.CacheMiss(o.stream) }
func (o metricsObserver) CacheEviction() { o.m.CacheEviction(o.stream) }

func observerFor(m Metrics, stream string) blockstream.Observer {
	if m == nil {
		m = noopMetrics{}
	}
	return metricsObserver{m: m, stream: stream}
}
