/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package metrics exposes Prometheus collectors for the resolution engine.
//
// All methods are safe to call on a nil *Metrics, so components can carry
// an optional instance without guarding every call site.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dirpx.dev/vpx/apis"
)

// Resolution outcomes.
const (
	OutcomeSuccess          = "success"
	OutcomeNamingMismatch   = "naming_mismatch"
	OutcomeNoModules        = "no_modules"
	OutcomeNoView           = "no_view"
	OutcomeNotInstantiable  = "not_instantiable"
	OutcomeAffinityRequired = "affinity_required"
	OutcomeError            = "error"
)

// Module scan results.
const (
	ScanScanned = "scanned"
	ScanIgnored = "ignored"
	ScanDynamic = "dynamic"
)

// Dispatch routes.
const (
	RouteInline   = "inline"
	RouteExecutor = "executor"
	RoutePromoted = "promoted"
	RouteRefused  = "refused"
)

// Metrics groups every collector of the engine.
type Metrics struct {
	resolutions *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	edges       prometheus.Gauge
	modules     *prometheus.CounterVec
	dispatch    *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates the collectors and registers them on reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		resolutions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vpx_resolutions_total",
				Help: "Total number of view resolutions by outcome",
			},
			[]string{"outcome"},
		),
		cacheHits: f.NewCounter(
			prometheus.CounterOpts{
				Name: "vpx_cache_hits_total",
				Help: "Total number of resolution cache hits",
			},
		),
		cacheMisses: f.NewCounter(
			prometheus.CounterOpts{
				Name: "vpx_cache_misses_total",
				Help: "Total number of resolution cache misses",
			},
		),
		edges: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "vpx_registry_edges",
				Help: "Number of view-model module to view module edges",
			},
		),
		modules: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vpx_registry_modules_total",
				Help: "Total number of modules seen by the registry by result",
			},
			[]string{"result"},
		),
		dispatch: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vpx_dispatch_total",
				Help: "Total number of view factory dispatches by route",
			},
			[]string{"route"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vpx_resolution_duration_seconds",
				Help:    "Duration of view resolutions in seconds",
				Buckets: []float64{.00001, .0001, .001, .01, .1, 1},
			},
		),
	}
}

// ObserveResolution records the outcome and duration of one resolution.
func (m *Metrics) ObserveResolution(err error, d time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(Outcome(err)).Inc()
	m.duration.Observe(d.Seconds())
}

// CacheHit counts a resolution served from the cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// CacheMiss counts a resolution that had to be computed.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// SetEdges records the current registry edge count.
func (m *Metrics) SetEdges(n int) {
	if m == nil {
		return
	}
	m.edges.Set(float64(n))
}

// ModuleSeen counts a module handled by the registry with the given result.
func (m *Metrics) ModuleSeen(result string) {
	if m == nil {
		return
	}
	m.modules.WithLabelValues(result).Inc()
}

// Dispatched counts a factory dispatch over the given route.
func (m *Metrics) Dispatched(route string) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(route).Inc()
}

// Outcome maps a resolution error to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, apis.ErrNamingMismatch):
		return OutcomeNamingMismatch
	case errors.Is(err, apis.ErrNoModulesFound):
		return OutcomeNoModules
	case errors.Is(err, apis.ErrNoViewFound):
		return OutcomeNoView
	case errors.Is(err, apis.ErrNotInstantiable):
		return OutcomeNotInstantiable
	case errors.Is(err, apis.ErrAffinityRequired):
		return OutcomeAffinityRequired
	default:
		return OutcomeError
	}
}
