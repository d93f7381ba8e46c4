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

// Package dispatch runs view factories on the execution context required by
// single-threaded UI toolkits.
//
// Go has no goroutine identity, so affinity is carried by the context:
// a context marked with WithAffinity belongs to code already running on the
// affinity-holding goroutine. Factories are routed in this order:
//
//  1. inline, when the context has affinity;
//  2. through the configured Executor, blocking until the factory returns;
//  3. inline on the caller, when the Promoter pins it;
//  4. otherwise apis.ErrAffinityRequired.
//
// There is no timeout: an unresponsive executor blocks the caller.
package dispatch

import (
	"context"

	"github.com/rs/zerolog"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/metrics"
)

type affinityKey struct{}

// WithAffinity marks ctx as running on the affinity-holding goroutine.
func WithAffinity(ctx context.Context) context.Context {
	return context.WithValue(ctx, affinityKey{}, true)
}

// HasAffinity reports whether ctx was marked with WithAffinity.
func HasAffinity(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(affinityKey{}).(bool)
	return v
}

// Executor runs functions on an affinity-holding goroutine.
type Executor interface {
	// Submit runs fn on the executor with an affinity-marked context derived
	// from ctx and blocks until fn returns. A non-nil error means fn did not run.
	Submit(ctx context.Context, fn func(ctx context.Context)) error
}

// Promoter turns the calling goroutine into an affinity holder.
type Promoter interface {
	// Promote reports whether the calling goroutine now holds affinity.
	Promote() bool
}

// PromoterFunc adapts a function to Promoter.
type PromoterFunc func() bool

// Promote calls f.
func (f PromoterFunc) Promote() bool { return f() }

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithExecutor sets the executor used by callers without affinity.
func WithExecutor(e Executor) Option {
	return func(d *Dispatcher) { d.exec = e }
}

// WithPromoter sets the promoter used when no executor accepts work.
func WithPromoter(p Promoter) Option {
	return func(d *Dispatcher) { d.promote = p }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher routes view factories to an affinity-holding context.
// It is safe for concurrent use.
type Dispatcher struct {
	exec    Executor
	promote Promoter
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// Ensure Dispatcher implements apis.Dispatcher.
var _ apis.Dispatcher = (*Dispatcher)(nil)

// New creates a dispatcher. Without options only callers that already hold
// affinity are served.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{log: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Run invokes factory on an affinity-holding context and returns its result.
func (d *Dispatcher) Run(ctx context.Context, factory func(ctx context.Context) (apis.View, error)) (apis.View, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if HasAffinity(ctx) {
		d.metrics.Dispatched(metrics.RouteInline)
		return factory(ctx)
	}

	if d.exec != nil {
		var (
			view apis.View
			err  error
		)
		serr := d.exec.Submit(ctx, func(ctx context.Context) {
			view, err = factory(ctx)
		})
		if serr == nil {
			d.metrics.Dispatched(metrics.RouteExecutor)
			return view, err
		}
		d.log.Debug().Err(serr).Msg("executor rejected the factory")
	}

	if d.promote != nil && d.promote.Promote() {
		d.log.Debug().Msg("promoted the calling goroutine to affinity holder")
		d.metrics.Dispatched(metrics.RoutePromoted)
		return factory(WithAffinity(ctx))
	}

	d.metrics.Dispatched(metrics.RouteRefused)
	return nil, apis.Errorf(apis.ErrAffinityRequired,
		"views must be created on the affinity-holding goroutine and none is reachable")
}
