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

// Package builder assembles engine components from start-up configuration.
package builder

import (
	"github.com/rs/zerolog"

	"dirpx.dev/vpx/apis"
	"dirpx.dev/vpx/config"
	"dirpx.dev/vpx/dispatch"
	"dirpx.dev/vpx/hooks"
	"dirpx.dev/vpx/metrics"
	"dirpx.dev/vpx/registry"
	"dirpx.dev/vpx/resolver"
)

// Option configures a Builder.
type Option func(*Builder)

// WithFile sets the start-up configuration.
func WithFile(f config.File) Option {
	return func(b *Builder) { b.file = f }
}

// WithLogger sets the logger handed to every component.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithMetrics sets the metrics sink handed to every component.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithSetup appends setup callbacks given to both resolvers.
func WithSetup(fns ...hooks.SetupFunc) Option {
	return func(b *Builder) { b.setup = append(b.setup, fns...) }
}

// WithExecutor sets the executor of the built dispatcher.
func WithExecutor(e dispatch.Executor) Option {
	return func(b *Builder) { b.executor = e }
}

// Builder builds registries, dispatchers and resolvers.
type Builder struct {
	file     config.File
	log      zerolog.Logger
	metrics  *metrics.Metrics
	setup    []hooks.SetupFunc
	executor dispatch.Executor
}

// New creates a builder over config.DefaultFile.
func New(opts ...Option) *Builder {
	b := &Builder{
		file: config.DefaultFile(),
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// File returns the configuration the builder uses.
func (b *Builder) File() config.File {
	return b.file
}

// BuildRegistry builds a registry over src using the registry section.
func (b *Builder) BuildRegistry(src apis.ModuleSource) (*registry.Registry, error) {
	return registry.New(src,
		registry.WithIgnore(b.file.Registry.Ignore...),
		registry.WithLogger(b.component("registry")),
		registry.WithMetrics(b.metrics),
	)
}

// BuildDispatcher builds a dispatcher using the dispatch section.
func (b *Builder) BuildDispatcher() *dispatch.Dispatcher {
	opts := []dispatch.Option{
		dispatch.WithLogger(b.component("dispatch")),
		dispatch.WithMetrics(b.metrics),
	}
	if b.executor != nil {
		opts = append(opts, dispatch.WithExecutor(b.executor))
	}
	if b.file.Dispatch.Promote {
		opts = append(opts, dispatch.WithPromoter(dispatch.LockOSThread))
	}
	return dispatch.New(opts...)
}

// BuildResolver builds a same-module resolver using the naming section.
func (b *Builder) BuildResolver(mods apis.Modules, d apis.Dispatcher) *resolver.Resolver {
	return resolver.New(mods, b.resolverOptions(b.file.Naming, d, "resolver")...)
}

// BuildCrossResolver builds a cross-module resolver using the crossModule
// section.
func (b *Builder) BuildCrossResolver(reg apis.Registry, d apis.Dispatcher) *resolver.Resolver {
	return resolver.NewCrossModule(reg, b.resolverOptions(b.file.CrossModule, d, "cross_resolver")...)
}

// BuildProvider builds the registry and a chain trying the same-module
// resolver first and the cross-module resolver second. Both share one
// dispatcher.
func (b *Builder) BuildProvider(src apis.ModuleSource) (*resolver.Chain, *registry.Registry, error) {
	reg, err := b.BuildRegistry(src)
	if err != nil {
		return nil, nil, err
	}
	d := b.BuildDispatcher()
	chain := resolver.NewChain(
		b.BuildResolver(reg, d),
		b.BuildCrossResolver(reg, d),
	)
	return chain, reg, nil
}

func (b *Builder) resolverOptions(cfg apis.Config, d apis.Dispatcher, name string) []resolver.Option {
	opts := []resolver.Option{
		resolver.WithConfig(cfg),
		resolver.WithLogger(b.component(name)),
		resolver.WithMetrics(b.metrics),
		resolver.WithSetup(b.setup...),
	}
	if d != nil {
		opts = append(opts, resolver.WithDispatcher(d))
	}
	return opts
}

func (b *Builder) component(name string) zerolog.Logger {
	return b.log.With().Str("component", name).Logger()
}
