package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Factory builds a provider. It is called at most once per Handle.
type Factory func(ctx context.Context) (Provider, error)

// Handle lazily initializes a provider on first use and shares it afterwards.
// Concurrent first callers block on the single initialization; a failed
// initialization is remembered and returned to every caller.
type Handle struct {
	name    string
	factory Factory

	once     sync.Once
	ready    atomic.Bool
	provider Provider
	err      error
}

// NewHandle creates a handle for the named provider
func NewHandle(name string, factory Factory) *Handle {
	return &Handle{name: name, factory: factory}
}

// StaticHandle wraps an already constructed provider
func StaticHandle(p Provider) *Handle {
	h := &Handle{name: p.ModelName()}
	h.once.Do(func() {
		h.provider = p
		h.ready.Store(true)
	})
	return h
}

// Get returns the initialized provider, running the factory on the first call
func (h *Handle) Get(ctx context.Context) (Provider, error) {
	h.once.Do(func() {
		if h.factory == nil {
			h.err = &UnavailableError{Provider: h.name, Message: "no provider factory configured", Permanent: true}
			return
		}
		// A canceled first caller must not poison the handle for everyone else.
		p, err := h.factory(context.WithoutCancel(ctx))
		if err != nil {
			var ue *UnavailableError
			if !errors.As(err, &ue) {
				err = &UnavailableError{Provider: h.name, Message: "initialization failed", Cause: err}
			}
			h.err = err
			return
		}
		h.provider = p
		h.ready.Store(true)
	})
	return h.provider, h.err
}

// Initialized reports whether the factory has run successfully
func (h *Handle) Initialized() bool {
	return h.ready.Load()
}

// Embed initializes the provider if needed and delegates to it
func (h *Handle) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	p, err := h.Get(ctx)
	if err != nil {
		return nil, err
	}
	return p.Embed(ctx, texts)
}

// Dimension returns the provider dimension, or 0 before initialization
func (h *Handle) Dimension() int {
	if !h.ready.Load() {
		return 0
	}
	return h.provider.Dimension()
}

// ModelName returns the provider model, or the handle name before initialization
func (h *Handle) ModelName() string {
	if !h.ready.Load() {
		return h.name
	}
	return h.provider.ModelName()
}
