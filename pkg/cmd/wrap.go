package cmd

import "context"

// Unwrappable is implemented by wrapped handlers so callers can reach the
// underlying StaticHandler or BoundHandler.
type Unwrappable interface {
	Handler
	Unwrap() Handler
}

// Wrapped wraps a handler with a custom invoke function. Used by middleware.
type Wrapped struct {
	Inner   Handler
	RunFunc func(ctx context.Context, inv *Invocation) error
}

// Invoke runs the wrapper's RunFunc, or the inner handler when there is none.
func (w *Wrapped) Invoke(ctx context.Context, inv *Invocation) error {
	if w.RunFunc != nil {
		return w.RunFunc(ctx, inv)
	}
	return w.Inner.Invoke(ctx, inv)
}

// Unwrap returns the inner handler.
func (w *Wrapped) Unwrap() Handler { return w.Inner }

// Wrap returns a handler that runs fn instead of h.Invoke. fn decides whether
// and when to call h.
func Wrap(h Handler, fn func(ctx context.Context, inv *Invocation) error) Handler {
	return &Wrapped{Inner: h, RunFunc: fn}
}

// Root unwraps h until the underlying handler is not Unwrappable.
func Root(h Handler) Handler {
	for {
		u, ok := h.(Unwrappable)
		if !ok {
			return h
		}
		h = u.Unwrap()
	}
}
