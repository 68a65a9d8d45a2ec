package cmd

// Middleware wraps a handler (logging, cooldowns, metrics). Middleware runs
// only after lookup, permission and grammar checks have passed.
type Middleware func(Handler) Handler

// Apply applies middlewares in order; the first in the list is the outermost.
func Apply(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
