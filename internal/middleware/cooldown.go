package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
	"golang.org/x/time/rate"
)

// BypassCooldown lets an actor skip the cooldown.
const BypassCooldown = "chatcmd.cooldown.bypass"

type limiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// Cooldowns keeps one token bucket per actor.
type Cooldowns struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	actors map[string]*limiter
	now    func() time.Time
}

// NewCooldowns allows perSecond commands per actor with the given burst.
// A zero rate disables the cooldown.
func NewCooldowns(perSecond float64, burst int) *Cooldowns {
	return &Cooldowns{
		limit:  rate.Limit(perSecond),
		burst:  burst,
		actors: make(map[string]*limiter),
		now:    time.Now,
	}
}

// Allow takes a token for actor. When none is left it returns how long until
// the next one.
func (c *Cooldowns) Allow(actor string) (bool, time.Duration) {
	if c == nil || c.limit <= 0 {
		return true, 0
	}
	key := strings.ToLower(actor)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.actors[key]
	if !ok {
		l = &limiter{lim: rate.NewLimiter(c.limit, c.burst)}
		c.actors[key] = l
	}
	l.seen = now
	if l.lim.AllowN(now, 1) {
		return true, 0
	}
	missing := 1 - l.lim.TokensAt(now)
	wait := time.Duration(missing / float64(c.limit) * float64(time.Second))
	return false, wait
}

// Prune forgets actors idle for longer than idle and returns how many were
// dropped.
func (c *Cooldowns) Prune(idle time.Duration) int {
	if c == nil {
		return 0
	}
	cutoff := c.now().Add(-idle)

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, l := range c.actors {
		if l.seen.Before(cutoff) {
			delete(c.actors, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked actors.
func (c *Cooldowns) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.actors)
}

// WithCooldown skips the handler and tells the actor to wait when it runs
// commands faster than the cooldown allows.
func WithCooldown(c *Cooldowns) cmd.Middleware {
	return func(h cmd.Handler) cmd.Handler {
		return cmd.Wrap(h, func(ctx context.Context, inv *cmd.Invocation) error {
			if inv.Actor == nil || inv.Actor.HasPermission(BypassCooldown) {
				return h.Invoke(ctx, inv)
			}
			ok, wait := c.Allow(inv.Actor.Name())
			if !ok {
				chat.Send(inv.Actor, "&cYou are sending commands too quickly. Try again in %s.", wait.Round(100*time.Millisecond))
				return nil
			}
			return h.Invoke(ctx, inv)
		})
	}
}
