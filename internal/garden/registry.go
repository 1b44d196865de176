package garden

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	garden   *Garden
	lastUsed time.Time
}

// Registry keeps one Garden per signed-in user. With a positive IdleTTL,
// gardens untouched for longer than it are dropped by Sweep; the next
// request for that user starts from a fresh, unloaded garden.
type Registry struct {
	store  Store
	logger *zap.Logger
	opts   Options
	now    func() time.Time

	mu      sync.Mutex
	gardens map[string]*entry
}

func NewRegistry(store Store, logger *zap.Logger, opts Options) *Registry {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		store:   store,
		logger:  logger,
		opts:    opts,
		now:     now,
		gardens: make(map[string]*entry),
	}
}

// For returns the garden of userID, creating it on first use.
func (r *Registry) For(userID string) *Garden {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.gardens[userID]
	if !ok {
		e = &entry{garden: New(r.store, r.logger.With(zap.String("garden", userID)), r.opts)}
		r.gardens[userID] = e
	}
	e.lastUsed = r.now()
	return e.garden
}

// Len reports how many gardens are cached.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gardens)
}

// Sweep drops gardens idle for longer than IdleTTL and returns how many
// were dropped.
func (r *Registry) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.opts.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for userID, e := range r.gardens {
		if e.lastUsed.Before(cutoff) {
			delete(r.gardens, userID)
			evicted++
		}
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.opts.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle gardens", zap.Int("count", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
