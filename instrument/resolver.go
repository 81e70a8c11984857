// Package instrument resolves and caches broker trading constraints.
// Specs change rarely (broker maintenance, weekend reconfiguration), so
// one fetch per symbol per run is enough; the cache must be dropped when
// the terminal connection is re-established.
package instrument

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/avolkov/termlink/market"
)

var log = logrus.WithField("pkg", "instrument")

// Source is the single terminal call the resolver depends on.
type Source interface {
	InstrumentSpec(ctx context.Context, symbol string) (market.InstrumentSpec, error)
}

// Resolver caches validated instrument specs per symbol. Safe for
// concurrent use; failures are never cached.
type Resolver struct {
	src Source

	mu    sync.Mutex
	specs map[string]market.InstrumentSpec
}

func NewResolver(src Source) *Resolver {
	return &Resolver{
		src:   src,
		specs: make(map[string]market.InstrumentSpec),
	}
}

// Resolve returns the cached spec for symbol, fetching and validating it
// on first use. A spec that fails validation is rejected with
// market.ErrInvalidSpec and not cached.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (market.InstrumentSpec, error) {
	r.mu.Lock()
	if spec, ok := r.specs[symbol]; ok {
		r.mu.Unlock()
		return spec, nil
	}
	r.mu.Unlock()

	spec, err := r.src.InstrumentSpec(ctx, symbol)
	if err != nil {
		return market.InstrumentSpec{}, fmt.Errorf("resolve %s: %w", symbol, err)
	}
	if err := spec.Validate(); err != nil {
		return market.InstrumentSpec{}, fmt.Errorf("resolve %s: %w", symbol, err)
	}

	r.mu.Lock()
	r.specs[symbol] = spec
	r.mu.Unlock()

	log.WithFields(logrus.Fields{
		"symbol":      symbol,
		"tick_size":   spec.TickSize,
		"volume_step": spec.VolumeStep,
		"stop_level":  spec.StopLevelPoints,
	}).Debug("instrument spec cached")

	return spec, nil
}

// Invalidate drops one symbol from the cache.
func (r *Resolver) Invalidate(symbol string) {
	r.mu.Lock()
	delete(r.specs, symbol)
	r.mu.Unlock()
}

// Reset drops the whole cache. Call after a reconnect: the terminal may
// have been repointed at a different account or server.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.specs = make(map[string]market.InstrumentSpec)
	r.mu.Unlock()
}
