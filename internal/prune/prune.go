// Package prune implements the background expiry worker of spec.md §4.7:
// once per trading-day boundary it collects every resting GoodForDay order
// and cancels each by id through the normal cancel path. Lifecycle is
// managed with gopkg.in/tomb.v2, the same pattern the teacher repo uses for
// its connection-handling worker pool (internal/worker.go).
package prune

import (
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/fenrir-labs/lob/internal/order"
)

// Collector gathers the ids to prune and cancels them one at a time. The
// engine façade implements this by taking its mutex once per call.
type Collector interface {
	CollectGoodForDay() []order.ID
	CancelOne(order.ID)
}

// Pruner is the single background worker. It is optional: the engine is
// constructed with a boolean controlling whether Start is ever called
// (spec.md §6); tests construct the engine with pruning disabled and
// invoke cancellation manually instead.
type Pruner struct {
	hour int
	src  Collector
	t    tomb.Tomb

	// now is overridable in tests that want a near-future boundary instead
	// of waiting on the real wall clock; New sets it to time.Now.
	now func() time.Time
}

// New constructs a pruner for the given daily expiry hour (0-23, local
// time) that will cancel through src. It does not start the worker; call
// Start.
func New(hour int, src Collector) *Pruner {
	return &Pruner{hour: hour, src: src, now: time.Now}
}

// Start launches the background goroutine under p's tomb.
func (p *Pruner) Start() {
	p.t.Go(p.loop)
}

// Stop signals shutdown and blocks until the worker has exited, skipping
// any pending prune (spec.md §4.7 "Shutting down").
func (p *Pruner) Stop() error {
	p.t.Kill(nil)
	return p.t.Wait()
}

// nextBoundary returns the next local wall-clock instant at p.hour:00:00,
// today if it hasn't passed yet, otherwise tomorrow.
func (p *Pruner) nextBoundary() time.Time {
	now := p.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), p.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, p.hour, 0, 0, 0, now.Location())
	}
	return next
}

func (p *Pruner) loop() error {
	for {
		next := p.nextBoundary()
		timer := time.NewTimer(time.Until(next))

		select {
		case <-p.t.Dying():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		ids := p.src.CollectGoodForDay()
		log.Info().Int("count", len(ids)).Msg("pruning expired good-for-day orders")
		for _, id := range ids {
			select {
			case <-p.t.Dying():
				return nil
			default:
			}
			p.src.CancelOne(id)
		}
	}
}
