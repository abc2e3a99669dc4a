// Package sim runs the per-session snapshot schedulers.
//
// One scheduler goroutine exists per live session. On every tick it rebuilds
// the session's full entity list from the immutable catalog, the session's
// trajectory cursors and its disposition overrides, then publishes the list
// through the session store in a single call. Broadcast endpoints never see a
// partially-built snapshot.
package sim

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/opsdeck/tacscope/internal/catalog"
	"github.com/opsdeck/tacscope/internal/observability"
	"github.com/opsdeck/tacscope/internal/session"
	"github.com/opsdeck/tacscope/pkg/marker"
)

// DefaultTick is the reference cadence: entity state advances ten times a
// second, matching the trajectory sampling interval.
const DefaultTick = 100 * time.Millisecond

// Registry is the read-only catalog surface a scheduler consumes.
// *catalog.Catalog satisfies it.
type Registry interface {
	Statics() []marker.Entity
	Movers() []catalog.Mover
}

// Scheduler advances one session's simulation on a fixed period.
type Scheduler struct {
	store    *session.Store
	cat      Registry
	code     string
	interval time.Duration
	metrics  *observability.Collector

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
}

// New returns a scheduler for the given session code. interval <= 0 falls
// back to DefaultTick. metrics may be nil.
func New(store *session.Store, cat Registry, code string, interval time.Duration, metrics *observability.Collector) *Scheduler {
	if interval <= 0 {
		interval = DefaultTick
	}
	return &Scheduler{
		store:    store,
		cat:      cat,
		code:     code,
		interval: interval,
		metrics:  metrics,
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop. The loop exits on Stop, on session teardown,
// or on the first tick failure (fail-fast: a failed tick never republishes,
// so subscribers keep seeing the last good snapshot).
func (s *Scheduler) Start() {
	go s.run()
}

// Stop halts the tick loop. Idempotent: a second Stop is a no-op. The current
// tick, if any, finishes; the timer is never re-armed.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// Done is closed once the tick loop has fully exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopped:
			return
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				if err != errSessionGone {
					s.metrics.TickFailed()
					log.Printf("scheduler %s: tick failed, stopping: %v", s.code, err)
				}
				s.Stop()
				return
			}
			s.metrics.TickCompleted()
		}
	}
}

var errSessionGone = fmt.Errorf("session destroyed")

// Tick advances every mover's cursor by one, rebuilds the full entity list
// and publishes it. Exported so tests can drive the simulation without
// running the timer.
//
// The snapshot is all-or-nothing: the list is assembled completely in a
// local slice before a single SetSnapshot call, and any panic during
// assembly is recovered and surfaced as an error without publishing.
func (s *Scheduler) Tick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panic: %v", r)
		}
	}()

	sess, ok := s.store.Get(s.code)
	if !ok {
		return errSessionGone
	}

	statics := s.cat.Statics()
	movers := s.cat.Movers()
	entities := make([]marker.Entity, 0, len(statics)+len(movers))

	// Statics are emitted as-is with the session's resolved disposition
	for _, e := range statics {
		e.Data.Disposition = sess.Disposition(e.ID, e.Data.Disposition)
		entities = append(entities, e)
	}

	// Movers follow their trajectory cursor. An idle slot means the mover
	// has not launched yet: it is omitted entirely rather than shown at a
	// stale position. The cursor advances regardless.
	for _, m := range movers {
		cursor := sess.NextCursor(m.ID, m.Trajectory.Len())
		sample := m.Trajectory.At(cursor)
		if sample == nil {
			continue
		}
		e := marker.Entity{
			ID:          m.ID,
			Coordinates: *sample,
			Bearing:     m.Trajectory.Bearing,
			Data:        m.Data,
		}
		e.Data.Disposition = sess.Disposition(m.ID, m.Data.Disposition)
		entities = append(entities, e)
	}

	s.store.SetSnapshot(s.code, entities)
	return nil
}
