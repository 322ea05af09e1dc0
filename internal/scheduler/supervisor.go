package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/rcourtman/pulse-sysmon/internal/config"
	"github.com/rcourtman/pulse-sysmon/internal/metrics"
)

// Supervisor owns the running scheduler generation. Every Apply tears the
// running generation down completely and starts a new one, so all monitor
// history is discarded on any configuration change.
type Supervisor struct {
	ctx     context.Context
	out     chan<- Event
	sources SourceFactory
	logger  zerolog.Logger

	generation atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor creates a supervisor publishing to out. Generations are
// derived from ctx, so cancelling it stops the running generation as well.
func NewSupervisor(ctx context.Context, out chan<- Event, sources SourceFactory, logger zerolog.Logger) *Supervisor {
	if sources == nil {
		sources = ProcSources
	}
	return &Supervisor{
		ctx:     ctx,
		out:     out,
		sources: sources,
		logger:  logger.With().Str("component", "supervisor").Logger(),
	}
}

// Apply stops the running generation, waits for it to exit, and starts a new
// generation from cfg. It returns the new generation number.
func (s *Supervisor) Apply(cfg config.Config) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	gen := s.generation.Add(1)
	sched := New(cfg, s.sources(cfg), gen, s.logger)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Run(ctx, s.out)
	}()
	s.cancel = cancel
	s.done = done

	metrics.RecordGeneration(gen)
	s.logger.Info().
		Uint64("generation", gen).
		Interface("families", sched.Families()).
		Msg("Started scheduler generation")
	return gen
}

// Generation returns the number of the most recently started generation.
// Events carrying a lower number are stale.
func (s *Supervisor) Generation() uint64 {
	return s.generation.Load()
}

// Stop cancels the running generation and waits for it to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// Run applies initial, then every configuration received from updates, until
// ctx is cancelled or updates is closed. The running generation is stopped
// before Run returns.
func (s *Supervisor) Run(ctx context.Context, initial config.Config, updates <-chan config.Config) error {
	defer s.Stop()

	s.Apply(initial)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-updates:
			if !ok {
				return nil
			}
			s.Apply(cfg)
		}
	}
}
