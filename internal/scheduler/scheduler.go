// Package scheduler drives the monitors on independent timers and restarts
// the whole group whenever the configuration changes.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcourtman/pulse-sysmon/internal/config"
	"github.com/rcourtman/pulse-sysmon/internal/metrics"
	"github.com/rcourtman/pulse-sysmon/internal/monitors"
)

// Event is published once per completed poll. When Err is set, Result holds
// the zero value of the family's result.
type Event struct {
	Generation uint64
	Family     monitors.Family
	Time       time.Time
	Result     monitors.Result
	Err        error
}

type task struct {
	family   monitors.Family
	interval time.Duration
	poll     func() (monitors.Result, error)
}

// Scheduler is one generation: a fixed set of monitors, each on its own
// ticker, all polled from a single goroutine.
type Scheduler struct {
	generation uint64
	logger     zerolog.Logger
	now        func() time.Time

	// Indexed like monitors.Families; nil for a disabled family.
	tasks [4]*task
}

// New builds the monitors for every enabled family of cfg.
func New(cfg config.Config, sources Sources, generation uint64, logger zerolog.Logger) *Scheduler {
	s := &Scheduler{
		generation: generation,
		logger:     logger.With().Str("component", "scheduler").Uint64("generation", generation).Logger(),
		now:        time.Now,
	}

	for i, family := range monitors.Families {
		pc := cfg.Poll(family)
		if !pc.Enabled {
			continue
		}

		var poll func() (monitors.Result, error)
		switch family {
		case monitors.FamilyCPU:
			poll = bind(monitors.NewCPUMonitor(sources.CPU, pc.MaxSamples).Poll)
		case monitors.FamilyMemory:
			poll = bind(monitors.NewMemoryMonitor(sources.Memory, pc.MaxSamples).Poll)
		case monitors.FamilyNetwork:
			poll = bind(monitors.NewNetworkMonitor(sources.Network, sources.Interfaces, pc.MaxSamples).Poll)
		case monitors.FamilyDisk:
			poll = bind(monitors.NewDiskMonitor(sources.Disk, pc.MaxSamples).Poll)
		}

		interval := pc.Interval
		if interval <= 0 {
			interval = config.MinInterval
		}
		s.tasks[i] = &task{family: family, interval: interval, poll: poll}
	}

	return s
}

func bind[R monitors.Result](poll func() (R, error)) func() (monitors.Result, error) {
	return func() (monitors.Result, error) {
		r, err := poll()
		return r, err
	}
}

// Generation returns the generation number this scheduler publishes under.
func (s *Scheduler) Generation() uint64 {
	return s.generation
}

// Families lists the families this generation polls.
func (s *Scheduler) Families() []monitors.Family {
	var out []monitors.Family
	for _, t := range s.tasks {
		if t != nil {
			out = append(out, t.family)
		}
	}
	return out
}

// Run polls every enabled family once, then again on each tick of that
// family's ticker, until ctx is cancelled. Polls never overlap. Events are
// sent without blocking; an event the consumer is not ready for is dropped.
// Nothing is published once ctx is done.
func (s *Scheduler) Run(ctx context.Context, out chan<- Event) {
	var ticks [4]<-chan time.Time
	for i, t := range s.tasks {
		if t == nil {
			continue
		}
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		ticks[i] = ticker.C
	}

	s.logger.Debug().Interface("families", s.Families()).Msg("Scheduler generation started")
	defer s.logger.Debug().Msg("Scheduler generation stopped")

	for _, t := range s.tasks {
		if t == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		s.pollAndPublish(ctx, t, out)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks[0]:
			s.pollAndPublish(ctx, s.tasks[0], out)
		case <-ticks[1]:
			s.pollAndPublish(ctx, s.tasks[1], out)
		case <-ticks[2]:
			s.pollAndPublish(ctx, s.tasks[2], out)
		case <-ticks[3]:
			s.pollAndPublish(ctx, s.tasks[3], out)
		}
	}
}

func (s *Scheduler) pollAndPublish(ctx context.Context, t *task, out chan<- Event) {
	start := s.now()
	result, err := t.poll()
	metrics.RecordPoll(t.family, s.now().Sub(start), err)

	if err != nil {
		s.logger.Warn().Err(err).Str("family", string(t.family)).Msg("Poll failed")
	}
	if ctx.Err() != nil {
		return
	}

	event := Event{
		Generation: s.generation,
		Family:     t.family,
		Time:       start,
		Result:     result,
		Err:        err,
	}

	select {
	case out <- event:
	default:
		metrics.RecordDropped(t.family)
		s.logger.Debug().Str("family", string(t.family)).Msg("Event dropped, consumer not ready")
	}
}
