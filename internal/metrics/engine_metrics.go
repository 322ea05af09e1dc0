// Package metrics instruments the sampling engine itself. The sampled metric
// values are never exported here.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	sensorerrors "github.com/rcourtman/pulse-sysmon/internal/errors"
	"github.com/rcourtman/pulse-sysmon/internal/monitors"
)

var (
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_sysmon_polls_total",
			Help: "Total number of completed polls by metric family",
		},
		[]string{"family"},
	)

	PollErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_sysmon_poll_errors_total",
			Help: "Total number of failed polls by metric family and error type",
		},
		[]string{"family", "type"}, // io, parse, other
	)

	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_sysmon_events_dropped_total",
			Help: "Total number of events dropped because the consumer was not ready",
		},
		[]string{"family"},
	)

	PollDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_sysmon_poll_duration_seconds",
			Help:    "Time spent reading and converting one snapshot",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05}, // 50us to 50ms
		},
		[]string{"family"},
	)

	SchedulerGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_sysmon_scheduler_generation",
			Help: "Generation number of the running scheduler",
		},
	)

	SchedulerRestartsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_sysmon_scheduler_restarts_total",
			Help: "Total number of scheduler generations started after the first",
		},
	)

	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pulse_sysmon_build_info",
			Help: "Build information for the running binary",
		},
		[]string{"version", "commit"},
	)
)

// RecordPoll records a completed poll, successful or not.
func RecordPoll(family monitors.Family, duration time.Duration, err error) {
	PollsTotal.WithLabelValues(string(family)).Inc()
	PollDurationSeconds.WithLabelValues(string(family)).Observe(duration.Seconds())
	if err != nil {
		PollErrorsTotal.WithLabelValues(string(family), errorLabel(err)).Inc()
	}
}

// RecordDropped records an event that could not be delivered.
func RecordDropped(family monitors.Family) {
	EventsDroppedTotal.WithLabelValues(string(family)).Inc()
}

// RecordGeneration records the start of a scheduler generation.
func RecordGeneration(generation uint64) {
	SchedulerGeneration.Set(float64(generation))
	if generation > 1 {
		SchedulerRestartsTotal.Inc()
	}
}

// RecordBuildInfo publishes the binary version.
func RecordBuildInfo(version, commit string) {
	BuildInfo.WithLabelValues(version, commit).Set(1)
}

func errorLabel(err error) string {
	if t := sensorerrors.TypeOf(err); t != "" {
		return string(t)
	}
	return "other"
}
