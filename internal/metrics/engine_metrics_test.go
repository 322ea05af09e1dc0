package metrics

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sensorerrors "github.com/rcourtman/pulse-sysmon/internal/errors"
	"github.com/rcourtman/pulse-sysmon/internal/monitors"
)

func histogramCount(t *testing.T, family monitors.Family) uint64 {
	t.Helper()
	observer, err := PollDurationSeconds.GetMetricWithLabelValues(string(family))
	require.NoError(t, err)

	var m dto.Metric
	require.NoError(t, observer.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestRecordPoll(t *testing.T) {
	polls := PollsTotal.WithLabelValues("disk")
	ioErrors := PollErrorsTotal.WithLabelValues("disk", "io")
	parseErrors := PollErrorsTotal.WithLabelValues("disk", "parse")
	otherErrors := PollErrorsTotal.WithLabelValues("disk", "other")

	beforePolls := testutil.ToFloat64(polls)
	beforeIO := testutil.ToFloat64(ioErrors)
	beforeParse := testutil.ToFloat64(parseErrors)
	beforeOther := testutil.ToFloat64(otherErrors)
	beforeObservations := histogramCount(t, monitors.FamilyDisk)

	RecordPoll(monitors.FamilyDisk, time.Millisecond, nil)
	RecordPoll(monitors.FamilyDisk, time.Millisecond, sensorerrors.WrapIOError("read", "/proc/diskstats", os.ErrNotExist))
	RecordPoll(monitors.FamilyDisk, time.Millisecond, sensorerrors.NewParseError("/proc/diskstats", "8 0 sda", "short"))
	RecordPoll(monitors.FamilyDisk, time.Millisecond, errors.New("unexpected"))

	assert.Equal(t, beforePolls+4, testutil.ToFloat64(polls))
	assert.Equal(t, beforeIO+1, testutil.ToFloat64(ioErrors))
	assert.Equal(t, beforeParse+1, testutil.ToFloat64(parseErrors))
	assert.Equal(t, beforeOther+1, testutil.ToFloat64(otherErrors))
	assert.Equal(t, beforeObservations+4, histogramCount(t, monitors.FamilyDisk))
}

func TestRecordDropped(t *testing.T) {
	dropped := EventsDroppedTotal.WithLabelValues("network")
	before := testutil.ToFloat64(dropped)

	RecordDropped(monitors.FamilyNetwork)
	RecordDropped(monitors.FamilyNetwork)

	assert.Equal(t, before+2, testutil.ToFloat64(dropped))
}

func TestRecordGeneration(t *testing.T) {
	beforeRestarts := testutil.ToFloat64(SchedulerRestartsTotal)

	RecordGeneration(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(SchedulerGeneration))
	assert.Equal(t, beforeRestarts, testutil.ToFloat64(SchedulerRestartsTotal), "the first generation is not a restart")

	RecordGeneration(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(SchedulerGeneration))
	assert.Equal(t, beforeRestarts+1, testutil.ToFloat64(SchedulerRestartsTotal))
}

func TestRecordBuildInfo(t *testing.T) {
	RecordBuildInfo("1.2.3", "abc123")
	assert.Equal(t, 1.0, testutil.ToFloat64(BuildInfo.WithLabelValues("1.2.3", "abc123")))
}
