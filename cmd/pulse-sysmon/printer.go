package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/rcourtman/pulse-sysmon/internal/monitors"
	"github.com/rcourtman/pulse-sysmon/internal/scheduler"
)

type eventPrinter struct {
	out  io.Writer
	json bool
}

func newEventPrinter(out io.Writer, format string) (*eventPrinter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return &eventPrinter{out: out}, nil
	case "json":
		return &eventPrinter{out: out, json: true}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// Run prints events until ctx is done. Events from a generation older than
// current() are stale and skipped.
func (p *eventPrinter) Run(ctx context.Context, events <-chan scheduler.Event, current func() uint64) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if ev.Generation < current() {
				continue
			}
			if err := p.Print(ev); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
		}
	}
}

type jsonReading struct {
	Direction monitors.Direction `json:"direction"`
	Value     *float64           `json:"value"` // null when not finite
}

type jsonEvent struct {
	Time       time.Time       `json:"time"`
	Generation uint64          `json:"generation"`
	Family     monitors.Family `json:"family"`
	Readings   []jsonReading   `json:"readings"`
	Error      string          `json:"error,omitempty"`
}

// Print writes a single event.
func (p *eventPrinter) Print(ev scheduler.Event) error {
	if p.json {
		return p.printJSON(ev)
	}
	_, err := fmt.Fprintln(p.out, formatText(ev))
	return err
}

func (p *eventPrinter) printJSON(ev scheduler.Event) error {
	view := jsonEvent{
		Time:       ev.Time.UTC(),
		Generation: ev.Generation,
		Family:     ev.Family,
		Readings:   []jsonReading{},
	}
	if ev.Err != nil {
		view.Error = ev.Err.Error()
	}
	if ev.Result != nil {
		for _, r := range ev.Result.Readings() {
			reading := jsonReading{Direction: r.Direction}
			if !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0) {
				v := r.Value
				reading.Value = &v
			}
			view.Readings = append(view.Readings, reading)
		}
	}
	return json.NewEncoder(p.out).Encode(view)
}

func formatText(ev scheduler.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s gen=%d %-7s", ev.Time.Format(time.RFC3339), ev.Generation, ev.Family)

	if ev.Err != nil {
		fmt.Fprintf(&b, " error=%q", ev.Err.Error())
		return b.String()
	}
	if ev.Result == nil {
		return b.String()
	}

	for _, r := range ev.Result.Readings() {
		switch ev.Family {
		case monitors.FamilyCPU:
			fmt.Fprintf(&b, " %s=%.2f%%", r.Direction, r.Value)
		case monitors.FamilyMemory:
			fmt.Fprintf(&b, " %s=%s", r.Direction, formatKiB(r.Value))
		case monitors.FamilyNetwork:
			fmt.Fprintf(&b, " %s=%s", r.Direction, formatBytes(r.Value))
		default:
			fmt.Fprintf(&b, " %s=%.0f", r.Direction, r.Value)
		}
	}
	return b.String()
}

var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}

func formatBytes(v float64) string {
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%.0f%s", v, byteUnits[unit])
	}
	return fmt.Sprintf("%.1f%s", v, byteUnits[unit])
}

func formatKiB(v float64) string {
	return formatBytes(v * 1024)
}
