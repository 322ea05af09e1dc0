package monitors

import "github.com/rcourtman/pulse-sysmon/internal/buffer"

type counterDelta struct {
	a, b uint64
}

// counterMonitor holds the delta and averaging state shared by the network
// and disk monitors. Counters a and b are the two directions of the family.
type counterMonitor struct {
	prevA, prevB uint64
	primed       bool
	window       *buffer.Window[counterDelta]
}

func newCounterMonitor(maxSamples int) counterMonitor {
	return counterMonitor{window: buffer.New[counterDelta](maxSamples)}
}

// observe records the current aggregate totals and returns the per-direction
// truncating means of the window. The first observation only establishes the
// baseline and contributes a zero delta.
func (c *counterMonitor) observe(a, b uint64) (uint64, uint64) {
	if !c.primed {
		c.prevA, c.prevB = a, b
		c.primed = true
	}

	c.window.Push(counterDelta{
		a: satSub(a, c.prevA),
		b: satSub(b, c.prevB),
	})
	c.prevA, c.prevB = a, b

	var sumA, sumB uint64
	c.window.Each(func(d counterDelta) {
		sumA += d.a
		sumB += d.b
	})
	n := uint64(c.window.Len())
	return sumA / n, sumB / n
}
