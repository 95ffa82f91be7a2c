package export

import "math"

// timebase maps simulation ticks onto presentation time. Slow-mo windows
// stretch presentation by repeating frames; the simulation cadence itself
// never changes, so cue timestamps must be remapped through the same table
// the frame repeater builds.
type timebase struct {
	dt      float64
	startAt []float64 // presentation second each tick's frame first appears
	total   float64
}

func newTimebase(dt float64) *timebase {
	return &timebase{dt: dt}
}

// repeatsFor converts a slow-mo factor into a frame repeat count. Factors
// outside (0,1) play at normal speed.
func repeatsFor(factor float64) int {
	if factor <= 0 || factor >= 1 {
		return 1
	}
	n := int(math.Round(1 / factor))
	if n < 1 {
		return 1
	}
	return n
}

// advance records one simulated tick shown with the given slow-mo factor
// and returns how many times its frame is written.
func (tb *timebase) advance(tick uint64, factor float64) int {
	// Indexing is tick-aligned; pad any gap so lookups stay correct.
	for uint64(len(tb.startAt)) < tick {
		tb.startAt = append(tb.startAt, tb.total)
	}
	repeats := repeatsFor(factor)
	tb.startAt = append(tb.startAt, tb.total)
	tb.total += tb.dt * float64(repeats)
	return repeats
}

// timeOf returns the presentation time of a tick. Ticks past the recorded
// run extrapolate at normal speed so straggling cues still land in order.
func (tb *timebase) timeOf(tick uint64) float64 {
	if int(tick) < len(tb.startAt) {
		return tb.startAt[tick]
	}
	over := float64(tick) - float64(len(tb.startAt))
	return tb.total + over*tb.dt
}

// duration is the total presentation length in seconds.
func (tb *timebase) duration() float64 {
	return tb.total
}
