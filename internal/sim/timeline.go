package sim

import (
	"fmt"
	"sort"
)

type EventKind string

const (
	EventPickupSpawn EventKind = "pickup_spawn"
	EventSlowMo      EventKind = "slowmo"
	EventTextOverlay EventKind = "text_overlay"
	EventShake       EventKind = "shake"
)

// Event is a validated, tick-resolved timeline entry.
type Event struct {
	Tick      uint64
	Seq       int
	Kind      EventKind
	Pickup    PickupKind
	PickupIdx int
	Pos       Vec2
	HasPos    bool
	Factor    float64
	DurTicks  uint64
	Text      string
	Intensity float64
}

// Timeline yields scripted events in due order, each exactly once. The
// cursor only moves forward; querying an older tick is a bug in the caller
// and reported as such.
type Timeline struct {
	events   []Event
	cursor   int
	lastTick uint64
	queried  bool
}

// buildTimeline validates every spec up front so a broken script fails
// before the first tick, then sorts by due tick keeping script order for
// ties.
func buildTimeline(specs []EventSpec, fps int) (*Timeline, error) {
	events := make([]Event, 0, len(specs))
	for i, spec := range specs {
		if spec.T < 0 {
			return nil, fmt.Errorf("%w: event %d has negative time %v", ErrMalformedEvent, i, spec.T)
		}
		evt := Event{
			Tick:      tickAt(spec.T, fps),
			Seq:       i,
			PickupIdx: -1,
			Pos:       spec.Pos,
			HasPos:    spec.HasPos,
		}
		switch EventKind(spec.Kind) {
		case EventPickupSpawn:
			kind := PickupKind(spec.Pickup)
			if !kind.valid() {
				return nil, fmt.Errorf("%w: event %d pickup kind %q", ErrMalformedEvent, i, spec.Pickup)
			}
			evt.Kind = EventPickupSpawn
			evt.Pickup = kind
		case EventSlowMo:
			if spec.Factor <= 0 || spec.Factor > 1 {
				return nil, fmt.Errorf("%w: event %d slowmo factor %v", ErrMalformedEvent, i, spec.Factor)
			}
			if spec.Duration <= 0 {
				return nil, fmt.Errorf("%w: event %d slowmo duration %v", ErrMalformedEvent, i, spec.Duration)
			}
			evt.Kind = EventSlowMo
			evt.Factor = spec.Factor
			evt.DurTicks = ticksFor(spec.Duration, fps)
		case EventTextOverlay:
			if spec.Text == "" {
				return nil, fmt.Errorf("%w: event %d text overlay without text", ErrMalformedEvent, i)
			}
			evt.Kind = EventTextOverlay
			evt.Text = spec.Text
			dur := spec.Duration
			if dur <= 0 {
				dur = 2
			}
			evt.DurTicks = ticksFor(dur, fps)
		case EventShake:
			if spec.Intensity <= 0 {
				return nil, fmt.Errorf("%w: event %d shake intensity %v", ErrMalformedEvent, i, spec.Intensity)
			}
			evt.Kind = EventShake
			evt.Intensity = spec.Intensity
		default:
			return nil, fmt.Errorf("%w: event %d has unknown kind %q", ErrMalformedEvent, i, spec.Kind)
		}
		events = append(events, evt)
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].Tick < events[b].Tick })
	return &Timeline{events: events}, nil
}

// PopDue returns the events due at or before tick, each exactly once. Ticks
// must be non-decreasing across calls.
func (t *Timeline) PopDue(tick uint64) ([]Event, error) {
	if t == nil {
		return nil, nil
	}
	if t.queried && tick < t.lastTick {
		return nil, fmt.Errorf("%w: tick %d after tick %d", ErrOutOfOrderQuery, tick, t.lastTick)
	}
	t.queried = true
	t.lastTick = tick
	start := t.cursor
	for t.cursor < len(t.events) && t.events[t.cursor].Tick <= tick {
		t.cursor++
	}
	if t.cursor == start {
		return nil, nil
	}
	return t.events[start:t.cursor], nil
}

// Remaining reports how many events have not been delivered yet.
func (t *Timeline) Remaining() int {
	if t == nil {
		return 0
	}
	return len(t.events) - t.cursor
}
