package sim

// Cue identifiers the simulation emits. The audio layer decides what each
// one sounds like; the simulation only records that it happened and when.
const (
	CueBounce1      = "bounce.1"
	CueBounce2      = "bounce.2"
	CueBounce3      = "bounce.3"
	CueHitNormal    = "hit.normal"
	CueHitHeavy     = "hit.heavy"
	CuePickupHeart  = "pickup.heart"
	CuePickupSaw    = "pickup.saw"
	CuePickupShield = "pickup.shield"
	CuePickupBomb   = "pickup.bomb"
	CuePickupMiss   = "pickup.miss"
	CueVictory      = "match.victory"
)

// CueEvent records one sound trigger. T is the simulated time of the tick
// that emitted it, independent of any playback pacing.
type CueEvent struct {
	Cue  string  `json:"cue"`
	Tick uint64  `json:"tick"`
	T    float64 `json:"t"`
}

// AudioBus is the append-only cue log that decouples the simulation from
// mixing. Duplicate cues on the same tick are kept; the mixer decides how
// they stack.
type AudioBus struct {
	events []CueEvent
}

func (b *AudioBus) Append(cue string, tick uint64, t float64) {
	if b == nil || cue == "" {
		return
	}
	b.events = append(b.events, CueEvent{Cue: cue, Tick: tick, T: t})
}

// Drain returns everything appended since the last drain and resets the
// log. A second drain with nothing new returns nil.
func (b *AudioBus) Drain() []CueEvent {
	if b == nil || len(b.events) == 0 {
		return nil
	}
	drained := b.events
	b.events = nil
	return drained
}

// Pending copies the undrained log for inspection without consuming it.
func (b *AudioBus) Pending() []CueEvent {
	if b == nil || len(b.events) == 0 {
		return nil
	}
	out := make([]CueEvent, len(b.events))
	copy(out, b.events)
	return out
}

func (b *AudioBus) Len() int {
	if b == nil {
		return 0
	}
	return len(b.events)
}
