package sim

// FrameSink receives one snapshot per tick. Every slice in a snapshot is a
// fresh copy, so sinks may retain it on another goroutine.
type FrameSink interface {
	Consume(Snapshot)
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(Snapshot)

func (f FrameSinkFunc) Consume(s Snapshot) {
	if f != nil {
		f(s)
	}
}

const (
	OutcomeWin  = "win"
	OutcomeDraw = "draw"

	ReasonKnockout = "knockout"
	ReasonTimeout  = "timeout"
)

// MatchResult is the terminal state of a run.
type MatchResult struct {
	Outcome string  `json:"outcome"`
	Winner  string  `json:"winner,omitempty"`
	Reason  string  `json:"reason"`
	Tick    uint64  `json:"tick"`
	T       float64 `json:"t"`
}

const (
	ImpactWall  = "wall"
	ImpactHit   = "hit"
	ImpactHeavy = "heavy"
	ImpactBomb  = "bomb"
)

// ImpactView marks a contact the renderer may dress with particles or a
// shockwave. Purely presentational; the simulation never reads these back.
type ImpactView struct {
	Kind   string  `json:"kind"`
	Pos    Vec2    `json:"pos"`
	Normal Vec2    `json:"normal"`
	Speed  float64 `json:"speed"`
}

type PowerUpView struct {
	Kind      PowerUpKind `json:"kind"`
	Remaining uint64      `json:"remaining"`
}

type OrbView struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Logo           string        `json:"logo,omitempty"`
	Hue            float64       `json:"hue"`
	Pos            Vec2          `json:"pos"`
	Vel            Vec2          `json:"vel"`
	Radius         float64       `json:"radius"`
	HP             int           `json:"hp"`
	MaxHP          int           `json:"maxHp"`
	PowerUps       []PowerUpView `json:"powerUps,omitempty"`
	LastDamageTick uint64        `json:"lastDamageTick,omitempty"`
	Defeated       bool          `json:"defeated,omitempty"`
}

type PickupView struct {
	ID        string     `json:"id"`
	Kind      PickupKind `json:"kind"`
	Pos       Vec2       `json:"pos"`
	State     string     `json:"state"`
	Remaining uint64     `json:"remaining,omitempty"`
}

type OverlayView struct {
	Text      string `json:"text"`
	Remaining uint64 `json:"remaining"`
}

// Snapshot is the copy-out view of one completed tick.
type Snapshot struct {
	Tick     uint64        `json:"tick"`
	T        float64       `json:"t"`
	Orbs     []OrbView     `json:"orbs"`
	Pickups  []PickupView  `json:"pickups,omitempty"`
	Impacts  []ImpactView  `json:"impacts,omitempty"`
	Overlays []OverlayView `json:"overlays,omitempty"`
	SlowMo   float64       `json:"slowMo,omitempty"`
	Shake    float64       `json:"shake,omitempty"`
	Result   *MatchResult  `json:"result,omitempty"`
}
