package sim

import "fmt"

type PickupKind string

const (
	PickupHeart  PickupKind = "heart"
	PickupSaw    PickupKind = "saw"
	PickupShield PickupKind = "shield"
	PickupBomb   PickupKind = "bomb"
)

func (k PickupKind) valid() bool {
	switch k {
	case PickupHeart, PickupSaw, PickupShield, PickupBomb:
		return true
	}
	return false
}

type PickupState uint8

const (
	PickupPending PickupState = iota
	PickupActive
	PickupConsumed
	PickupExpired
)

func (s PickupState) String() string {
	switch s {
	case PickupPending:
		return "pending"
	case PickupActive:
		return "active"
	case PickupConsumed:
		return "consumed"
	case PickupExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Orb is one of the two combatants. Orbs are never removed from the world;
// a defeated orb keeps its body and coasts until the run ends.
type Orb struct {
	ID     string
	Name   string
	Logo   string
	Hue    float64
	Radius float64
	MaxHP  int
	HP     int

	Body           int
	PowerUps       []PowerUpInstance
	LastDamageTick uint64
	Defeated       bool
}

// damage removes amount hit points, clamping at zero, and returns the HP
// actually lost. Defeated orbs absorb nothing further.
func (o *Orb) damage(amount int, tick uint64) int {
	if o == nil || amount <= 0 || o.Defeated {
		return 0
	}
	before := o.HP
	o.HP = max(before-amount, 0)
	o.LastDamageTick = tick
	if o.HP == 0 {
		o.Defeated = true
	}
	return before - o.HP
}

// heal restores amount hit points, clamping at MaxHP, and returns the HP
// actually gained.
func (o *Orb) heal(amount int) int {
	if o == nil || amount <= 0 || o.Defeated {
		return 0
	}
	before := o.HP
	o.HP = min(before+amount, o.MaxHP)
	return o.HP - before
}

// Pickup is a scripted collectible. The state machine only moves forward:
// pending, active, then consumed or expired. Terminal states absorb every
// later transition.
type Pickup struct {
	ID          string
	Kind        PickupKind
	SpawnTick   uint64
	Pos         Vec2
	HasPos      bool
	State       PickupState
	ExpiresTick uint64
	Body        int
}

func (p *Pickup) activate(pos Vec2, body int, expires uint64) bool {
	if p == nil || p.State != PickupPending {
		return false
	}
	p.Pos = pos
	p.Body = body
	p.ExpiresTick = expires
	p.State = PickupActive
	return true
}

func (p *Pickup) consume() bool {
	if p == nil || p.State != PickupActive {
		return false
	}
	p.State = PickupConsumed
	return true
}

func (p *Pickup) expire() bool {
	if p == nil || p.State != PickupActive {
		return false
	}
	p.State = PickupExpired
	return true
}

type roster struct {
	orbs    []*Orb
	pickups []*Pickup
	byID    map[string]*Orb
}

func newRoster(configs []OrbConfig) (*roster, error) {
	if len(configs) != 2 {
		return nil, fmt.Errorf("%w: want exactly 2 orbs, got %d", ErrInvalidBodyConfig, len(configs))
	}
	r := &roster{byID: make(map[string]*Orb, len(configs))}
	for _, oc := range configs {
		if oc.Radius <= 0 {
			return nil, fmt.Errorf("%w: orb %q radius %v", ErrInvalidBodyConfig, oc.ID, oc.Radius)
		}
		if oc.MaxHP <= 0 {
			return nil, fmt.Errorf("%w: orb %q max hp %d", ErrInvalidBodyConfig, oc.ID, oc.MaxHP)
		}
		if oc.Mass <= 0 {
			return nil, fmt.Errorf("%w: orb %q mass %v", ErrInvalidBodyConfig, oc.ID, oc.Mass)
		}
		if _, dup := r.byID[oc.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate orb id %q", ErrInvalidBodyConfig, oc.ID)
		}
		orb := &Orb{
			ID:     oc.ID,
			Name:   oc.Name,
			Logo:   oc.Logo,
			Hue:    oc.Hue,
			Radius: oc.Radius,
			MaxHP:  oc.MaxHP,
			HP:     oc.MaxHP,
			Body:   -1,
		}
		r.orbs = append(r.orbs, orb)
		r.byID[orb.ID] = orb
	}
	return r, nil
}

func (r *roster) orbByID(id string) *Orb {
	if r == nil {
		return nil
	}
	return r.byID[id]
}

func (r *roster) defeated() []*Orb {
	var out []*Orb
	for _, orb := range r.orbs {
		if orb.Defeated {
			out = append(out, orb)
		}
	}
	return out
}

func (r *roster) addPickup(p *Pickup) {
	if r == nil || p == nil {
		return
	}
	r.pickups = append(r.pickups, p)
}
