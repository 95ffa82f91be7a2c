package sim

import "math"

// DefaultFPS is the simulation tick rate. The timestep is always 1/FPS and
// never varies inside a run.
const DefaultFPS = 60

// Config is the fully resolved battle description the world is built from.
// The YAML loader in internal/config produces one of these; tests construct
// them directly and rely on normalized() for defaults.
type Config struct {
	Seed     int64
	FPS      int
	Duration float64 // seconds of simulated time before a draw is declared
	Outro    float64 // seconds of post-victory coasting, combat disabled
	Winner   string  // optional orb id favoured by the double-KO tie-break
	Arena    ArenaConfig
	Physics  PhysicsConfig
	Combat   CombatConfig
	Orbs     []OrbConfig
	Events   []EventSpec
}

type ArenaConfig struct {
	Width       float64
	Height      float64
	WallJitter  float64 // tangent blend fraction applied on wall bounces
	Damping     float64 // per-second velocity retention
	SpawnMargin float64
}

type PhysicsConfig struct {
	Restitution  float64
	MaxSpeed     float64
	LaunchSpeeds []Vec2
}

type OrbConfig struct {
	ID     string
	Name   string
	Logo   string
	Radius float64
	Mass   float64
	MaxHP  int
	Hue    float64
}

type CombatConfig struct {
	BaseDamage     int
	DamageSpeed    float64 // minimum closing speed for an orb hit to damage
	HeavySpeed     float64 // closing speed that upgrades a hit to heavy
	SawMultiplier  float64
	SawDuration    float64 // seconds
	ShieldFactor   float64
	ShieldDuration float64 // seconds
	HeartHeal      int
	BombDamage     int
	PickupTTL      float64 // seconds an active pickup waits before expiring
	PickupRadius   float64
}

// EventSpec is one scripted timeline entry. T is in seconds from the start
// of the run. Fields beyond Kind are interpreted per kind; buildTimeline
// rejects entries whose required fields are missing.
type EventSpec struct {
	T         float64
	Kind      string
	Pickup    string
	Pos       Vec2
	HasPos    bool
	Factor    float64
	Duration  float64
	Text      string
	Intensity float64
}

// normalized fills unset fields with defaults and returns the copy.
// Negative values are left alone so validation can reject them.
func (c Config) normalized() Config {
	if c.FPS <= 0 {
		c.FPS = DefaultFPS
	}
	if c.Duration == 0 {
		c.Duration = 30
	}
	if c.Arena.Width == 0 {
		c.Arena.Width = 1080
	}
	if c.Arena.Height == 0 {
		c.Arena.Height = 1920
	}
	if c.Arena.Damping == 0 {
		c.Arena.Damping = 0.99
	}
	if c.Arena.WallJitter == 0 {
		c.Arena.WallJitter = 0.05
	}
	if c.Arena.SpawnMargin == 0 {
		c.Arena.SpawnMargin = 150
	}
	if c.Physics.Restitution == 0 {
		c.Physics.Restitution = 1
	}
	if c.Physics.MaxSpeed == 0 {
		c.Physics.MaxSpeed = 2200
	}
	if len(c.Physics.LaunchSpeeds) == 0 {
		c.Physics.LaunchSpeeds = []Vec2{
			{X: 250, Y: 150},
			{X: -200, Y: 230},
			{X: 200, Y: -220},
		}
	}
	if c.Combat.BaseDamage == 0 {
		c.Combat.BaseDamage = 10
	}
	if c.Combat.DamageSpeed == 0 {
		c.Combat.DamageSpeed = 120
	}
	if c.Combat.HeavySpeed == 0 {
		c.Combat.HeavySpeed = 450
	}
	if c.Combat.SawMultiplier == 0 {
		c.Combat.SawMultiplier = 2
	}
	if c.Combat.SawDuration == 0 {
		c.Combat.SawDuration = 5
	}
	if c.Combat.ShieldFactor == 0 {
		c.Combat.ShieldFactor = 0.25
	}
	if c.Combat.ShieldDuration == 0 {
		c.Combat.ShieldDuration = 5
	}
	if c.Combat.HeartHeal == 0 {
		c.Combat.HeartHeal = 2
	}
	if c.Combat.BombDamage == 0 {
		c.Combat.BombDamage = 25
	}
	if c.Combat.PickupTTL == 0 {
		c.Combat.PickupTTL = 6
	}
	if c.Combat.PickupRadius == 0 {
		c.Combat.PickupRadius = 45
	}
	orbs := make([]OrbConfig, len(c.Orbs))
	copy(orbs, c.Orbs)
	for i := range orbs {
		if orbs[i].Radius == 0 {
			orbs[i].Radius = 90
		}
		if orbs[i].Mass == 0 {
			orbs[i].Mass = 1
		}
		if orbs[i].MaxHP == 0 {
			orbs[i].MaxHP = 100
		}
	}
	c.Orbs = orbs
	return c
}

// ticksFor converts a duration in seconds to a tick count at the given rate.
func ticksFor(seconds float64, fps int) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(math.Round(seconds * float64(fps)))
}

// tickAt returns the first tick whose start time is at or past t seconds.
func tickAt(t float64, fps int) uint64 {
	if t <= 0 {
		return 0
	}
	return uint64(math.Ceil(t*float64(fps) - 1e-9))
}
