package config

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"orbduel/internal/sim"
)

// Seed is the deterministic root seed. The YAML value must be an integer
// scalar; strings and floats that merely look numeric are rejected so a
// battle can never silently reseed.
type Seed int64

func (s *Seed) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode || node.Tag != "!!int" {
		return fmt.Errorf("%w: seed must be an integer, got %s %q", sim.ErrInvalidSeed, node.Tag, node.Value)
	}
	v, err := strconv.ParseInt(node.Value, 0, 64)
	if err != nil {
		return fmt.Errorf("%w: seed %q: %v", sim.ErrInvalidSeed, node.Value, err)
	}
	*s = Seed(v)
	return nil
}

// Pair is an [x, y] tuple in the flow style designers write.
type Pair [2]float64

// Document is a battle script as authored on disk. The struct doubles as the
// schema contract; cmd/schema reflects over it to produce the editor schema.
type Document struct {
	Title    string     `yaml:"title,omitempty" json:"title,omitempty" jsonschema:"title=Battle title,description=Shown on the victory banner and in session logs"`
	Seed     Seed       `yaml:"seed,omitempty" json:"seed,omitempty" jsonschema:"title=Deterministic seed,description=Integer seed; the same document and seed always replay the same battle"`
	FPS      int        `yaml:"fps,omitempty" json:"fps,omitempty" jsonschema:"minimum=1,maximum=240,default=60,description=Fixed simulation and video rate"`
	Duration float64    `yaml:"duration,omitempty" json:"duration,omitempty" jsonschema:"default=30,description=Seconds of battle before a draw is declared"`
	Outro    float64    `yaml:"outro,omitempty" json:"outro,omitempty" jsonschema:"description=Seconds of post-victory coasting before the run ends"`
	Winner   string     `yaml:"winner,omitempty" json:"winner,omitempty" jsonschema:"description=Orb id favoured when both orbs fall on the same tick"`
	Arena    ArenaDoc   `yaml:"arena,omitempty" json:"arena,omitempty"`
	Physics  PhysicsDoc `yaml:"physics,omitempty" json:"physics,omitempty"`
	Combat   CombatDoc  `yaml:"combat,omitempty" json:"combat,omitempty"`
	Orbs     []OrbDoc   `yaml:"orbs" json:"orbs" jsonschema:"required,minItems=2,maxItems=2,description=The two combatants in script order"`
	Events   []EventDoc `yaml:"events,omitempty" json:"events,omitempty" jsonschema:"description=Scripted timeline entries"`
	Audio    AudioDoc   `yaml:"audio,omitempty" json:"audio,omitempty"`

	baseDir string
}

type ArenaDoc struct {
	Width       float64 `yaml:"width,omitempty" json:"width,omitempty" jsonschema:"default=1080,description=Arena width in pixels; also the video width"`
	Height      float64 `yaml:"height,omitempty" json:"height,omitempty" jsonschema:"default=1920,description=Arena height in pixels; also the video height"`
	WallJitter  float64 `yaml:"wall_jitter,omitempty" json:"wall_jitter,omitempty" jsonschema:"minimum=0,maximum=1,default=0.05,description=Tangent blend fraction applied on wall bounces"`
	Damping     float64 `yaml:"damping,omitempty" json:"damping,omitempty" jsonschema:"default=0.99,description=Per-second velocity retention"`
	SpawnMargin float64 `yaml:"spawn_margin,omitempty" json:"spawn_margin,omitempty" jsonschema:"default=150,description=Minimum distance from the walls for spawns"`
}

type PhysicsDoc struct {
	Restitution  float64 `yaml:"restitution,omitempty" json:"restitution,omitempty" jsonschema:"default=1,description=Bounciness of orb and wall contacts"`
	MaxSpeed     float64 `yaml:"max_speed,omitempty" json:"max_speed,omitempty" jsonschema:"default=2200,description=Hard speed clamp in pixels per second"`
	LaunchSpeeds []Pair  `yaml:"launch_speeds,omitempty" json:"launch_speeds,omitempty" jsonschema:"description=Velocity pool orbs launch with; one entry is drawn per orb"`
}

type CombatDoc struct {
	BaseDamage     int     `yaml:"base_damage,omitempty" json:"base_damage,omitempty" jsonschema:"default=10"`
	DamageSpeed    float64 `yaml:"damage_speed,omitempty" json:"damage_speed,omitempty" jsonschema:"default=120,description=Minimum closing speed for an orb hit to deal damage"`
	HeavySpeed     float64 `yaml:"heavy_speed,omitempty" json:"heavy_speed,omitempty" jsonschema:"default=450,description=Closing speed that upgrades a hit to heavy"`
	SawMultiplier  float64 `yaml:"saw_multiplier,omitempty" json:"saw_multiplier,omitempty" jsonschema:"default=2"`
	SawDuration    float64 `yaml:"saw_duration,omitempty" json:"saw_duration,omitempty" jsonschema:"default=5,description=Seconds the saw power-up lasts"`
	ShieldFactor   float64 `yaml:"shield_factor,omitempty" json:"shield_factor,omitempty" jsonschema:"default=0.25,description=Fraction of incoming damage a shielded orb takes"`
	ShieldDuration float64 `yaml:"shield_duration,omitempty" json:"shield_duration,omitempty" jsonschema:"default=5"`
	HeartHeal      int     `yaml:"heart_heal,omitempty" json:"heart_heal,omitempty" jsonschema:"default=2"`
	BombDamage     int     `yaml:"bomb_damage,omitempty" json:"bomb_damage,omitempty" jsonschema:"default=25,description=Blast damage dealt to both orbs before shields"`
	PickupTTL      float64 `yaml:"pickup_ttl,omitempty" json:"pickup_ttl,omitempty" jsonschema:"default=6,description=Seconds an untouched pickup stays on the field"`
	PickupRadius   float64 `yaml:"pickup_radius,omitempty" json:"pickup_radius,omitempty" jsonschema:"default=45"`
}

type OrbDoc struct {
	ID     string  `yaml:"id" json:"id" jsonschema:"required,minLength=1,description=Stable identifier used by winner and in logs"`
	Name   string  `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"description=Display name on the HP bar"`
	Logo   string  `yaml:"logo,omitempty" json:"logo,omitempty" jsonschema:"description=Path to a square logo image, relative to the document"`
	Hue    float64 `yaml:"hue,omitempty" json:"hue,omitempty" jsonschema:"minimum=0,maximum=360,description=Base hue in degrees for the orb body and trail"`
	Radius float64 `yaml:"radius,omitempty" json:"radius,omitempty" jsonschema:"default=90"`
	Mass   float64 `yaml:"mass,omitempty" json:"mass,omitempty" jsonschema:"default=1"`
	MaxHP  int     `yaml:"max_hp,omitempty" json:"max_hp,omitempty" jsonschema:"default=100"`
}

type EventDoc struct {
	T         float64 `yaml:"t" json:"t" jsonschema:"required,minimum=0,description=Seconds from the start of the run"`
	Kind      string  `yaml:"kind" json:"kind" jsonschema:"required,enum=pickup_spawn,enum=slowmo,enum=text_overlay,enum=shake"`
	Pickup    string  `yaml:"pickup,omitempty" json:"pickup,omitempty" jsonschema:"enum=heart,enum=saw,enum=shield,enum=bomb,description=Pickup kind for pickup_spawn events"`
	Pos       *Pair   `yaml:"pos,omitempty" json:"pos,omitempty" jsonschema:"description=Explicit spawn position; omitted means a seeded random spot"`
	Factor    float64 `yaml:"factor,omitempty" json:"factor,omitempty" jsonschema:"description=Slow motion playback factor in (0 and 1]"`
	Duration  float64 `yaml:"duration,omitempty" json:"duration,omitempty" jsonschema:"description=Seconds the slowmo or overlay lasts"`
	Text      string  `yaml:"text,omitempty" json:"text,omitempty" jsonschema:"description=Overlay text for text_overlay events"`
	Intensity float64 `yaml:"intensity,omitempty" json:"intensity,omitempty" jsonschema:"description=Shake strength in pixels"`
}

type AudioDoc struct {
	MasterGain float64           `yaml:"master_gain,omitempty" json:"master_gain,omitempty" jsonschema:"minimum=0,description=Linear gain applied to the final mix"`
	Overrides  map[string]string `yaml:"overrides,omitempty" json:"overrides,omitempty" jsonschema:"description=Cue name to WAV file replacing the synthesized sound"`
}

var eventKinds = map[string]bool{
	"pickup_spawn": true,
	"slowmo":       true,
	"text_overlay": true,
	"shake":        true,
}

var pickupKinds = map[string]bool{
	"heart":  true,
	"saw":    true,
	"shield": true,
	"bomb":   true,
}

// Validate rejects documents the simulation could never accept. Deeper
// semantic checks (spawn geometry, factor bounds) stay in the simulation so
// the rules live in one place.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil document", ErrMalformedConfig)
	}
	if d.FPS < 0 || d.FPS > 240 {
		return fmt.Errorf("%w: fps %d outside 1-240", ErrMalformedConfig, d.FPS)
	}
	if d.Duration < 0 {
		return fmt.Errorf("%w: duration %g is negative", ErrMalformedConfig, d.Duration)
	}
	if d.Outro < 0 {
		return fmt.Errorf("%w: outro %g is negative", ErrMalformedConfig, d.Outro)
	}
	if len(d.Orbs) != 2 {
		return fmt.Errorf("%w: want exactly 2 orbs, got %d", ErrMalformedConfig, len(d.Orbs))
	}
	ids := make(map[string]bool, len(d.Orbs))
	for i, orb := range d.Orbs {
		if orb.ID == "" {
			return fmt.Errorf("%w: orb %d missing id", ErrMalformedConfig, i)
		}
		if ids[orb.ID] {
			return fmt.Errorf("%w: duplicate orb id %q", ErrMalformedConfig, orb.ID)
		}
		ids[orb.ID] = true
	}
	if d.Winner != "" && !ids[d.Winner] {
		return fmt.Errorf("%w: winner %q is not a configured orb", ErrMalformedConfig, d.Winner)
	}
	for i, evt := range d.Events {
		if !eventKinds[evt.Kind] {
			return fmt.Errorf("%w: event %d has unknown kind %q", ErrMalformedConfig, i, evt.Kind)
		}
		if evt.T < 0 {
			return fmt.Errorf("%w: event %d has negative time %g", ErrMalformedConfig, i, evt.T)
		}
		if evt.Kind == "pickup_spawn" && !pickupKinds[evt.Pickup] {
			return fmt.Errorf("%w: event %d has unknown pickup %q", ErrMalformedConfig, i, evt.Pickup)
		}
	}
	return nil
}

// ToSim maps the document onto the simulation's battle description. Defaults
// the document leaves unset stay zero here; the simulation normalizes them.
func (d *Document) ToSim() sim.Config {
	cfg := sim.Config{
		Seed:     int64(d.Seed),
		FPS:      d.FPS,
		Duration: d.Duration,
		Outro:    d.Outro,
		Winner:   d.Winner,
		Arena: sim.ArenaConfig{
			Width:       d.Arena.Width,
			Height:      d.Arena.Height,
			WallJitter:  d.Arena.WallJitter,
			Damping:     d.Arena.Damping,
			SpawnMargin: d.Arena.SpawnMargin,
		},
		Physics: sim.PhysicsConfig{
			Restitution: d.Physics.Restitution,
			MaxSpeed:    d.Physics.MaxSpeed,
		},
		Combat: sim.CombatConfig{
			BaseDamage:     d.Combat.BaseDamage,
			DamageSpeed:    d.Combat.DamageSpeed,
			HeavySpeed:     d.Combat.HeavySpeed,
			SawMultiplier:  d.Combat.SawMultiplier,
			SawDuration:    d.Combat.SawDuration,
			ShieldFactor:   d.Combat.ShieldFactor,
			ShieldDuration: d.Combat.ShieldDuration,
			HeartHeal:      d.Combat.HeartHeal,
			BombDamage:     d.Combat.BombDamage,
			PickupTTL:      d.Combat.PickupTTL,
			PickupRadius:   d.Combat.PickupRadius,
		},
	}
	for _, p := range d.Physics.LaunchSpeeds {
		cfg.Physics.LaunchSpeeds = append(cfg.Physics.LaunchSpeeds, sim.Vec2{X: p[0], Y: p[1]})
	}
	for _, orb := range d.Orbs {
		cfg.Orbs = append(cfg.Orbs, sim.OrbConfig{
			ID:     orb.ID,
			Name:   orb.Name,
			Logo:   d.resolvePath(orb.Logo),
			Hue:    orb.Hue,
			Radius: orb.Radius,
			Mass:   orb.Mass,
			MaxHP:  orb.MaxHP,
		})
	}
	for _, evt := range d.Events {
		spec := sim.EventSpec{
			T:         evt.T,
			Kind:      evt.Kind,
			Pickup:    evt.Pickup,
			Factor:    evt.Factor,
			Duration:  evt.Duration,
			Text:      evt.Text,
			Intensity: evt.Intensity,
		}
		if evt.Pos != nil {
			spec.Pos = sim.Vec2{X: evt.Pos[0], Y: evt.Pos[1]}
			spec.HasPos = true
		}
		cfg.Events = append(cfg.Events, spec)
	}
	return cfg
}

// Dir is the directory the document was loaded from. Relative asset paths
// (logos, audio overrides) resolve against it. Empty for parsed-in-memory
// documents.
func (d *Document) Dir() string {
	if d == nil {
		return ""
	}
	return d.baseDir
}

// DefaultDocument is the battle used when no script is supplied: two stock
// orbs and a light pickup script.
func DefaultDocument() *Document {
	return &Document{
		Title: "Orb Duel",
		Orbs: []OrbDoc{
			{ID: "red", Name: "Red", Hue: 8},
			{ID: "blue", Name: "Blue", Hue: 212},
		},
		Events: []EventDoc{
			{T: 0.5, Kind: "text_overlay", Text: "FIGHT", Duration: 1.5},
			{T: 6, Kind: "pickup_spawn", Pickup: "heart"},
			{T: 11, Kind: "pickup_spawn", Pickup: "saw"},
			{T: 16, Kind: "pickup_spawn", Pickup: "shield"},
			{T: 22, Kind: "pickup_spawn", Pickup: "bomb"},
		},
	}
}
