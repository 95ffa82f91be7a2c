package sim

import (
	"fmt"
	"math"
	"math/rand"
)

type BodyKind uint8

const (
	BodyOrb BodyKind = iota
	BodyPickup
)

type WallSide uint8

const (
	WallNone WallSide = iota
	WallLeft
	WallRight
	WallTop
	WallBottom
)

func (s WallSide) String() string {
	switch s {
	case WallLeft:
		return "left"
	case WallRight:
		return "right"
	case WallTop:
		return "top"
	case WallBottom:
		return "bottom"
	default:
		return "none"
	}
}

// Body is a circle in the physics world. Sensors report overlap but receive
// no impulse; pickups are sensors, orbs are not.
type Body struct {
	Pos         Vec2
	Vel         Vec2
	Radius      float64
	InvMass     float64
	Restitution float64
	Kind        BodyKind
	Owner       int
	Sensor      bool

	active bool
}

// Collision describes one contact resolved during a step. B is -1 for wall
// contacts. Speed is the closing speed along the contact normal before the
// impulse was applied.
type Collision struct {
	A      int
	B      int
	Point  Vec2
	Normal Vec2
	Speed  float64
	Wall   WallSide
}

func (c Collision) IsWall() bool { return c.Wall != WallNone }

type physicsConfig struct {
	width      float64
	height     float64
	damping    float64 // per-tick velocity retention factor
	maxSpeed   float64
	wallJitter float64
}

// PhysicsWorld integrates circle bodies inside an axis-aligned box. Slots
// are reused through a free list so body indices stay stable for the
// lifetime of each body.
type PhysicsWorld struct {
	cfg    physicsConfig
	bodies []Body
	free   []int
	rng    *rand.Rand
}

func newPhysicsWorld(cfg physicsConfig, rng *rand.Rand) *PhysicsWorld {
	return &PhysicsWorld{cfg: cfg, rng: rng}
}

// AddBody validates and inserts a body, returning its index.
func (pw *PhysicsWorld) AddBody(b Body) (int, error) {
	if pw == nil {
		return -1, fmt.Errorf("%w: physics world is nil", ErrInvalidBodyConfig)
	}
	if b.Radius <= 0 || math.IsNaN(b.Radius) {
		return -1, fmt.Errorf("%w: radius %v", ErrInvalidBodyConfig, b.Radius)
	}
	if b.InvMass < 0 || math.IsNaN(b.InvMass) {
		return -1, fmt.Errorf("%w: inverse mass %v", ErrInvalidBodyConfig, b.InvMass)
	}
	if !b.Sensor && b.InvMass == 0 {
		return -1, fmt.Errorf("%w: solid body needs positive mass", ErrInvalidBodyConfig)
	}
	b.active = true
	if n := len(pw.free); n > 0 {
		idx := pw.free[n-1]
		pw.free = pw.free[:n-1]
		pw.bodies[idx] = b
		return idx, nil
	}
	pw.bodies = append(pw.bodies, b)
	return len(pw.bodies) - 1, nil
}

// RemoveBody frees the slot. The index may be handed out again by a later
// AddBody.
func (pw *PhysicsWorld) RemoveBody(idx int) {
	if pw == nil || idx < 0 || idx >= len(pw.bodies) || !pw.bodies[idx].active {
		return
	}
	pw.bodies[idx] = Body{}
	pw.free = append(pw.free, idx)
}

// Body returns the live body at idx, or nil.
func (pw *PhysicsWorld) Body(idx int) *Body {
	if pw == nil || idx < 0 || idx >= len(pw.bodies) || !pw.bodies[idx].active {
		return nil
	}
	return &pw.bodies[idx]
}

// Step advances every body by dt and returns the contacts it resolved, wall
// contacts first, both groups in ascending body-index order. The order is
// part of the determinism contract.
func (pw *PhysicsWorld) Step(dt float64) []Collision {
	if pw == nil {
		return nil
	}
	var collisions []Collision

	for i := range pw.bodies {
		b := &pw.bodies[i]
		if !b.active || b.InvMass == 0 {
			continue
		}
		b.Vel = b.Vel.Scale(pw.cfg.damping)
		if pw.cfg.maxSpeed > 0 {
			if speed := b.Vel.Length(); speed > pw.cfg.maxSpeed {
				b.Vel = b.Vel.Scale(pw.cfg.maxSpeed / speed)
			}
		}
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	}

	for i := range pw.bodies {
		b := &pw.bodies[i]
		if !b.active || b.InvMass == 0 {
			continue
		}
		collisions = pw.collideWalls(i, b, collisions)
	}

	for i := 0; i < len(pw.bodies); i++ {
		a := &pw.bodies[i]
		if !a.active {
			continue
		}
		for j := i + 1; j < len(pw.bodies); j++ {
			b := &pw.bodies[j]
			if !b.active {
				continue
			}
			if a.Sensor && b.Sensor {
				continue
			}
			if contact, ok := pw.collidePair(i, j, a, b); ok {
				collisions = append(collisions, contact)
			}
		}
	}
	return collisions
}

func (pw *PhysicsWorld) collideWalls(idx int, b *Body, out []Collision) []Collision {
	if b.Pos.X-b.Radius < 0 {
		b.Pos.X = b.Radius
		if b.Vel.X < 0 {
			speed := -b.Vel.X
			b.Vel.X = -b.Vel.X * b.Restitution
			pw.deflect(b, Vec2{X: 1})
			out = append(out, Collision{A: idx, B: -1, Wall: WallLeft, Point: Vec2{X: 0, Y: b.Pos.Y}, Normal: Vec2{X: 1}, Speed: speed})
		}
	}
	if b.Pos.X+b.Radius > pw.cfg.width {
		b.Pos.X = pw.cfg.width - b.Radius
		if b.Vel.X > 0 {
			speed := b.Vel.X
			b.Vel.X = -b.Vel.X * b.Restitution
			pw.deflect(b, Vec2{X: -1})
			out = append(out, Collision{A: idx, B: -1, Wall: WallRight, Point: Vec2{X: pw.cfg.width, Y: b.Pos.Y}, Normal: Vec2{X: -1}, Speed: speed})
		}
	}
	if b.Pos.Y-b.Radius < 0 {
		b.Pos.Y = b.Radius
		if b.Vel.Y < 0 {
			speed := -b.Vel.Y
			b.Vel.Y = -b.Vel.Y * b.Restitution
			pw.deflect(b, Vec2{Y: 1})
			out = append(out, Collision{A: idx, B: -1, Wall: WallTop, Point: Vec2{X: b.Pos.X, Y: 0}, Normal: Vec2{Y: 1}, Speed: speed})
		}
	}
	if b.Pos.Y+b.Radius > pw.cfg.height {
		b.Pos.Y = pw.cfg.height - b.Radius
		if b.Vel.Y > 0 {
			speed := b.Vel.Y
			b.Vel.Y = -b.Vel.Y * b.Restitution
			pw.deflect(b, Vec2{Y: -1})
			out = append(out, Collision{A: idx, B: -1, Wall: WallBottom, Point: Vec2{X: b.Pos.X, Y: pw.cfg.height}, Normal: Vec2{Y: -1}, Speed: speed})
		}
	}
	return out
}

// deflect tilts the reflected velocity toward the wall tangent by a random
// fraction of the configured jitter, keeping speed unchanged. The blend
// avoids trigonometry so trajectories stay identical across platforms.
func (pw *PhysicsWorld) deflect(b *Body, normal Vec2) {
	if pw.cfg.wallJitter <= 0 || pw.rng == nil {
		return
	}
	speed := b.Vel.Length()
	if speed == 0 {
		return
	}
	u := (pw.rng.Float64()*2 - 1) * pw.cfg.wallJitter
	dir := b.Vel.Scale(1 / speed)
	dir = dir.Add(normal.Perp().Scale(u)).Normalize()
	if dir == (Vec2{}) {
		return
	}
	b.Vel = dir.Scale(speed)
}

func (pw *PhysicsWorld) collidePair(i, j int, a, b *Body) (Collision, bool) {
	delta := b.Pos.Sub(a.Pos)
	rsum := a.Radius + b.Radius
	distSq := delta.LengthSq()
	if distSq >= rsum*rsum {
		return Collision{}, false
	}
	dist := math.Sqrt(distSq)
	normal := Vec2{X: 1}
	if dist > 0 {
		normal = delta.Scale(1 / dist)
	}
	point := a.Pos.Add(normal.Scale(a.Radius))

	if a.Sensor || b.Sensor {
		return Collision{A: i, B: j, Point: point, Normal: normal, Speed: b.Vel.Sub(a.Vel).Length()}, true
	}

	rv := b.Vel.Sub(a.Vel)
	velAlongNormal := rv.Dot(normal)
	if velAlongNormal > 0 {
		return Collision{}, false
	}

	e := math.Min(a.Restitution, b.Restitution)
	jmag := -(1 + e) * velAlongNormal / (a.InvMass + b.InvMass)
	impulse := normal.Scale(jmag)
	a.Vel = a.Vel.Sub(impulse.Scale(a.InvMass))
	b.Vel = b.Vel.Add(impulse.Scale(b.InvMass))

	const percent, slop = 0.8, 0.01
	if pen := rsum - dist; pen > slop {
		correction := normal.Scale(percent * (pen - slop) / (a.InvMass + b.InvMass))
		a.Pos = a.Pos.Sub(correction.Scale(a.InvMass))
		b.Pos = b.Pos.Add(correction.Scale(b.InvMass))
	}

	return Collision{A: i, B: j, Point: point, Normal: normal, Speed: -velAlongNormal}, true
}
