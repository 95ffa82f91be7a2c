package render

import (
	"image/color"
	"math"
	"math/rand"

	"orbduel/internal/sim"
)

const (
	particleGravity = 250.0
	particleDrag    = 0.98 // velocity retention per second
	particleBounces = 2
)

// particle is a shrinking circle spark. Radius and color track the life
// ratio; walls bounce it a limited number of times.
type particle struct {
	pos       sim.Vec2
	vel       sim.Vec2
	life      float64
	maxLife   float64
	radius    float64
	maxRadius float64
	start     color.RGBA
	end       color.RGBA
	col       color.RGBA
	bounces   int
}

func (p *particle) update(dt, width, height float64) {
	if p.life <= 0 {
		return
	}
	p.vel.Y += particleGravity * dt
	p.vel = p.vel.Scale(math.Pow(particleDrag, dt))
	p.pos = p.pos.Add(p.vel.Scale(dt))
	p.life -= dt

	ratio := math.Max(0, p.life/p.maxLife)
	p.radius = p.maxRadius * ratio
	p.col = lerpColor(p.start, p.end, ratio)

	if p.bounces <= 0 || p.radius <= 0 {
		return
	}
	bounced := false
	if p.pos.X-p.radius < 0 {
		p.pos.X = p.radius
		p.vel.X *= -0.7
		bounced = true
	} else if p.pos.X+p.radius > width {
		p.pos.X = width - p.radius
		p.vel.X *= -0.7
		bounced = true
	}
	if p.pos.Y-p.radius < 0 {
		p.pos.Y = p.radius
		p.vel.Y *= -0.7
		bounced = true
	} else if p.pos.Y+p.radius > height {
		p.pos.Y = height - p.radius
		p.vel.Y *= -0.7
		bounced = true
	}
	if bounced {
		p.bounces--
		if p.bounces == 0 {
			p.life = math.Min(p.life, 0.05)
		}
	}
}

// shockwave is an expanding ring that fades as it grows.
type shockwave struct {
	pos       sim.Vec2
	radius    float64
	maxRadius float64
	life      float64
	maxLife   float64
	col       color.RGBA
	thickness float64
}

// emitter owns every live presentation effect. It never touches simulation
// state; impacts arrive through snapshots.
type emitter struct {
	rng        *rand.Rand
	particles  []*particle
	shockwaves []*shockwave
}

func newEmitter(seed int64) *emitter {
	return &emitter{rng: sim.Stream(seed, sim.StreamParticles)}
}

func (e *emitter) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}

// burst sprays count particles from pos. A non-zero normal fans them around
// it, widened by impact strength; a zero normal sprays a full circle.
func (e *emitter) burst(count int, pos sim.Vec2, base color.RGBA, scale, life, maxRadius float64, normal sim.Vec2, strength float64) {
	enhanced := color.RGBA{R: boost(base.R), G: boost(base.G), B: boost(base.B), A: 255}
	fade := color.RGBA{R: dim(base.R), G: dim(base.G), B: dim(base.B), A: 255}
	directional := normal.X != 0 || normal.Y != 0
	baseAngle := math.Atan2(normal.Y, normal.X)

	for i := 0; i < count; i++ {
		var angle, speed float64
		if directional {
			angle = baseAngle + e.uniform(-math.Pi*0.4, math.Pi*0.4)
			speed = e.uniform(scale*0.8, scale*1.5) * (1 + strength/1000)
		} else {
			angle = e.uniform(0, 2*math.Pi)
			speed = e.uniform(scale*0.7, scale*1.3)
		}
		p := &particle{
			pos:     pos,
			vel:     sim.Vec2{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed},
			life:    life * e.uniform(0.5, 1.5),
			radius:  math.Max(1, maxRadius*e.uniform(0.3, 1.0)),
			start:   enhanced,
			end:     fade,
			col:     enhanced,
			bounces: particleBounces,
		}
		p.maxLife = p.life
		p.maxRadius = p.radius
		e.particles = append(e.particles, p)
	}
}

func (e *emitter) shock(pos sim.Vec2, maxRadius, life float64, col color.RGBA, thickness float64) {
	e.shockwaves = append(e.shockwaves, &shockwave{
		pos:       pos,
		maxRadius: maxRadius,
		life:      life,
		maxLife:   life,
		col:       col,
		thickness: thickness,
	})
}

// update advances every live effect by dt and drops the dead ones.
func (e *emitter) update(dt, width, height float64) {
	live := e.particles[:0]
	for _, p := range e.particles {
		p.update(dt, width, height)
		if p.life > 0 {
			live = append(live, p)
		}
	}
	e.particles = live

	waves := e.shockwaves[:0]
	for _, s := range e.shockwaves {
		s.life -= dt
		if s.life <= 0 {
			continue
		}
		s.radius = s.maxRadius * (1 - s.life/s.maxLife)
		waves = append(waves, s)
	}
	e.shockwaves = waves
}

// lerpColor blends from start (ratio 1) toward end (ratio 0).
func lerpColor(start, end color.RGBA, ratio float64) color.RGBA {
	mix := func(a, b uint8) uint8 {
		v := float64(a)*ratio + float64(b)*(1-ratio)
		return uint8(math.Max(0, math.Min(255, v)))
	}
	return color.RGBA{R: mix(start.R, end.R), G: mix(start.G, end.G), B: mix(start.B, end.B), A: 255}
}

func boost(v uint8) uint8 {
	return uint8(math.Min(255, float64(v)*1.3))
}

func dim(v uint8) uint8 {
	return uint8(float64(v) * 0.6)
}
