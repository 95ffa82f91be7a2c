package render

import (
	"math/rand"

	"orbduel/internal/sim"
)

// shakeDuration is how long one trigger rattles the camera.
const shakeDuration = 0.35

// camera adds reproducible shake to the arena transform. Offsets come from
// the dedicated camera stream, so identical runs frame identically.
type camera struct {
	rng     *rand.Rand
	amount  float64
	timer   float64
	offsetX float64
	offsetY float64
}

func newCamera(seed int64) *camera {
	return &camera{rng: sim.Stream(seed, sim.StreamCamera)}
}

// trigger starts a shake. A weaker trigger never cuts a stronger live shake
// short.
func (c *camera) trigger(intensity float64) {
	if intensity <= 0 || intensity < c.amount {
		return
	}
	c.amount = intensity
	c.timer = shakeDuration
}

func (c *camera) update(dt float64) {
	if c.timer <= 0 {
		c.offsetX, c.offsetY = 0, 0
		return
	}
	c.timer -= dt
	if c.timer <= 0 {
		c.amount = 0
		c.offsetX, c.offsetY = 0, 0
		return
	}
	c.offsetX = (c.rng.Float64()*2 - 1) * c.amount
	c.offsetY = (c.rng.Float64()*2 - 1) * c.amount
}

func (c *camera) offset() (float64, float64) {
	return c.offsetX, c.offsetY
}
