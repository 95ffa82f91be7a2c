package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"orbduel/internal/sim"
)

// Renderer turns simulation snapshots into frames. It owns the
// presentation-only state (particles, shockwaves, camera shake) that
// accumulates across consecutive snapshots, so feed it every tick in order.
type Renderer struct {
	cfg    sim.Config
	width  int
	height int
	dt     float64

	camera  *camera
	effects *emitter
	faces   *faceSet
	logos   map[string]image.Image
	colors  map[string]color.RGBA
}

// New builds a renderer for a normalized config, as returned by
// sim.World.Config. Orb logos load eagerly; a missing or unreadable logo
// falls back to a colored disc with the orb's initial.
func New(cfg sim.Config) (*Renderer, error) {
	if cfg.Arena.Width <= 0 || cfg.Arena.Height <= 0 || cfg.FPS <= 0 {
		return nil, fmt.Errorf("render: config missing arena or fps")
	}
	r := &Renderer{
		cfg:     cfg,
		width:   int(cfg.Arena.Width),
		height:  int(cfg.Arena.Height),
		dt:      1 / float64(cfg.FPS),
		camera:  newCamera(cfg.Seed),
		effects: newEmitter(cfg.Seed),
		logos:   make(map[string]image.Image, len(cfg.Orbs)),
		colors:  make(map[string]color.RGBA, len(cfg.Orbs)),
	}

	faces, err := newFaceSet(cfg.Arena.Width / 1080)
	if err != nil {
		return nil, fmt.Errorf("render: fonts: %w", err)
	}
	r.faces = faces

	for _, orb := range cfg.Orbs {
		col := hueColor(orb.Hue)
		r.colors[orb.ID] = col
		diameter := int(orb.Radius * 2)
		if orb.Logo != "" {
			if disc, err := logoDisc(orb.Logo, diameter); err == nil {
				r.logos[orb.ID] = disc
				continue
			}
		}
		r.logos[orb.ID] = letterDisc(orbInitial(orb), diameter, col, faces.glyph)
	}
	return r, nil
}

func orbInitial(orb sim.OrbConfig) string {
	name := orb.Name
	if name == "" {
		name = orb.ID
	}
	for _, c := range name {
		return strings.ToUpper(string(c))
	}
	return "?"
}

// Size reports the frame dimensions in pixels.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// Frame renders one snapshot. Transient markers (impacts, shake) feed effect
// state that persists across subsequent frames, so each snapshot must be
// rendered exactly once and in tick order.
func (r *Renderer) Frame(snap sim.Snapshot) *image.RGBA {
	r.ingest(snap)
	r.camera.update(r.dt)
	r.effects.update(r.dt, r.cfg.Arena.Width, r.cfg.Arena.Height)

	dc := gg.NewContext(r.width, r.height)
	r.drawBackground(dc)

	ox, oy := r.camera.offset()
	dc.Push()
	dc.Translate(ox, oy)
	r.drawPickups(dc, snap.Pickups)
	r.drawEffects(dc)
	for i := range snap.Orbs {
		r.drawOrb(dc, snap.Orbs[i])
	}
	dc.Pop()

	r.drawOverlays(dc, snap)
	if snap.Result != nil {
		r.drawBanner(dc, snap)
	}

	return dc.Image().(*image.RGBA)
}

// ingest converts a snapshot's transient markers into live effects.
func (r *Renderer) ingest(snap sim.Snapshot) {
	if snap.Shake > 0 {
		r.camera.trigger(snap.Shake)
	}
	for _, imp := range snap.Impacts {
		switch imp.Kind {
		case sim.ImpactWall:
			r.effects.burst(6, imp.Pos, color.RGBA{R: 150, G: 180, B: 255, A: 255}, 90, 0.35, 7, imp.Normal, imp.Speed)
		case sim.ImpactHit:
			r.effects.burst(14, imp.Pos, r.impactColor(snap, imp), 130, 0.5, 10, imp.Normal, imp.Speed)
		case sim.ImpactHeavy:
			col := r.impactColor(snap, imp)
			r.effects.burst(26, imp.Pos, col, 180, 0.6, 13, imp.Normal, imp.Speed)
			r.effects.shock(imp.Pos, math.Min(90+imp.Speed/6, 240), 0.5, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 5)
		case sim.ImpactBomb:
			r.effects.burst(40, imp.Pos, color.RGBA{R: 255, G: 140, B: 40, A: 255}, 220, 0.7, 14, sim.Vec2{}, imp.Speed)
			r.effects.shock(imp.Pos, 260, 0.8, color.RGBA{R: 255, G: 120, B: 30, A: 255}, 6)
		}
	}
}

// impactColor picks the hue of the orb nearest the impact.
func (r *Renderer) impactColor(snap sim.Snapshot, imp sim.ImpactView) color.RGBA {
	best := color.RGBA{R: 220, G: 220, B: 220, A: 255}
	bestDist := math.Inf(1)
	for _, orb := range snap.Orbs {
		d := orb.Pos.Sub(imp.Pos).LengthSq()
		if d < bestDist {
			bestDist = d
			best = r.colors[orb.ID]
		}
	}
	return best
}

func (r *Renderer) drawBackground(dc *gg.Context) {
	w, h := float64(r.width), float64(r.height)

	grad := gg.NewRadialGradient(w/2, h/2, 0, w/2, h/2, math.Max(w, h)/1.2)
	grad.AddColorStop(0, color.RGBA{R: 30, G: 32, B: 52, A: 255})
	grad.AddColorStop(1, color.RGBA{R: 12, G: 12, B: 22, A: 255})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetRGBA255(70, 80, 140, 255)
	dc.SetLineWidth(6)
	dc.DrawRectangle(3, 3, w-6, h-6)
	dc.Stroke()
	dc.SetRGBA255(120, 140, 220, 255)
	dc.SetLineWidth(2)
	dc.DrawRectangle(9, 9, w-18, h-18)
	dc.Stroke()
}

func (r *Renderer) drawEffects(dc *gg.Context) {
	for _, p := range r.effects.particles {
		if p.life <= 0 || p.radius < 1 {
			continue
		}
		dc.SetColor(p.col)
		dc.DrawCircle(p.pos.X, p.pos.Y, p.radius)
		dc.Fill()
	}
	for _, s := range r.effects.shockwaves {
		if s.life <= 0 || s.radius <= 0 {
			continue
		}
		alpha := int(255 * s.life / s.maxLife)
		dc.SetRGBA255(int(s.col.R), int(s.col.G), int(s.col.B), alpha)
		dc.SetLineWidth(s.thickness)
		dc.DrawCircle(s.pos.X, s.pos.Y, s.radius)
		dc.Stroke()
	}
}

func (r *Renderer) drawPickups(dc *gg.Context, pickups []sim.PickupView) {
	for _, p := range pickups {
		if p.State != "active" {
			continue
		}
		r.drawPickup(dc, p)
	}
}

func (r *Renderer) drawPickup(dc *gg.Context, p sim.PickupView) {
	x, y := p.Pos.X, p.Pos.Y
	radius := r.cfg.Combat.PickupRadius
	col := pickupColor(p.Kind)

	// Blink during the last second before expiry.
	alpha := 255
	if fps := uint64(r.cfg.FPS); p.Remaining < fps && (p.Remaining/(fps/8+1))%2 == 0 {
		alpha = 110
	}

	dc.SetRGBA255(int(col.R), int(col.G), int(col.B), alpha/4)
	dc.DrawCircle(x, y, radius)
	dc.Fill()
	dc.SetRGBA255(int(col.R), int(col.G), int(col.B), alpha)
	dc.SetLineWidth(4)
	dc.DrawCircle(x, y, radius)
	dc.Stroke()
	r.drawGlyph(dc, p.Kind, x, y, radius*0.55, col, alpha)
}

func pickupColor(kind sim.PickupKind) color.RGBA {
	switch kind {
	case sim.PickupHeart:
		return color.RGBA{R: 235, G: 60, B: 90, A: 255}
	case sim.PickupSaw:
		return color.RGBA{R: 255, G: 150, B: 40, A: 255}
	case sim.PickupShield:
		return color.RGBA{R: 60, G: 200, B: 255, A: 255}
	case sim.PickupBomb:
		return color.RGBA{R: 250, G: 210, B: 60, A: 255}
	}
	return color.RGBA{R: 200, G: 200, B: 200, A: 255}
}

// drawGlyph draws a small vector icon for the pickup kind, sized by s.
func (r *Renderer) drawGlyph(dc *gg.Context, kind sim.PickupKind, x, y, s float64, col color.RGBA, alpha int) {
	dc.SetRGBA255(int(col.R), int(col.G), int(col.B), alpha)
	switch kind {
	case sim.PickupHeart:
		dc.DrawCircle(x-s*0.45, y-s*0.3, s*0.5)
		dc.DrawCircle(x+s*0.45, y-s*0.3, s*0.5)
		dc.Fill()
		dc.MoveTo(x-s*0.9, y-s*0.08)
		dc.LineTo(x+s*0.9, y-s*0.08)
		dc.LineTo(x, y+s)
		dc.ClosePath()
		dc.Fill()
	case sim.PickupSaw:
		teeth := 8
		for i := 0; i < teeth; i++ {
			a := float64(i) / float64(teeth) * 2 * math.Pi
			dc.MoveTo(x+math.Cos(a)*s*0.55, y+math.Sin(a)*s*0.55)
			dc.LineTo(x+math.Cos(a+0.22)*s, y+math.Sin(a+0.22)*s)
			dc.LineTo(x+math.Cos(a+0.44)*s*0.55, y+math.Sin(a+0.44)*s*0.55)
			dc.ClosePath()
		}
		dc.Fill()
		dc.DrawCircle(x, y, s*0.35)
		dc.Fill()
	case sim.PickupShield:
		dc.MoveTo(x-s*0.7, y-s*0.65)
		dc.LineTo(x+s*0.7, y-s*0.65)
		dc.LineTo(x+s*0.7, y+s*0.1)
		dc.QuadraticTo(x+s*0.7, y+s*0.72, x, y+s)
		dc.QuadraticTo(x-s*0.7, y+s*0.72, x-s*0.7, y+s*0.1)
		dc.ClosePath()
		dc.Fill()
	case sim.PickupBomb:
		dc.DrawCircle(x, y+s*0.15, s*0.7)
		dc.Fill()
		dc.SetLineWidth(3)
		dc.MoveTo(x+s*0.25, y-s*0.45)
		dc.QuadraticTo(x+s*0.5, y-s*0.85, x+s*0.85, y-s*0.7)
		dc.Stroke()
		dc.DrawCircle(x+s*0.85, y-s*0.7, s*0.14)
		dc.Fill()
	}
}

func (r *Renderer) drawOrb(dc *gg.Context, orb sim.OrbView) {
	col := r.colors[orb.ID]
	x, y := orb.Pos.X, orb.Pos.Y
	ringCol := col
	if orb.Defeated {
		ringCol = color.RGBA{R: 90, G: 90, B: 95, A: 255}
	}

	halo := gg.NewRadialGradient(x, y, orb.Radius*0.6, x, y, orb.Radius*1.4)
	halo.AddColorStop(0, color.NRGBA{R: ringCol.R, G: ringCol.G, B: ringCol.B, A: 80})
	halo.AddColorStop(1, color.NRGBA{})
	dc.SetFillStyle(halo)
	dc.DrawCircle(x, y, orb.Radius*1.4)
	dc.Fill()

	if logo := r.logos[orb.ID]; logo != nil {
		dc.DrawImageAnchored(logo, int(x), int(y), 0.5, 0.5)
	}
	if orb.Defeated {
		dc.SetRGBA255(10, 10, 14, 170)
		dc.DrawCircle(x, y, orb.Radius)
		dc.Fill()
	}

	dc.SetColor(ringCol)
	dc.SetLineWidth(5)
	dc.DrawCircle(x, y, orb.Radius)
	dc.Stroke()

	for _, pu := range orb.PowerUps {
		frac := r.powerUpFraction(pu)
		ring := orb.Radius + 10
		puCol := color.RGBA{R: 255, G: 150, B: 40, A: 255}
		if pu.Kind == sim.PowerUpShield {
			puCol = color.RGBA{R: 60, G: 200, B: 255, A: 255}
			ring = orb.Radius + 18
		}
		dc.SetColor(puCol)
		dc.SetLineWidth(4)
		dc.DrawArc(x, y, ring, -math.Pi/2, -math.Pi/2+2*math.Pi*frac)
		dc.Stroke()
	}

	r.drawHPBar(dc, orb)
}

func (r *Renderer) drawHPBar(dc *gg.Context, orb sim.OrbView) {
	x := orb.Pos.X
	barW, barH := orb.Radius*1.6, 12.0
	bx := x - barW/2
	by := orb.Pos.Y - orb.Radius - 36

	pct := 0.0
	if orb.MaxHP > 0 {
		pct = float64(orb.HP) / float64(orb.MaxHP)
	}

	dc.SetRGBA255(60, 60, 60, 220)
	dc.DrawRectangle(bx, by, barW, barH)
	dc.Fill()
	if pct > 0 {
		hc := hpColor(pct)
		dc.SetColor(hc)
		dc.DrawRectangle(bx, by, barW*pct, barH)
		dc.Fill()
	}

	name := orb.Name
	if name == "" {
		name = orb.ID
	}
	dc.SetFontFace(r.faces.label)
	dc.SetRGBA255(230, 230, 235, 255)
	dc.DrawStringAnchored(name, x, by-8, 0.5, 1)
}

// hpColor runs green through yellow to red as HP drains.
func hpColor(pct float64) color.RGBA {
	red := math.Min(1, (1-pct)*2)
	green := math.Min(1, pct*2)
	return color.RGBA{R: uint8(red * 255), G: uint8(green * 255), B: 60, A: 255}
}

func (r *Renderer) powerUpFraction(pu sim.PowerUpView) float64 {
	var seconds float64
	switch pu.Kind {
	case sim.PowerUpSaw:
		seconds = r.cfg.Combat.SawDuration
	case sim.PowerUpShield:
		seconds = r.cfg.Combat.ShieldDuration
	}
	ticks := seconds * float64(r.cfg.FPS)
	if ticks <= 0 {
		return 1
	}
	return math.Min(1, float64(pu.Remaining)/ticks)
}

func (r *Renderer) drawOverlays(dc *gg.Context, snap sim.Snapshot) {
	w, h := float64(r.width), float64(r.height)
	for i, ov := range snap.Overlays {
		y := h*0.3 + float64(i)*h*0.09
		dc.SetFontFace(r.faces.overlay)
		dc.SetRGBA255(10, 10, 16, 220)
		for _, d := range [][2]float64{{-3, 0}, {3, 0}, {0, -3}, {0, 3}} {
			dc.DrawStringAnchored(ov.Text, w/2+d[0], y+d[1], 0.5, 0.5)
		}
		dc.SetRGBA255(255, 240, 200, 255)
		dc.DrawStringAnchored(ov.Text, w/2, y, 0.5, 0.5)
	}

	if snap.SlowMo > 0 && snap.SlowMo < 1 {
		dc.SetFontFace(r.faces.label)
		dc.SetRGBA255(200, 210, 255, 200)
		dc.DrawStringAnchored(fmt.Sprintf("SLOW-MO x%.2g", snap.SlowMo), w/2, h-40, 0.5, 0.5)
	}
}

func (r *Renderer) drawBanner(dc *gg.Context, snap sim.Snapshot) {
	w, h := float64(r.width), float64(r.height)
	res := snap.Result

	dc.SetRGBA255(0, 0, 0, 110)
	dc.DrawRectangle(0, h/2-130, w, 260)
	dc.Fill()

	text := "DRAW"
	col := color.RGBA{R: 235, G: 235, B: 240, A: 255}
	if res.Outcome == sim.OutcomeWin {
		name := res.Winner
		for _, orb := range snap.Orbs {
			if orb.ID == res.Winner && orb.Name != "" {
				name = orb.Name
			}
		}
		text = strings.ToUpper(name) + " WINS"
		if c, ok := r.colors[res.Winner]; ok {
			col = c
		}
	}

	dc.SetFontFace(r.faces.banner)
	dc.SetRGBA255(10, 10, 16, 230)
	dc.DrawStringAnchored(text, w/2+4, h/2+4, 0.5, 0.5)
	dc.SetColor(col)
	dc.DrawStringAnchored(text, w/2, h/2, 0.5, 0.5)
}
