package sim

import "math"

// minBounceCueSpeed keeps terminal dribbling against a wall from spamming
// bounce sounds.
const minBounceCueSpeed = 60.0

var bounceCues = [...]string{CueBounce1, CueBounce2, CueBounce3}

type damageIntent struct {
	target *Orb
	source *Orb // nil for bomb blasts
	amount int
	speed  float64
	kind   string
}

type healIntent struct {
	target *Orb
	amount int
	pickup *Pickup
}

type grantIntent struct {
	target *Orb
	def    PowerUpDefinition
	pickup *Pickup
}

type consumeIntent struct {
	orb    *Orb
	pickup *Pickup
}

type bounceIntent struct {
	orb   *Orb
	wall  WallSide
	speed float64
}

type overlayIntent struct {
	text     string
	durTicks uint64
}

type slowmoIntent struct {
	factor   float64
	durTicks uint64
}

// combatOutcome is everything one tick's resolution decided. Nothing is
// mutated during resolution; applyOutcome commits the batch so rules never
// observe partial writes.
type combatOutcome struct {
	spawns   []Event
	damages  []damageIntent
	heals    []healIntent
	grants   []grantIntent
	consumed []consumeIntent
	expired  []*Pickup
	bounces  []bounceIntent
	cues     []string
	impacts  []ImpactView
	overlays []overlayIntent
	slowmo   *slowmoIntent
	shake    float64
}

// resolveTick turns this tick's contacts and due script entries into a
// batch of intents. Once the match has a result only presentation rules
// remain live: bounces keep their sound, damage and pickups stop.
func (w *World) resolveTick(tick uint64, collisions []Collision, due []Event) combatOutcome {
	var out combatOutcome
	combatLive := w.result == nil

	for _, evt := range due {
		switch evt.Kind {
		case EventPickupSpawn:
			if combatLive {
				out.spawns = append(out.spawns, evt)
			}
		case EventSlowMo:
			out.slowmo = &slowmoIntent{factor: evt.Factor, durTicks: evt.DurTicks}
		case EventTextOverlay:
			out.overlays = append(out.overlays, overlayIntent{text: evt.Text, durTicks: evt.DurTicks})
		case EventShake:
			out.shake += evt.Intensity
		}
	}

	touched := make(map[*Pickup]bool)
	for _, contact := range collisions {
		if contact.IsWall() {
			w.resolveWall(contact, &out)
			continue
		}
		a := w.physics.Body(contact.A)
		b := w.physics.Body(contact.B)
		if a == nil || b == nil || !combatLive {
			continue
		}
		switch {
		case a.Kind == BodyOrb && b.Kind == BodyOrb:
			w.resolveOrbHit(contact, a, b, &out)
		case a.Kind == BodyOrb && b.Kind == BodyPickup:
			w.resolvePickupTouch(w.orbForBody(a), w.pickupForBody(b), contact, touched, &out)
		case a.Kind == BodyPickup && b.Kind == BodyOrb:
			w.resolvePickupTouch(w.orbForBody(b), w.pickupForBody(a), contact, touched, &out)
		}
	}

	if combatLive {
		for _, p := range w.roster.pickups {
			if p.State == PickupActive && tick >= p.ExpiresTick && !touched[p] {
				out.expired = append(out.expired, p)
				out.cues = append(out.cues, CuePickupMiss)
			}
		}
	}
	return out
}

func (w *World) resolveWall(contact Collision, out *combatOutcome) {
	body := w.physics.Body(contact.A)
	if body == nil || body.Kind != BodyOrb {
		return
	}
	orb := w.orbForBody(body)
	if orb == nil {
		return
	}
	out.impacts = append(out.impacts, ImpactView{Kind: ImpactWall, Pos: contact.Point, Normal: contact.Normal, Speed: contact.Speed})
	out.bounces = append(out.bounces, bounceIntent{orb: orb, wall: contact.Wall, speed: contact.Speed})
	if contact.Speed >= minBounceCueSpeed {
		out.cues = append(out.cues, bounceCues[w.rng.cues.Intn(len(bounceCues))])
	}
}

func (w *World) resolveOrbHit(contact Collision, a, b *Body, out *combatOutcome) {
	orbA := w.orbForBody(a)
	orbB := w.orbForBody(b)
	if orbA == nil || orbB == nil {
		return
	}
	impact := ImpactView{Kind: ImpactHit, Pos: contact.Point, Normal: contact.Normal, Speed: contact.Speed}
	if contact.Speed < w.cfg.Combat.DamageSpeed {
		out.impacts = append(out.impacts, impact)
		return
	}
	if orbA.Defeated || orbB.Defeated {
		out.impacts = append(out.impacts, impact)
		return
	}

	base := float64(w.cfg.Combat.BaseDamage)
	toA := int(math.Round(base * orbB.damageMultiplier(w.powerups) * orbA.absorbFactor(w.powerups)))
	toB := int(math.Round(base * orbA.damageMultiplier(w.powerups) * orbB.absorbFactor(w.powerups)))
	out.damages = append(out.damages,
		damageIntent{target: orbA, source: orbB, amount: toA, speed: contact.Speed, kind: "collision"},
		damageIntent{target: orbB, source: orbA, amount: toB, speed: contact.Speed, kind: "collision"},
	)
	out.cues = append(out.cues, CueHitNormal)
	if contact.Speed >= w.cfg.Combat.HeavySpeed {
		impact.Kind = ImpactHeavy
		out.cues = append(out.cues, CueHitHeavy)
		out.shake += min(contact.Speed/40, 18)
	}
	out.impacts = append(out.impacts, impact)
}

func (w *World) resolvePickupTouch(orb *Orb, pickup *Pickup, contact Collision, touched map[*Pickup]bool, out *combatOutcome) {
	if orb == nil || pickup == nil || orb.Defeated {
		return
	}
	if pickup.State != PickupActive || touched[pickup] {
		return
	}
	touched[pickup] = true
	out.consumed = append(out.consumed, consumeIntent{orb: orb, pickup: pickup})

	switch pickup.Kind {
	case PickupHeart:
		out.heals = append(out.heals, healIntent{target: orb, amount: w.cfg.Combat.HeartHeal, pickup: pickup})
		out.cues = append(out.cues, CuePickupHeart)
	case PickupSaw:
		out.grants = append(out.grants, grantIntent{target: orb, def: w.powerups[PowerUpSaw], pickup: pickup})
		out.cues = append(out.cues, CuePickupSaw)
	case PickupShield:
		out.grants = append(out.grants, grantIntent{target: orb, def: w.powerups[PowerUpShield], pickup: pickup})
		out.cues = append(out.cues, CuePickupShield)
	case PickupBomb:
		for _, target := range w.roster.orbs {
			amount := int(math.Round(float64(w.cfg.Combat.BombDamage) * target.absorbFactor(w.powerups)))
			out.damages = append(out.damages, damageIntent{target: target, amount: amount, kind: "bomb"})
		}
		out.cues = append(out.cues, CuePickupBomb)
		out.shake += 15
		out.impacts = append(out.impacts, ImpactView{Kind: ImpactBomb, Pos: pickup.Pos, Speed: contact.Speed})
	}
}

func (w *World) orbForBody(b *Body) *Orb {
	if w == nil || b == nil || b.Kind != BodyOrb {
		return nil
	}
	if b.Owner < 0 || b.Owner >= len(w.roster.orbs) {
		return nil
	}
	return w.roster.orbs[b.Owner]
}

func (w *World) pickupForBody(b *Body) *Pickup {
	if w == nil || b == nil || b.Kind != BodyPickup {
		return nil
	}
	if b.Owner < 0 || b.Owner >= len(w.roster.pickups) {
		return nil
	}
	return w.roster.pickups[b.Owner]
}
