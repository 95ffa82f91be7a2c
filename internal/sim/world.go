package sim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"orbduel/logging"
	"orbduel/logging/battle"
)

// Deps carries the shared infrastructure the world publishes through. Both
// fields are optional; a zero Deps gives a silent, headless run.
type Deps struct {
	Publisher logging.Publisher
	Sink      FrameSink
}

type overlayState struct {
	text        string
	expiresTick uint64
}

// World owns the single logical timeline of a run: physics, entities,
// scripted events, combat resolution, and the cue log, advanced one fixed
// tick at a time. It is not safe for concurrent use; consumers read the
// copy-out snapshots instead.
type World struct {
	cfg      Config
	dt       float64
	tick     uint64
	rng      randStreams
	physics  *PhysicsWorld
	roster   *roster
	timeline *Timeline
	powerups powerUpTable
	bus      *AudioBus
	pub      logging.Publisher
	sink     FrameSink

	overlays     []overlayState
	slowmoFactor float64
	slowmoUntil  uint64

	hpBefore      []int
	result        *MatchResult
	endTick       uint64
	durationTicks uint64
	pickupSeq     int
}

// New builds a world from a normalized battle description. Every
// construction-time failure surfaces here, before the first tick.
func New(cfg Config, deps Deps) (*World, error) {
	cfg = cfg.normalized()
	if cfg.Arena.Width <= 0 || cfg.Arena.Height <= 0 {
		return nil, fmt.Errorf("sim: arena size %gx%g", cfg.Arena.Width, cfg.Arena.Height)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("sim: duration %g", cfg.Duration)
	}

	members, err := newRoster(cfg.Orbs)
	if err != nil {
		return nil, err
	}
	if cfg.Winner != "" && members.orbByID(cfg.Winner) == nil {
		return nil, fmt.Errorf("sim: winner %q is not a configured orb", cfg.Winner)
	}

	streams := newRandStreams(cfg.Seed)
	dt := 1 / float64(cfg.FPS)
	perTick := math.Pow(cfg.Arena.Damping, dt)
	physics := newPhysicsWorld(physicsConfig{
		width:      cfg.Arena.Width,
		height:     cfg.Arena.Height,
		damping:    perTick,
		maxSpeed:   cfg.Physics.MaxSpeed,
		wallJitter: cfg.Arena.WallJitter,
	}, streams.physics)

	w := &World{
		cfg:           cfg,
		dt:            dt,
		rng:           streams,
		physics:       physics,
		roster:        members,
		powerups:      newPowerUpTable(cfg.Combat, cfg.FPS),
		bus:           &AudioBus{},
		pub:           deps.Publisher,
		sink:          deps.Sink,
		hpBefore:      make([]int, len(members.orbs)),
		durationTicks: max(tickAt(cfg.Duration, cfg.FPS), 1),
	}
	if w.pub == nil {
		w.pub = logging.NopPublisher()
	}

	if err := w.launchOrbs(); err != nil {
		return nil, err
	}
	if err := w.buildScript(); err != nil {
		return nil, err
	}
	return w, nil
}

// launchOrbs places both orbs in script order, drawing placement and launch
// velocity from the launch stream. Positions are re-drawn a bounded number
// of times when they would start overlapping.
func (w *World) launchOrbs() error {
	margin := w.cfg.Arena.SpawnMargin
	maxX := w.cfg.Arena.Width - margin
	maxY := w.cfg.Arena.Height - margin
	if maxX <= margin || maxY <= margin {
		return fmt.Errorf("%w: spawn margin %g leaves no room", ErrInvalidBodyConfig, margin)
	}
	for i, orb := range w.roster.orbs {
		pos := Vec2{}
		for attempt := 0; attempt < 8; attempt++ {
			pos = Vec2{
				X: rangeFloat(w.rng.launch, margin, maxX),
				Y: rangeFloat(w.rng.launch, margin, maxY),
			}
			if !w.overlapsExistingOrb(pos, orb.Radius) {
				break
			}
		}
		vel := w.cfg.Physics.LaunchSpeeds[w.rng.launch.Intn(len(w.cfg.Physics.LaunchSpeeds))]
		body, err := w.physics.AddBody(Body{
			Pos:         pos,
			Vel:         vel,
			Radius:      orb.Radius,
			InvMass:     1 / w.cfg.Orbs[i].Mass,
			Restitution: w.cfg.Physics.Restitution,
			Kind:        BodyOrb,
			Owner:       i,
		})
		if err != nil {
			return err
		}
		orb.Body = body
	}
	return nil
}

func (w *World) overlapsExistingOrb(pos Vec2, radius float64) bool {
	for _, other := range w.roster.orbs {
		body := w.physics.Body(other.Body)
		if body == nil {
			continue
		}
		if body.Pos.Sub(pos).Length() < body.Radius+radius+40 {
			return true
		}
	}
	return false
}

// buildScript validates the event timeline and materializes one pending
// pickup per spawn entry so the state machine starts at pending.
func (w *World) buildScript() error {
	timeline, err := buildTimeline(w.cfg.Events, w.cfg.FPS)
	if err != nil {
		return err
	}
	for i := range timeline.events {
		evt := &timeline.events[i]
		if evt.Kind != EventPickupSpawn {
			continue
		}
		if evt.HasPos {
			r := w.cfg.Combat.PickupRadius
			if evt.Pos.X < r || evt.Pos.X > w.cfg.Arena.Width-r ||
				evt.Pos.Y < r || evt.Pos.Y > w.cfg.Arena.Height-r {
				return fmt.Errorf("%w: pickup position (%g,%g) outside arena", ErrMalformedEvent, evt.Pos.X, evt.Pos.Y)
			}
		}
		w.pickupSeq++
		p := &Pickup{
			ID:        fmt.Sprintf("pickup-%d", w.pickupSeq),
			Kind:      evt.Pickup,
			SpawnTick: evt.Tick,
			Pos:       evt.Pos,
			HasPos:    evt.HasPos,
			State:     PickupPending,
			Body:      -1,
		}
		w.roster.addPickup(p)
		evt.PickupIdx = len(w.roster.pickups) - 1
	}
	w.timeline = timeline
	return nil
}

// Step advances exactly one tick: physics, then due script entries, then
// combat resolution and the batched state commit. The returned snapshot is
// also handed to the frame sink when one is configured.
func (w *World) Step() (Snapshot, error) {
	if w == nil {
		return Snapshot{}, errors.New("sim: nil world")
	}
	if w.Done() {
		return Snapshot{}, errors.New("sim: step after run completed")
	}

	tick := w.tick
	for i, orb := range w.roster.orbs {
		w.hpBefore[i] = orb.HP
	}

	collisions := w.physics.Step(w.dt)
	due, err := w.timeline.PopDue(tick)
	if err != nil {
		return Snapshot{}, err
	}
	outcome := w.resolveTick(tick, collisions, due)
	if err := w.applyOutcome(tick, &outcome); err != nil {
		return Snapshot{}, err
	}
	w.expireState(tick)
	w.updateResult(tick)

	snap := w.buildSnapshot(tick, outcome)
	w.tick++
	if w.sink != nil {
		w.sink.Consume(snap)
	}
	return snap, nil
}

// Done reports whether the run has produced its final snapshot.
func (w *World) Done() bool {
	if w == nil {
		return true
	}
	return w.result != nil && w.tick > w.endTick
}

func (w *World) applyOutcome(tick uint64, out *combatOutcome) error {
	ctx := context.Background()
	t := w.timeOf(tick)

	for _, evt := range out.spawns {
		if err := w.spawnPickup(tick, evt); err != nil {
			return err
		}
	}
	for _, intent := range out.damages {
		lost := intent.target.damage(intent.amount, tick)
		if lost <= 0 {
			continue
		}
		source := logging.EntityRef{Kind: logging.EntityKindWorld}
		if intent.source != nil {
			source = logging.EntityRef{ID: intent.source.ID, Kind: logging.EntityKindOrb}
		}
		battle.Damage(ctx, w.pub, tick, source,
			logging.EntityRef{ID: intent.target.ID, Kind: logging.EntityKindOrb},
			lost, intent.target.HP, intent.speed, intent.kind)
	}
	for _, intent := range out.heals {
		gained := intent.target.heal(intent.amount)
		if gained <= 0 {
			continue
		}
		battle.Damage(ctx, w.pub, tick,
			logging.EntityRef{ID: intent.pickup.ID, Kind: logging.EntityKindPickup},
			logging.EntityRef{ID: intent.target.ID, Kind: logging.EntityKindOrb},
			-gained, intent.target.HP, 0, "heart")
	}
	for _, intent := range out.grants {
		refreshed := intent.target.grantPowerUp(intent.def, tick)
		battle.PowerUpApplied(ctx, w.pub, tick,
			logging.EntityRef{ID: intent.target.ID, Kind: logging.EntityKindOrb},
			string(intent.def.Kind), intent.def.Duration, refreshed)
	}
	for _, intent := range out.consumed {
		if !intent.pickup.consume() {
			continue
		}
		w.physics.RemoveBody(intent.pickup.Body)
		intent.pickup.Body = -1
		battle.PickupConsumed(ctx, w.pub, tick,
			logging.EntityRef{ID: intent.orb.ID, Kind: logging.EntityKindOrb},
			logging.EntityRef{ID: intent.pickup.ID, Kind: logging.EntityKindPickup},
			string(intent.pickup.Kind))
	}
	for _, p := range out.expired {
		if !p.expire() {
			continue
		}
		w.physics.RemoveBody(p.Body)
		p.Body = -1
		battle.PickupExpired(ctx, w.pub, tick,
			logging.EntityRef{ID: p.ID, Kind: logging.EntityKindPickup}, string(p.Kind))
	}
	for _, intent := range out.bounces {
		battle.WallBounce(ctx, w.pub, tick,
			logging.EntityRef{ID: intent.orb.ID, Kind: logging.EntityKindOrb},
			intent.wall.String(), intent.speed)
	}
	for _, intent := range out.overlays {
		w.overlays = append(w.overlays, overlayState{text: intent.text, expiresTick: tick + intent.durTicks})
	}
	if out.slowmo != nil {
		w.slowmoFactor = out.slowmo.factor
		w.slowmoUntil = tick + out.slowmo.durTicks
	}
	for _, cue := range out.cues {
		w.bus.Append(cue, tick, t)
	}
	return nil
}

func (w *World) spawnPickup(tick uint64, evt Event) error {
	if evt.PickupIdx < 0 || evt.PickupIdx >= len(w.roster.pickups) {
		return fmt.Errorf("%w: spawn event was never materialized", ErrMalformedEvent)
	}
	p := w.roster.pickups[evt.PickupIdx]
	pos := evt.Pos
	if !evt.HasPos {
		margin := max(w.cfg.Arena.SpawnMargin, w.cfg.Combat.PickupRadius)
		pos = Vec2{
			X: rangeFloat(w.rng.pickups, margin, w.cfg.Arena.Width-margin),
			Y: rangeFloat(w.rng.pickups, margin, w.cfg.Arena.Height-margin),
		}
	}
	body, err := w.physics.AddBody(Body{
		Pos:         pos,
		Radius:      w.cfg.Combat.PickupRadius,
		Restitution: 1,
		Kind:        BodyPickup,
		Owner:       evt.PickupIdx,
		Sensor:      true,
	})
	if err != nil {
		return err
	}
	expires := tick + ticksFor(w.cfg.Combat.PickupTTL, w.cfg.FPS)
	if !p.activate(pos, body, expires) {
		w.physics.RemoveBody(body)
		return nil
	}
	battle.PickupSpawned(context.Background(), w.pub, tick,
		logging.EntityRef{ID: p.ID, Kind: logging.EntityKindPickup},
		string(p.Kind), pos.X, pos.Y)
	return nil
}

// expireState retires timed state: power-up instances whose tick has come
// and overlay text that has run its course.
func (w *World) expireState(tick uint64) {
	ctx := context.Background()
	for _, orb := range w.roster.orbs {
		for _, kind := range orb.expirePowerUps(tick) {
			battle.PowerUpExpired(ctx, w.pub, tick,
				logging.EntityRef{ID: orb.ID, Kind: logging.EntityKindOrb}, string(kind))
		}
	}
	kept := w.overlays[:0]
	for _, o := range w.overlays {
		if tick < o.expiresTick {
			kept = append(kept, o)
		}
	}
	w.overlays = kept
}

func (w *World) updateResult(tick uint64) {
	if w.result != nil {
		return
	}
	if len(w.roster.defeated()) > 0 {
		winner := w.pickWinner()
		w.result = &MatchResult{
			Outcome: OutcomeWin,
			Winner:  winner.ID,
			Reason:  ReasonKnockout,
			Tick:    tick,
			T:       w.timeOf(tick),
		}
		w.endTick = tick + ticksFor(w.cfg.Outro, w.cfg.FPS)
		w.bus.Append(CueVictory, tick, w.timeOf(tick))
		battle.MatchEnded(context.Background(), w.pub, tick, OutcomeWin, winner.ID, ReasonKnockout, w.timeOf(tick))
		return
	}
	if tick+1 >= w.durationTicks {
		w.result = &MatchResult{
			Outcome: OutcomeDraw,
			Reason:  ReasonTimeout,
			Tick:    tick,
			T:       w.timeOf(tick),
		}
		w.endTick = tick
		battle.MatchEnded(context.Background(), w.pub, tick, OutcomeDraw, "", ReasonTimeout, w.timeOf(tick))
	}
}

// pickWinner decides the knockout winner. A sole survivor wins outright.
// When both orbs fall on the same tick the script's winner field decides,
// then the orb that entered the tick with more HP, then script order.
func (w *World) pickWinner() *Orb {
	var alive []*Orb
	for _, orb := range w.roster.orbs {
		if !orb.Defeated {
			alive = append(alive, orb)
		}
	}
	if len(alive) == 1 {
		return alive[0]
	}
	if preferred := w.roster.orbByID(w.cfg.Winner); preferred != nil {
		return preferred
	}
	a, b := w.roster.orbs[0], w.roster.orbs[1]
	if w.hpBefore[0] != w.hpBefore[1] {
		if w.hpBefore[0] > w.hpBefore[1] {
			return a
		}
		return b
	}
	return a
}

func (w *World) buildSnapshot(tick uint64, out combatOutcome) Snapshot {
	snap := Snapshot{
		Tick:  tick,
		T:     w.timeOf(tick),
		Orbs:  make([]OrbView, 0, len(w.roster.orbs)),
		Shake: out.shake,
	}
	for _, orb := range w.roster.orbs {
		view := OrbView{
			ID:             orb.ID,
			Name:           orb.Name,
			Logo:           orb.Logo,
			Hue:            orb.Hue,
			Radius:         orb.Radius,
			HP:             orb.HP,
			MaxHP:          orb.MaxHP,
			LastDamageTick: orb.LastDamageTick,
			Defeated:       orb.Defeated,
		}
		if body := w.physics.Body(orb.Body); body != nil {
			view.Pos = body.Pos
			view.Vel = body.Vel
		}
		for _, inst := range orb.PowerUps {
			remaining := uint64(0)
			if inst.ExpiresTick > tick {
				remaining = inst.ExpiresTick - tick
			}
			view.PowerUps = append(view.PowerUps, PowerUpView{Kind: inst.Kind, Remaining: remaining})
		}
		snap.Orbs = append(snap.Orbs, view)
	}
	for _, p := range w.roster.pickups {
		if p.State != PickupActive {
			continue
		}
		remaining := uint64(0)
		if p.ExpiresTick > tick {
			remaining = p.ExpiresTick - tick
		}
		snap.Pickups = append(snap.Pickups, PickupView{
			ID:        p.ID,
			Kind:      p.Kind,
			Pos:       p.Pos,
			State:     p.State.String(),
			Remaining: remaining,
		})
	}
	snap.Impacts = out.impacts
	for _, o := range w.overlays {
		if tick < o.expiresTick {
			snap.Overlays = append(snap.Overlays, OverlayView{Text: o.text, Remaining: o.expiresTick - tick})
		}
	}
	if w.slowmoUntil > tick {
		snap.SlowMo = w.slowmoFactor
	}
	if w.result != nil {
		result := *w.result
		snap.Result = &result
	}
	return snap
}

func (w *World) timeOf(tick uint64) float64 {
	return float64(tick) * w.dt
}

// Tick is the index of the next tick Step will run.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Result returns a copy of the terminal result, or nil while the run is
// still undecided.
func (w *World) Result() *MatchResult {
	if w == nil || w.result == nil {
		return nil
	}
	result := *w.result
	return &result
}

// Bus exposes the cue log for draining by the audio layer.
func (w *World) Bus() *AudioBus {
	if w == nil {
		return nil
	}
	return w.bus
}

// Config returns the normalized configuration the world runs with.
func (w *World) Config() Config {
	if w == nil {
		return Config{}
	}
	return w.cfg
}

// DT is the fixed timestep in seconds.
func (w *World) DT() float64 {
	if w == nil {
		return 0
	}
	return w.dt
}

// DurationTicks is the tick count at which an undecided run becomes a draw.
func (w *World) DurationTicks() uint64 {
	if w == nil {
		return 0
	}
	return w.durationTicks
}
