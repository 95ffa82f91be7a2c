package sim

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"orbduel/logging"
	"orbduel/logging/battle"
)

func twoOrbs() []OrbConfig {
	return []OrbConfig{
		{ID: "red", Name: "Red", Radius: 90, Mass: 1, MaxHP: 100},
		{ID: "blue", Name: "Blue", Radius: 90, Mass: 1, MaxHP: 100},
	}
}

func newTestWorld(t *testing.T, cfg Config) *World {
	t.Helper()
	if cfg.Orbs == nil {
		cfg.Orbs = twoOrbs()
	}
	w, err := New(cfg, Deps{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

// stepWith drives one tick through the resolution pipeline with hand-made
// contacts, bypassing physics so scenarios control the geometry exactly.
func stepWith(t *testing.T, w *World, collisions []Collision, due []Event) combatOutcome {
	t.Helper()
	tick := w.tick
	for i, orb := range w.roster.orbs {
		w.hpBefore[i] = orb.HP
	}
	out := w.resolveTick(tick, collisions, due)
	if err := w.applyOutcome(tick, &out); err != nil {
		t.Fatalf("applyOutcome: %v", err)
	}
	w.expireState(tick)
	w.updateResult(tick)
	w.tick++
	return out
}

func spawnTestPickup(t *testing.T, w *World, kind PickupKind, pos Vec2) *Pickup {
	t.Helper()
	p := &Pickup{
		ID:    fmt.Sprintf("pickup-%d", len(w.roster.pickups)+1),
		Kind:  kind,
		State: PickupPending,
		Body:  -1,
	}
	w.roster.addPickup(p)
	evt := Event{Kind: EventPickupSpawn, Pickup: kind, PickupIdx: len(w.roster.pickups) - 1, Pos: pos, HasPos: true}
	if err := w.spawnPickup(w.tick, evt); err != nil {
		t.Fatalf("spawnPickup: %v", err)
	}
	return p
}

func orbContact(w *World, speed float64) Collision {
	return Collision{
		A:      w.roster.orbs[0].Body,
		B:      w.roster.orbs[1].Body,
		Normal: Vec2{X: 1},
		Speed:  speed,
	}
}

func pickupContact(orb *Orb, p *Pickup) Collision {
	return Collision{A: orb.Body, B: p.Body, Normal: Vec2{X: 1}, Speed: 100}
}

func cuesOf(events []CueEvent) []string {
	out := make([]string, len(events))
	for i, evt := range events {
		out[i] = evt.Cue
	}
	return out
}

func TestWorldConstructionErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		cfg      Config
		sentinel error
	}{
		{"one orb", Config{Orbs: twoOrbs()[:1]}, ErrInvalidBodyConfig},
		{"duplicate orb ids", Config{Orbs: []OrbConfig{{ID: "red"}, {ID: "red"}}}, ErrInvalidBodyConfig},
		{"unknown winner", Config{Orbs: twoOrbs(), Winner: "green"}, nil},
		{"negative duration", Config{Orbs: twoOrbs(), Duration: -1}, nil},
		{"negative arena", Config{Orbs: twoOrbs(), Arena: ArenaConfig{Width: -5}}, nil},
		{"margin leaves no room", Config{Orbs: twoOrbs(), Arena: ArenaConfig{Width: 200, Height: 200}}, ErrInvalidBodyConfig},
		{"unknown event kind", Config{Orbs: twoOrbs(), Events: []EventSpec{{T: 1, Kind: "meteor"}}}, ErrMalformedEvent},
		{"pickup outside arena", Config{Orbs: twoOrbs(), Events: []EventSpec{
			{T: 1, Kind: "pickup_spawn", Pickup: "heart", Pos: Vec2{X: 5000, Y: 5000}, HasPos: true},
		}}, ErrMalformedEvent},
	}
	for _, tc := range cases {
		_, err := New(tc.cfg, Deps{})
		if err == nil {
			t.Fatalf("%s: construction succeeded", tc.name)
		}
		if tc.sentinel != nil && !errors.Is(err, tc.sentinel) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.sentinel)
		}
	}
}

func TestLaunchPlacesOrbsInsideArena(t *testing.T) {
	t.Parallel()
	for _, seed := range []int64{0, 1, 7, 1234} {
		w := newTestWorld(t, Config{Seed: seed})
		margin := w.cfg.Arena.SpawnMargin
		for _, orb := range w.roster.orbs {
			body := w.physics.Body(orb.Body)
			if body == nil {
				t.Fatalf("seed %d: orb %s has no body", seed, orb.ID)
			}
			if body.Pos.X < margin || body.Pos.X >= w.cfg.Arena.Width-margin ||
				body.Pos.Y < margin || body.Pos.Y >= w.cfg.Arena.Height-margin {
				t.Fatalf("seed %d: orb %s spawned at %+v outside the margin", seed, orb.ID, body.Pos)
			}
			found := false
			for _, v := range w.cfg.Physics.LaunchSpeeds {
				if body.Vel == v {
					found = true
				}
			}
			if !found {
				t.Fatalf("seed %d: orb %s launched at %+v, not a configured speed", seed, orb.ID, body.Vel)
			}
		}
	}
}

func TestHeartPickupHealsOnce(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t, Config{Seed: 1})
	orb := w.roster.orbs[0]
	orb.HP = 50
	p := spawnTestPickup(t, w, PickupHeart, Vec2{X: 540, Y: 960})
	body := p.Body

	stepWith(t, w, []Collision{pickupContact(orb, p)}, nil)

	if orb.HP != 52 {
		t.Fatalf("hp=%d, want 52", orb.HP)
	}
	if p.State != PickupConsumed {
		t.Fatalf("pickup state %v", p.State)
	}
	if p.Body != -1 || w.physics.Body(body) != nil {
		t.Fatalf("consumed pickup kept its body")
	}
	cues := cuesOf(w.bus.Pending())
	if len(cues) != 1 || cues[0] != CuePickupHeart {
		t.Fatalf("cues %v", cues)
	}

	// A stale contact against the freed slot must not heal again.
	stepWith(t, w, []Collision{{A: orb.Body, B: body, Speed: 100}}, nil)
	if orb.HP != 52 {
		t.Fatalf("hp=%d after stale contact", orb.HP)
	}
}

func TestOrbCollisionDamageTiers(t *testing.T) {
	t.Parallel()

	t.Run("below damage speed", func(t *testing.T) {
		w := newTestWorld(t, Config{Seed: 2})
		out := stepWith(t, w, []Collision{orbContact(w, 80)}, nil)
		if w.roster.orbs[0].HP != 100 || w.roster.orbs[1].HP != 100 {
			t.Fatalf("soft contact dealt damage: %d/%d", w.roster.orbs[0].HP, w.roster.orbs[1].HP)
		}
		if w.bus.Len() != 0 {
			t.Fatalf("soft contact cued %v", cuesOf(w.bus.Pending()))
		}
		if len(out.impacts) != 1 || out.impacts[0].Kind != ImpactHit {
			t.Fatalf("impacts %+v", out.impacts)
		}
	})

	t.Run("normal hit", func(t *testing.T) {
		w := newTestWorld(t, Config{Seed: 2})
		out := stepWith(t, w, []Collision{orbContact(w, 200)}, nil)
		if w.roster.orbs[0].HP != 90 || w.roster.orbs[1].HP != 90 {
			t.Fatalf("hp %d/%d, want 90/90", w.roster.orbs[0].HP, w.roster.orbs[1].HP)
		}
		cues := cuesOf(w.bus.Pending())
		if len(cues) != 1 || cues[0] != CueHitNormal {
			t.Fatalf("cues %v", cues)
		}
		if out.shake != 0 {
			t.Fatalf("normal hit shook the camera: %v", out.shake)
		}
	})

	t.Run("heavy hit", func(t *testing.T) {
		w := newTestWorld(t, Config{Seed: 2})
		out := stepWith(t, w, []Collision{orbContact(w, 500)}, nil)
		if w.roster.orbs[0].HP != 90 || w.roster.orbs[1].HP != 90 {
			t.Fatalf("hp %d/%d, want 90/90", w.roster.orbs[0].HP, w.roster.orbs[1].HP)
		}
		cues := cuesOf(w.bus.Pending())
		if len(cues) != 2 || cues[0] != CueHitNormal || cues[1] != CueHitHeavy {
			t.Fatalf("cues %v", cues)
		}
		if len(out.impacts) != 1 || out.impacts[0].Kind != ImpactHeavy {
			t.Fatalf("impacts %+v", out.impacts)
		}
		if out.shake != 12.5 {
			t.Fatalf("shake %v, want 12.5", out.shake)
		}
	})
}

func TestSawAndShieldScaleDamage(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t, Config{Seed: 3})
	red, blue := w.roster.orbs[0], w.roster.orbs[1]
	red.grantPowerUp(w.powerups[PowerUpSaw], 0)
	blue.grantPowerUp(w.powerups[PowerUpShield], 0)

	stepWith(t, w, []Collision{orbContact(w, 200)}, nil)

	// Red deals 10*2 through a 0.25 shield; blue deals plain 10.
	if blue.HP != 95 {
		t.Fatalf("blue hp=%d, want 95", blue.HP)
	}
	if red.HP != 90 {
		t.Fatalf("red hp=%d, want 90", red.HP)
	}
}

func TestBombBlastsBothOrbs(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t, Config{Seed: 4})
	red, blue := w.roster.orbs[0], w.roster.orbs[1]
	blue.grantPowerUp(w.powerups[PowerUpShield], 0)
	p := spawnTestPickup(t, w, PickupBomb, Vec2{X: 540, Y: 960})

	out := stepWith(t, w, []Collision{pickupContact(red, p)}, nil)

	if red.HP != 75 {
		t.Fatalf("red hp=%d, want 75", red.HP)
	}
	if blue.HP != 94 {
		t.Fatalf("shielded blue hp=%d, want 94", blue.HP)
	}
	if p.State != PickupConsumed {
		t.Fatalf("bomb state %v", p.State)
	}
	if out.shake != 15 {
		t.Fatalf("shake %v, want 15", out.shake)
	}
	foundBomb := false
	for _, impact := range out.impacts {
		if impact.Kind == ImpactBomb {
			foundBomb = true
		}
	}
	if !foundBomb {
		t.Fatalf("no bomb impact in %+v", out.impacts)
	}
	cues := cuesOf(w.bus.Pending())
	if len(cues) != 1 || cues[0] != CuePickupBomb {
		t.Fatalf("cues %v", cues)
	}
}

func TestPickupFirstTouchWins(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t, Config{Seed: 5})
	red, blue := w.roster.orbs[0], w.roster.orbs[1]
	red.HP, blue.HP = 50, 50
	p := spawnTestPickup(t, w, PickupHeart, Vec2{X: 540, Y: 960})

	out := stepWith(t, w, []Collision{
		pickupContact(red, p),
		pickupContact(blue, p),
	}, nil)

	if len(out.consumed) != 1 || out.consumed[0].orb != red {
		t.Fatalf("consumed %+v", out.consumed)
	}
	if red.HP != 52 || blue.HP != 50 {
		t.Fatalf("hp %d/%d, want 52/50", red.HP, blue.HP)
	}
}

func TestDefeatedOrbCannotCollectPickups(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t, Config{Seed: 6, Duration: 600})
	red := w.roster.orbs[0]
	red.HP = 0
	red.Defeated = true
	p := spawnTestPickup(t, w, PickupHeart, Vec2{X: 540, Y: 960})

	// The knockout ends the match on this tick; the touch must not land.
	stepWith(t, w, []Collision{pickupContact(red, p)}, nil)

	if p.State != PickupActive {
		t.Fatalf("pickup state %v, want active", p.State)
	}
	if red.HP != 0 {
		t.Fatalf("defeated orb healed to %d", red.HP)
	}
}

func TestKnockoutDecidesMatchAndStartsOutro(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t, Config{Seed: 7, Outro: 0.5})
	red, blue := w.roster.orbs[0], w.roster.orbs[1]
	blue.HP = 5

	stepWith(t, w, []Collision{orbContact(w, 200)}, nil)

	result := w.Result()
	if result == nil {
		t.Fatalf("no result after knockout")
	}
	if result.Outcome != OutcomeWin || result.Winner != "red" || result.Reason != ReasonKnockout {
		t.Fatalf("result %+v", result)
	}
	if result.Tick != 0 {
		t.Fatalf("result tick %d", result.Tick)
	}
	if w.endTick != 30 {
		t.Fatalf("endTick %d, want 30 for a half second outro", w.endTick)
	}
	if w.Done() {
		t.Fatalf("Done during outro")
	}
	cues := cuesOf(w.bus.Pending())
	if len(cues) != 2 || cues[0] != CueHitNormal || cues[1] != CueVictory {
		t.Fatalf("cues %v", cues)
	}

	// Combat is over: further orb contacts deal nothing, wall bounces
	// still read as presentation.
	w.bus.Drain()
	out := stepWith(t, w, []Collision{orbContact(w, 500)}, nil)
	if red.HP != 90 || blue.HP != 0 {
		t.Fatalf("outro contact changed hp to %d/%d", red.HP, blue.HP)
	}
	if len(out.damages) != 0 {
		t.Fatalf("outro produced damage intents: %+v", out.damages)
	}

	out = stepWith(t, w, []Collision{{A: red.Body, B: -1, Wall: WallLeft, Normal: Vec2{X: 1}, Speed: 300}}, nil)
	if len(out.bounces) != 1 {
		t.Fatalf("outro wall bounce dropped: %+v", out.bounces)
	}
	if w.bus.Len() != 1 {
		t.Fatalf("outro bounce cues %v", cuesOf(w.bus.Pending()))
	}
}

func TestDoubleKnockoutTieBreaks(t *testing.T) {
	t.Parallel()

	t.Run("configured winner", func(t *testing.T) {
		w := newTestWorld(t, Config{Seed: 8, Winner: "blue"})
		w.roster.orbs[0].HP = 5
		w.roster.orbs[1].HP = 5
		stepWith(t, w, []Collision{orbContact(w, 200)}, nil)
		if result := w.Result(); result == nil || result.Winner != "blue" {
			t.Fatalf("result %+v, want blue by script", result)
		}
	})

	t.Run("higher hp entering the tick", func(t *testing.T) {
		w := newTestWorld(t, Config{Seed: 8})
		w.roster.orbs[0].HP = 8
		w.roster.orbs[1].HP = 5
		stepWith(t, w, []Collision{orbContact(w, 200)}, nil)
		if result := w.Result(); result == nil || result.Winner != "red" {
			t.Fatalf("result %+v, want red on hp", result)
		}
	})

	t.Run("script order on a dead heat", func(t *testing.T) {
		w := newTestWorld(t, Config{Seed: 8})
		w.roster.orbs[0].HP = 5
		w.roster.orbs[1].HP = 5
		stepWith(t, w, []Collision{orbContact(w, 200)}, nil)
		if result := w.Result(); result == nil || result.Winner != "red" {
			t.Fatalf("result %+v, want first configured orb", result)
		}
	})
}

func TestTimeoutEndsInDraw(t *testing.T) {
	t.Parallel()
	var snaps []Snapshot
	cfg := Config{Seed: 9, Duration: 0.1, Orbs: twoOrbs()}
	w, err := New(cfg, Deps{Sink: FrameSinkFunc(func(s Snapshot) { snaps = append(snaps, s) })})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.DurationTicks() != 6 {
		t.Fatalf("DurationTicks=%d, want 6", w.DurationTicks())
	}

	for i := 0; !w.Done(); i++ {
		if i > 1000 {
			t.Fatalf("run never finished")
		}
		if _, err := w.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	if len(snaps) != 6 {
		t.Fatalf("got %d snapshots, want 6", len(snaps))
	}
	last := snaps[len(snaps)-1]
	if last.Result == nil {
		t.Fatalf("final snapshot has no result")
	}
	if last.Result.Outcome != OutcomeDraw || last.Result.Reason != ReasonTimeout || last.Result.Winner != "" {
		t.Fatalf("result %+v", last.Result)
	}
	if _, err := w.Step(); err == nil {
		t.Fatalf("Step after completion succeeded")
	}
}

func TestPickupExpiresAfterTTL(t *testing.T) {
	t.Parallel()
	w := newTestWorld(t, Config{Seed: 10, Combat: CombatConfig{PickupTTL: 0.05}})
	p := spawnTestPickup(t, w, PickupSaw, Vec2{X: 540, Y: 960})
	if p.ExpiresTick != 3 {
		t.Fatalf("ExpiresTick=%d, want 3", p.ExpiresTick)
	}
	body := p.Body

	for i := 0; i < 3; i++ {
		stepWith(t, w, nil, nil)
		if p.State != PickupActive {
			t.Fatalf("pickup expired early on tick %d", i)
		}
	}
	stepWith(t, w, nil, nil)

	if p.State != PickupExpired {
		t.Fatalf("pickup state %v, want expired", p.State)
	}
	if p.Body != -1 || w.physics.Body(body) != nil {
		t.Fatalf("expired pickup kept its body")
	}
	cues := cuesOf(w.bus.Pending())
	if len(cues) != 1 || cues[0] != CuePickupMiss {
		t.Fatalf("cues %v", cues)
	}
}

func TestScriptedEventsFlowIntoSnapshots(t *testing.T) {
	t.Parallel()
	var snaps []Snapshot
	cfg := Config{
		Seed:     11,
		Duration: 0.2,
		Orbs:     twoOrbs(),
		Events: []EventSpec{
			{T: 0, Kind: "text_overlay", Text: "FIGHT", Duration: 0.05},
			{T: 0, Kind: "shake", Intensity: 5},
			{T: 0.03, Kind: "slowmo", Factor: 0.5, Duration: 0.05},
		},
	}
	w, err := New(cfg, Deps{Sink: FrameSinkFunc(func(s Snapshot) { snaps = append(snaps, s) })})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for !w.Done() {
		if _, err := w.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if len(snaps) != 12 {
		t.Fatalf("got %d snapshots, want 12", len(snaps))
	}

	if snaps[0].Shake < 5 {
		t.Fatalf("tick 0 shake %v, want at least the scripted 5", snaps[0].Shake)
	}
	if len(snaps[0].Overlays) != 1 || snaps[0].Overlays[0].Text != "FIGHT" || snaps[0].Overlays[0].Remaining != 3 {
		t.Fatalf("tick 0 overlays %+v", snaps[0].Overlays)
	}
	if len(snaps[2].Overlays) != 1 || snaps[2].Overlays[0].Remaining != 1 {
		t.Fatalf("tick 2 overlays %+v", snaps[2].Overlays)
	}
	if len(snaps[3].Overlays) != 0 {
		t.Fatalf("tick 3 overlays survived: %+v", snaps[3].Overlays)
	}

	if snaps[1].SlowMo != 0 {
		t.Fatalf("slow motion before its tick: %v", snaps[1].SlowMo)
	}
	for tick := 2; tick <= 4; tick++ {
		if snaps[tick].SlowMo != 0.5 {
			t.Fatalf("tick %d slowMo %v, want 0.5", tick, snaps[tick].SlowMo)
		}
	}
	if snaps[5].SlowMo != 0 {
		t.Fatalf("slow motion overstayed: %v", snaps[5].SlowMo)
	}
}

func TestWorldPublishesBattleEvents(t *testing.T) {
	t.Parallel()
	var published []logging.Event
	pub := logging.PublisherFunc(func(_ context.Context, evt logging.Event) error {
		published = append(published, evt)
		return nil
	})
	cfg := Config{Seed: 12, Orbs: twoOrbs()}
	w, err := New(cfg, Deps{Publisher: pub})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	red := w.roster.orbs[0]
	red.HP = 50
	p := spawnTestPickup(t, w, PickupHeart, Vec2{X: 540, Y: 960})
	stepWith(t, w, []Collision{pickupContact(red, p)}, nil)

	types := map[logging.EventType]int{}
	for _, evt := range published {
		types[evt.Type]++
	}
	if types[battle.PickupSpawnedEventType] != 1 {
		t.Fatalf("pickup_spawned published %d times", types[battle.PickupSpawnedEventType])
	}
	if types[battle.PickupConsumedType] != 1 {
		t.Fatalf("pickup_consumed published %d times", types[battle.PickupConsumedType])
	}
	if types[battle.DamageEventType] != 1 {
		t.Fatalf("damage published %d times", types[battle.DamageEventType])
	}

	for _, evt := range published {
		if evt.Type != battle.DamageEventType {
			continue
		}
		payload, ok := evt.Payload.(battle.DamagePayload)
		if !ok {
			t.Fatalf("damage payload %T", evt.Payload)
		}
		if payload.Amount != -2 || payload.HP != 52 || payload.Source != "heart" {
			t.Fatalf("heal payload %+v", payload)
		}
		if len(evt.Targets) != 1 || evt.Targets[0].ID != "red" {
			t.Fatalf("heal targets %+v", evt.Targets)
		}
	}
}
