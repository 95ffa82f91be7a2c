package sim

import "testing"

func testPowerUpTable() powerUpTable {
	return newPowerUpTable(CombatConfig{
		SawMultiplier:  2,
		SawDuration:    5,
		ShieldFactor:   0.25,
		ShieldDuration: 5,
	}, 60)
}

func TestGrantPowerUpRefreshesInsteadOfStacking(t *testing.T) {
	t.Parallel()
	table := testPowerUpTable()
	orb := &Orb{ID: "a", MaxHP: 100, HP: 100}

	if refreshed := orb.grantPowerUp(table[PowerUpSaw], 100); refreshed {
		t.Fatalf("first grant reported refresh")
	}
	if len(orb.PowerUps) != 1 || orb.PowerUps[0].ExpiresTick != 400 {
		t.Fatalf("unexpected instance: %+v", orb.PowerUps)
	}

	if refreshed := orb.grantPowerUp(table[PowerUpSaw], 250); !refreshed {
		t.Fatalf("second grant did not report refresh")
	}
	if len(orb.PowerUps) != 1 {
		t.Fatalf("grant stacked: %d instances", len(orb.PowerUps))
	}
	if orb.PowerUps[0].ExpiresTick != 550 {
		t.Fatalf("expiry not pushed out: %d", orb.PowerUps[0].ExpiresTick)
	}
	if orb.PowerUps[0].AppliedTick != 100 {
		t.Fatalf("refresh rewrote applied tick: %d", orb.PowerUps[0].AppliedTick)
	}
}

func TestExpirePowerUpsReturnsKindsInApplicationOrder(t *testing.T) {
	t.Parallel()
	table := testPowerUpTable()
	orb := &Orb{ID: "a", MaxHP: 100, HP: 100}
	orb.grantPowerUp(table[PowerUpShield], 0)
	orb.grantPowerUp(table[PowerUpSaw], 0)

	if expired := orb.expirePowerUps(299); len(expired) != 0 {
		t.Fatalf("expired early: %v", expired)
	}
	expired := orb.expirePowerUps(300)
	if len(expired) != 2 || expired[0] != PowerUpShield || expired[1] != PowerUpSaw {
		t.Fatalf("expiry order %v, want [shield saw]", expired)
	}
	if len(orb.PowerUps) != 0 {
		t.Fatalf("instances survive expiry: %+v", orb.PowerUps)
	}
	if orb.expirePowerUps(301) != nil {
		t.Fatalf("second expiry pass returned kinds")
	}
}

func TestDamageMultiplierAndAbsorbFactor(t *testing.T) {
	t.Parallel()
	table := testPowerUpTable()
	orb := &Orb{ID: "a", MaxHP: 100, HP: 100}

	if got := orb.damageMultiplier(table); got != 1 {
		t.Fatalf("bare orb multiplier %v", got)
	}
	if got := orb.absorbFactor(table); got != 1 {
		t.Fatalf("bare orb absorb %v", got)
	}

	orb.grantPowerUp(table[PowerUpSaw], 0)
	if got := orb.damageMultiplier(table); got != 2 {
		t.Fatalf("saw multiplier %v, want 2", got)
	}
	if got := orb.absorbFactor(table); got != 1 {
		t.Fatalf("saw changed absorb: %v", got)
	}

	orb.grantPowerUp(table[PowerUpShield], 0)
	if got := orb.absorbFactor(table); got != 0.25 {
		t.Fatalf("shield absorb %v, want 0.25", got)
	}
	if got := orb.damageMultiplier(table); got != 2 {
		t.Fatalf("shield changed outgoing damage: %v", got)
	}
	if !orb.hasPowerUp(PowerUpSaw) || !orb.hasPowerUp(PowerUpShield) {
		t.Fatalf("hasPowerUp lost track: %+v", orb.PowerUps)
	}
}

func TestPowerUpTableDurations(t *testing.T) {
	t.Parallel()
	table := newPowerUpTable(CombatConfig{
		SawMultiplier:  3,
		SawDuration:    2.5,
		ShieldFactor:   0.5,
		ShieldDuration: 1,
	}, 60)

	if got := table[PowerUpSaw].Duration; got != 150 {
		t.Fatalf("saw duration %d ticks, want 150", got)
	}
	if got := table[PowerUpShield].Duration; got != 60 {
		t.Fatalf("shield duration %d ticks, want 60", got)
	}
	if table[PowerUpSaw].Cue != CuePickupSaw || table[PowerUpShield].Cue != CuePickupShield {
		t.Fatalf("cue wiring wrong: %+v", table)
	}
}
