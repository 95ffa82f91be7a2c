package sim

type PowerUpKind string

const (
	PowerUpSaw    PowerUpKind = "saw"
	PowerUpShield PowerUpKind = "shield"
)

// PowerUpDefinition describes one timed combat modifier. Durations are tick
// counts so expiry never depends on wall-clock time.
type PowerUpDefinition struct {
	Kind         PowerUpKind
	Duration     uint64
	DamageMult   float64
	AbsorbFactor float64
	Cue          string
}

// PowerUpInstance is one active modifier on an orb.
type PowerUpInstance struct {
	Kind        PowerUpKind
	AppliedTick uint64
	ExpiresTick uint64
}

type powerUpTable map[PowerUpKind]PowerUpDefinition

func newPowerUpTable(cfg CombatConfig, fps int) powerUpTable {
	return powerUpTable{
		PowerUpSaw: {
			Kind:         PowerUpSaw,
			Duration:     ticksFor(cfg.SawDuration, fps),
			DamageMult:   cfg.SawMultiplier,
			AbsorbFactor: 1,
			Cue:          CuePickupSaw,
		},
		PowerUpShield: {
			Kind:         PowerUpShield,
			Duration:     ticksFor(cfg.ShieldDuration, fps),
			DamageMult:   1,
			AbsorbFactor: cfg.ShieldFactor,
			Cue:          CuePickupShield,
		},
	}
}

// grantPowerUp applies the definition to the orb. A second grant of the same
// kind refreshes the expiry instead of stacking. Reports whether an existing
// instance was refreshed.
func (o *Orb) grantPowerUp(def PowerUpDefinition, tick uint64) bool {
	if o == nil {
		return false
	}
	for i := range o.PowerUps {
		if o.PowerUps[i].Kind == def.Kind {
			o.PowerUps[i].ExpiresTick = tick + def.Duration
			return true
		}
	}
	o.PowerUps = append(o.PowerUps, PowerUpInstance{
		Kind:        def.Kind,
		AppliedTick: tick,
		ExpiresTick: tick + def.Duration,
	})
	return false
}

// expirePowerUps removes instances whose expiry tick has been reached and
// returns the removed kinds in application order.
func (o *Orb) expirePowerUps(tick uint64) []PowerUpKind {
	if o == nil || len(o.PowerUps) == 0 {
		return nil
	}
	var expired []PowerUpKind
	kept := o.PowerUps[:0]
	for _, inst := range o.PowerUps {
		if tick >= inst.ExpiresTick {
			expired = append(expired, inst.Kind)
			continue
		}
		kept = append(kept, inst)
	}
	o.PowerUps = kept
	return expired
}

func (o *Orb) hasPowerUp(kind PowerUpKind) bool {
	if o == nil {
		return false
	}
	for _, inst := range o.PowerUps {
		if inst.Kind == kind {
			return true
		}
	}
	return false
}

// damageMultiplier is the product of the orb's outgoing damage multipliers.
func (o *Orb) damageMultiplier(table powerUpTable) float64 {
	mult := 1.0
	if o == nil {
		return mult
	}
	for _, inst := range o.PowerUps {
		if def, ok := table[inst.Kind]; ok && def.DamageMult > 0 {
			mult *= def.DamageMult
		}
	}
	return mult
}

// absorbFactor is the product of the orb's incoming damage factors.
func (o *Orb) absorbFactor(table powerUpTable) float64 {
	factor := 1.0
	if o == nil {
		return factor
	}
	for _, inst := range o.PowerUps {
		if def, ok := table[inst.Kind]; ok && def.AbsorbFactor > 0 {
			factor *= def.AbsorbFactor
		}
	}
	return factor
}
