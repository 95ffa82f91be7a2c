package battle

import (
	"context"

	"orbduel/logging"
)

const (
	DamageEventType        logging.EventType = "battle.damage"
	WallBounceEventType    logging.EventType = "battle.wall_bounce"
	PickupSpawnedEventType logging.EventType = "battle.pickup_spawned"
	PickupConsumedType     logging.EventType = "battle.pickup_consumed"
	PickupExpiredType      logging.EventType = "battle.pickup_expired"
	PowerUpAppliedType     logging.EventType = "battle.powerup_applied"
	PowerUpExpiredType     logging.EventType = "battle.powerup_expired"
	MatchEndedEventType    logging.EventType = "battle.match_ended"
)

type DamagePayload struct {
	Amount int     `json:"amount"`
	HP     int     `json:"hp"`
	Speed  float64 `json:"speed,omitempty"`
	Source string  `json:"source"`
}

// Damage records one orb losing (or gaining, for negative amounts) hit points.
func Damage(ctx context.Context, pub logging.Publisher, tick uint64, source logging.EntityRef, target logging.EntityRef, amount, hp int, speed float64, kind string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     DamageEventType,
		Tick:     tick,
		Actor:    source,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBattle,
		Payload:  DamagePayload{Amount: amount, HP: hp, Speed: speed, Source: kind},
	})
}

type WallBouncePayload struct {
	Wall  string  `json:"wall"`
	Speed float64 `json:"speed"`
}

func WallBounce(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, wall string, speed float64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     WallBounceEventType,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryBattle,
		Payload:  WallBouncePayload{Wall: wall, Speed: speed},
	})
}

type PickupPayload struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
}

func PickupSpawned(ctx context.Context, pub logging.Publisher, tick uint64, pickup logging.EntityRef, kind string, x, y float64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     PickupSpawnedEventType,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindDirector},
		Targets:  []logging.EntityRef{pickup},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBattle,
		Payload:  PickupPayload{Kind: kind, X: x, Y: y},
	})
}

func PickupConsumed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, pickup logging.EntityRef, kind string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     PickupConsumedType,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{pickup},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBattle,
		Payload:  PickupPayload{Kind: kind},
	})
}

func PickupExpired(ctx context.Context, pub logging.Publisher, tick uint64, pickup logging.EntityRef, kind string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     PickupExpiredType,
		Tick:     tick,
		Actor:    pickup,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryBattle,
		Payload:  PickupPayload{Kind: kind},
	})
}

type PowerUpPayload struct {
	Kind      string `json:"kind"`
	Duration  uint64 `json:"duration,omitempty"`
	Refreshed bool   `json:"refreshed,omitempty"`
}

func PowerUpApplied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, kind string, duration uint64, refreshed bool) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     PowerUpAppliedType,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBattle,
		Payload:  PowerUpPayload{Kind: kind, Duration: duration, Refreshed: refreshed},
	})
}

func PowerUpExpired(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, kind string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     PowerUpExpiredType,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryBattle,
		Payload:  PowerUpPayload{Kind: kind},
	})
}

type MatchEndedPayload struct {
	Outcome string  `json:"outcome"`
	Winner  string  `json:"winner,omitempty"`
	Reason  string  `json:"reason"`
	T       float64 `json:"t"`
}

func MatchEnded(ctx context.Context, pub logging.Publisher, tick uint64, outcome, winner, reason string, t float64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     MatchEndedEventType,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBattle,
		Payload:  MatchEndedPayload{Outcome: outcome, Winner: winner, Reason: reason, T: t},
	})
}
