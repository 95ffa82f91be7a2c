package sim

import (
	"context"
	"errors"
	"time"
)

// RunnerHooks observe a run. AfterStep fires after every tick with the
// snapshot that tick produced. Progress fires in fast mode at a coarse
// simulated-time interval.
type RunnerHooks struct {
	AfterStep func(Snapshot)
	Progress  func(tick uint64, t float64)
}

// Runner drives a world to completion. Real-time pacing and fast export
// share the same Step path, so the pacing mode can never influence the
// trajectory; it only decides when ticks happen on the wall clock.
type Runner struct {
	world *World
	hooks RunnerHooks

	// ProgressEvery is the fast-mode progress interval in simulated
	// seconds. Zero means every 5 seconds.
	ProgressEvery float64
}

func NewRunner(world *World, hooks RunnerHooks) *Runner {
	return &Runner{world: world, hooks: hooks}
}

// RunRealtime steps the world on a wall-clock ticker at the simulation
// rate. Every ticker fire advances exactly one tick of the fixed timestep;
// when stepping falls behind the ticker coalesces fires, so the run slows
// down rather than re-stepping or stretching dt.
func (r *Runner) RunRealtime(ctx context.Context) error {
	if r == nil || r.world == nil {
		return errors.New("sim: runner without a world")
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) * r.world.DT()))
	defer ticker.Stop()
	for !r.world.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap, err := r.world.Step()
			if err != nil {
				return err
			}
			if r.hooks.AfterStep != nil {
				r.hooks.AfterStep(snap)
			}
		}
	}
	return nil
}

// RunFast steps back-to-back with no pacing, for export.
func (r *Runner) RunFast(ctx context.Context) error {
	if r == nil || r.world == nil {
		return errors.New("sim: runner without a world")
	}
	every := r.ProgressEvery
	if every <= 0 {
		every = 5
	}
	next := every
	for !r.world.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := r.world.Step()
		if err != nil {
			return err
		}
		if r.hooks.AfterStep != nil {
			r.hooks.AfterStep(snap)
		}
		if r.hooks.Progress != nil && snap.T >= next {
			r.hooks.Progress(snap.Tick, snap.T)
			next += every
		}
	}
	return nil
}
