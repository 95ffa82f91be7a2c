package sim

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// Stream labels. Every consumer of randomness owns a named stream derived
// from the root seed, so adding draws to one consumer never shifts the
// sequence another consumer sees.
const (
	streamLaunch  = "launch"
	streamPhysics = "physics"
	streamPickups = "pickups"
	streamCues    = "cues"

	// Render-side streams. They share the seed space but presentation code
	// draws from its own generators, so pacing and dropped frames can never
	// perturb the simulation.
	StreamCamera    = "camera"
	StreamParticles = "particles"
)

// SeedValue derives a child seed for a named stream from the root seed.
// FNV-1a over the decimal seed and the label; the same pair yields the same
// child on every platform.
func SeedValue(seed int64, label string) int64 {
	hasher := fnv.New64a()
	var buf [24]byte
	hasher.Write(strconv.AppendInt(buf[:0], seed, 10))
	hasher.Write([]byte{':'})
	hasher.Write([]byte(label))
	return int64(hasher.Sum64())
}

// Stream returns a deterministic generator for the named stream.
func Stream(seed int64, label string) *rand.Rand {
	return rand.New(rand.NewSource(SeedValue(seed, label)))
}

type randStreams struct {
	launch  *rand.Rand
	physics *rand.Rand
	pickups *rand.Rand
	cues    *rand.Rand
}

func newRandStreams(seed int64) randStreams {
	return randStreams{
		launch:  Stream(seed, streamLaunch),
		physics: Stream(seed, streamPhysics),
		pickups: Stream(seed, streamPickups),
		cues:    Stream(seed, streamCues),
	}
}

// rangeFloat returns a uniform value in [lo, hi).
func rangeFloat(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
