package sim

import "testing"

func TestSeedValueIsStablePerPair(t *testing.T) {
	t.Parallel()
	for _, seed := range []int64{0, 1, -1, 42, 1<<62 - 1} {
		for _, label := range []string{streamLaunch, streamPhysics, streamPickups, streamCues, StreamCamera, StreamParticles} {
			a := SeedValue(seed, label)
			b := SeedValue(seed, label)
			if a != b {
				t.Fatalf("SeedValue(%d, %q) unstable: %d vs %d", seed, label, a, b)
			}
		}
	}
}

func TestSeedValueSeparatesStreams(t *testing.T) {
	t.Parallel()
	seen := map[int64]string{}
	labels := []string{streamLaunch, streamPhysics, streamPickups, streamCues, StreamCamera, StreamParticles}
	for _, label := range labels {
		v := SeedValue(99, label)
		if prev, ok := seen[v]; ok {
			t.Fatalf("labels %q and %q collide on seed value %d", prev, label, v)
		}
		seen[v] = label
	}
}

func TestSeedValueSeparatesSeeds(t *testing.T) {
	t.Parallel()
	if SeedValue(1, streamPhysics) == SeedValue(2, streamPhysics) {
		t.Fatalf("different seeds produced the same stream seed")
	}
	// "1"+":2x" vs "12"+":x" must not alias; the separator sits between
	// the decimal seed and the label.
	if SeedValue(1, "2x") == SeedValue(12, "x") {
		t.Fatalf("seed/label boundary is ambiguous")
	}
}

func TestStreamSequencesMatchAcrossInstances(t *testing.T) {
	t.Parallel()
	a := Stream(12345, streamPickups)
	b := Stream(12345, streamPickups)
	for i := 0; i < 64; i++ {
		if av, bv := a.Float64(), b.Float64(); av != bv {
			t.Fatalf("draw %d diverged: %v vs %v", i, av, bv)
		}
	}
}

func TestRangeFloatBounds(t *testing.T) {
	t.Parallel()
	rng := Stream(7, streamLaunch)
	for i := 0; i < 1000; i++ {
		v := rangeFloat(rng, 150, 930)
		if v < 150 || v >= 930 {
			t.Fatalf("draw %d out of range: %v", i, v)
		}
	}
	if got := rangeFloat(rng, 5, 5); got != 5 {
		t.Fatalf("degenerate range should return lo, got %v", got)
	}
}
