package export

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orbduel/internal/audio"
	"orbduel/internal/config"
	"orbduel/internal/sim"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Orb Duel", "orb-duel"},
		{"  GO! vs GO!  ", "go-vs-go"},
		{"***", "battle"},
		{"", "battle"},
		{"Already-Clean-42", "already-clean-42"},
	}
	for _, tc := range cases {
		if got := slug(tc.in); got != tc.want {
			t.Fatalf("slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPNGSinkWritesSequence(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "frames")
	sink, err := newPNGSink(dir)
	if err != nil {
		t.Fatalf("newPNGSink: %v", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 3; i++ {
		if err := sink.WriteFrame(img); err != nil {
			t.Fatalf("WriteFrame %d: %v", i, err)
		}
	}
	if err := sink.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d frames, want 3", len(entries))
	}
	if name := entries[0].Name(); name != "frame_000001.png" {
		t.Fatalf("first frame named %q", name)
	}
}

func TestPNGSinkAbortRemovesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "frames")
	sink, err := newPNGSink(dir)
	if err != nil {
		t.Fatalf("newPNGSink: %v", err)
	}
	if err := sink.WriteFrame(image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	sink.Abort()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("frame dir still present after abort: %v", err)
	}
}

func smokeDocument(t *testing.T) *config.Document {
	t.Helper()
	doc, err := config.Parse([]byte(`
title: Smoke Test
seed: 7
fps: 12
duration: 0.5
arena:
  width: 270
  height: 480
  spawn_margin: 60
orbs:
  - {id: a, name: Alpha, hue: 10, radius: 30}
  - {id: b, name: Beta, hue: 200, radius: 30}
events:
  - {t: 0, kind: slowmo, factor: 0.5, duration: 0.2}
`), "smoke.yml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestRunWithPNGBackendProducesArtifacts(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	doc := smokeDocument(t)

	res, err := Run(context.Background(), doc, Options{OutDir: outDir, PNGOnly: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Ticks != 6 {
		t.Fatalf("ticks = %d, want 6 for 0.5s at 12fps", res.Ticks)
	}
	// Two slow-mo ticks at factor 0.5 double up.
	if res.Frames != 8 {
		t.Fatalf("frames = %d, want 8", res.Frames)
	}
	if res.Match.Outcome == "" {
		t.Fatal("match result missing")
	}
	if !strings.Contains(filepath.Base(res.Video), "smoke-test_") {
		t.Fatalf("video artifact %q not named after the title", res.Video)
	}

	entries, err := os.ReadDir(res.Video)
	if err != nil {
		t.Fatalf("frames dir: %v", err)
	}
	if len(entries) != res.Frames {
		t.Fatalf("frame dir holds %d files, result says %d", len(entries), res.Frames)
	}

	if _, err := os.Stat(res.Audio); err != nil {
		t.Fatalf("wav artifact: %v", err)
	}

	data, err := os.ReadFile(res.Meta)
	if err != nil {
		t.Fatalf("meta artifact: %v", err)
	}
	var meta Result
	if err := json.Unmarshal(data, &meta); err != nil {
		t.Fatalf("meta decode: %v", err)
	}
	if meta.RunID != res.RunID || meta.Frames != res.Frames {
		t.Fatalf("meta %+v does not match result %+v", meta, res)
	}
	if meta.Seed != 7 {
		t.Fatalf("meta seed = %d, want 7", meta.Seed)
	}
}

func TestRunStretchesCueTimingWithSlowMo(t *testing.T) {
	t.Parallel()

	// One second of slow-mo at 0.5 from the start doubles presentation time
	// for the first 12 ticks; a cue on tick 12 lands at 2.0s, not 1.0s.
	tb := newTimebase(1.0 / 12)
	for tick := uint64(0); tick < 24; tick++ {
		factor := 0.0
		if tick < 12 {
			factor = 0.5
		}
		tb.advance(tick, factor)
	}
	events := []sim.CueEvent{{Cue: sim.CueHitNormal, Tick: 12, T: 1.0}}
	placed := audio.PlaceCues(events, tb.timeOf)
	if got := placed[0].At; got < 1.99 || got > 2.01 {
		t.Fatalf("cue placed at %v, want 2.0", got)
	}
}

func TestRunIsHaltedByContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := smokeDocument(t)
	if _, err := Run(ctx, doc, Options{OutDir: t.TempDir(), PNGOnly: true}); err == nil {
		t.Fatal("expected cancellation error")
	}
}
