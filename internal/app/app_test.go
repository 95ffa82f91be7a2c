package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testBattleYAML = `
title: App Smoke
seed: 3
fps: 12
duration: 0.5
arena:
  width: 270
  height: 480
  spawn_margin: 60
orbs:
  - id: a
    radius: 30
  - id: b
    radius: 30
`

func writeBattle(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "battle.yml")
	if err := os.WriteFile(path, []byte(testBattleYAML), 0o644); err != nil {
		t.Fatalf("failed to write battle script: %v", err)
	}
	return path
}

func TestRunRequiresExactlyOneMode(t *testing.T) {
	if err := Run(context.Background(), Config{}); err == nil {
		t.Fatalf("expected an error when no mode is selected")
	}
	if err := Run(context.Background(), Config{Export: true, Preview: true}); err == nil {
		t.Fatalf("expected an error when both modes are selected")
	}
}

func TestLoadDocumentFallsBackToStockBattle(t *testing.T) {
	doc, err := loadDocument(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Orb Duel" {
		t.Fatalf("expected the stock battle, got %q", doc.Title)
	}
	if len(doc.Orbs) != 2 {
		t.Fatalf("expected two stock orbs, got %d", len(doc.Orbs))
	}
}

func TestLoadDocumentAppliesOverrides(t *testing.T) {
	path := writeBattle(t)

	doc, err := loadDocument(Config{ConfigPath: path, Seed: 99, SeedSet: true, Duration: 2.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int64(doc.Seed) != 99 {
		t.Fatalf("expected seed override 99, got %d", doc.Seed)
	}
	if doc.Duration != 2.5 {
		t.Fatalf("expected duration override 2.5, got %g", doc.Duration)
	}

	// Zero is a valid seed and must override when explicitly set.
	doc, err = loadDocument(Config{ConfigPath: path, Seed: 0, SeedSet: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int64(doc.Seed) != 0 {
		t.Fatalf("expected explicit zero seed, got %d", doc.Seed)
	}

	doc, err = loadDocument(Config{ConfigPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if int64(doc.Seed) != 3 || doc.Duration != 0.5 {
		t.Fatalf("expected untouched document, got seed %d duration %g", doc.Seed, doc.Duration)
	}
}

func TestLoadDocumentReportsMissingScript(t *testing.T) {
	if _, err := loadDocument(Config{ConfigPath: filepath.Join(t.TempDir(), "nope.yml")}); err == nil {
		t.Fatalf("expected an error for a missing script")
	}
}

func TestRunExportWritesArtifactsAndEventLog(t *testing.T) {
	outDir := t.TempDir()
	logPath := filepath.Join(t.TempDir(), "events.ndjson")

	err := Run(context.Background(), Config{
		ConfigPath: writeBattle(t),
		Export:     true,
		OutDir:     outDir,
		PNGOnly:    true,
		LogJSON:    logPath,
	})
	if err != nil {
		t.Fatalf("export run failed: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	var sawWAV, sawMeta, sawFrames bool
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".wav"):
			sawWAV = true
		case strings.HasSuffix(entry.Name(), ".json"):
			sawMeta = true
		case entry.IsDir() && strings.HasSuffix(entry.Name(), "_frames"):
			sawFrames = true
		}
	}
	if !sawWAV || !sawMeta || !sawFrames {
		t.Fatalf("missing artifacts in %v", entries)
	}

	logData, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read event log: %v", err)
	}
	if !strings.Contains(string(logData), "session.run_started") {
		t.Fatalf("expected run_started in the event log, got %q", logData)
	}
}
