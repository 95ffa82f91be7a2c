package preview

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"orbduel/internal/config"
	"orbduel/internal/sim"
)

func previewDocument(t *testing.T) *config.Document {
	t.Helper()

	doc, err := config.Parse([]byte(`
title: Preview Test
seed: 11
fps: 30
duration: 0.5
arena:
  width: 270
  height: 480
  spawn_margin: 60
orbs:
  - id: ember
    name: Ember
    hue: 20
    radius: 30
  - id: frost
    name: Frost
    hue: 200
    radius: 30
`), "preview_test.yml")
	if err != nil {
		t.Fatalf("failed to parse battle document: %v", err)
	}
	return doc
}

func TestNewBuildsGreetingFromDocument(t *testing.T) {
	srv, err := New(previewDocument(t), Options{Mute: true})
	if err != nil {
		t.Fatalf("failed to build preview server: %v", err)
	}
	t.Cleanup(srv.hub.Close)

	conn := &recordingViewerConn{}
	if _, ok := srv.hub.Attach(conn, "test"); !ok {
		t.Fatalf("attach refused")
	}

	frames := conn.waitFrames(t, 1)
	var greeting map[string]any
	if err := json.Unmarshal(frames[0], &greeting); err != nil {
		t.Fatalf("failed to decode greeting: %v", err)
	}

	if typ, _ := greeting["type"].(string); typ != "hello" {
		t.Fatalf("expected hello type, got %v", greeting["type"])
	}
	if title, _ := greeting["title"].(string); title != "Preview Test" {
		t.Fatalf("expected document title, got %v", greeting["title"])
	}
	if fps, _ := greeting["fps"].(float64); int(fps) != 30 {
		t.Fatalf("expected fps 30, got %v", greeting["fps"])
	}
	arena, ok := greeting["arena"].(map[string]any)
	if !ok {
		t.Fatalf("expected arena object, got %T", greeting["arena"])
	}
	if w, _ := arena["width"].(float64); w != 270 {
		t.Fatalf("expected arena width 270, got %v", arena["width"])
	}
	orbs, ok := greeting["orbs"].([]any)
	if !ok || len(orbs) != 2 {
		t.Fatalf("expected two orbs in greeting, got %v", greeting["orbs"])
	}
	first, ok := orbs[0].(map[string]any)
	if !ok {
		t.Fatalf("expected orb object, got %T", orbs[0])
	}
	if id, _ := first["id"].(string); id != "ember" {
		t.Fatalf("expected orbs in script order, got %v", first["id"])
	}
	if hp, _ := first["maxHp"].(float64); int(hp) != 100 {
		t.Fatalf("expected normalized max hp 100, got %v", first["maxHp"])
	}
}

func TestNewRejectsBrokenDocument(t *testing.T) {
	doc := config.DefaultDocument()
	doc.Orbs[0].Radius = -5

	if _, err := New(doc, Options{Mute: true}); !errors.Is(err, sim.ErrInvalidBodyConfig) {
		t.Fatalf("expected invalid body config error, got %v", err)
	}
}

func TestRunOutlivesBattleAndStopsOnCancel(t *testing.T) {
	srv, err := New(previewDocument(t), Options{Addr: "127.0.0.1:0", Mute: true})
	if err != nil {
		t.Fatalf("failed to build preview server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && !srv.world.Done() {
		time.Sleep(10 * time.Millisecond)
	}
	if !srv.world.Done() {
		t.Fatalf("expected the battle to finish")
	}

	// A finished battle keeps serving the final state until cancelled.
	select {
	case err := <-errCh:
		t.Fatalf("preview stopped with the battle: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("preview did not stop after cancellation")
	}
}
