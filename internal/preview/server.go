package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"orbduel/internal/audio"
	"orbduel/internal/config"
	"orbduel/internal/sim"
	"orbduel/logging"
	"orbduel/logging/session"
)

// shutdownGrace bounds how long Run waits for in-flight HTTP traffic once
// the context is cancelled.
const shutdownGrace = 3 * time.Second

// Options configures the live preview.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Mute skips speaker playback; the battle still runs and streams.
	Mute bool
	// Publisher receives battle and viewer events. Nil runs silently.
	Publisher logging.Publisher
}

// Server runs one battle in real time and streams per-tick snapshots to any
// number of browser viewers over websockets, playing cues through the local
// speaker. The battle starts when Run is called and the page simply shows
// whatever has happened so far; the process stays up until the context is
// cancelled.
type Server struct {
	opts   Options
	pub    logging.Publisher
	world  *sim.World
	hub    *Hub
	player *audio.Player
	title  string
}

type helloMessage struct {
	Type  string    `json:"type"`
	Title string    `json:"title"`
	FPS   int       `json:"fps"`
	Arena arenaInfo `json:"arena"`
	Orbs  []orbInfo `json:"orbs"`
}

type arenaInfo struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type orbInfo struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Hue    float64 `json:"hue"`
	Radius float64 `json:"radius"`
	MaxHP  int     `json:"maxHp"`
}

type stateMessage struct {
	Type     string       `json:"type"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

// New builds a preview server for a battle document. Construction fails on
// the same configuration errors an export would reject, before anything
// listens or plays.
func New(doc *config.Document, opts Options) (*Server, error) {
	if doc == nil {
		return nil, fmt.Errorf("preview: nil battle document")
	}
	pub := opts.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	world, err := sim.New(doc.ToSim(), sim.Deps{Publisher: pub})
	if err != nil {
		return nil, err
	}
	bank, err := audio.NewBank(doc.AudioOverrides())
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:   opts,
		pub:    pub,
		world:  world,
		hub:    newHub(pub),
		player: audio.NewPlayer(bank, doc.Audio.MasterGain),
		title:  doc.Title,
	}

	hello, err := json.Marshal(s.helloPayload())
	if err != nil {
		return nil, fmt.Errorf("preview: marshal hello: %w", err)
	}
	s.hub.SetHello(hello)
	return s, nil
}

func (s *Server) helloPayload() helloMessage {
	cfg := s.world.Config()
	msg := helloMessage{
		Type:  "hello",
		Title: s.title,
		FPS:   cfg.FPS,
		Arena: arenaInfo{Width: cfg.Arena.Width, Height: cfg.Arena.Height},
	}
	for _, orb := range cfg.Orbs {
		msg.Orbs = append(msg.Orbs, orbInfo{
			ID:     orb.ID,
			Name:   orb.Name,
			Hue:    orb.Hue,
			Radius: orb.Radius,
			MaxHP:  orb.MaxHP,
		})
	}
	return msg
}

// Run serves viewers and paces the battle in real time until the context
// is cancelled. The battle finishing does not stop the server; the final
// snapshot stays up for late joiners. Cancellation is a clean stop.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return errors.New("preview: nil server")
	}

	if !s.opts.Mute {
		if err := s.player.Start(); err != nil {
			// No audio device is a silent preview, not a failure.
			s.pub.Publish(ctx, logging.Event{
				Type:     "session.speaker_unavailable",
				Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
				Severity: logging.SeverityWarn,
				Category: logging.CategoryPipeline,
				Payload:  map[string]string{"error": err.Error()},
			})
		}
	}

	session.RunStarted(ctx, s.pub, uuid.NewString(), s.title, s.world.Config().Seed, "preview")

	srv := &http.Server{Addr: s.opts.Addr, Handler: newMux(s.hub, handlerConfig{})}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("preview: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		runner := sim.NewRunner(s.world, sim.RunnerHooks{AfterStep: s.publishTick})
		err := runner.RunRealtime(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.hub.Close()
		s.player.Close()
		return nil
	})

	err := g.Wait()
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// publishTick fans one completed tick out to viewers and the speaker.
func (s *Server) publishTick(snap sim.Snapshot) {
	data, err := json.Marshal(stateMessage{Type: "snapshot", Snapshot: snap})
	if err == nil {
		s.hub.Broadcast(data)
	}
	for _, cue := range s.world.Bus().Drain() {
		s.player.Play(cue.Cue)
	}
}
