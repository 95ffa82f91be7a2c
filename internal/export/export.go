package export

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"orbduel/internal/audio"
	"orbduel/internal/config"
	"orbduel/internal/render"
	"orbduel/internal/sim"
	"orbduel/logging"
	"orbduel/logging/session"
)

// audioTail is the silence kept after the last cue so endings don't cut off
// hard.
const audioTail = 0.75

// Options configures one export run.
type Options struct {
	// OutDir receives the artifacts. Created if missing; empty means the
	// working directory.
	OutDir string
	// FFmpeg is an explicit encoder binary. Empty searches PATH.
	FFmpeg string
	// PNGOnly skips ffmpeg detection and writes a frame sequence, which is
	// also the automatic fallback when no encoder is found.
	PNGOnly bool
	// Publisher receives pipeline and battle events. Nil runs silently.
	Publisher logging.Publisher
	// ProgressEvery is the progress report interval in simulated seconds.
	// Zero uses the runner default.
	ProgressEvery float64
}

// Result describes the artifacts of a finished export.
type Result struct {
	RunID   string          `json:"runId"`
	Title   string          `json:"title"`
	Seed    int64           `json:"seed"`
	FPS     int             `json:"fps"`
	Ticks   uint64          `json:"ticks"`
	Frames  int             `json:"frames"`
	Seconds float64         `json:"seconds"`
	Match   sim.MatchResult `json:"match"`
	Video   string          `json:"video"`
	Audio   string          `json:"audio"`
	Meta    string          `json:"meta"`
	Muxed   bool            `json:"muxed"`
	PeakDB  float64         `json:"peakDb"`
	RMSDB   float64         `json:"rmsDb"`
	Clipped float64         `json:"clippedPct"`
}

// renderedFrame pairs one rendered tick with its presentation repeat count.
type renderedFrame struct {
	img     *image.RGBA
	repeats int
}

// Run simulates the battle at full speed, renders and encodes every frame,
// mixes the cue log sample-accurately against the stretched presentation
// timeline, and writes video, WAV, and metadata artifacts. Any failure
// removes partial output before returning.
func Run(ctx context.Context, doc *config.Document, opts Options) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("export: nil battle document")
	}
	pub := opts.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}

	world, err := sim.New(doc.ToSim(), sim.Deps{Publisher: pub})
	if err != nil {
		return nil, err
	}
	cfg := world.Config()

	renderer, err := render.New(cfg)
	if err != nil {
		return nil, err
	}
	bank, err := audio.NewBank(doc.AudioOverrides())
	if err != nil {
		return nil, err
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("export: output dir: %w", err)
	}

	runID := uuid.NewString()
	base := fmt.Sprintf("%s_%s", slug(doc.Title), runID[:8])
	session.RunStarted(ctx, pub, runID, doc.Title, cfg.Seed, "export")

	ffmpegBin := ""
	if !opts.PNGOnly {
		ffmpegBin = detectFFmpeg(opts.FFmpeg)
	}

	var sink videoSink
	videoTmp := ""
	width, height := renderer.Size()
	if ffmpegBin != "" {
		videoTmp = filepath.Join(outDir, base+".video.tmp.mp4")
		sink, err = newFFmpegSink(ffmpegBin, videoTmp, width, height, cfg.FPS)
		if err != nil {
			return nil, err
		}
	} else {
		sink, err = newPNGSink(filepath.Join(outDir, base+"_frames"))
		if err != nil {
			return nil, err
		}
	}

	tb := newTimebase(world.DT())
	frames := make(chan renderedFrame, 8)
	frameCount := 0
	totalSeconds := cfg.Duration

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(frames)
		runner := sim.NewRunner(world, sim.RunnerHooks{
			AfterStep: func(snap sim.Snapshot) {
				f := renderedFrame{
					img:     renderer.Frame(snap),
					repeats: tb.advance(snap.Tick, snap.SlowMo),
				}
				select {
				case frames <- f:
				case <-gctx.Done():
				}
			},
			Progress: func(tick uint64, t float64) {
				session.ExportProgress(gctx, pub, tick, t, totalSeconds)
			},
		})
		runner.ProgressEvery = opts.ProgressEvery
		return runner.RunFast(gctx)
	})
	g.Go(func() error {
		for f := range frames {
			for i := 0; i < f.repeats; i++ {
				if err := sink.WriteFrame(f.img); err != nil {
					return err
				}
			}
			frameCount += f.repeats
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		sink.Abort()
		return nil, err
	}
	if err := sink.Finalize(); err != nil {
		return nil, err
	}

	// The sink is finalized from here on; failures must remove its artifact
	// directly rather than aborting twice.
	discardVideo := func() {
		if videoTmp != "" {
			os.Remove(videoTmp)
		} else {
			os.RemoveAll(sink.Path())
		}
	}

	wavPath := filepath.Join(outDir, base+".wav")
	placed := audio.PlaceCues(world.Bus().Drain(), tb.timeOf)
	track := audio.Mixdown(bank, placed, audio.MixOptions{
		MasterGain:  doc.Audio.MasterGain,
		MinDuration: tb.duration(),
		Tail:        audioTail,
	})
	if err := audio.WriteFile(wavPath, track); err != nil {
		discardVideo()
		return nil, err
	}
	stats := audio.Analyze(track)

	videoPath := sink.Path()
	muxed := false
	if ffmpegBin != "" {
		final := filepath.Join(outDir, base+".mp4")
		if err := muxAudio(ffmpegBin, videoTmp, wavPath, final); err == nil {
			os.Remove(videoTmp)
			videoPath = final
			muxed = true
		} else {
			// Keep the silent video rather than failing the whole export;
			// the WAV still carries the mix.
			if renameErr := os.Rename(videoTmp, final); renameErr == nil {
				videoPath = final
			}
		}
	}

	result := &Result{
		RunID:   runID,
		Title:   doc.Title,
		Seed:    cfg.Seed,
		FPS:     cfg.FPS,
		Ticks:   world.Tick(),
		Frames:  frameCount,
		Seconds: tb.duration(),
		Video:   videoPath,
		Audio:   wavPath,
		Muxed:   muxed,
		PeakDB:  stats.PeakDB,
		RMSDB:   stats.RMSDB,
		Clipped: stats.ClippedPct,
	}
	if match := world.Result(); match != nil {
		result.Match = *match
	}

	metaPath := filepath.Join(outDir, base+".json")
	if err := writeMeta(metaPath, result); err != nil {
		os.Remove(wavPath)
		os.Remove(videoPath)
		return nil, err
	}
	result.Meta = metaPath

	session.ExportFinished(ctx, pub, session.ExportFinishedPayload{
		RunID:   runID,
		Frames:  frameCount,
		Seconds: tb.duration(),
		Video:   videoPath,
		Audio:   wavPath,
		PeakDB:  stats.PeakDB,
		RMSDB:   stats.RMSDB,
	})
	return result, nil
}

func writeMeta(path string, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal metadata: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("export: write metadata: %w", err)
	}
	return nil
}

// slug reduces a battle title to a filesystem-friendly artifact prefix.
func slug(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "battle"
	}
	return out
}
