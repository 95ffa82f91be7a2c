package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"orbduel/internal/config"
	"orbduel/internal/export"
	"orbduel/internal/preview"
	"orbduel/logging"
	loggingSinks "orbduel/logging/sinks"
)

// closeGrace bounds how long shutdown waits for queued log events to flush.
const closeGrace = 2 * time.Second

// Config selects a mode and carries every flag the CLI exposes. Exactly one
// of Export or Preview must be set.
type Config struct {
	// ConfigPath is the battle script. Empty runs the stock battle.
	ConfigPath string

	Export  bool
	Preview bool

	// Export mode.
	OutDir  string
	FFmpeg  string
	PNGOnly bool

	// Preview mode.
	Addr string
	Mute bool

	// Seed overrides the document seed when SeedSet is true. Zero is a
	// valid seed, so presence travels separately.
	Seed    int64
	SeedSet bool
	// Duration overrides the document duration when positive.
	Duration float64

	Verbose bool
	// LogJSON appends newline-delimited events to the given file.
	LogJSON string

	// Logger receives operator-facing lines. Nil uses the default logger.
	Logger *log.Logger
}

// Run loads the battle document, wires the logging router, and dispatches to
// the selected mode. It returns once the mode finishes or the context is
// cancelled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Export == cfg.Preview {
		return errors.New("app: choose exactly one of -export or -preview")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	logConfig := logging.DefaultConfig()
	if cfg.Verbose {
		logConfig.MinimumSeverity = logging.SeverityDebug
	}
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsole(os.Stdout, logConfig.Console)},
	}
	var logFile *os.File
	if cfg.LogJSON != "" {
		f, err := os.OpenFile(cfg.LogJSON, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("app: failed opening event log %s: %w", cfg.LogJSON, err)
		}
		logFile = f
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(f, logConfig.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, logConfig, namedSinks)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return fmt.Errorf("app: failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeGrace)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
		if logFile != nil {
			logFile.Close()
		}
	}()

	doc, err := loadDocument(cfg)
	if err != nil {
		return err
	}

	if cfg.Export {
		return runExport(ctx, doc, cfg, router, logger)
	}
	return runPreview(ctx, doc, cfg, router, logger)
}

// loadDocument reads the battle script and applies the CLI overrides. The
// overrides edit the document itself, so an overridden run replays exactly
// like a script that carried those values.
func loadDocument(cfg Config) (*config.Document, error) {
	var doc *config.Document
	if cfg.ConfigPath != "" {
		loaded, err := config.Load(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		doc = loaded
	} else {
		doc = config.DefaultDocument()
	}

	if cfg.SeedSet {
		doc.Seed = config.Seed(cfg.Seed)
	}
	if cfg.Duration > 0 {
		doc.Duration = cfg.Duration
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func runExport(ctx context.Context, doc *config.Document, cfg Config, pub logging.Publisher, logger *log.Logger) error {
	result, err := export.Run(ctx, doc, export.Options{
		OutDir:    cfg.OutDir,
		FFmpeg:    cfg.FFmpeg,
		PNGOnly:   cfg.PNGOnly,
		Publisher: pub,
	})
	if err != nil {
		return err
	}

	logger.Printf("export complete: %s (%d frames, %.2fs)", result.Video, result.Frames, result.Seconds)
	if result.Audio != "" {
		logger.Printf("audio track: %s", result.Audio)
	}
	logger.Printf("battle metadata: %s", result.Meta)
	return nil
}

func runPreview(ctx context.Context, doc *config.Document, cfg Config, pub logging.Publisher, logger *log.Logger) error {
	srv, err := preview.New(doc, preview.Options{
		Addr:      cfg.Addr,
		Mute:      cfg.Mute,
		Publisher: pub,
	})
	if err != nil {
		return err
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	logger.Printf("preview listening on %s", addr)
	return srv.Run(ctx)
}
