package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"orbduel/internal/app"
)

func main() {
	var cfg app.Config
	flag.StringVar(&cfg.ConfigPath, "config", "", "battle script to run; omitted runs the stock battle")
	flag.BoolVar(&cfg.Export, "export", false, "render the battle to video and audio files")
	flag.StringVar(&cfg.OutDir, "out", "out", "directory receiving export artifacts")
	flag.BoolVar(&cfg.PNGOnly, "png", false, "skip ffmpeg and write a PNG frame sequence")
	flag.StringVar(&cfg.FFmpeg, "ffmpeg", "", "explicit ffmpeg binary; empty searches PATH")
	flag.BoolVar(&cfg.Preview, "preview", false, "serve the battle live in a browser")
	flag.StringVar(&cfg.Addr, "addr", ":8080", "preview listen address")
	flag.BoolVar(&cfg.Mute, "mute", false, "disable speaker playback during preview")
	flag.Int64Var(&cfg.Seed, "seed", 0, "override the document seed")
	flag.Float64Var(&cfg.Duration, "duration", 0, "override the battle duration in seconds")
	flag.BoolVar(&cfg.Verbose, "v", false, "log debug events")
	flag.StringVar(&cfg.LogJSON, "log-json", "", "append newline-delimited events to this file")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.SeedSet = true
		}
	})

	if cfg.Export == cfg.Preview {
		fmt.Fprintln(os.Stderr, "choose exactly one of -export or -preview")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
