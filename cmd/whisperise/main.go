// Command whisperise turns voiced WAV recordings into whispered ones.
//
// Usage:
//
//	whisperise [flags] file.wav ...
//
// Each input is written next to itself with the suffix _lpcwhisperised.wav
// (effect lpc) or _whisperised.wav (effect phase). Settings come from the
// SUSURRO_* environment variables and an optional YAML file; flags win.
//
// Examples:
//
//	whisperise voice.wav
//	whisperise -effect phase -seed 7 a.wav b.wav
//	whisperise -config susurro.yaml takes/*.wav
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/susurro/config"
	"github.com/RyanBlaney/susurro/logging"
	"github.com/RyanBlaney/susurro/whisper"
)

func main() {
	effect := flag.String("effect", "", "whisper effect: lpc or phase (default from config)")
	configFile := flag.String("config", "", "YAML configuration file")
	seed := flag.Uint64("seed", 0, "random seed, 0 keeps the configured seed")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: whisperise [flags] file.wav ...\n\n")
		fmt.Fprintf(os.Stderr, "Whisperises each WAV file and writes the result next to it.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{File: *configFile}.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg, *effect, *seed, *verbose)

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLevel(level)

	processor, err := whisper.NewProcessor(cfg)
	if err != nil {
		logging.Error(err, "Invalid configuration")
		os.Exit(1)
	}

	failed := 0
	for _, path := range flag.Args() {
		if ctx.Err() != nil {
			failed++
			continue
		}
		out, err := processor.ProcessFile(ctx, path)
		if err != nil {
			logging.Error(err, "Failed to whisperise file", logging.Fields{"input": path})
			failed++
			continue
		}
		fmt.Println(out)
	}

	if failed > 0 {
		logging.Warn("Some files were not processed", logging.Fields{
			"failed": failed,
			"total":  flag.NArg(),
		})
		os.Exit(1)
	}
}

// applyFlags overlays command line values onto cfg. Zero values keep the
// configured setting.
func applyFlags(cfg *config.Config, effect string, seed uint64, verbose bool) {
	if effect != "" {
		cfg.Effect = config.ParseEffect(effect)
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
}
