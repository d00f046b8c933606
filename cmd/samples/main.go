// Command samples demonstrates the speech SDK against a WAV file: it runs a
// translation recognition sample followed by an intent recognition sample.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tommy200519/cognitive-services-speech-sdk/internal/config"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine/cloud"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine/local"
	"github.com/tommy200519/cognitive-services-speech-sdk/pkg/engine/mock"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		return 1
	}
	wavPath := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "samples: %v\n", err)
		return 1
	}

	slog.SetDefault(newLogger(cfg.LogLevel))
	slog.Info("samples starting",
		"config", *configPath,
		"audio", wavPath,
		"engine", cfg.Engine.Kind,
	)

	eng, cleanup, err := buildEngine(cfg)
	if err != nil {
		slog.Error("failed to build engine", "err", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runTranslationSample(ctx, eng, cfg, wavPath); err != nil {
		slog.Error("translation sample failed", "err", err)
		return 1
	}
	if err := runIntentSample(ctx, eng, cfg, wavPath); err != nil {
		slog.Error("intent sample failed", "err", err)
		return 1
	}

	slog.Info("all samples completed")
	return 0
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <audio.wav>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Runs the translation and intent recognition samples against a 16-bit PCM WAV file.\n\nFlags:\n")
	flag.PrintDefaults()
}

// buildEngine constructs the recognition engine selected in cfg. The
// returned cleanup releases engine-owned resources (the local model).
func buildEngine(cfg *config.Config) (engine.Engine, func(), error) {
	switch cfg.Engine.Kind {
	case config.EngineCloud:
		return cloud.New(), func() {}, nil

	case config.EngineLocal:
		var opts []local.Option
		if ms := cfg.Engine.Local.SilenceThresholdMs; ms > 0 {
			opts = append(opts, local.WithSilenceWindow(time.Duration(ms)*time.Millisecond))
		}
		e, err := local.New(cfg.Engine.Local.ModelPath, opts...)
		if err != nil {
			return nil, nil, err
		}
		return e, func() {
			if err := e.Close(); err != nil {
				slog.Warn("closing local engine failed", "err", err)
			}
		}, nil

	case config.EngineMock:
		// Scripted engine so the samples run without credentials or a model.
		e := &mock.Engine{
			RecognizeResult: engine.Result{
				ID:           "mock-result",
				Reason:       engine.ReasonTranslatedSpeech,
				Text:         "turn off the light",
				Translations: map[string]string{"de": "mach das Licht aus"},
				Duration:     1500 * time.Millisecond,
			},
			RecognizeDelay: 200 * time.Millisecond,
		}
		return e, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported engine kind %q", cfg.Engine.Kind)
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
