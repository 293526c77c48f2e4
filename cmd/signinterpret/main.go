// Command signinterpret classifies camera frames live and prints the
// assembled sentence. Press c to clear the sentence and q to quit.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/signbridge/internal/app"
	"github.com/ayusman/signbridge/internal/capture"
	"github.com/ayusman/signbridge/internal/classifier"
	"github.com/ayusman/signbridge/internal/config"
	"github.com/ayusman/signbridge/internal/control"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/inference"
	"github.com/ayusman/signbridge/internal/sentence"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("interpreter terminated with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	set, err := cfg.LabelSet()
	if err != nil {
		return err
	}

	clf, err := classifier.NewProcess(cfg.ClassifierCmd)
	if err != nil {
		return err
	}
	defer clf.Close()

	est, err := detector.NewMediaPipeEstimator(cfg.EstimatorConfig())
	if err != nil {
		return fmt.Errorf("landmark estimator: %w", err)
	}
	defer est.Close()

	orchestrator, err := inference.New(est, clf, set, logger)
	if err != nil {
		return err
	}

	latch := &control.Latch{}
	lastSentence := ""
	interpreter := &app.Interpreter{
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.CameraID,
			FPS:      cfg.FPS,
			Mirror:   cfg.Mirror,
		}),
		Orchestrator: orchestrator,
		Engine: sentence.NewEngine(sentence.Config{
			Window:    cfg.Window,
			Threshold: cfg.Threshold,
			MaxTokens: cfg.MaxTokens,
			NoOp:      cfg.NoOp,
		}),
		Events:    latch,
		Threshold: cfg.Threshold,
		OnOutput: func(out inference.Output) {
			if s := strings.Join(out.Sentence, " "); s != lastSentence {
				fmt.Println(s)
				lastSentence = s
			}
		},
		Options: app.Options{Logger: logger},
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return interpreter.Run(gctx)
	})
	g.Go(func() error {
		err := control.ReadKeys(gctx, os.Stdin, control.NewInterpretKeymap(), latch)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
