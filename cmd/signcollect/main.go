// Command signcollect records labeled landmark samples from the camera.
//
// Press a label key to start a recording after a short countdown, s to stop
// and save it, and q to quit without saving. Keys are read from standard
// input, one line at a time, unless the tray is enabled.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/signbridge/internal/app"
	"github.com/ayusman/signbridge/internal/capture"
	"github.com/ayusman/signbridge/internal/collect"
	"github.com/ayusman/signbridge/internal/config"
	"github.com/ayusman/signbridge/internal/control"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/labels"
	"github.com/ayusman/signbridge/internal/store"
	"github.com/ayusman/signbridge/internal/telemetry"
	"github.com/ayusman/signbridge/internal/tray"
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
		logger.Error("collection terminated with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	set, err := cfg.LabelSet()
	if err != nil {
		return err
	}
	keymap, err := control.NewCollectKeymap(set)
	if err != nil {
		return err
	}

	dataset, err := store.Open(cfg.Storage, cfg.DataFile)
	if err != nil {
		return err
	}
	defer dataset.Close()

	machine, err := collect.NewMachine(collect.Config{
		Countdown:    cfg.Countdown,
		TrailingDrop: *cfg.TrailingDrop,
	}, set, dataset, logger)
	if err != nil {
		return err
	}

	est, err := detector.NewMediaPipeEstimator(cfg.EstimatorConfig())
	if err != nil {
		return fmt.Errorf("landmark estimator: %w", err)
	}
	defer est.Close()

	printCounts(set, machine.Counts())

	latch := &control.Latch{}
	var menu *tray.Tray
	if cfg.Tray {
		menu = tray.New(set, latch)
		menu.SetCounts(machine.Counts())
	}

	last := collect.Idle
	collector := &app.Collector{
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.CameraID,
			FPS:      cfg.FPS,
			Mirror:   cfg.Mirror,
		}),
		Estimator: est,
		Machine:   machine,
		Events:    latch,
		Telemetry: telemetry.NewRecorder(logger),
		OnStatus: func(st collect.Status) {
			if line, ok := tray.Announce(last, st); ok {
				fmt.Fprintln(os.Stderr, line)
			}
			last = st.State
			if menu != nil {
				menu.SetStatus(st)
				if st.Summary != nil {
					menu.SetCounts(machine.Counts())
				}
			}
		},
		Options: app.Options{Logger: logger},
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		if menu != nil {
			defer menu.Quit()
		}
		return collector.Run(gctx)
	})

	if menu != nil {
		// The tray owns the main thread until the collector ends.
		menu.Run()
		return g.Wait()
	}

	g.Go(func() error {
		err := control.ReadKeys(gctx, os.Stdin, keymap, latch)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return g.Wait()
}

func printCounts(set *labels.Set, counts map[int]int) {
	fmt.Fprintln(os.Stderr, "Samples per label:")
	for _, l := range set.All() {
		fmt.Fprintf(os.Stderr, "  [%s] %-8s %d\n", l.Key, l.Name, counts[l.Code])
	}
	fmt.Fprintln(os.Stderr, "Press a label key to record, s to stop and save, q to quit.")
}
