// Command signserver serves sign predictions over WebSocket and the
// collected dataset over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ayusman/signbridge/internal/classifier"
	"github.com/ayusman/signbridge/internal/config"
	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/inference"
	"github.com/ayusman/signbridge/internal/sentence"
	"github.com/ayusman/signbridge/internal/server"
	"github.com/ayusman/signbridge/internal/store"
	"github.com/ayusman/signbridge/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server terminated with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
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
	var estimator detector.Estimator
	switch {
	case err == nil:
		estimator = est
		defer est.Close()
	case errors.Is(err, detector.ErrScriptNotFound):
		logger.Warn("landmark estimator unavailable, image messages will report no hands", "error", err)
	default:
		return err
	}

	orchestrator, err := inference.New(estimator, clf, set, logger)
	if err != nil {
		return err
	}

	dataset, err := store.Open(cfg.Storage, cfg.DataFile)
	if err != nil {
		return err
	}
	defer dataset.Close()

	recorder := telemetry.NewRecorder(logger)
	srv := server.New(server.Config{
		StaticDir:    findWebDir(),
		Labels:       set,
		Dataset:      dataset,
		Orchestrator: orchestrator,
		Sentence: sentence.Config{
			Window:    cfg.Window,
			Threshold: cfg.Threshold,
			MaxTokens: cfg.MaxTokens,
			NoOp:      cfg.NoOp,
		},
		Telemetry: recorder,
		Logger:    logger,
	})

	logger.Info("starting server",
		"listen_addr", cfg.ListenAddr,
		"grpc_addr", cfg.GRPCAddr,
		"storage", cfg.Storage,
		"data_file", cfg.DataFile,
		"labels", set.Len(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.ListenAddr)
	})
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		health := server.NewHealthServer(logger)
		g.Go(func() error {
			return health.Serve(gctx, lis)
		})
	}
	err = g.Wait()

	if snapshot := recorder.Snapshot(); snapshot.TotalConnections > 0 {
		logger.Info("telemetry totals",
			"total_connections", snapshot.TotalConnections,
			"total_observations", snapshot.TotalObservations,
			"total_no_hands", snapshot.TotalNoHands,
			"total_tokens", snapshot.TotalTokens,
		)
	}
	return err
}

func newLogger(cfg config.Config) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	})
	return slog.New(handler)
}

// findWebDir returns the first existing web directory, or empty.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
