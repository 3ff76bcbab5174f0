// Command floodloss runs the flood loss estimation pipeline: it samples a
// depth grid at each point of a building inventory CSV, evaluates depth
// damage curves, and writes the annotated table next to the input.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Niyamit/hazus/internal/adapter/csvio"
	httpadapter "github.com/Niyamit/hazus/internal/adapter/http"
	kafkaadapter "github.com/Niyamit/hazus/internal/adapter/kafka"
	"github.com/Niyamit/hazus/internal/config"
	"github.com/Niyamit/hazus/internal/observability"
	"github.com/Niyamit/hazus/internal/pipeline"
)

// fieldFlags collects repeatable -field name=Column overrides.
type fieldFlags map[string]string

func (f fieldFlags) String() string { return "" }

func (f fieldFlags) Set(v string) error {
	name, col, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(col) == "" {
		return fmt.Errorf("expected name=Column, got %q", v)
	}
	f[strings.TrimSpace(name)] = strings.TrimSpace(col)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	overrides := fieldFlags{}
	input := flag.String("input", cfg.InputPath, "building inventory CSV")
	rasterPath := flag.String("raster", cfg.RasterPath, "depth grid (.asc); empty runs every grid in -rasters-dir")
	rasterDir := flag.String("rasters-dir", cfg.RasterDir, "directory of depth grids")
	lookupDir := flag.String("lookup-dir", cfg.LookupDir, "directory of DDF lookup tables")
	policy := flag.String("policy", cfg.FailedRowPolicy, "failed row policy: mark or skip")
	flag.Var(overrides, "field", "field override name=Column (repeatable)")
	flag.Parse()

	for k, v := range cfg.FieldOverrides {
		if _, ok := overrides[k]; !ok {
			overrides[k] = v
		}
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	rasters, err := selectRasters(*rasterPath, *rasterDir)
	if err != nil {
		logger.Error("raster selection failed", "error", err)
		os.Exit(1)
	}

	var sink pipeline.Sink
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer writer.Close()
		sink = writer
		logger.Info("kafka result sink enabled", "topic", cfg.KafkaTopic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := false
	for _, raster := range rasters {
		runner := pipeline.NewRunner(pipeline.Params{
			InputPath:        *input,
			RasterPath:       raster,
			LookupDir:        *lookupDir,
			FieldOverrides:   overrides,
			FailedRowPolicy:  *policy,
			ProgressInterval: cfg.ProgressInterval,
			Sink:             sink,
		}, logger, metrics)

		srv := startServer(cfg, runner, logger)

		sum, err := runner.Run(ctx)
		if err != nil {
			logger.Error("run aborted", "raster", raster, "error", err)
			failed = true
		} else {
			logger.Info("run succeeded",
				"run_id", sum.RunID,
				"output", sum.OutputPath,
				"succeeded", sum.Succeeded,
				"failed", sum.Failed,
			)
		}

		stopServer(cfg, srv, logger)
		if ctx.Err() != nil {
			break
		}
	}

	if failed {
		os.Exit(1)
	}
}

// selectRasters resolves the grids to run against: the explicit path when
// given, otherwise every .asc grid in dir.
func selectRasters(path, dir string) ([]string, error) {
	if path != "" {
		return []string{path}, nil
	}
	names, err := csvio.ListRasters(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no rasters in %q", dir)
	}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

func startServer(cfg *config.Config, runner *pipeline.Runner, logger *slog.Logger) *httpadapter.Server {
	if !cfg.HTTPEnabled {
		return nil
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, runner, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	return srv
}

func stopServer(cfg *config.Config, srv *httpadapter.Server, logger *slog.Logger) {
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}
