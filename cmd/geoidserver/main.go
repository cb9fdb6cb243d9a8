// Package main is the entry point for the geoid mesh streaming server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/geoidmesh/internal/config"
	"github.com/Faultbox/geoidmesh/internal/logger"
	"github.com/Faultbox/geoidmesh/internal/mesh"
	"github.com/Faultbox/geoidmesh/internal/metrics"
	"github.com/Faultbox/geoidmesh/internal/server"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	fileCfg.JSON = cfg.Logging.JSON
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Geoid Mesh Server ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	collector := metrics.New()
	builder, err := mesh.NewBuilder(cfg.MeshOptions(), mesh.WithObserver(collector))
	if err != nil {
		logger.Error("invalid mesh options", zap.Error(err))
		os.Exit(1)
	}
	opts := builder.Options()
	logger.Info("mesh options",
		zap.Float64("row_latitude_delta", opts.RowLatitudeDelta),
		zap.Int("max_vertexes_per_row", opts.MaxVertexesPerRow),
		zap.Int("rows", opts.TotalRows()),
		zap.Bool("self_check", opts.SelfCheck),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start at the current time of day
	now := time.Now().UTC()
	hours := float64(now.Hour()) + float64(now.Minute())/60 + float64(now.Second())/3600
	shift := mesh.PhaseShiftForHours(hours)

	srv := server.New(cfg, builder, collector)
	if err := srv.Run(ctx, shift); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
