// Package app wires configuration, the analysis pipeline, persistence, and
// the optional HTTP server into the droughtindex application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/wxtools/droughtindex/internal/dataset"
	"github.com/wxtools/droughtindex/internal/log"
	"github.com/wxtools/droughtindex/internal/pipeline"
	"github.com/wxtools/droughtindex/internal/plotting"
	"github.com/wxtools/droughtindex/internal/server"
	"github.com/wxtools/droughtindex/internal/spei"
	"github.com/wxtools/droughtindex/internal/storage"
	"github.com/wxtools/droughtindex/pkg/config"
)

const defaultPlotDir = "plots"

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// RunCompute executes one analysis pass: load, compute, render, persist.
func (a *App) RunCompute(ctx context.Context) error {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	archive, err := a.newArchive(cfg)
	if err != nil {
		return err
	}
	_, err = a.computeOnce(cfg, archive)
	return err
}

// RunServe computes once, then serves results over HTTP and re-runs the
// pipeline on the configured schedule until shutdown.
func (a *App) RunServe(ctx context.Context) error {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.HTTP == nil {
		return fmt.Errorf("serve mode requires an http section in the configuration")
	}

	archive, err := a.newArchive(cfg)
	if err != nil {
		return err
	}

	result, err := a.computeOnce(cfg, archive)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	plotDir := cfg.Plots.Dir
	if plotDir == "" {
		plotDir = defaultPlotDir
	}
	srv := server.New(cfg.HTTP.ListenAddr, cfg.HTTP.Port, plotDir, a.logger)
	srv.SetResult(result)
	srv.SetArchive(archive)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			a.logger.Errorf("HTTP server stopped: %v", err)
			cancel()
		}
	}()

	var scheduler *cron.Cron
	if cfg.HTTP.Schedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.HTTP.Schedule, func() {
			a.logger.Info("scheduled re-run starting")
			fresh, err := a.computeOnce(cfg, archive)
			if err != nil {
				a.logger.Errorf("scheduled re-run failed: %v", err)
				return
			}
			srv.SetResult(fresh)
		})
		if err != nil {
			return fmt.Errorf("bad cron schedule %q: %w", cfg.HTTP.Schedule, err)
		}
		scheduler.Start()
		a.logger.Infof("scheduler running with schedule %q", cfg.HTTP.Schedule)
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	cancel()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// newArchive connects to the PostgreSQL run archive, or returns nil when no
// archive is configured.
func (a *App) newArchive(cfg *config.ConfigData) (*storage.Client, error) {
	if cfg.Storage.Postgres == nil {
		return nil, nil
	}
	client := storage.NewClient(cfg.Storage.Postgres.ConnectionString, a.logger)
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to run archive: %w", err)
	}
	return client, nil
}

// computeOnce runs the pipeline over the configured dataset and handles the
// configured outputs: charts, the PostgreSQL archive, the SQLite export.
func (a *App) computeOnce(cfg *config.ConfigData, archive *storage.Client) (*pipeline.Result, error) {
	table, err := dataset.LoadCSV(cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("loaded %d months from %s", table.Len(), cfg.Dataset.Path)

	site := pipeline.Site{
		Name:       cfg.Site.Name,
		Latitude:   cfg.Site.Latitude,
		Longitude:  cfg.Site.Longitude,
		Altitude:   cfg.Site.Altitude,
		WindHeight: cfg.Site.WindHeight,
		AngstromA:  cfg.Site.AngstromA,
		AngstromB:  cfg.Site.AngstromB,
	}
	opts := pipeline.Options{
		Scales:   cfg.Analysis.Scales,
		Kernel:   speiKernel(cfg.Analysis.Kernel),
		Shift:    cfg.Analysis.Shift,
		CacheDir: cfg.Analysis.CacheDir,
	}

	result, err := pipeline.Run(table, site, opts, a.logger)
	if err != nil {
		return nil, err
	}

	plotDir := cfg.Plots.Dir
	if plotDir == "" {
		plotDir = defaultPlotDir
	}
	names, err := plotting.RenderAll(result, plotDir)
	if err != nil {
		return nil, fmt.Errorf("rendering charts: %w", err)
	}
	a.logger.Infof("rendered %d charts to %s", len(names), plotDir)

	if archive != nil {
		if err := archive.SaveRun(result); err != nil {
			return nil, fmt.Errorf("archiving run: %w", err)
		}
		a.logger.Infof("archived run %s", result.RunID)
	}

	if cfg.Storage.SQLite != nil {
		if err := storage.ExportSQLite(result, cfg.Storage.SQLite.Path); err != nil {
			return nil, fmt.Errorf("exporting results: %w", err)
		}
		a.logger.Infof("exported results to %s", cfg.Storage.SQLite.Path)
	}

	return result, nil
}

func speiKernel(name string) spei.Kernel {
	return spei.Kernel(name)
}
