// Package app assembles the storage stack shared by the server and staffctl.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	dbfs "github.com/garnizeh/staffdir/db"
	"github.com/garnizeh/staffdir/internal/attachment"
	"github.com/garnizeh/staffdir/internal/cache"
	"github.com/garnizeh/staffdir/internal/config"
	"github.com/garnizeh/staffdir/internal/db"
	"github.com/garnizeh/staffdir/internal/record"
	"github.com/garnizeh/staffdir/internal/repository/sqlite"
)

type App struct {
	DB    *db.DB
	Files *attachment.Manager
	Store *record.Store

	closers []func() error
}

// NewLogger returns the JSON logger at the configured level.
func NewLogger(cfg *config.Config) *slog.Logger {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// Open connects the database, runs the schema guard, prepares the attachment
// directory and builds the record store. A schema failure is returned as is so
// callers can refuse to start.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	d, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{DB: d}
	a.closers = append(a.closers, d.Close)

	added, err := db.EnsureSchema(ctx, d, dbfs.Schema)
	if err != nil {
		a.Close()
		return nil, err
	}
	if len(added) > 0 {
		logger.Info("schema upgraded", slog.Any("added_columns", added))
	}

	a.Files = attachment.New(cfg.AttachmentDir, logger)
	if err := a.Files.EnsureDir(); err != nil {
		a.Close()
		return nil, err
	}

	c, err := a.listCache(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Store = record.New(sqlite.New(d, logger), a.Files,
		record.WithCache(c),
		record.WithMetrics(record.NewMetrics(reg)),
		record.WithLogger(logger),
	)
	return a, nil
}

func (a *App) listCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.ListCache, error) {
	if cfg.Cache.Backend != config.CacheRedis {
		return cache.NewMemory(cfg.Cache.TTL), nil
	}

	client := cache.NewRedisClient(cfg.Cache.RedisAddr)
	rc := cache.NewRedis(client, cfg.Cache.RedisKey, cfg.Cache.TTL, logger)
	a.closers = append(a.closers, rc.Close)
	if !rc.Healthy(ctx) {
		return nil, fmt.Errorf("redis cache at %s is unreachable", cfg.Cache.RedisAddr)
	}
	return rc, nil
}

// Close releases everything Open acquired, in reverse order.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
