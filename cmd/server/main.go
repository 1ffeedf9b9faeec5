// PickPlate - Food Recommendation and Preference Learning Engine
// Copyright 2026 PickPlate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pickplate/pickplate

// The server binary wires the engine together: configuration, logging,
// storage, caches, the catalog chain, and the supervised background
// services. The caller-facing transport lives outside this repository
// and embeds the same packages.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/pickplate/pickplate/internal/cache"
	"github.com/pickplate/pickplate/internal/catalog"
	"github.com/pickplate/pickplate/internal/config"
	"github.com/pickplate/pickplate/internal/logging"
	"github.com/pickplate/pickplate/internal/profile"
	"github.com/pickplate/pickplate/internal/recommend"
	"github.com/pickplate/pickplate/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.Logger()
		boot.Fatal().Err(err).Msg("configuration failed")
	}

	logging.Init(cfg.Logging)
	log := logging.With().Str("component", "server").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage layer.
	var repo profile.Repository
	if cfg.Storage.InMemory {
		repo = storage.NewMemoryRepository()
		log.Warn().Msg("using in-memory storage, nothing will survive a restart")
	} else {
		db, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("storage open failed")
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("storage close failed")
			}
		}()
		repo = storage.NewBadgerRepository(db, logging.Logger())
	}

	// Cache instances, one per concern.
	itemCache := cache.New("items", cfg.Cache.ItemSize, cfg.Cache.ItemTTL, logging.Logger())
	listCache := cache.New("lists", cfg.Cache.ListSize, cfg.Cache.ListTTL, logging.Logger())
	popularCache := cache.New("popular", cfg.Cache.PopularSize, cfg.Cache.PopularTTL, logging.Logger())
	profileCache := cache.New("profiles", cfg.Cache.ProfileSize, cfg.Cache.ProfileTTL, logging.Logger())

	// Catalog chain: backing view -> breaker -> caches.
	base := catalog.NewMemoryView()
	if cfg.SeedCatalog {
		catalog.Seed(base)
		log.Info().Int("items", base.Len()).Msg("development catalog seeded")
	}
	guarded := catalog.NewGuardedView(base, cfg.CatalogGuard, logging.Logger())
	view := catalog.NewCachedView(guarded, itemCache, listCache)

	store := profile.NewStore(repo, view, profileCache, recommend.AssignGroup, logging.Logger())
	engine := recommend.NewEngine(cfg.Recommend, store, view, logging.Logger())
	popular := recommend.NewPopularList(store, view, popularCache, logging.Logger())

	if cfg.SeedCatalog {
		smokeTest(ctx, engine, popular, log)
	}

	// Supervision tree for the background services.
	handler := &sutureslog.Handler{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
	root := suture.New("pickplate", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})

	root.Add(cache.NewSweeper(cfg.Cache.SweepInterval, logging.Logger(), itemCache, listCache, popularCache, profileCache))
	root.Add(newMetricsServer(cfg.MetricsAddr, logging.Logger()))

	log.Info().
		Str("metrics_addr", cfg.MetricsAddr).
		Bool("in_memory", cfg.Storage.InMemory).
		Msg("pickplate engine starting")

	if err := root.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("supervisor exited")
	}

	log.Info().Msg("shutdown complete")
}

// smokeTest runs one recommendation and one popular-items query against
// the seeded catalog so a development startup fails loudly when the
// wiring is broken.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func smokeTest(ctx context.Context, engine *recommend.Engine, popular *recommend.PopularList, log zerolog.Logger) {
	resp, err := engine.Recommend(ctx, recommend.Request{
		Mode:     recommend.ModeSimple,
		Identity: profile.Identity{SessionID: "startup-smoke"},
		TimeSlot: catalog.Lunch,
		Limit:    3,
	})
	if err != nil {
		log.Error().Err(err).Msg("startup smoke recommendation failed")
		return
	}

	top, err := popular.Items(ctx, 3)
	if err != nil {
		log.Error().Err(err).Msg("startup smoke popular query failed")
		return
	}

	log.Info().
		Int("items", len(resp.Items)).
		Int("popular", len(top)).
		Str("group", string(resp.Group)).
		Msg("startup smoke checks ok")
}
