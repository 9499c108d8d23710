// Package main provides the ficha server binary: the character sheet and
// battle REST API plus a gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/ficha/internal/account"
	"github.com/cory-johannsen/ficha/internal/config"
	"github.com/cory-johannsen/ficha/internal/game/combat"
	"github.com/cory-johannsen/ficha/internal/game/dice"
	"github.com/cory-johannsen/ficha/internal/game/monster"
	"github.com/cory-johannsen/ficha/internal/httpapi"
	"github.com/cory-johannsen/ficha/internal/observability"
	"github.com/cory-johannsen/ficha/internal/server"
	"github.com/cory-johannsen/ficha/internal/storage"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file; empty = defaults and FICHA_ environment only")
	flag.Parse()

	ctx := context.Background()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting ficha",
		zap.String("http_addr", cfg.Server.Addr()),
		zap.String("grpc_addr", cfg.Server.GRPCAddr()),
		zap.String("storage", cfg.Storage.Driver),
	)

	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer backend.Close()

	archetypes, err := loadArchetypes(cfg.Content.MonsterDir, logger)
	if err != nil {
		logger.Fatal("loading monster archetypes", zap.Error(err))
	}

	roller := dice.NewRoller(dice.NewCryptoSource(), logger)
	machine := combat.NewMachine(backend.Battles, backend.Sheets, backend.Monsters, archetypes, roller, logger)

	probe := func(ctx context.Context) error {
		return backend.Health(ctx, cfg.Server.HealthInterval)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Accounts:   account.NewService(backend.Accounts),
		Sheets:     backend.Sheets,
		Monsters:   backend.Monsters,
		Archetypes: archetypes,
		Battles:    machine,
		Dice:       roller,
		Health:     probe,
		Logger:     logger,
	})

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("grpc-health", server.NewHealthService(cfg.Server.GRPCAddr(), cfg.Server.HealthInterval, probe, logger))
	lifecycle.Add("http-api", server.NewHTTPService(cfg.Server, router, logger))

	logger.Info("ficha initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("ficha stopped with error", zap.Error(err))
		backend.Close()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadFromViper(config.NewViper())
	}
	return config.Load(path)
}

// loadArchetypes returns a registry holding the built-in archetype plus every
// archetype found in dir. A missing dir leaves only the built-in.
func loadArchetypes(dir string, logger *zap.Logger) (*monster.Registry, error) {
	reg := monster.NewRegistry()
	if dir == "" {
		return reg, nil
	}
	archetypes, err := monster.LoadArchetypes(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("monster content directory missing; using built-in archetypes", zap.String("dir", dir))
		return reg, nil
	}
	if err != nil {
		return nil, err
	}
	for _, a := range archetypes {
		if err := reg.Register(a); err != nil {
			return nil, err
		}
	}
	logger.Info("loaded monster archetypes",
		zap.Int("count", len(archetypes)),
		zap.Strings("kinds", reg.Kinds()),
	)
	return reg, nil
}
