package main

import (
	"errors"
	"flag"
	"log"

	"github.com/SergeiKhy/blog-analytics/internal/config"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", ".env", "path to .env file")
	steps := flag.Int("steps", 0, "number of migrations to roll back (down only, 0 - all)")
	flag.Parse()

	direction := flag.Arg(0)
	if direction == "" {
		direction = "up"
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	m, err := repository.NewMigrator(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to init migrations", zap.Error(err))
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	default:
		logger.Fatal("Unknown direction, expected up or down", zap.String("direction", direction))
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Migration failed", zap.String("direction", direction), zap.Error(err))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Fatal("Failed to read schema version", zap.Error(err))
	}

	logger.Info("Migrations done",
		zap.String("direction", direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
}
