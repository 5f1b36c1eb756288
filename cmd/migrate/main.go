package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/richxcame/engraving-commerce/pkg/config"
	"github.com/richxcame/engraving-commerce/pkg/database"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "number of migrations to roll back instead of migrating up")
	flag.Parse()

	cfg, err := config.Load("migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment, zap.String("service", cfg.Server.ServiceName)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *down > 0 {
		if err := database.Rollback(&cfg.Database, *down); err != nil {
			logger.Fatal("Rollback failed", zap.Error(err))
		}
		logger.Info("Rolled back migrations", zap.Int("steps", *down))
		return
	}

	if err := database.Migrate(&cfg.Database); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
}
