package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/richxcame/engraving-commerce/internal/giftcards"
	"github.com/richxcame/engraving-commerce/internal/scheduler"
	"github.com/richxcame/engraving-commerce/internal/storecredit"
	"github.com/richxcame/engraving-commerce/pkg/config"
	"github.com/richxcame/engraving-commerce/pkg/database"
	"github.com/richxcame/engraving-commerce/pkg/eventbus"
	"github.com/richxcame/engraving-commerce/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("scheduler")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment, zap.String("service", cfg.Server.ServiceName)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	creditRepo := storecredit.NewRepository(db)
	credits := storecredit.NewService(creditRepo, cfg.GiftCards.DefaultCurrency)
	cards := giftcards.NewService(giftcards.NewRepository(db, creditRepo), cfg.GiftCards)

	// Without the bus the sweep still marks cards and releases holds.
	var publisher eventbus.Publisher
	if cfg.NATS.Enabled {
		bus, err := eventbus.New(ctx, eventbus.Config{
			URL:        cfg.NATS.URL,
			StreamName: cfg.NATS.StreamName,
			ClientName: "scheduler",
		})
		if err != nil {
			logger.Fatal("Failed to connect to event bus", zap.Error(err))
		}
		defer bus.Close()
		publisher = bus
	}

	worker := scheduler.NewWorker(cards, credits, publisher, logger.Get(), cfg.Scheduler.Interval, cfg.Scheduler.ReservationTTL)
	worker.Start(ctx)
}
