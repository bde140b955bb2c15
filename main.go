// Package main is the entry point for the wallet ledger service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yerzhan/wallet/internal/config"
	"gitlab.com/yerzhan/wallet/internal/database"
	"gitlab.com/yerzhan/wallet/internal/exchange"
	"gitlab.com/yerzhan/wallet/internal/guest"
	"gitlab.com/yerzhan/wallet/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("wallet %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := database.SeedCurrencies(ctx, pool, cfg.BaseCurrency); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed currencies")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	if cfg.GuestSeedOnBoot {
		if _, err := guest.Bootstrap(ctx, pool, cfg.BaseCurrency); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to bootstrap guest user")
		}
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	if cfg.RefreshEnabled {
		client := exchange.NewClient(cfg.ExchangeAPIURL, 10*time.Second)
		refresher := exchange.NewRefresher(client, pool, cfg.BaseCurrency, cfg.RefreshInterval)
		refresher.Run(ctx)
	} else {
		logger.Log.Info().Msg("Rate refresh is disabled")
		<-ctx.Done()
	}
}
