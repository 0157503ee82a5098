package main

import (
	"context"
	"flag"
	"fmt"

	"ecosmart/badge"
	"ecosmart/city"
	"ecosmart/classifier"
	"ecosmart/common"
	"ecosmart/config"
	"ecosmart/notification"
	"ecosmart/pickup"
	"ecosmart/reward"
	"ecosmart/server"
	"ecosmart/wallet"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	flag.Parse()

	cfg := config.Load()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	db, err := common.DBConnect(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer db.Close()

	badges := badge.NewService(db)
	wallets := wallet.NewService(db)
	cities := city.NewService(db)
	pickups := pickup.NewService(db)

	gemini := classifier.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, cfg.GeminiRetries)

	var notifier notification.Notifier
	if cfg.TwilioAccountSID != "" && cfg.AdminPhoneNumber != "" {
		notifier = notification.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken,
			cfg.TwilioPhoneNumber, cfg.AdminPhoneNumber)
	}

	orchestrator := reward.NewOrchestrator(db, cfg, gemini, badges, wallets, cities, notifier, badge.NextTier)

	ctx := context.Background()
	for _, ensure := range []func(context.Context) error{
		badges.EnsureSchema,
		wallets.EnsureSchema,
		cities.EnsureSchema,
		pickups.EnsureSchema,
		orchestrator.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
	}
	if err := badges.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed badge catalog: %v", err)
	}

	server.StartService(server.NewHandlers(orchestrator, badges, wallets, cities, pickups, gemini))
}
