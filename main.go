package main

import (
	"github.com/ringline/gameserver/config"
	"github.com/ringline/gameserver/logger"
	"github.com/ringline/gameserver/persistence"
	"github.com/ringline/gameserver/rating"
	"github.com/ringline/gameserver/server"
	"github.com/ringline/gameserver/services"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	db, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	outcomes := services.NewOutcomeService(db, rating.NewEngine())

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, db, outcomes)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
