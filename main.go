package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"vedomost/cmd"
	"vedomost/internal/config"
	"vedomost/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Logger first; full configuration is validated per command because
	// not every command needs every spreadsheet ID
	cfg, err := config.Load()
	if err != nil {
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Info().Msg("Starting vedomost CLI")

	cmd.Execute()

	log.Info().Msg("vedomost CLI shutdown")
	os.Exit(0)
}
