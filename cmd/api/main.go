// HTTP API server exposing the AB testing chatbot and analysis endpoints.
package main

import (
	"context"
	"log"

	"liftbot/app"
	"liftbot/internal/config"
	"liftbot/ui"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] config: %v", err)
	}

	system, err := app.Bootstrap(context.Background(), cfg)
	if err != nil {
		log.Fatalf("[API] bootstrap: %v", err)
	}

	server := ui.NewServer(cfg.Server, system.Chat, system.Store)
	if err := server.Run(); err != nil {
		log.Fatalf("[API] server: %v", err)
	}
}
