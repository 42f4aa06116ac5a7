package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"market-api/pkg/container"
	"market-api/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	c, err := container.NewContainer()
	if err != nil {
		log.Fatalf("[Container] Failed to initialize: %v", err)
	}
	defer c.Cleanup()

	logger.Init(c.Config.App.Environment)

	cfg := loadConfig(c.Config)

	health, err := startServices(cfg)
	if err != nil {
		log.Fatalf("[Startup] Health check failed: %v", err)
	}

	srv := setupAsynqServer(cfg, initializeHandlers(c))

	waitForShutdown(srv, health)
}

func waitForShutdown(srv *asynqServer, health *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[Shutdown] Gracefully stopping...")
	srv.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = health.Shutdown(ctx)

	log.Println("[Shutdown] ✓ Stopped")
}
