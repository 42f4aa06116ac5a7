package main

import (
	"log"
	"strconv"

	"market-api/internal/config"
	"market-api/internal/shared/utils"
)

// Config holds all configuration for the worker
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	HealthAddr    string
}

// loadConfig: Redis lấy từ app config, còn lại từ WORKER_*
func loadConfig(app *config.Config) *Config {
	concurrency, err := strconv.Atoi(utils.GetEnvVariable("WORKER_CONCURRENCY", "10"))
	if err != nil || concurrency < 1 {
		concurrency = 10
	}

	cfg := &Config{
		RedisAddr:     app.Redis.Host,
		RedisPassword: app.Redis.Password,
		RedisDB:       app.Redis.DB,
		Concurrency:   concurrency,
		HealthAddr:    utils.GetEnvVariable("WORKER_HEALTH_ADDR", ":9999"),
	}

	log.Printf("[Config] Redis: %s, Concurrency: %d", cfg.RedisAddr, cfg.Concurrency)

	return cfg
}
