package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"market-api/internal/uploader"
	"market-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("UPLOADER_API_URL", "http://localhost:4000"), "base URL of market-api")
	token := flag.String("token", os.Getenv("UPLOADER_TOKEN"), "bearer token (POST /api/auth/login)")
	concurrency := flag.Int("concurrency", uploader.DefaultWorkers, "number of parallel uploads")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: uploader [flags] file...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger.Init(envOr("APP_ENV", "development"))

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *token == "" {
		log.Fatal().Msg("missing -token")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if failed := run(ctx, *apiURL, *token, *concurrency, flag.Args()); failed > 0 {
		os.Exit(1)
	}
}

// run upload các file, trả về số item kết thúc ở error
func run(ctx context.Context, apiURL, token string, concurrency int, paths []string) int {
	var (
		mu        sync.Mutex
		lastState = map[string]uploader.State{}
		lastPct   = -1
		orch      *uploader.Orchestrator
	)

	observer := func(it uploader.Item) {
		mu.Lock()
		defer mu.Unlock()

		if lastState[it.ID] != it.State {
			lastState[it.ID] = it.State
			ev := log.Info()
			if it.State == uploader.StateError {
				ev = log.Warn().Str("error", it.Err)
			}
			ev.Str("id", it.ID).Str("file", it.Name).Str("state", string(it.State)).Msg("upload state changed")
		}

		if orch == nil {
			return
		}
		// chỉ log khi tổng progress qua mốc 10%
		if pct := int(orch.Progress()); pct/10 != lastPct/10 {
			lastPct = pct
			log.Info().Int("progress", pct).Msg("overall progress")
		}
	}

	o := uploader.New(
		uploader.NewAPIClient(apiURL, token, nil),
		uploader.WithWorkers(concurrency),
		uploader.WithObserver(observer),
	)

	failed := 0
	for _, path := range paths {
		src, err := uploader.FileSource(path)
		if err != nil {
			log.Error().Err(err).Str("file", path).Msg("skipping file")
			failed++
			continue
		}
		o.Add(src)
	}

	mu.Lock()
	orch = o
	mu.Unlock()

	if err := o.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("upload run failed")
	}

	fmt.Println()
	for _, it := range o.Items() {
		switch it.State {
		case uploader.StateDone:
			fmt.Printf("%-4s %-10s %s\n   key: %s\n   url: %s\n", it.ID, it.State, it.Name, it.Key, it.ViewURL)
		case uploader.StateError:
			failed++
			fmt.Printf("%-4s %-10s %s\n   error: %s\n", it.ID, it.State, it.Name, it.Err)
		default:
			// còn queued/uploading khi bị hủy
			failed++
			fmt.Printf("%-4s %-10s %s\n", it.ID, it.State, it.Name)
		}
	}
	return failed
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
