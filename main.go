package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tcb-dev/claudebridge/internal/ai"
	"github.com/tcb-dev/claudebridge/internal/bridge"
	"github.com/tcb-dev/claudebridge/internal/cache"
	"github.com/tcb-dev/claudebridge/internal/claude"
	"github.com/tcb-dev/claudebridge/internal/config"
	"github.com/tcb-dev/claudebridge/internal/enrich"
	"github.com/tcb-dev/claudebridge/internal/fetch"
	"github.com/tcb-dev/claudebridge/internal/history"
	"github.com/tcb-dev/claudebridge/internal/merge"
	"github.com/tcb-dev/claudebridge/internal/telegram"
	"github.com/tcb-dev/claudebridge/internal/vision"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}
	cfg := config.Load()

	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}
	if len(cfg.AllowedUserIDs) == 0 {
		log.Println("WARNING: ALLOWED_USER_IDS is empty, all users are admitted")
	}

	cliPath, err := claude.FindCLI(cfg.ClaudeCLIPath)
	if err != nil {
		log.Fatalf("locate Claude CLI: %v", err)
	}

	if err := os.MkdirAll(cfg.WorkingDir, 0o755); err != nil {
		log.Fatalf("create working dir: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := history.Open(cfg.HistoryDBPath, cfg.MaxHistoryRounds)
	if err != nil {
		log.Fatalf("open history store: %v", err)
	}
	defer store.Close()

	resultCache := cache.New(cfg.CacheRetention)
	defer resultCache.Close()

	aiClient := ai.New(cfg.OpenAIAPIKey)
	httpClient := &http.Client{Timeout: cfg.URLFetchTimeout}

	cascade := fetch.NewCascade(httpClient, cfg.URLFetchTimeout)
	images := vision.NewOrchestrator(httpClient, aiClient,
		cfg.ImageAnalysisEnabled, cfg.MaxImagesPerMessage, cfg.ImageAnalysisTimeout)
	enricher := enrich.New(cascade, images, aiClient, resultCache)

	runner := claude.NewRunner(cliPath, cfg.WorkingDir, cfg.ClaudeTimeout)
	artifacts := merge.NewArtifactWriter(cfg.FetchOutputDir)

	caps := bridge.Capabilities{
		Vision:     cfg.ImageAnalysisEnabled && aiClient.Available(),
		Extraction: aiClient.Available(),
	}
	core := bridge.New(cfg, store, runner, enricher, artifacts, aiClient, caps)

	bot, err := telegram.NewBot(cfg.TelegramToken, core)
	if err != nil {
		log.Fatalf("start telegram bot: %v", err)
	}

	log.Printf("image analysis: %t, structured extraction: %t", caps.Vision, caps.Extraction)
	log.Println("starting Claude bridge bot...")
	if err := bot.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("bot stopped: %v", err)
	}
	log.Println("Claude bridge bot stopped gracefully")
}
