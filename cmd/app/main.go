// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodie/internal/config"
	"foodie/internal/domain/ports/adapter"
	"foodie/internal/domain/ports/storage"
	aiAdapters "foodie/internal/infra/adapters/ai"
	"foodie/internal/infra/adapters/notify"
	pg "foodie/internal/infra/db/postgres"
	"foodie/internal/infra/i18n"
	"foodie/internal/infra/logging"
	"foodie/internal/infra/metrics"
	red "foodie/internal/infra/redis"
	"foodie/internal/infra/sched"
	store "foodie/internal/infra/storage"
	"foodie/internal/infra/web"
	"foodie/internal/infra/worker"
	"foodie/internal/usecase"
)

// Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, stub vision fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	jobRepo := pg.NewCaptureJobRepo(pool, tm)
	mealRepo := pg.NewMealRecordRepo(pool)

	// ---- Artifact store (fs | s3) ----
	var artifacts storage.ArtifactStore
	switch cfg.Artifacts.Backend {
	case "s3":
		artifacts, err = store.NewS3Store(ctx, &cfg.Artifacts)
		if err != nil {
			log.Fatalf("s3 artifact store: %v", err)
		}
		logger.Info().Str("bucket", cfg.Artifacts.S3.Bucket).Msg("artifact store: s3")
	default:
		artifacts, err = store.NewFSStore(cfg.Artifacts.Dir)
		if err != nil {
			log.Fatalf("fs artifact store: %v", err)
		}
		logger.Info().Str("dir", cfg.Artifacts.Dir).Msg("artifact store: fs")
	}

	// ---- Vision adapter (Gemini -> OpenAI -> dev stub) ----
	var vision adapter.VisionAnalyzer
	var provider string
	switch {
	case cfg.Vision.GeminiKey != "":
		provider = "gemini"
		vision, err = aiAdapters.NewGeminiVision(ctx, cfg.Vision.GeminiKey, cfg.Vision.GeminiURL, cfg.Vision.Model)
		if err != nil {
			log.Fatalf("gemini vision: %v", err)
		}
	case cfg.Vision.OpenAIKey != "":
		provider = "openai"
		vision, err = aiAdapters.NewOpenAIVision(cfg.Vision.OpenAIKey, cfg.Vision.OpenAIBaseURL, cfg.Vision.Model, cfg.Vision.ReadTimeout)
		if err != nil {
			log.Fatalf("openai vision: %v", err)
		}
	case cfg.Runtime.Dev:
		provider = "noop"
		vision = aiAdapters.NewNoopVision()
		logger.Warn().Msg("no vision provider configured; using dev stub")
	default:
		log.Fatalf("no vision provider configured: set vision.gemini_key or vision.openai_key in %s", *cfgPath)
	}
	logger.Info().Str("provider", provider).Str("model", cfg.Vision.Model).Msg("vision adapter ready")

	// ---- Notifications ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}
	var notifier adapter.Notifier
	if cfg.Notify.TelegramToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, tr, logger)
		if err != nil {
			log.Fatalf("telegram notifier: %v", err)
		}
	} else {
		notifier = notify.NewLogNotifier(tr, logger)
	}

	// ---- Use cases ----
	analysisUC := usecase.NewAnalysisUseCase(
		mealRepo, artifacts, vision, tm,
		provider, cfg.Vision.ReadTimeout, cfg.Worker.BackoffUnit, logger,
	)
	captureUC := usecase.NewCaptureUseCase(jobRepo, artifacts, limiter, cfg.RateLimit.CapturesPerMinute, logger)
	mealUC := usecase.NewMealLogUseCase(mealRepo, logger)

	// ---- Background processing ----
	wp := worker.NewPool(cfg.Worker.Count, logger)
	wp.Start(ctx)

	processor := worker.NewCaptureJobProcessor(
		jobRepo, artifacts, analysisUC, notifier, locker,
		cfg.Worker.PollInterval, logger,
	)
	go processor.Start(ctx, wp)

	sweeper := sched.NewRetentionSweeper(
		cfg.Worker.SweepEvery, cfg.Artifacts.Retention,
		artifacts, jobRepo, notifier, logger,
	)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- HTTP API ----
	srv := web.NewServer(&cfg.Web, captureUC, mealUC, cfg.Runtime.Dev, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
	wp.Stop()
}
