package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omkarspace/Doc-Check/internal/auth"
	"github.com/omkarspace/Doc-Check/internal/batch"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/export"
	"github.com/omkarspace/Doc-Check/internal/extract"
	"github.com/omkarspace/Doc-Check/internal/extract/llm"
	"github.com/omkarspace/Doc-Check/internal/extract/ocr"
	"github.com/omkarspace/Doc-Check/internal/repository"
	"github.com/omkarspace/Doc-Check/internal/server"
	"github.com/omkarspace/Doc-Check/internal/stats"
	"github.com/omkarspace/Doc-Check/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Relational store
	db, pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)
	if err := repository.Migrate(db); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}
	if err := repository.HealthCheck(ctx, db, 3*time.Second, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	// Extraction-result document store
	var results repository.ResultStore
	if cfg.Mongo.URL != "" {
		client, err := repository.OpenMongo(ctx, cfg.Mongo.URL, cfg.Mongo.Database, cfg.Mongo.Timeout, logger)
		if err != nil {
			logger.Error("failed to connect document store", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("document store disconnect failed", "error", err)
			}
		}()
		results = repository.NewMongoResultStore(client, cfg.Mongo.Database, logger)
	} else {
		logger.Warn("MONGO_URL not set, extraction results are kept in memory")
		results = repository.NewMemoryResultStore()
	}

	// Object store
	var blobs storage.BlobStore
	if cfg.Storage.Bucket != "" {
		blobs, err = storage.NewGCSStore(ctx, cfg.Storage.Bucket, logger)
	} else {
		blobs, err = storage.NewLocalStore(cfg.Storage.Dir, logger)
	}
	if err != nil {
		logger.Error("failed to initialize object store", "error", err)
		os.Exit(1)
	}

	// Repositories
	batchesRepo := repository.NewBatchRepository(db, logger)
	docsRepo := repository.NewDocumentRepository(db, logger)
	versionsRepo := repository.NewVersionRepository(db, logger)
	usersRepo := repository.NewUserRepository(db, logger)

	// Extraction pipeline
	ocrExtractor := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		Pdftotext:     cfg.OCR.Pdftotext,
		TesseractLang: cfg.OCR.TesseractLang,
		WorkDir:       cfg.OCR.WorkDir,
	}, logger)
	analyzer := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	extractor := extract.NewService(blobs, ocrExtractor, analyzer, logger)

	// Lifecycle controller and worker pool
	ctrl := batch.NewController(batch.ControllerConfig{
		MaxUploadBytes:    cfg.Upload.MaxBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		FailureRatio:      cfg.Batch.FailureRatio,
	}, batchesRepo, docsRepo, versionsRepo, results, blobs, extractor, logger)
	dispatcher := batch.NewDispatcher(ctrl, logger,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithQueueSize(cfg.Batch.QueueSize),
		batch.WithProcessTimeout(cfg.Batch.ProcessTimeout),
	)

	// HTTP surface
	authSvc := auth.NewService(usersRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger)
	exporter := export.NewService(batchesRepo, docsRepo, results, logger)
	statsSvc := stats.NewService(docsRepo, batchesRepo, logger)

	router := server.NewRouter(
		logger,
		authSvc,
		server.NewAuthHandler(authSvc, logger),
		server.NewBatchHandler(ctrl, dispatcher, exporter, cfg.Upload.MaxBytes, logger),
		server.NewDocumentHandler(ctrl, dispatcher, cfg.Upload.MaxBytes, logger),
		server.NewStatsHandler(statsSvc, logger),
		func(ctx context.Context) error {
			return repository.HealthCheck(ctx, db, time.Second, logger)
		},
	)
	srv := server.New(cfg.Server.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatcher shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
