// docbatch processes a directory of documents end to end without the HTTP
// server: ingest into a batch, extract, then write an XLSX report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/omkarspace/Doc-Check/internal/batch"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/export"
	"github.com/omkarspace/Doc-Check/internal/extract"
	"github.com/omkarspace/Doc-Check/internal/extract/llm"
	"github.com/omkarspace/Doc-Check/internal/extract/ocr"
	"github.com/omkarspace/Doc-Check/internal/ingest"
	"github.com/omkarspace/Doc-Check/internal/repository"
	"github.com/omkarspace/Doc-Check/internal/storage"
)

func main() {
	var (
		dir     = flag.String("dir", "", "directory of documents to process (required)")
		out     = flag.String("out", "", "output XLSX path (defaults next to --dir)")
		docType = flag.String("type", "PDF", "batch document type (PDF, DOCX, JPG, PNG)")
		workers = flag.Int("workers", 4, "concurrent extractions")
	)
	flag.Parse()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "Error: --dir is required")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "documents.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

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

	blobs, err := storage.NewLocalStore(cfg.Storage.Dir, logger)
	if err != nil {
		logger.Error("failed to initialize object store", "error", err)
		os.Exit(1)
	}
	results := repository.NewMemoryResultStore()

	batchesRepo := repository.NewBatchRepository(db, logger)
	docsRepo := repository.NewDocumentRepository(db, logger)
	versionsRepo := repository.NewVersionRepository(db, logger)

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

	ctrl := batch.NewController(batch.ControllerConfig{
		MaxUploadBytes:    cfg.Upload.MaxBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		FailureRatio:      cfg.Batch.FailureRatio,
	}, batchesRepo, docsRepo, versionsRepo, results, blobs, extractor, logger)

	owner := uuid.New()
	b, err := ctrl.CreateBatch(ctx, batch.CreateBatchInput{
		Metadata:     map[string]string{"source": *dir},
		DocumentType: *docType,
		OwnerID:      owner,
	})
	if err != nil {
		logger.Error("failed to create batch", "error", err)
		os.Exit(1)
	}

	ingestor := ingest.NewIngestor(ctrl, cfg.Upload.MaxBytes, logger)
	_, ingStats, err := ingestor.IngestDirectory(ctx, b.ID, owner, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", ingStats.Scanned,
		"matched", ingStats.Matched,
		"accepted", ingStats.Accepted,
		"rejected", ingStats.Rejected,
		"failed", ingStats.Failed,
	)

	docs, err := ctrl.BeginDispatch(ctx, b.ID)
	if err != nil {
		logger.Error("failed to dispatch batch", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, doc := range docs {
		id := doc.ID
		g.Go(func() error {
			if err := ctrl.ProcessDocument(gctx, id); err != nil {
				logger.Error("processing errored", "document_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	final, err := ctrl.GetBatch(ctx, b.ID)
	if err != nil {
		logger.Error("failed to reload batch", "error", err)
		os.Exit(1)
	}

	exporter := export.NewService(batchesRepo, docsRepo, results, logger)
	xlsxBytes, _, err := exporter.ExportBatchXLSX(ctx, b.ID)
	if err != nil {
		logger.Error("failed to export batch", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch %s %s\n", final.ID, final.Status)
	fmt.Printf("- Total:     %d\n", final.Total)
	fmt.Printf("- Processed: %d\n", final.Processed)
	fmt.Printf("- Failed:    %d\n", final.Failed)
	fmt.Printf("- Output:    %s\n", *out)
}
