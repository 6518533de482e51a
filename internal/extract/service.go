// Package extract turns raw stored bytes into a structured payload:
// text extraction (OCR or native) followed by LLM analysis.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
	"github.com/omkarspace/Doc-Check/internal/extract/llm"
	"github.com/omkarspace/Doc-Check/internal/extract/ocr"
	"github.com/omkarspace/Doc-Check/internal/storage"
)

// Extractor is the contract the lifecycle controller dispatches against.
// It has no side effects visible to the controller beyond its return value;
// retries are user-initiated, never internal.
type Extractor interface {
	Extract(ctx context.Context, blobRef string, docType constants.DocumentType, filename string) (*entity.Extraction, error)
}

type Service struct {
	blobs    storage.BlobStore
	ocr      *ocr.Extractor
	analyzer llm.Analyzer
	logger   *slog.Logger
}

func NewService(blobs storage.BlobStore, ocrExtractor *ocr.Extractor, analyzer llm.Analyzer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{blobs: blobs, ocr: ocrExtractor, analyzer: analyzer, logger: logger}
}

func (s *Service) Extract(ctx context.Context, blobRef string, docType constants.DocumentType, filename string) (*entity.Extraction, error) {
	data, err := s.blobs.Load(ctx, blobRef)
	if err != nil {
		// Blob unavailability is a storage fault, not an extraction fault.
		return nil, err
	}

	path, cleanup, err := s.ocr.TempFile(filename, data)
	if err != nil {
		return nil, common.StorageErrorf("stage blob for extraction: %v", err)
	}
	defer cleanup()

	text, err := s.ocr.Extract(ctx, path, docType)
	if err != nil {
		s.logger.Error("text extraction failed", "blob_ref", blobRef, "type", docType, "error", err)
		return nil, extractionError("text extraction: %v", err)
	}
	if text.Text == "" {
		return nil, extractionError("no text extracted from %s", filename)
	}

	fields, raw, err := s.analyzer.Analyze(ctx, llm.AnalyzeRequest{
		Text:         text.Text,
		DocumentType: string(docType),
		FilenameHint: filename,
	})
	if err != nil {
		s.logger.Error("analysis failed", "blob_ref", blobRef, "error", err)
		return nil, extractionError("analysis: %v", err)
	}

	return &entity.Extraction{
		Entities:       fields.Entities,
		Summary:        fields.Summary,
		Classification: fields.Classification,
		RawOutput:      string(raw),
		Method:         text.Method,
	}, nil
}

func extractionError(format string, args ...interface{}) error {
	return common.NewAppError("EXTRACTION_ERROR", fmt.Sprintf(format, args...), common.ErrExtraction)
}
