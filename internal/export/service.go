package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/omkarspace/Doc-Check/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	batches repository.BatchRepository
	docs    repository.DocumentRepository
	results repository.ResultStore
	logger  *slog.Logger
}

func NewService(batches repository.BatchRepository, docs repository.DocumentRepository, results repository.ResultStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{batches: batches, docs: docs, results: results, logger: logger}
}

// ExportBatchXLSX returns an XLSX workbook (as bytes) listing every document
// in the batch with its status and, where available, the extraction summary.
// A missing extraction payload leaves the analysis columns blank rather than
// failing the export.
func (s *Service) ExportBatchXLSX(ctx context.Context, batchID uuid.UUID) ([]byte, string, error) {
	start := time.Now()

	b, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, "", err
	}
	docs, err := s.docs.List(ctx, repository.DocumentFilter{BatchID: batchID, PerPage: 10000})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	const sheet = "Documents"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, "", err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on Documents.
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Filename",
		"Document Type",
		"Status",
		"Error",
		"Classification",
		"Summary",
		"Uploaded At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range docs {
		classification, summary := "", ""
		if d.ResultID != nil {
			if ex, err := s.results.Get(ctx, *d.ResultID); err == nil {
				classification = ex.Classification
				summary = ex.Summary
			} else {
				s.logger.Warn("export: extraction payload unavailable",
					"document_id", d.ID, "result_id", *d.ResultID, "error", err)
			}
		}
		errReason := ""
		if d.ErrorReason != nil {
			errReason = *d.ErrorReason
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, d.Filename)
		write(2, string(d.DocumentType))
		write(3, string(d.Status))
		write(4, truncate(errReason, 140))
		write(5, classification)
		write(6, truncate(summary, 280))
		write(7, d.CreatedAt.UTC().Format(time.RFC3339))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 40) // filename
	_ = f.SetColWidth(sheet, "B", "C", 14) // type, status
	_ = f.SetColWidth(sheet, "D", "D", 40) // error
	_ = f.SetColWidth(sheet, "E", "E", 22) // classification
	_ = f.SetColWidth(sheet, "F", "F", 60) // summary
	_ = f.SetColWidth(sheet, "G", "G", 22) // timestamp

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("xlsx write: %w", err)
	}

	filename := fmt.Sprintf("batch_%s_%s.xlsx", b.ID, time.Now().UTC().Format("20060102"))
	s.logger.Info("export.xlsx.ok",
		"batch_id", batchID.String(),
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), filename, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
