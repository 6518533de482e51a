package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/omkarspace/Doc-Check/constants"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"

	TesseractLang string // default "eng"

	WorkDir string // scratch dir for temp artifacts, default "./tmp"
}

type Result struct {
	Text     string
	Method   string // "pdf-text" | "image-ocr" | "docx-text"
	Duration time.Duration
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "./tmp"
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on the declared document type.
func (e *Extractor) Extract(ctx context.Context, path string, docType constants.DocumentType) (Result, error) {
	start := time.Now()
	e.logger.Debug("starting text extraction", "path", path, "type", docType)

	var res Result
	var err error
	switch docType {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.JPG, constants.PNG:
		res, err = e.extractImage(ctx, path)
	case constants.DOCX:
		res, err = extractDOCX(path)
	default:
		return Result{}, fmt.Errorf("unsupported document type: %s", docType)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	e.logger.Debug("text extraction done",
		"path", path, "method", res.Method,
		"text_bytes", len(res.Text), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	stdout, _, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", path, "-")
	if err != nil {
		return Result{Method: "pdf-text"}, fmt.Errorf("pdftotext: %w", err)
	}
	return Result{Text: strings.TrimSpace(string(stdout)), Method: "pdf-text"}, nil
}

func (e *Extractor) extractImage(ctx context.Context, path string) (Result, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	stdout, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return Result{Method: "image-ocr"}, fmt.Errorf("tesseract: %w", err)
	}
	return Result{Text: strings.TrimSpace(string(stdout)), Method: "image-ocr"}, nil
}

// TempFile materializes blob bytes in the work dir so exec-based tools can
// read them. The caller runs the returned cleanup.
func (e *Extractor) TempFile(filename string, data []byte) (string, func(), error) {
	if err := os.MkdirAll(e.cfg.WorkDir, 0o755); err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp(e.cfg.WorkDir, "extract-*"+filepath.Ext(filename))
	if err != nil {
		return "", nil, err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", nil, err
	}
	name := f.Name()
	return name, func() { _ = os.Remove(name) }, nil
}
