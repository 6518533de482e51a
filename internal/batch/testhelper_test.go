package batch

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
	"github.com/omkarspace/Doc-Check/internal/repository"
	"github.com/omkarspace/Doc-Check/internal/storage"
)

// stubExtractor fails extraction for filenames registered via failOn and
// succeeds otherwise. Safe for concurrent use.
type stubExtractor struct {
	mu   sync.Mutex
	fail map[string]bool
}

func newStubExtractor() *stubExtractor {
	return &stubExtractor{fail: make(map[string]bool)}
}

func (s *stubExtractor) failOn(filename string, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[filename] = v
}

func (s *stubExtractor) Extract(_ context.Context, _ string, _ constants.DocumentType, filename string) (*entity.Extraction, error) {
	s.mu.Lock()
	shouldFail := s.fail[filename]
	s.mu.Unlock()
	if shouldFail {
		return nil, common.NewAppError("EXTRACTION_ERROR", "stub failure for "+filename, common.ErrExtraction)
	}
	return &entity.Extraction{
		Entities:       map[string][]string{"names": {"Test Person"}},
		Summary:        "stub summary",
		Classification: "test",
		Method:         "stub",
	}, nil
}

type testEnv struct {
	ctrl     *Controller
	ext      *stubExtractor
	batches  repository.BatchRepository
	docs     repository.DocumentRepository
	versions repository.VersionRepository
	results  repository.ResultStore
}

func newTestEnv(t *testing.T, cfg ControllerConfig) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, _, err := repository.Open(context.Background(), common.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, logger)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.Migrate(db))

	blobs, err := storage.NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)

	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 1 << 20
	}

	env := &testEnv{
		ext:      newStubExtractor(),
		batches:  repository.NewBatchRepository(db, logger),
		docs:     repository.NewDocumentRepository(db, logger),
		versions: repository.NewVersionRepository(db, logger),
		results:  repository.NewMemoryResultStore(),
	}
	env.ctrl = NewController(cfg, env.batches, env.docs, env.versions, env.results, blobs, env.ext, logger)
	return env
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4 test content")
}
