package stats

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
	"github.com/omkarspace/Doc-Check/internal/repository"
)

func TestCollect(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, _, err := repository.Open(context.Background(), common.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, logger)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	docs := repository.NewDocumentRepository(db, logger)
	batches := repository.NewBatchRepository(db, logger)
	ctx := context.Background()

	for _, st := range []constants.DocumentStatus{
		constants.DocumentCompleted,
		constants.DocumentCompleted,
		constants.DocumentCompleted,
		constants.DocumentFailed,
		constants.DocumentPending,
	} {
		_, err := docs.Create(ctx, &entity.Document{
			Filename:     "f.pdf",
			DocumentType: constants.PDF,
			Status:       st,
			BlobRef:      "blob/f.pdf",
			OwnerID:      uuid.New(),
		})
		require.NoError(t, err)
	}
	_, err = batches.Create(ctx, &entity.Batch{
		DocumentType: constants.PDF,
		Status:       constants.BatchProcessing,
		OwnerID:      uuid.New(),
	})
	require.NoError(t, err)

	svc := NewService(docs, batches, logger)
	s, err := svc.Collect(ctx)
	require.NoError(t, err)

	require.EqualValues(t, 5, s.TotalDocuments)
	require.EqualValues(t, 3, s.DocumentsByState[string(constants.DocumentCompleted)])
	require.EqualValues(t, 1, s.DocumentsByState[string(constants.DocumentFailed)])
	require.EqualValues(t, 5, s.DocumentsByType[string(constants.PDF)])
	require.EqualValues(t, 1, s.BatchesByState[string(constants.BatchProcessing)])
	require.InDelta(t, 0.75, s.SuccessRate, 1e-9)
}

func TestCollectEmptyStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, _, err := repository.Open(context.Background(), common.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, logger)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	svc := NewService(
		repository.NewDocumentRepository(db, logger),
		repository.NewBatchRepository(db, logger),
		logger,
	)
	s, err := svc.Collect(context.Background())
	require.NoError(t, err)
	require.Zero(t, s.TotalDocuments)
	require.Zero(t, s.SuccessRate)
}
