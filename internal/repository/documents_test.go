package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
)

func TestDocumentSetStatusRejectsIllegalTransition(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db, testLogger())
	ctx := context.Background()

	doc, err := repo.Create(ctx, &entity.Document{
		Filename:     "a.pdf",
		DocumentType: constants.PDF,
		Status:       constants.DocumentPending,
		BlobRef:      "blob/a.pdf",
		OwnerID:      uuid.New(),
	})
	require.NoError(t, err)

	// pending -> completed is not in the transition table.
	err = repo.SetStatus(ctx, doc.ID, constants.DocumentPending, constants.DocumentCompleted)
	require.ErrorIs(t, err, common.ErrInvalidState)

	// Guarded update: claiming a document twice fails the second time.
	require.NoError(t, repo.SetStatus(ctx, doc.ID, constants.DocumentPending, constants.DocumentProcessing))
	err = repo.SetStatus(ctx, doc.ID, constants.DocumentPending, constants.DocumentProcessing)
	require.ErrorIs(t, err, common.ErrInvalidState)
}

func TestDocumentListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db, testLogger())
	ctx := context.Background()

	owner := uuid.New()
	for _, tc := range []struct {
		status constants.DocumentStatus
		typ    constants.DocumentType
	}{
		{constants.DocumentPending, constants.PDF},
		{constants.DocumentPending, constants.JPG},
		{constants.DocumentCompleted, constants.PDF},
	} {
		_, err := repo.Create(ctx, &entity.Document{
			Filename:     "f",
			DocumentType: tc.typ,
			Status:       tc.status,
			BlobRef:      "blob/f",
			OwnerID:      owner,
		})
		require.NoError(t, err)
	}

	pending, err := repo.List(ctx, DocumentFilter{Status: string(constants.DocumentPending)})
	require.NoError(t, err)
	require.Len(t, pending, 2)

	pdfs, err := repo.List(ctx, DocumentFilter{DocumentType: string(constants.PDF)})
	require.NoError(t, err)
	require.Len(t, pdfs, 2)

	byType, err := repo.CountByType(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, byType[string(constants.PDF)])
	require.EqualValues(t, 1, byType[string(constants.JPG)])
}

func TestListPendingInBatch(t *testing.T) {
	db := newTestDB(t)
	batches := NewBatchRepository(db, testLogger())
	repo := NewDocumentRepository(db, testLogger())
	ctx := context.Background()

	b := seedBatch(t, batches, constants.BatchPending)
	seeded := seedDocs(t, batches, b.ID, 3)
	require.NoError(t, repo.SetStatus(ctx, seeded[0].ID, constants.DocumentPending, constants.DocumentProcessing))

	pending, err := repo.ListPendingInBatch(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, d := range pending {
		require.Equal(t, constants.DocumentPending, d.Status)
	}
}
