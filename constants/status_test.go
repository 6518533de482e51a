package constants

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentTransitions(t *testing.T) {
	allowed := []struct{ from, to DocumentStatus }{
		{DocumentPending, DocumentProcessing},
		{DocumentPending, DocumentCancelled},
		{DocumentProcessing, DocumentCompleted},
		{DocumentProcessing, DocumentFailed},
		{DocumentProcessing, DocumentCancelled},
		{DocumentFailed, DocumentPending},
	}
	for _, tc := range allowed {
		require.True(t, CanTransitionDocument(tc.from, tc.to), "%s -> %s must be allowed", tc.from, tc.to)
	}

	forbidden := []struct{ from, to DocumentStatus }{
		{DocumentPending, DocumentCompleted},
		{DocumentPending, DocumentFailed},
		{DocumentCompleted, DocumentPending},
		{DocumentCompleted, DocumentProcessing},
		{DocumentCancelled, DocumentPending},
		{DocumentCancelled, DocumentProcessing},
		{DocumentFailed, DocumentProcessing},
		{DocumentFailed, DocumentCompleted},
	}
	for _, tc := range forbidden {
		require.False(t, CanTransitionDocument(tc.from, tc.to), "%s -> %s must be forbidden", tc.from, tc.to)
	}
}

func TestBatchTransitions(t *testing.T) {
	require.True(t, CanTransitionBatch(BatchPending, BatchProcessing))
	require.True(t, CanTransitionBatch(BatchPending, BatchCancelled))
	require.True(t, CanTransitionBatch(BatchProcessing, BatchCompleted))
	require.True(t, CanTransitionBatch(BatchProcessing, BatchFailed))
	require.True(t, CanTransitionBatch(BatchProcessing, BatchCancelled))

	require.False(t, CanTransitionBatch(BatchCompleted, BatchProcessing))
	require.False(t, CanTransitionBatch(BatchCancelled, BatchPending))
	require.False(t, CanTransitionBatch(BatchFailed, BatchProcessing))
	require.False(t, CanTransitionBatch(BatchPending, BatchCompleted))
}

func TestTerminalStatuses(t *testing.T) {
	require.False(t, IsTerminalDocument(DocumentPending))
	require.False(t, IsTerminalDocument(DocumentProcessing))
	require.True(t, IsTerminalDocument(DocumentCompleted))
	require.True(t, IsTerminalDocument(DocumentFailed))
	require.True(t, IsTerminalDocument(DocumentCancelled))

	require.False(t, IsTerminalBatch(BatchPending))
	require.False(t, IsTerminalBatch(BatchProcessing))
	require.True(t, IsTerminalBatch(BatchCompleted))
	require.True(t, IsTerminalBatch(BatchFailed))
	require.True(t, IsTerminalBatch(BatchCancelled))
}

func TestExtensionMapping(t *testing.T) {
	require.Equal(t, PDF, MapExtToType(".PDF"))
	require.Equal(t, JPG, MapExtToType("jpeg"))
	require.Equal(t, PNG, MapExtToType("png"))
	require.Equal(t, DOCX, MapExtToType(".docx"))
	require.Equal(t, DocumentType(""), MapExtToType("exe"))

	require.Equal(t, "pdf", NormalizeExt(".PdF"))
	require.True(t, ValidDocumentType("PDF"))
	require.False(t, ValidDocumentType("pdf"))
}
