package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omkarspace/Doc-Check/internal/common"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewLocalStore(t.TempDir(), logger)
	require.NoError(t, err)
	return s
}

func TestLocalSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ref, err := s.Save(ctx, "invoice.pdf", []byte("pdf bytes"))
	require.NoError(t, err)
	require.Contains(t, ref, "invoice.pdf")

	data, err := s.Load(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, []byte("pdf bytes"), data)
}

func TestLocalLoadUnknownRefIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "nope_missing.pdf")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestLocalRejectsPathTraversal(t *testing.T) {
	s := newTestStore(t)
	for _, ref := range []string{"../outside.txt", "../../etc/passwd", ".."} {
		_, err := s.Load(context.Background(), ref)
		require.Error(t, err, ref)
	}
}

func TestRefsAreUniquePerSave(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.Save(ctx, "same.pdf", []byte("one"))
	require.NoError(t, err)
	b, err := s.Save(ctx, "same.pdf", []byte("two"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	data, err := s.Load(ctx, a)
	require.NoError(t, err)
	require.Equal(t, []byte("one"), data)
}
