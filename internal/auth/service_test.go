package auth

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/repository"
)

func newTestService(t *testing.T, secret string, ttl time.Duration) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, _, err := repository.Open(context.Background(), common.DatabaseConfig{
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	}, logger)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	return NewService(repository.NewUserRepository(db, logger), secret, ttl, logger)
}

func TestRegisterLoginVerifyRoundTrip(t *testing.T) {
	svc := newTestService(t, "test-secret", time.Hour)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEqual(t, "s3cret", u.PasswordHash)

	token, logged, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, u.ID, logged.ID)

	userID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "bob@example.com", "right")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "bob", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	// Unknown user yields the same error class.
	_, _, err = svc.Login(ctx, "nobody", "whatever")
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestVerifyTokenRejectsForeignSignature(t *testing.T) {
	issuer := newTestService(t, "secret-a", time.Hour)
	verifier := newTestService(t, "secret-b", time.Hour)
	ctx := context.Background()

	_, err := issuer.Register(ctx, "carol", "carol@example.com", "pw")
	require.NoError(t, err)
	token, _, err := issuer.Login(ctx, "carol", "pw")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := newTestService(t, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dave", "dave@example.com", "pw")
	require.NoError(t, err)

	// Issue a token that is already expired.
	svc.ttl = -time.Minute
	token, _, err := svc.Login(ctx, "dave", "pw")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	require.ErrorIs(t, err, common.ErrUnauthorized)
}
