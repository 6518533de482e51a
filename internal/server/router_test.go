package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/auth"
	"github.com/omkarspace/Doc-Check/internal/batch"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
	"github.com/omkarspace/Doc-Check/internal/export"
	"github.com/omkarspace/Doc-Check/internal/repository"
	"github.com/omkarspace/Doc-Check/internal/stats"
	"github.com/omkarspace/Doc-Check/internal/storage"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(context.Context, string, constants.DocumentType, string) (*entity.Extraction, error) {
	return &entity.Extraction{Summary: "ok", Classification: "test"}, nil
}

type testServer struct {
	engine http.Handler
	token  string
}

func newTestServer(t *testing.T) *testServer {
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

	batches := repository.NewBatchRepository(db, logger)
	docs := repository.NewDocumentRepository(db, logger)
	versions := repository.NewVersionRepository(db, logger)
	results := repository.NewMemoryResultStore()

	ctrl := batch.NewController(batch.ControllerConfig{MaxUploadBytes: 1 << 20},
		batches, docs, versions, results, blobs, fakeExtractor{}, logger)
	dispatcher := batch.NewDispatcher(ctrl, logger, batch.WithWorkers(2))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, dispatcher.Shutdown(ctx))
	})

	authSvc := auth.NewService(repository.NewUserRepository(db, logger), "test-secret", time.Hour, logger)
	exporter := export.NewService(batches, docs, results, logger)
	statsSvc := stats.NewService(docs, batches, logger)

	router := NewRouter(logger, authSvc,
		NewAuthHandler(authSvc, logger),
		NewBatchHandler(ctrl, dispatcher, exporter, 1<<20, logger),
		NewDocumentHandler(ctrl, dispatcher, 1<<20, logger),
		NewStatsHandler(statsSvc, logger),
		nil,
	)
	router.SetupRoutes()

	ts := &testServer{engine: router.Engine()}

	_, err = authSvc.Register(context.Background(), "tester", "tester@example.com", "hunter22")
	require.NoError(t, err)
	token, _, err := authSvc.Login(context.Background(), "tester", "hunter22")
	require.NoError(t, err)
	ts.token = token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return ts.do(t, method, path, body, "application/json")
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func multipartFiles(t *testing.T, field string, files map[string][]byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"up"}`, w.Body.String())
}

func TestHealthzReportsDown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(logger, nil, nil, nil, nil, nil, func(context.Context) error {
		return errors.New("database unreachable")
	})
	router.SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.Engine().ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""
	for _, path := range []string{"/api/batches", "/api/v1/documents", "/api/v1/analytics/statistics"} {
		w := ts.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	w := ts.doJSON(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decode(t, w, &resp)
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)

	w = ts.doJSON(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"username": "alice", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidatesPayload(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""
	w := ts.doJSON(t, http.MethodPost, "/api/v1/auth/register", gin.H{"username": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestBatchLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodPost, "/api/batches", gin.H{
		"document_type": "PDF",
		"metadata":      map[string]string{"source": "test"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created entity.Batch
	decode(t, w, &created)
	require.Equal(t, constants.BatchPending, created.Status)

	body, contentType := multipartFiles(t, "files", map[string][]byte{
		"ok.pdf":    []byte("%PDF content"),
		"notes.txt": []byte("plain text"),
	})
	w = ts.do(t, http.MethodPost, "/api/batches/"+created.ID.String()+"/documents", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	var added struct {
		Files []entity.FileOutcome `json:"files"`
	}
	decode(t, w, &added)
	require.Len(t, added.Files, 2)
	outcomes := map[string]string{}
	for _, f := range added.Files {
		outcomes[f.Filename] = f.Status
	}
	require.Equal(t, "accepted", outcomes["ok.pdf"])
	require.Equal(t, "rejected", outcomes["notes.txt"])

	w = ts.do(t, http.MethodGet, "/api/batches/"+created.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got entity.Batch
	decode(t, w, &got)
	require.Equal(t, 1, got.Total)

	w = ts.doJSON(t, http.MethodPost, "/api/batches/"+created.ID.String()+"/dispatch", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var dispatched struct {
		Enqueued int `json:"enqueued"`
	}
	decode(t, w, &dispatched)
	require.Equal(t, 1, dispatched.Enqueued)

	w = ts.do(t, http.MethodGet, "/api/batches?status=", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Count int `json:"count"`
	}
	decode(t, w, &listed)
	require.Equal(t, 1, listed.Count)
}

func TestCancelBatchOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodPost, "/api/batches", gin.H{"document_type": "PDF"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created entity.Batch
	decode(t, w, &created)

	body, contentType := multipartFiles(t, "files", map[string][]byte{"a.pdf": []byte("%PDF")})
	w = ts.do(t, http.MethodPost, "/api/batches/"+created.ID.String()+"/documents", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.doJSON(t, http.MethodDelete, "/api/batches/"+created.ID.String(), nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	var resp struct {
		Cancelled int `json:"documents_cancelled"`
	}
	decode(t, w, &resp)
	require.Equal(t, 1, resp.Cancelled)

	// Cancelling again conflicts with the terminal state.
	w = ts.doJSON(t, http.MethodDelete, "/api/batches/"+created.ID.String(), nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateBatchRejectsUnknownType(t *testing.T) {
	ts := newTestServer(t)
	w := ts.doJSON(t, http.MethodPost, "/api/batches", gin.H{"document_type": "SPREADSHEET"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedIDIsBadRequest(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/batches/not-a-uuid", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/documents/not-a-uuid", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownBatchIsNotFound(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/batches/00000000-0000-0000-0000-000000000001", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestStandaloneUploadOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartFiles(t, "file", map[string][]byte{"solo.pdf": []byte("%PDF solo")})
	w := ts.do(t, http.MethodPost, "/api/v1/documents/upload", body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)
	var doc entity.Document
	decode(t, w, &doc)
	require.Equal(t, "solo.pdf", doc.Filename)
	require.Nil(t, doc.BatchID)

	// The document finishes asynchronously on the dispatcher workers.
	require.Eventually(t, func() bool {
		w := ts.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID.String(), nil, "")
		if w.Code != http.StatusOK {
			return false
		}
		var got entity.Document
		decode(t, w, &got)
		return got.Status == constants.DocumentCompleted
	}, 5*time.Second, 20*time.Millisecond)

	w = ts.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/result", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var ex entity.Extraction
	decode(t, w, &ex)
	require.Equal(t, "test", ex.Classification)

	w = ts.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID.String()+"/versions", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var versions struct {
		Versions []entity.DocumentVersion `json:"versions"`
	}
	decode(t, w, &versions)
	require.Len(t, versions.Versions, 2)
}

func TestStatisticsOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodPost, "/api/batches", gin.H{"document_type": "PDF"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/analytics/statistics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var s stats.Statistics
	decode(t, w, &s)
	require.EqualValues(t, 1, s.BatchesByState[string(constants.BatchPending)])
}

