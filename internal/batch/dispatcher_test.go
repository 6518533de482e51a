package batch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/omkarspace/Doc-Check/constants"
)

func TestDispatcherProcessesBatchToCompletion(t *testing.T) {
	env := newTestEnv(t, ControllerConfig{})
	ctx := context.Background()
	b := createBatch(t, env, "PDF")
	addFiles(t, env, b.ID, "d1.pdf", "d2.pdf", "d3.pdf")
	env.ext.failOn("d2.pdf", true)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(env.ctrl, logger, WithWorkers(2), WithQueueSize(8), WithProcessTimeout(10*time.Second))

	n, err := d.Dispatch(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	// Shutdown drains the queue before returning.
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(shutdownCtx))

	got, err := env.ctrl.GetBatch(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, constants.BatchCompleted, got.Status)
	require.Equal(t, 2, got.Processed)
	require.Equal(t, 1, got.Failed)
}

func TestDispatcherRejectsEnqueueAfterShutdown(t *testing.T) {
	env := newTestEnv(t, ControllerConfig{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(env.ctrl, logger, WithWorkers(1))

	require.NoError(t, d.Shutdown(context.Background()))

	doc, err := env.ctrl.UploadDocument(context.Background(), uuid.New(), FileUpload{Filename: "x.pdf", Data: pdfBytes()})
	require.NoError(t, err)
	require.Error(t, d.Enqueue(context.Background(), doc.ID))
}

// Shutdown racing a tight enqueue loop on a size-1 queue must never close the
// channel out from under a blocked sender.
func TestShutdownDuringConcurrentEnqueue(t *testing.T) {
	env := newTestEnv(t, ControllerConfig{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(env.ctrl, logger, WithWorkers(1), WithQueueSize(1))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := d.Enqueue(context.Background(), uuid.New()); err != nil {
					return // shut down, stop producing
				}
			}
		}()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(shutdownCtx))
	wg.Wait()

	require.Error(t, d.Enqueue(context.Background(), uuid.New()))
}

func TestDispatchUnknownBatchFails(t *testing.T) {
	env := newTestEnv(t, ControllerConfig{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(env.ctrl, logger, WithWorkers(1))
	defer func() { _ = d.Shutdown(context.Background()) }()

	_, err := d.Dispatch(context.Background(), uuid.New())
	require.Error(t, err)
}
