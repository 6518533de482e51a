package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omkarspace/Doc-Check/internal/batch"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/repository"
)

type DocumentHandler struct {
	ctrl       *batch.Controller
	dispatcher *batch.Dispatcher
	maxBytes   int64
	logger     *slog.Logger
}

func NewDocumentHandler(ctrl *batch.Controller, dispatcher *batch.Dispatcher, maxBytes int64, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{ctrl: ctrl, dispatcher: dispatcher, maxBytes: maxBytes, logger: logger}
}

// Upload accepts a single standalone document and enqueues it immediately;
// there is no separate dispatch step outside a batch.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		renderError(c, common.InvalidInputErrorf("missing file field: %v", err))
		return
	}
	data, err := readUpload(fh, h.maxBytes)
	if err != nil {
		renderError(c, err)
		return
	}
	doc, err := h.ctrl.UploadDocument(c.Request.Context(), currentUserID(c), batch.FileUpload{
		Filename: fh.Filename,
		Data:     data,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	if err := h.dispatcher.Enqueue(c.Request.Context(), doc.ID); err != nil {
		h.logger.Error("enqueue after upload failed", "document_id", doc.ID, "error", err)
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	doc, err := h.ctrl.GetDocument(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	f := repository.DocumentFilter{
		Status:       c.Query("status"),
		DocumentType: c.Query("document_type"),
		Page:         queryInt(c, "page", 1),
		PerPage:      queryInt(c, "per_page", 50),
	}
	if raw := c.Query("batch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			renderError(c, common.InvalidInputErrorf("invalid batch_id %q", raw))
			return
		}
		f.BatchID = id
	}
	docs, err := h.ctrl.ListDocuments(c.Request.Context(), f)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

func (h *DocumentHandler) GetResult(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	ex, err := h.ctrl.GetResult(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, ex)
}

func (h *DocumentHandler) ListVersions(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	versions, err := h.ctrl.ListVersions(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_id": id, "versions": versions})
}

// Retry flips a failed document back to pending. Standalone documents are
// re-enqueued here; batch documents wait for the next dispatch call.
func (h *DocumentHandler) Retry(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	doc, err := h.ctrl.RetryDocument(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	if doc.BatchID == nil {
		if err := h.dispatcher.Enqueue(c.Request.Context(), doc.ID); err != nil {
			h.logger.Error("enqueue after retry failed", "document_id", doc.ID, "error", err)
		}
	}
	c.JSON(http.StatusOK, doc)
}
