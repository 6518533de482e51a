package server

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/omkarspace/Doc-Check/constants"
	"github.com/omkarspace/Doc-Check/internal/batch"
	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/export"
	"github.com/omkarspace/Doc-Check/internal/repository"
)

type BatchHandler struct {
	ctrl       *batch.Controller
	dispatcher *batch.Dispatcher
	exporter   *export.Service
	maxBytes   int64
	logger     *slog.Logger
}

func NewBatchHandler(ctrl *batch.Controller, dispatcher *batch.Dispatcher, exporter *export.Service, maxBytes int64, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{
		ctrl:       ctrl,
		dispatcher: dispatcher,
		exporter:   exporter,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

type createBatchRequest struct {
	Metadata     map[string]string `json:"metadata"`
	DocumentType string            `json:"document_type"`
	Priority     int               `json:"priority"`
}

func (h *BatchHandler) Create(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, common.InvalidInputErrorf("invalid batch payload: %v", err))
		return
	}
	v := common.NewValidator().
		Field("document_type", req.DocumentType, common.Required)
	if err := v.Error(); err != nil {
		renderError(c, err)
		return
	}
	b, err := h.ctrl.CreateBatch(c.Request.Context(), batch.CreateBatchInput{
		Metadata:     req.Metadata,
		DocumentType: req.DocumentType,
		Priority:     req.Priority,
		OwnerID:      currentUserID(c),
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BatchHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	b, err := h.ctrl.GetBatch(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BatchHandler) List(c *gin.Context) {
	f := repository.BatchFilter{
		Status:       c.Query("status"),
		DocumentType: c.Query("document_type"),
		Page:         queryInt(c, "page", 1),
		PerPage:      queryInt(c, "per_page", 50),
	}
	batches, err := h.ctrl.ListBatches(c.Request.Context(), f)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches, "count": len(batches)})
}

type updateBatchRequest struct {
	Metadata map[string]string `json:"metadata"`
}

func (h *BatchHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	var req updateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, common.InvalidInputErrorf("invalid batch payload: %v", err))
		return
	}
	b, err := h.ctrl.UpdateBatchMetadata(c.Request.Context(), id, req.Metadata)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Cancel handles DELETE on a batch. Rows are kept for audit; the batch and
// its pending documents move to cancelled.
func (h *BatchHandler) Cancel(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	cancelled, err := h.ctrl.Cancel(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"batch_id": id, "documents_cancelled": cancelled})
}

func (h *BatchHandler) AddDocuments(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		renderError(c, common.InvalidInputErrorf("invalid multipart form: %v", err))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		renderError(c, common.InvalidInputErrorf("no files provided"))
		return
	}

	files := make([]batch.FileUpload, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh, h.maxBytes)
		if err != nil {
			renderError(c, err)
			return
		}
		files = append(files, batch.FileUpload{Filename: fh.Filename, Data: data})
	}

	outcomes, err := h.ctrl.AddDocuments(c.Request.Context(), id, currentUserID(c), files)
	if err != nil {
		renderError(c, err)
		return
	}

	// A batch already mid-flight picks up the new documents right away;
	// a pending batch waits for the explicit dispatch call.
	if b, err := h.ctrl.GetBatch(c.Request.Context(), id); err == nil && b.Status == constants.BatchProcessing {
		if n, err := h.dispatcher.Dispatch(c.Request.Context(), id); err != nil {
			h.logger.Error("pickup dispatch after add failed", "batch_id", id, "error", err)
		} else if n > 0 {
			h.logger.Info("picked up new documents", "batch_id", id, "enqueued", n)
		}
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": id, "files": outcomes})
}

func (h *BatchHandler) Dispatch(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	n, err := h.dispatcher.Dispatch(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"batch_id": id, "enqueued": n})
}

func (h *BatchHandler) Export(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		renderError(c, err)
		return
	}
	data, filename, err := h.exporter.ExportBatchXLSX(c.Request.Context(), id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, common.InvalidInputErrorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// readUpload reads one part, bounded at maxBytes+1 so an oversize file is
// detected without buffering all of it. The controller still enforces the
// limit; the sentinel byte just keeps the rejection reason accurate.
func readUpload(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, common.InvalidInputErrorf("open upload %s: %v", fh.Filename, err)
	}
	defer f.Close()

	limit := int64(-1)
	if maxBytes > 0 {
		limit = maxBytes + 1
	}
	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, common.InvalidInputErrorf("read upload %s: %v", fh.Filename, err)
	}
	return data, nil
}
