package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/askdoc-io/askdoc/internal/askdoc/biz"
	"github.com/askdoc-io/askdoc/internal/pkg/parser"
)

// KnowledgeHandler handles document lifecycle requests.
type KnowledgeHandler struct {
	manager       *biz.Manager
	maxUploadSize int64
}

// NewKnowledgeHandler creates a new KnowledgeHandler.
func NewKnowledgeHandler(manager *biz.Manager, maxUploadSize int64) *KnowledgeHandler {
	return &KnowledgeHandler{
		manager:       manager,
		maxUploadSize: maxUploadSize,
	}
}

// UploadResult reports the outcome for one uploaded file.
type UploadResult struct {
	*biz.AddResult
	Error string `json:"error,omitempty"`
}

// Upload ingests documents from a multipart form. Every file under the
// "file" field is processed; per-file failures are reported in the
// result list instead of failing the whole request.
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: "missing form file 'file'"})
		return
	}

	// A single unsupported file is reported with its HTTP status
	// directly; mixed batches use the per-file error field.
	results := make([]UploadResult, 0, len(headers))
	for _, header := range headers {
		if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Code: 413, Message: "file exceeds upload size limit"})
			return
		}

		data, err := readFormFile(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
			return
		}

		result, err := h.manager.AddFile(c.Request.Context(), header.Filename, data)
		if err != nil {
			if len(headers) == 1 {
				h.uploadError(c, err)
				return
			}
			results = append(results, UploadResult{
				AddResult: &biz.AddResult{Name: header.Filename},
				Error:     err.Error(),
			})
			continue
		}
		results = append(results, UploadResult{AddResult: result})
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: results})
}

func (h *KnowledgeHandler) uploadError(c *gin.Context, err error) {
	if errors.Is(err, parser.ErrUnsupportedFormat) {
		c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Code: 415, Message: err.Error()})
		return
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Code: 422, Message: err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// List returns the active documents.
func (h *KnowledgeHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: h.manager.ListActive()})
}

// ListDeleted returns the deleted documents awaiting restore or purge.
func (h *KnowledgeHandler) ListDeleted(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: h.manager.ListDeleted()})
}

// Delete removes an active document.
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	ok, err := h.manager.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Message: "document not found"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "document deleted"})
}

// Restore moves a deleted document back to the active set.
func (h *KnowledgeHandler) Restore(c *gin.Context) {
	id := c.Param("id")

	ok, err := h.manager.Restore(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Message: "document not found in deleted set"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "document restored"})
}

// Purge discards the deleted set permanently.
func (h *KnowledgeHandler) Purge(c *gin.Context) {
	purged := h.manager.PurgeDeleted()
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: gin.H{"purged": purged}})
}

// ToggleTagRequest represents a tag toggle request.
type ToggleTagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// ToggleTag flips a tag on an active document.
func (h *KnowledgeHandler) ToggleTag(c *gin.Context) {
	id := c.Param("id")

	var req ToggleTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	if !h.manager.ToggleTag(id, req.Tag) {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: 404, Message: "document not found"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "tag toggled"})
}

// Reset wipes the whole knowledge base.
func (h *KnowledgeHandler) Reset(c *gin.Context) {
	if err := h.manager.ClearAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "knowledge base cleared"})
}

// Stats returns knowledge base statistics.
func (h *KnowledgeHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: h.manager.Stats(c.Request.Context())})
}
