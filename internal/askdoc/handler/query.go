package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/askdoc-io/askdoc/internal/askdoc/biz"
	"github.com/askdoc-io/askdoc/pkg/llm/resilience"
)

// QueryHandler handles question answering requests.
type QueryHandler struct {
	service *biz.QueryService
	timeout time.Duration
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(service *biz.QueryService, timeout time.Duration) *QueryHandler {
	return &QueryHandler{
		service: service,
		timeout: timeout,
	}
}

// QueryRequest represents a query request.
type QueryRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
}

// Query answers one question against the knowledge base.
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.service.Query(ctx, req.SessionID, req.Question)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.JSON(http.StatusRequestTimeout, ErrorResponse{
				Code:    408,
				Message: "Query timeout: the request took too long to process. Please try again or simplify your question.",
			})
			return
		}
		if errors.Is(err, resilience.ErrCircuitOpen) {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: 503, Message: err.Error()})
			return
		}
		if errors.Is(err, biz.ErrGenerationFailed) {
			c.JSON(http.StatusBadGateway, ErrorResponse{Code: 502, Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "success", Data: result})
}

// ResetSessions discards every conversation session.
func (h *QueryHandler) ResetSessions(c *gin.Context) {
	h.service.Sessions().Reset()
	c.JSON(http.StatusOK, SuccessResponse{Code: 0, Message: "sessions cleared"})
}
