package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docclassifier-backend/internal/credits"
	"docclassifier-backend/internal/documents"
	"docclassifier-backend/internal/engine"
	"docclassifier-backend/internal/queue"
	"docclassifier-backend/internal/shared/server/middleware"
	"docclassifier-backend/internal/shared/server/respond"
)

// Handler exposes pipeline endpoints. Queue is optional; without it the
// enqueue endpoint reports the queue as unavailable.
type Handler struct {
	Svc   *Service
	Queue queue.Client
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches pipeline routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pipeline/run", h.run)
	rg.POST("/pipeline/batch", h.batch)
	rg.POST("/pipeline/enqueue", h.enqueue)
}

type runRequest struct {
	ContentHash string `json:"contentHash"`
}

func (h *Handler) run(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	email := middleware.UserEmailFromContext(c)

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.ContentHash = strings.TrimSpace(req.ContentHash)
	if req.ContentHash == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentHash is required", nil)
		return
	}

	c.Set("documentId", req.ContentHash)
	res, err := h.Svc.Run(c.Request.Context(), ownerID, email, req.ContentHash)
	if err != nil {
		writePipelineError(c, err)
		return
	}
	respond.OK(c, res)
}

type batchRequest struct {
	ContentHashes []string `json:"contentHashes"`
}

func (h *Handler) batch(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	email := middleware.UserEmailFromContext(c)

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if len(req.ContentHashes) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentHashes is required", nil)
		return
	}

	outcomes := h.Svc.RunBatch(c.Request.Context(), ownerID, email, req.ContentHashes)
	respond.OK(c, gin.H{"outcomes": outcomes})
}

// enqueue hands a batch off to the worker queue instead of processing it in
// the request.
func (h *Handler) enqueue(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	email := middleware.UserEmailFromContext(c)

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ContentHashes) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentHashes is required", nil)
		return
	}
	if h.Queue == nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "job queue not configured", nil)
		return
	}

	msg := queue.NewMessage(ownerID, email, req.ContentHashes, middleware.RequestIDFromContext(c))
	if err := h.Queue.Send(c.Request.Context(), msg); err != nil {
		respond.Error(c, http.StatusBadGateway, "queue_error", "failed to enqueue job", nil)
		return
	}
	respond.JSON(c, http.StatusAccepted, gin.H{"jobId": msg.JobID, "documents": len(msg.ContentHashes)})
}

func writePipelineError(c *gin.Context, err error) {
	var suspended *credits.SuspendedAccountError
	var insufficient *credits.InsufficientCreditsError
	var bridge *engine.BridgeError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	case errors.Is(err, credits.ErrNotSignedIn):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
	case errors.As(err, &suspended):
		respond.Error(c, http.StatusForbidden, "account_suspended", suspended.Error(), nil)
	case errors.As(err, &insufficient):
		respond.Error(c, http.StatusPaymentRequired, "insufficient_credits", insufficient.Error(), gin.H{
			"available": insufficient.Available,
			"required":  insufficient.Required,
		})
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.As(err, &bridge):
		respond.Error(c, http.StatusBadGateway, "engine_error", bridge.Error(), gin.H{"kind": bridge.Kind})
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "pipeline run failed", nil)
	}
}
