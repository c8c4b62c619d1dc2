package documents

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docclassifier-backend/internal/shared/server/middleware"
	"docclassifier-backend/internal/shared/server/respond"
)

const maxUploadSize = 20 << 20 // 20MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/search", h.search)
	rg.DELETE("/documents", h.deleteByPath)
	rg.POST("/documents/rename", h.rename)
	rg.POST("/documents/clear", h.clearAll)
}

func (h *Handler) upload(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	doc, created, err := h.Svc.Upload(c.Request.Context(), ownerID, fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respond.JSON(c, status, gin.H{
		"document":  toResponse(doc),
		"duplicate": !created,
	})
}

func (h *Handler) list(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	docs, err := h.Svc.List(c.Request.Context(), ownerID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}
	respond.OK(c, toResponses(docs))
}

func (h *Handler) search(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	docs, err := h.Svc.Search(c.Request.Context(), ownerID, c.Query("q"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to search documents", nil)
		return
	}
	respond.OK(c, toResponses(docs))
}

func (h *Handler) deleteByPath(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "path is required", nil)
		return
	}

	if err := h.Svc.DeleteByPath(c.Request.Context(), ownerID, path); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

type renameRequest struct {
	Path    string `json:"path"`
	NewName string `json:"newName"`
}

func (h *Handler) rename(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	req.NewName = strings.TrimSpace(req.NewName)
	if req.Path == "" || req.NewName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "path and newName are required", nil)
		return
	}

	doc, err := h.Svc.Rename(c.Request.Context(), ownerID, req.Path, req.NewName)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to rename document", nil)
		}
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) clearAll(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	n, err := h.Svc.ClearAll(c.Request.Context(), ownerID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear documents", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": n})
}

func toResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	return out
}
