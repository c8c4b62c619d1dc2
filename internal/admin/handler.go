package admin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docclassifier-backend/internal/credits"
	"docclassifier-backend/internal/documents"
	"docclassifier-backend/internal/shared/server/middleware"
	"docclassifier-backend/internal/shared/server/respond"
	"docclassifier-backend/internal/shared/telemetry"
)

const defaultTransactionLimit = 200

// Handler exposes the admin console endpoints.
type Handler struct {
	Svc     *Service
	Credits *credits.Service
	Docs    documents.Repo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, cr *credits.Service, docs documents.Repo) *Handler {
	return &Handler{Svc: svc, Credits: cr, Docs: docs}
}

// RegisterPublicRoutes attaches the login endpoint, which must be reachable
// without a token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/login", h.login)
}

// RegisterRoutes attaches console endpoints. The group is expected to carry
// the admin requirement.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/credits", h.addCredits)
	rg.POST("/admin/suspend", h.suspend)
	rg.POST("/admin/unsuspend", h.unsuspend)
	rg.GET("/admin/accounts", h.listAccounts)
	rg.GET("/admin/transactions", h.listTransactions)
	rg.GET("/admin/stats", h.stats)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	token, acct, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
		case errors.Is(err, ErrInactive):
			respond.Error(c, http.StatusForbidden, "account_inactive", "admin account deactivated", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "login failed", nil)
		}
		return
	}
	telemetry.Info("admin.login", map[string]any{"email": acct.Email})
	respond.OK(c, gin.H{"token": token, "admin": acct})
}

type creditRequest struct {
	OwnerID string `json:"ownerId"`
	Amount  int    `json:"amount"`
	Reason  string `json:"reason"`
}

func (h *Handler) addCredits(c *gin.Context) {
	var req creditRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.OwnerID) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ownerId and amount are required", nil)
		return
	}

	adminID := middleware.UserIDFromContext(c)
	ok, err := h.Credits.AdminCredit(c.Request.Context(), adminID, req.OwnerID, req.Amount, req.Reason)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "account not found", nil)
		return
	}

	acct, err := h.Credits.Get(c.Request.Context(), req.OwnerID)
	if err != nil {
		writeAdminError(c, err)
		return
	}
	telemetry.Info("admin.credits_added", map[string]any{
		"admin":  adminID,
		"owner":  req.OwnerID,
		"amount": req.Amount,
	})
	respond.OK(c, acct)
}

type suspendRequest struct {
	OwnerID string `json:"ownerId"`
	Reason  string `json:"reason"`
}

func (h *Handler) suspend(c *gin.Context) {
	var req suspendRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.OwnerID) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ownerId is required", nil)
		return
	}
	ok, err := h.Credits.Suspend(c.Request.Context(), req.OwnerID, req.Reason)
	if err != nil {
		writeAdminError(c, err)
		return
	}
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "account not found", nil)
		return
	}
	telemetry.Info("admin.suspended", map[string]any{
		"admin":  middleware.UserIDFromContext(c),
		"owner":  req.OwnerID,
		"reason": req.Reason,
	})
	respond.OK(c, gin.H{"suspended": true})
}

func (h *Handler) unsuspend(c *gin.Context) {
	var req suspendRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.OwnerID) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ownerId is required", nil)
		return
	}
	ok, err := h.Credits.Unsuspend(c.Request.Context(), req.OwnerID)
	if err != nil {
		writeAdminError(c, err)
		return
	}
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "account not found", nil)
		return
	}
	respond.OK(c, gin.H{"suspended": false})
}

func (h *Handler) listAccounts(c *gin.Context) {
	accounts, err := h.Credits.ListAccounts(c.Request.Context())
	if err != nil {
		writeAdminError(c, err)
		return
	}
	if accounts == nil {
		accounts = []credits.Account{}
	}
	respond.OK(c, gin.H{"accounts": accounts})
}

func (h *Handler) listTransactions(c *gin.Context) {
	ctx := c.Request.Context()

	limit := defaultTransactionLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	var (
		txs []credits.Transaction
		err error
	)
	if owner := strings.TrimSpace(c.Query("owner")); owner != "" {
		txs, err = h.Credits.TransactionsFor(ctx, owner, limit)
	} else {
		txs, err = h.Credits.AllTransactions(ctx, limit)
	}
	if err != nil {
		writeAdminError(c, err)
		return
	}
	if txs == nil {
		txs = []credits.Transaction{}
	}
	respond.OK(c, gin.H{"transactions": txs})
}

func (h *Handler) stats(c *gin.Context) {
	ctx := c.Request.Context()

	docStats, err := h.Docs.Counts(ctx)
	if err != nil {
		writeAdminError(c, err)
		return
	}
	accounts, err := h.Credits.ListAccounts(ctx)
	if err != nil {
		writeAdminError(c, err)
		return
	}

	suspended := 0
	balance := 0
	for _, acct := range accounts {
		if acct.Suspended {
			suspended++
		}
		balance += acct.Balance
	}

	respond.OK(c, gin.H{
		"documents":          docStats,
		"accounts":           len(accounts),
		"suspendedAccounts":  suspended,
		"outstandingCredits": balance,
	})
}

func writeAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	case errors.Is(err, credits.ErrAccountNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "account not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "admin operation failed", nil)
	}
}
