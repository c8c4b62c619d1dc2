package credits

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docclassifier-backend/internal/shared/server/middleware"
	"docclassifier-backend/internal/shared/server/respond"
)

// Handler exposes credit ledger endpoints for the signed-in owner.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches credit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/credits", h.getAccount)
	rg.GET("/credits/transactions", h.getTransactions)
	rg.POST("/credits/topup", h.freeTopUp)
}

func (h *Handler) getAccount(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	email := middleware.UserEmailFromContext(c)
	acct, err := h.Svc.GetOrCreateAccount(c.Request.Context(), ownerID, email)
	if err != nil {
		writeLedgerError(c, err, "failed to fetch account")
		return
	}
	respond.OK(c, acct)
}

func (h *Handler) getTransactions(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	txs, err := h.Svc.TransactionsFor(c.Request.Context(), ownerID, limit)
	if err != nil {
		writeLedgerError(c, err, "failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []Transaction{}
	}
	respond.OK(c, gin.H{"transactions": txs})
}

func (h *Handler) freeTopUp(c *gin.Context) {
	ownerID := middleware.UserIDFromContext(c)
	ok, err := h.Svc.GrantFreeTopUp(c.Request.Context(), ownerID)
	if err != nil {
		writeLedgerError(c, err, "failed to top up")
		return
	}
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "account not found", nil)
		return
	}
	acct, err := h.Svc.Get(c.Request.Context(), ownerID)
	if err != nil {
		writeLedgerError(c, err, "failed to fetch account")
		return
	}
	respond.OK(c, acct)
}

func writeLedgerError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	case errors.Is(err, ErrNotSignedIn):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
	case errors.Is(err, ErrAccountNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "account not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
