// Package transaction serves the on-chain transaction history recorded by
// external collaborators. It is read-only.
package transaction

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehr/consentledger/internal/store"
	"github.com/ehr/consentledger/pkg/ledgermodels"
)

type Transaction = ledgermodels.Transaction

type SnapshotLoader interface {
	Load(ctx context.Context) *store.Snapshot
}

type Service struct {
	store SnapshotLoader
}

func NewService(store SnapshotLoader) *Service {
	return &Service{store: store}
}

// List returns every transaction when wallet is empty, otherwise those sent
// from or to wallet. Addresses compare case-insensitively.
func (s *Service) List(ctx context.Context, wallet string) []Transaction {
	out := []Transaction{}
	for _, tx := range s.store.Load(ctx).Transactions {
		if wallet == "" || strings.EqualFold(tx.From, wallet) || strings.EqualFold(tx.To, wallet) {
			out = append(out, tx)
		}
	}
	return out
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/transactions", h.ListTransactions)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	txs := h.svc.List(c.Request().Context(), c.QueryParam("wallet"))
	return c.JSON(http.StatusOK, map[string]interface{}{"transactions": txs})
}
