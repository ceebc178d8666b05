package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"transferflow/internal/domain"

	"go.uber.org/zap"
)

type StoreLister interface {
	ListStores(ctx context.Context) ([]domain.Store, error)
}

// StoreController serves the store directory.
type StoreController struct {
	stores StoreLister
	logger *zap.Logger
}

func NewStoreController(stores StoreLister, logger *zap.Logger) *StoreController {
	return &StoreController{
		stores: stores,
		logger: logger,
	}
}

func (c *StoreController) HandleListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := c.stores.ListStores(r.Context())
	if err != nil {
		c.logger.Error("listing stores failed", zap.Error(err))
		c.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "an unexpected error occurred",
		})
		return
	}
	if stores == nil {
		stores = []domain.Store{}
	}

	c.writeJSON(w, http.StatusOK, stores)
}

func (c *StoreController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
