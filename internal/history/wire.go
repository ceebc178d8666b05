package history

import (
	"go.uber.org/zap"

	"transferflow/internal/stock/store"
)

func NewModule(items *store.ItemStore, logger *zap.Logger) *Controller {
	svc := NewService(items, logger)
	return NewController(svc, logger)
}
