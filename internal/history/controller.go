package history

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type Controller struct {
	service *Service
	logger  *zap.Logger
}

func NewController(service *Service, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) HandleListHistoryLots(w http.ResponseWriter, r *http.Request) {
	lots := c.service.ListHistoryLots()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(lots); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
