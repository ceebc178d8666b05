package history

import (
	"time"

	"transferflow/internal/domain"
	"transferflow/internal/dto"

	"go.uber.org/zap"
)

// ItemSource is the read-only view of the item store the reconciler needs.
type ItemSource interface {
	All() []domain.Item
}

// Service re-aggregates every item, regardless of status, into history-keyed
// lots (source, brand, destination) and derives roll-up status and elapsed
// circulation time per lot. No mutation capability.
type Service struct {
	items  ItemSource
	logger *zap.Logger
	now    func() time.Time
}

func NewService(items ItemSource, logger *zap.Logger) *Service {
	return &Service{
		items:  items,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) ListHistoryLots() []dto.HistoryLot {
	now := s.now().UTC()
	lots := domain.GroupItems(s.items.All(), domain.ViewHistory, "")

	out := make([]dto.HistoryLot, len(lots))
	for i, lot := range lots {
		out[i] = dto.HistoryLot{
			Lot:          lot,
			RollupStatus: lot.RollupStatus(),
			DaysInStock:  lot.DaysInStock(now),
		}
	}

	s.logger.Debug("history lots computed", zap.Int("lotCount", len(out)))
	return out
}
