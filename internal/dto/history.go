package dto

import "transferflow/internal/domain"

// HistoryLot decorates a history-keyed lot with its derived roll-up status and
// the elapsed circulation time in whole days.
type HistoryLot struct {
	domain.Lot
	RollupStatus domain.ItemStatus `json:"rollupStatus"`
	DaysInStock  int               `json:"daysInStock"`
}
