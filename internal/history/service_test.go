package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"transferflow/internal/domain"
)

type staticSource []domain.Item

func (s staticSource) All() []domain.Item { return s }

func historyItem(id, brand string, added time.Time) domain.Item {
	return domain.Item{
		ID:              id,
		SourceStoreID:   "S1",
		SourceStoreName: "Store S1",
		Brand:           brand,
		Gender:          "unisex",
		Category:        "shoes",
		Color:           "black",
		Size:            "42",
		Quantity:        2,
		Status:          domain.ItemStatusAvailable,
		DateAdded:       added,
	}
}

func TestListHistoryLots(t *testing.T) {
	added := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	requested := added.Add(24 * time.Hour)
	received := added.Add(96 * time.Hour)
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	pending, err := historyItem("I1", "Nike", added).
		RequestTransfer(domain.Store{ID: "S2", Name: "Store S2"}, requested)
	assert.NoError(t, err)

	transferred, err := historyItem("I2", "Adidas", added).
		RequestTransfer(domain.Store{ID: "S3", Name: "Store S3"}, requested)
	assert.NoError(t, err)
	transferred, err = transferred.ConfirmReceipt(received)
	assert.NoError(t, err)

	svc := NewService(staticSource{pending, transferred, historyItem("I3", "Puma", added)}, zap.NewNop())
	svc.now = func() time.Time { return now }

	lots := svc.ListHistoryLots()

	assert.Len(t, lots, 3)

	byKey := make(map[string]int)
	for i, lot := range lots {
		byKey[lot.Key] = i
	}

	nike := lots[byKey["S1::Nike::S2"]]
	assert.Equal(t, domain.ItemStatusPending, nike.RollupStatus)
	assert.Equal(t, 9, nike.DaysInStock) // still circulating, measured against now

	adidas := lots[byKey["S1::Adidas::S3"]]
	assert.Equal(t, domain.ItemStatusTransferred, adidas.RollupStatus)
	assert.Equal(t, 4, adidas.DaysInStock) // stopped at receipt

	puma := lots[byKey["S1::Puma::none"]]
	assert.Equal(t, domain.ItemStatusAvailable, puma.RollupStatus)
	assert.Equal(t, 9, puma.DaysInStock)
}

func TestListHistoryLots_Empty(t *testing.T) {
	svc := NewService(staticSource{}, zap.NewNop())
	assert.Empty(t, svc.ListHistoryLots())
}
