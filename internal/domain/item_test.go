package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "transferflow/internal/errors"
)

func availableItem(id, sourceID, brand string, qty int) Item {
	return Item{
		ID:              id,
		SourceStoreID:   sourceID,
		SourceStoreName: "Store " + sourceID,
		Brand:           brand,
		Gender:          "unisex",
		Category:        "shoes",
		Color:           "black",
		Size:            "42",
		Quantity:        qty,
		Description:     "test stock",
		Status:          ItemStatusAvailable,
		DateAdded:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRequestTransfer(t *testing.T) {
	item := availableItem("I1", "S1", "Nike", 12)
	dest := Store{ID: "S2", Name: "Store S2"}
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	updated, err := item.RequestTransfer(dest, now)

	assert.NoError(t, err)
	assert.Equal(t, ItemStatusPending, updated.Status)
	assert.Equal(t, "S2", updated.DestinationStoreID)
	assert.Equal(t, "Store S2", updated.DestinationStoreName)
	assert.NotNil(t, updated.DateRequested)
	assert.Equal(t, now, *updated.DateRequested)
	assert.Equal(t, item.Version+1, updated.Version)

	// Receiver untouched.
	assert.Equal(t, ItemStatusAvailable, item.Status)
	assert.Empty(t, item.DestinationStoreID)

	// Descriptive attributes survive the transition unchanged.
	assert.Equal(t, item.Brand, updated.Brand)
	assert.Equal(t, item.Quantity, updated.Quantity)
	assert.Equal(t, item.DateAdded, updated.DateAdded)
}

func TestRequestTransfer_AppendsTransitionLog(t *testing.T) {
	item := availableItem("I1", "S1", "Nike", 12)
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	updated, err := item.RequestTransfer(Store{ID: "S2", Name: "Store S2"}, now)

	assert.NoError(t, err)
	assert.Len(t, updated.Transitions, 1)
	assert.Equal(t, ItemStatusAvailable, updated.Transitions[0].From)
	assert.Equal(t, ItemStatusPending, updated.Transitions[0].To)
	assert.Equal(t, "S2", updated.Transitions[0].DestinationStoreID)
	assert.Equal(t, now, updated.Transitions[0].At)
	assert.Empty(t, item.Transitions)
}

func TestRequestTransfer_NotAvailable(t *testing.T) {
	item := availableItem("I1", "S1", "Nike", 12)
	item.Status = ItemStatusPending

	_, err := item.RequestTransfer(Store{ID: "S2"}, time.Now())

	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
}

func TestRequestTransfer_OwnSourceStore(t *testing.T) {
	item := availableItem("I1", "S1", "Nike", 12)

	_, err := item.RequestTransfer(Store{ID: "S1", Name: "Store S1"}, time.Now())

	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
}

func TestConfirmReceipt(t *testing.T) {
	item := availableItem("I1", "S1", "Nike", 12)
	requestedAt := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	receivedAt := time.Date(2024, 3, 7, 16, 30, 0, 0, time.UTC)

	pending, err := item.RequestTransfer(Store{ID: "S2", Name: "Store S2"}, requestedAt)
	assert.NoError(t, err)

	transferred, err := pending.ConfirmReceipt(receivedAt)
	assert.NoError(t, err)

	assert.Equal(t, ItemStatusTransferred, transferred.Status)
	assert.NotNil(t, transferred.DateReceived)
	assert.Equal(t, receivedAt, *transferred.DateReceived)
	assert.Len(t, transferred.Transitions, 2)
	assert.Equal(t, pending.Version+1, transferred.Version)

	// dateReceived >= dateRequested >= dateAdded
	assert.True(t, !transferred.DateReceived.Before(*transferred.DateRequested))
	assert.True(t, !transferred.DateRequested.Before(transferred.DateAdded))

	// Destination stays from the request.
	assert.Equal(t, "S2", transferred.DestinationStoreID)
}

func TestConfirmReceipt_NotPending(t *testing.T) {
	item := availableItem("I1", "S1", "Nike", 12)

	_, err := item.ConfirmReceipt(time.Now())

	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
}

func TestCanWithdraw(t *testing.T) {
	item := availableItem("I1", "S1", "Nike", 12)
	assert.NoError(t, item.CanWithdraw())

	pending, err := item.RequestTransfer(Store{ID: "S2", Name: "Store S2"}, time.Now())
	assert.NoError(t, err)

	err = pending.CanWithdraw()
	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
}

func TestStatusFieldInvariants(t *testing.T) {
	item := availableItem("I1", "S1", "Nike", 12)

	// Available: no destination, no request timestamp.
	assert.Empty(t, item.DestinationStoreID)
	assert.Nil(t, item.DateRequested)
	assert.Nil(t, item.DateReceived)

	pending, _ := item.RequestTransfer(Store{ID: "S2", Name: "Store S2"}, time.Now())
	assert.NotEmpty(t, pending.DestinationStoreID)
	assert.NotNil(t, pending.DateRequested)
	assert.Nil(t, pending.DateReceived)

	transferred, _ := pending.ConfirmReceipt(time.Now())
	assert.NotEmpty(t, transferred.DestinationStoreID)
	assert.NotNil(t, transferred.DateRequested)
	assert.NotNil(t, transferred.DateReceived)
}
