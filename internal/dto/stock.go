package dto

import "transferflow/internal/domain"

// StoreRef identifies the store acting in a request.
type StoreRef struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// NewItemRow is one variant row of a stock upload, already normalized by the
// import adapter. Each row expands into exactly one item.
type NewItemRow struct {
	Brand       string `json:"brand" validate:"required"`
	Gender      string `json:"gender" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Typology    string `json:"typology,omitempty"`
	Color       string `json:"color" validate:"required"`
	Size        string `json:"size" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Description string `json:"description"`
	ArticleCode string `json:"articleCode,omitempty"`
}

type CreateStockLotRequest struct {
	SourceStore StoreRef     `json:"sourceStore" validate:"required"`
	Rows        []NewItemRow `json:"rows" validate:"required,min=1,max=500,dive"`
}

type RequestLotRequest struct {
	SourceStoreID    string   `json:"sourceStoreId"`
	Brand            string   `json:"brand"`
	DestinationStore StoreRef `json:"destinationStore"`
	SelectedItemIDs  []string `json:"selectedItemIds,omitempty"`
}

type ConfirmLotRequest struct {
	SourceStoreID string `json:"sourceStoreId"`
	Brand         string `json:"brand"`
	StoreID       string `json:"storeId"`
}

type RequestStatus string

const (
	RequestAccepted RequestStatus = "ACCEPTED"
	RequestRejected RequestStatus = "REJECTED"
)

// RequestResult is the outcome of a lot transfer request. On rejection no
// mutation has occurred and Reason carries the human-readable cause. Skipped
// lists selected ids that were dropped because the item was no longer Available.
type RequestResult struct {
	Status         RequestStatus `json:"status"`
	Updated        []domain.Item `json:"updated"`
	SkippedItemIDs []string      `json:"skippedItemIds,omitempty"`
	Reason         string        `json:"reason,omitempty"`
}
