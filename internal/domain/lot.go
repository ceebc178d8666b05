package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// ViewMode selects the grouping key and filter used when partitioning items into lots.
type ViewMode string

const (
	// ViewNetwork groups other stores' Available items by (sourceStoreId, brand).
	ViewNetwork ViewMode = "network"
	// ViewMyStock groups the current store's own items, any status, by (sourceStoreId, brand).
	ViewMyStock ViewMode = "my-stock"
	// ViewHistory groups all items by (sourceStoreId, brand, destinationStoreId).
	ViewHistory ViewMode = "history"
)

// Lot is a computed aggregate over items sharing a grouping key. Lots are derived
// on every read and never persisted; Items are references into the item store.
type Lot struct {
	Key             string `json:"key"`
	Brand           string `json:"brand"`
	SourceStoreID   string `json:"sourceStoreId"`
	SourceStoreName string `json:"sourceStoreName"`

	// Set only for history keying, where distinct requesters must not be merged.
	DestinationStoreID   string `json:"destinationStoreId,omitempty"`
	DestinationStoreName string `json:"destinationStoreName,omitempty"`

	TotalQuantity       int `json:"totalQuantity"`
	AvailableQuantity   int `json:"availableQuantity"`
	PendingQuantity     int `json:"pendingQuantity"`
	TransferredQuantity int `json:"transferredQuantity"`

	Categories []string `json:"categories"`
	Colors     []string `json:"colors"`
	Sizes      []string `json:"sizes"`
	Genders    []string `json:"genders"`

	Items []Item `json:"items"`
}

// GroupItems partitions items into lots for the given view. Network and my-stock
// views sort by brand ascending, case-insensitive; the history view sorts by the
// earliest dateAdded among constituents, most recent lot first.
func GroupItems(items []Item, view ViewMode, currentStoreID string) []Lot {
	byKey := make(map[string]*Lot)
	var order []string

	for _, it := range items {
		if !includeInView(it, view, currentStoreID) {
			continue
		}

		key := lotKey(it, view)
		lot, ok := byKey[key]
		if !ok {
			lot = &Lot{
				Key:             key,
				Brand:           it.Brand,
				SourceStoreID:   it.SourceStoreID,
				SourceStoreName: it.SourceStoreName,
			}
			if view == ViewHistory {
				lot.DestinationStoreID = it.DestinationStoreID
				lot.DestinationStoreName = it.DestinationStoreName
			}
			byKey[key] = lot
			order = append(order, key)
		}

		lot.TotalQuantity += it.Quantity
		switch it.Status {
		case ItemStatusAvailable:
			lot.AvailableQuantity += it.Quantity
		case ItemStatusPending:
			lot.PendingQuantity += it.Quantity
		case ItemStatusTransferred:
			lot.TransferredQuantity += it.Quantity
		}

		lot.Categories = appendDistinct(lot.Categories, it.Category)
		lot.Colors = appendDistinct(lot.Colors, it.Color)
		lot.Sizes = appendDistinct(lot.Sizes, it.Size)
		lot.Genders = appendDistinct(lot.Genders, it.Gender)

		lot.Items = append(lot.Items, it)
	}

	lots := make([]Lot, 0, len(order))
	for _, key := range order {
		lots = append(lots, *byKey[key])
	}

	if view == ViewHistory {
		sort.SliceStable(lots, func(a, b int) bool {
			return lots[a].EarliestDateAdded().After(lots[b].EarliestDateAdded())
		})
	} else {
		sort.SliceStable(lots, func(a, b int) bool {
			return strings.ToLower(lots[a].Brand) < strings.ToLower(lots[b].Brand)
		})
	}

	return lots
}

func includeInView(it Item, view ViewMode, currentStoreID string) bool {
	switch view {
	case ViewNetwork:
		return it.SourceStoreID != currentStoreID && it.Status == ItemStatusAvailable
	case ViewMyStock:
		return it.SourceStoreID == currentStoreID
	case ViewHistory:
		return true
	default:
		return false
	}
}

func lotKey(it Item, view ViewMode) string {
	if view == ViewHistory {
		dest := it.DestinationStoreID
		if dest == "" {
			dest = "none"
		}
		return it.SourceStoreID + "::" + it.Brand + "::" + dest
	}
	return it.SourceStoreID + "::" + it.Brand
}

func appendDistinct(values []string, v string) []string {
	if v == "" {
		return values
	}
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

// RollupStatus derives one display status for the lot, independent of quantity
// magnitudes: Pending if anything is in motion, else Transferred, else Available.
func (l Lot) RollupStatus() ItemStatus {
	hasTransferred := false
	for _, it := range l.Items {
		switch it.Status {
		case ItemStatusPending:
			return ItemStatusPending
		case ItemStatusTransferred:
			hasTransferred = true
		}
	}
	if hasTransferred {
		return ItemStatusTransferred
	}
	return ItemStatusAvailable
}

// AvailableItems returns the constituents still eligible for a transfer request.
func (l Lot) AvailableItems() []Item {
	var out []Item
	for _, it := range l.Items {
		if it.Status == ItemStatusAvailable {
			out = append(out, it)
		}
	}
	return out
}

// EarliestDateAdded is the creation time of the oldest constituent.
func (l Lot) EarliestDateAdded() time.Time {
	var min time.Time
	for _, it := range l.Items {
		if min.IsZero() || it.DateAdded.Before(min) {
			min = it.DateAdded
		}
	}
	return min
}

// DaysInStock measures how long the lot has been circulating, in whole days
// rounded up. Once every constituent has been received the clock stops at the
// latest dateReceived; otherwise it runs against now.
func (l Lot) DaysInStock(now time.Time) int {
	start := l.EarliestDateAdded()
	if start.IsZero() {
		return 0
	}

	end := now
	allReceived := len(l.Items) > 0
	var maxReceived time.Time
	for _, it := range l.Items {
		if it.Status != ItemStatusTransferred || it.DateReceived == nil {
			allReceived = false
			break
		}
		if it.DateReceived.After(maxReceived) {
			maxReceived = *it.DateReceived
		}
	}
	if allReceived {
		end = maxReceived
	}

	if end.Before(start) {
		return 0
	}
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}
