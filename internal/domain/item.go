package domain

import (
	"fmt"
	"time"

	apperrors "transferflow/internal/errors"
)

type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "AVAILABLE"
	ItemStatusPending     ItemStatus = "PENDING"
	ItemStatusTransferred ItemStatus = "TRANSFERRED"
)

type Store struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// Transition is an immutable record of one status change. The log is append-only:
// destination assignments are never cleared, only superseded by later entries.
type Transition struct {
	From               ItemStatus `json:"from"`
	To                 ItemStatus `json:"to"`
	DestinationStoreID string     `json:"destinationStoreId,omitempty"`
	At                 time.Time  `json:"at"`
}

// Item is one quantified stock-keeping record belonging to one store.
// Descriptive attributes are immutable after creation; only status, destination
// and the transfer timestamps change, and only through the transition methods.
type Item struct {
	ID              string `json:"id"`
	SourceStoreID   string `json:"sourceStoreId"`
	SourceStoreName string `json:"sourceStoreName"`

	DestinationStoreID   string `json:"destinationStoreId,omitempty"`
	DestinationStoreName string `json:"destinationStoreName,omitempty"`

	Brand       string `json:"brand"`
	Gender      string `json:"gender"`
	Category    string `json:"category"`
	Typology    string `json:"typology,omitempty"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description"`
	ArticleCode string `json:"articleCode,omitempty"`

	Status ItemStatus `json:"status"`

	DateAdded     time.Time  `json:"dateAdded"`
	DateRequested *time.Time `json:"dateRequested,omitempty"`
	DateReceived  *time.Time `json:"dateReceived,omitempty"`

	// Version is the optimistic-concurrency token: every transition increments it,
	// and both the in-memory store and the persistence adapter condition updates on it.
	Version int `json:"version"`

	Transitions []Transition `json:"transitions,omitempty"`
}

// RequestTransfer moves an Available item to Pending on behalf of dest.
// It returns an updated copy; the receiver is left untouched.
func (i Item) RequestTransfer(dest Store, now time.Time) (Item, error) {
	if i.Status != ItemStatusAvailable {
		return Item{}, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("item %s cannot be requested: status is %s", i.ID, i.Status))
	}
	if i.SourceStoreID == dest.ID {
		return Item{}, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("item %s cannot be requested by its own source store %s", i.ID, dest.ID))
	}

	updated := i
	updated.Status = ItemStatusPending
	updated.DestinationStoreID = dest.ID
	updated.DestinationStoreName = dest.Name
	requested := now
	updated.DateRequested = &requested
	updated.Version = i.Version + 1
	updated.Transitions = appendTransition(i.Transitions, Transition{
		From:               ItemStatusAvailable,
		To:                 ItemStatusPending,
		DestinationStoreID: dest.ID,
		At:                 now,
	})
	return updated, nil
}

// ConfirmReceipt moves a Pending item to Transferred. Authorization (caller is
// the item's current destination) is the caller's responsibility.
func (i Item) ConfirmReceipt(now time.Time) (Item, error) {
	if i.Status != ItemStatusPending {
		return Item{}, apperrors.NewInvalidTransitionError(
			fmt.Sprintf("item %s cannot be confirmed: status is %s", i.ID, i.Status))
	}

	updated := i
	updated.Status = ItemStatusTransferred
	received := now
	updated.DateReceived = &received
	updated.Version = i.Version + 1
	updated.Transitions = appendTransition(i.Transitions, Transition{
		From:               ItemStatusPending,
		To:                 ItemStatusTransferred,
		DestinationStoreID: i.DestinationStoreID,
		At:                 now,
	})
	return updated, nil
}

// CanWithdraw reports whether the item may be removed by its source store.
// Only Available items can be withdrawn; anything in motion stays.
func (i Item) CanWithdraw() error {
	if i.Status != ItemStatusAvailable {
		return apperrors.NewInvalidTransitionError(
			fmt.Sprintf("item %s cannot be withdrawn: status is %s", i.ID, i.Status))
	}
	return nil
}

func appendTransition(log []Transition, t Transition) []Transition {
	out := make([]Transition, len(log), len(log)+1)
	copy(out, log)
	return append(out, t)
}
