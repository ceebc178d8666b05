package store

import (
	"fmt"
	"sync"

	"transferflow/internal/domain"
	apperrors "transferflow/internal/errors"
)

// ItemStore is the authoritative in-memory collection of item records. It is the
// only place the raw collection lives; every caller goes through this API and
// receives copies, never references into the internal map.
//
// Updates are conditioned on the item's version counter: an update whose version
// is not exactly one ahead of the stored record is rejected with a conflict, so
// two callers racing on the same snapshot cannot both win.
type ItemStore struct {
	mu    sync.RWMutex
	byID  map[string]domain.Item
	order []string
}

func NewItemStore() *ItemStore {
	return &ItemStore{
		byID: make(map[string]domain.Item),
	}
}

// InsertMany adds a batch of freshly created items. Invariant preservation
// (positive quantity, Available status) is the creating caller's responsibility.
func (s *ItemStore) InsertMany(items []domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range items {
		if _, exists := s.byID[it.ID]; exists {
			return apperrors.NewConflictError(fmt.Sprintf("item %s already exists", it.ID))
		}
	}
	for _, it := range items {
		s.byID[it.ID] = it
		s.order = append(s.order, it.ID)
	}
	return nil
}

// UpdateOne replaces a stored item with a transitioned copy. The copy's version
// must be exactly one ahead of the stored version.
func (s *ItemStore) UpdateOne(item domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[item.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("item %s not found", item.ID))
	}
	if item.Version != current.Version+1 {
		return apperrors.NewConflictError(fmt.Sprintf(
			"item %s version conflict: have %d, update carries %d", item.ID, current.Version, item.Version))
	}

	s.byID[item.ID] = item
	return nil
}

// RemoveOne deletes an item record. Used only for withdrawal of Available items;
// the transition check lives with the caller.
func (s *ItemStore) RemoveOne(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("item %s not found", id))
	}
	delete(s.byID, id)

	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// All returns a snapshot of every item in insertion order.
func (s *ItemStore) All() []domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// FindByID returns a copy of one item.
func (s *ItemStore) FindByID(id string) (domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.byID[id]
	if !ok {
		return domain.Item{}, apperrors.NewNotFoundError(fmt.Sprintf("item %s not found", id))
	}
	return it, nil
}

// Replace swaps the whole collection, used for the initial load from the
// persistence service and for full reconciliation reloads.
func (s *ItemStore) Replace(items []domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]domain.Item, len(items))
	s.order = make([]string, 0, len(items))
	for _, it := range items {
		if _, exists := s.byID[it.ID]; exists {
			continue
		}
		s.byID[it.ID] = it
		s.order = append(s.order, it.ID)
	}
}

// Len reports the number of stored items.
func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
