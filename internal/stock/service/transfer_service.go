package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"transferflow/internal/domain"
	"transferflow/internal/dto"
	apperrors "transferflow/internal/errors"
	"transferflow/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemStore is the narrow mutation API over the authoritative item collection.
type ItemStore interface {
	InsertMany(items []domain.Item) error
	UpdateOne(item domain.Item) error
	RemoveOne(id string) error
	All() []domain.Item
	FindByID(id string) (domain.Item, error)
	Replace(items []domain.Item)
}

// ItemPersister is the external persistence service. Calls are forwarded after
// the local mutation has already been applied and never roll it back.
type ItemPersister interface {
	CreateItems(ctx context.Context, items []domain.Item) ([]domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListAllItems(ctx context.Context) ([]domain.Item, error)
}

// LotCache caches computed lot views between mutations.
type LotCache interface {
	Get(ctx context.Context, view domain.ViewMode, storeID string) ([]domain.Lot, bool)
	Set(ctx context.Context, view domain.ViewMode, storeID string, lots []domain.Lot)
	InvalidateAll(ctx context.Context)
}

// Notifier is the side channel for events decoupled from the mutation's result.
type Notifier interface {
	Publish(event notify.Event)
}

const rejectedLotClaimed = "lot already claimed"

// TransferService drives the item lifecycle: stock uploads, lot requests,
// receipt confirmation and withdrawal. All operations mutate the in-memory
// store synchronously and forward the mutation to the persistence service in
// the background.
type TransferService struct {
	items     ItemStore
	persister ItemPersister
	cache     LotCache
	notifier  Notifier
	logger    *zap.Logger

	persistTimeout time.Duration
	now            func() time.Time

	inflight sync.WaitGroup
}

func NewTransferService(
	items ItemStore,
	persister ItemPersister,
	cache LotCache,
	notifier Notifier,
	logger *zap.Logger,
	persistTimeout time.Duration,
) *TransferService {
	return &TransferService{
		items:          items,
		persister:      persister,
		cache:          cache,
		notifier:       notifier,
		logger:         logger,
		persistTimeout: persistTimeout,
		now:            time.Now,
	}
}

// LoadFromPersistence replaces the in-memory collection with the durable one.
// Called at startup and available for full reconciliation reloads.
func (s *TransferService) LoadFromPersistence(ctx context.Context) error {
	items, err := s.persister.ListAllItems(ctx)
	if err != nil {
		return apperrors.NewPersistenceError("loading items from persistence service", err)
	}

	s.items.Replace(items)
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
	s.logger.Info("item store loaded", zap.Int("itemCount", len(items)))
	return nil
}

// CreateStockLot expands variant rows into individually quantified items, all
// Available and sharing one dateAdded.
func (s *TransferService) CreateStockLot(ctx context.Context, source dto.StoreRef, rows []dto.NewItemRow) ([]domain.Item, error) {
	for i, row := range rows {
		if row.Quantity <= 0 {
			return nil, apperrors.NewValidationError("quantity must be positive", apperrors.ValidationDetail{
				Field:   fmt.Sprintf("rows[%d].quantity", i),
				Message: "quantity must be a positive integer",
			})
		}
	}

	added := s.now().UTC()
	items := make([]domain.Item, len(rows))
	for i, row := range rows {
		items[i] = domain.Item{
			ID:              uuid.New().String(),
			SourceStoreID:   source.ID,
			SourceStoreName: source.Name,
			Brand:           row.Brand,
			Gender:          row.Gender,
			Category:        row.Category,
			Typology:        row.Typology,
			Color:           row.Color,
			Size:            row.Size,
			Quantity:        row.Quantity,
			Description:     row.Description,
			ArticleCode:     row.ArticleCode,
			Status:          domain.ItemStatusAvailable,
			DateAdded:       added,
		}
	}

	if err := s.items.InsertMany(items); err != nil {
		return nil, err
	}
	s.invalidateViews(ctx)

	s.logger.Info("stock lot created",
		zap.String("sourceStoreId", source.ID),
		zap.Int("itemCount", len(items)))

	s.forwardAsync("create", itemIDs(items), func(ctx context.Context) error {
		_, err := s.persister.CreateItems(ctx, items)
		return err
	})
	s.publish(notify.EventStockUploaded, fmt.Sprintf("%d items uploaded by %s", len(items), source.Name), itemIDs(items), source.ID)

	return items, nil
}

// ListLots computes the lot view for a store, serving from cache when the
// underlying collection has not changed since the last read.
func (s *TransferService) ListLots(ctx context.Context, view domain.ViewMode, currentStoreID string) []domain.Lot {
	if s.cache != nil {
		if lots, ok := s.cache.Get(ctx, view, currentStoreID); ok {
			return lots
		}
	}

	lots := domain.GroupItems(s.items.All(), view, currentStoreID)
	if s.cache != nil {
		s.cache.Set(ctx, view, currentStoreID, lots)
	}
	return lots
}

// RequestLot resolves a transfer request against the lot identified by
// (sourceStoreID, brand). With no selection the target set is every Available
// item in the lot; with a selection it is the intersection of the selected ids
// with the lot's Available items. Selected ids that are no longer Available are
// skipped and reported back rather than failing the whole request; a selection
// with nothing eligible left at all is an EmptySelection error.
func (s *TransferService) RequestLot(ctx context.Context, sourceStoreID, brand string, destination dto.StoreRef, selectedItemIDs []string) (*dto.RequestResult, error) {
	lot, err := s.findLot(sourceStoreID, brand)
	if err != nil {
		return nil, err
	}

	available := lot.AvailableItems()
	targets := available
	var skipped []string

	if len(selectedItemIDs) > 0 {
		availableByID := make(map[string]domain.Item, len(available))
		for _, it := range available {
			availableByID[it.ID] = it
		}

		targets = make([]domain.Item, 0, len(selectedItemIDs))
		for _, id := range selectedItemIDs {
			it, ok := availableByID[id]
			if !ok {
				skipped = append(skipped, id)
				s.logger.Warn("selected item not eligible for request",
					zap.String("itemId", id),
					zap.String("sourceStoreId", sourceStoreID),
					zap.String("brand", brand))
				continue
			}
			targets = append(targets, it)
		}
	}

	if len(targets) == 0 {
		// An explicit selection with nothing left in it is the caller's
		// error; a whole-lot request racing another store is a normal
		// rejection.
		if len(selectedItemIDs) > 0 {
			return nil, apperrors.NewEmptySelectionError("none of the selected items are still available")
		}
		s.logger.Info("lot request rejected",
			zap.String("sourceStoreId", sourceStoreID),
			zap.String("brand", brand),
			zap.String("destinationStoreId", destination.ID))
		return &dto.RequestResult{
			Status: dto.RequestRejected,
			Reason: rejectedLotClaimed,
		}, nil
	}

	// One coherent batch: every item shares the same dateRequested.
	requestedAt := s.now().UTC()
	dest := domain.Store{ID: destination.ID, Name: destination.Name}

	updated := make([]domain.Item, 0, len(targets))
	for _, it := range targets {
		next, err := it.RequestTransfer(dest, requestedAt)
		if err != nil {
			return nil, err
		}
		if err := s.items.UpdateOne(next); err != nil {
			if _, ok := apperrors.IsConflictError(err); ok {
				skipped = append(skipped, it.ID)
				s.logger.Warn("item lost to a concurrent request",
					zap.String("itemId", it.ID),
					zap.String("destinationStoreId", destination.ID))
				continue
			}
			// Earlier items in the batch are already transitioned and
			// stay that way; bring the views and the persistence
			// service up to date with them before surfacing the error.
			if len(updated) > 0 {
				s.invalidateViews(ctx)
				s.forwardUpdatesAsync(updated)
			}
			return nil, err
		}
		updated = append(updated, next)
	}

	if len(updated) == 0 {
		if len(selectedItemIDs) > 0 {
			return nil, apperrors.NewEmptySelectionError("none of the selected items are still available")
		}
		return &dto.RequestResult{
			Status: dto.RequestRejected,
			Reason: rejectedLotClaimed,
		}, nil
	}

	s.invalidateViews(ctx)
	s.logger.Info("lot requested",
		zap.String("sourceStoreId", sourceStoreID),
		zap.String("brand", brand),
		zap.String("destinationStoreId", destination.ID),
		zap.Int("itemCount", len(updated)),
		zap.Int("skippedCount", len(skipped)))

	s.forwardUpdatesAsync(updated)
	s.publish(notify.EventLotRequested,
		fmt.Sprintf("%s requested %d items of %s", destination.Name, len(updated), brand),
		itemIDs(updated), destination.ID)

	return &dto.RequestResult{
		Status:         dto.RequestAccepted,
		Updated:        updated,
		SkippedItemIDs: skipped,
	}, nil
}

// ConfirmLot confirms receipt of every Pending item in the lot addressed to the
// calling store. Items already Transferred are left untouched, so repeating the
// call is harmless.
func (s *TransferService) ConfirmLot(ctx context.Context, sourceStoreID, brand, callerStoreID string) ([]domain.Item, error) {
	receivedAt := s.now().UTC()

	confirmed := make([]domain.Item, 0)
	for _, it := range s.items.All() {
		if it.SourceStoreID != sourceStoreID || it.Brand != brand {
			continue
		}
		if it.Status != domain.ItemStatusPending || it.DestinationStoreID != callerStoreID {
			continue
		}

		next, err := it.ConfirmReceipt(receivedAt)
		if err != nil {
			return nil, err
		}
		if err := s.items.UpdateOne(next); err != nil {
			return nil, err
		}
		confirmed = append(confirmed, next)
	}

	if len(confirmed) == 0 {
		return confirmed, nil
	}

	s.invalidateViews(ctx)
	s.logger.Info("lot receipt confirmed",
		zap.String("sourceStoreId", sourceStoreID),
		zap.String("brand", brand),
		zap.String("destinationStoreId", callerStoreID),
		zap.Int("itemCount", len(confirmed)))

	s.forwardUpdatesAsync(confirmed)
	s.publish(notify.EventReceiptConfirmed,
		fmt.Sprintf("%d items of %s received", len(confirmed), brand),
		itemIDs(confirmed), callerStoreID)

	return confirmed, nil
}

// WithdrawItem removes an Available item on behalf of its source store.
func (s *TransferService) WithdrawItem(ctx context.Context, itemID, callerStoreID string) error {
	it, err := s.items.FindByID(itemID)
	if err != nil {
		return err
	}
	if it.SourceStoreID != callerStoreID {
		return apperrors.NewValidationError("only the source store can withdraw an item", apperrors.ValidationDetail{
			Field:   "storeId",
			Message: fmt.Sprintf("item %s belongs to store %s", itemID, it.SourceStoreID),
		})
	}
	if err := it.CanWithdraw(); err != nil {
		return err
	}

	if err := s.items.RemoveOne(itemID); err != nil {
		return err
	}
	s.invalidateViews(ctx)

	s.logger.Info("item withdrawn",
		zap.String("itemId", itemID),
		zap.String("sourceStoreId", callerStoreID))

	s.forwardAsync("delete", []string{itemID}, func(ctx context.Context) error {
		return s.persister.DeleteItem(ctx, itemID)
	})
	s.publish(notify.EventItemWithdrawn,
		fmt.Sprintf("item %s withdrawn from the network", itemID),
		[]string{itemID}, callerStoreID)

	return nil
}

// Wait blocks until every in-flight persistence forward has finished. Called
// during graceful shutdown.
func (s *TransferService) Wait() {
	s.inflight.Wait()
}

func (s *TransferService) findLot(sourceStoreID, brand string) (domain.Lot, error) {
	var constituents []domain.Item
	for _, it := range s.items.All() {
		if it.SourceStoreID == sourceStoreID && it.Brand == brand {
			constituents = append(constituents, it)
		}
	}
	if len(constituents) == 0 {
		return domain.Lot{}, apperrors.NewNotFoundError(
			fmt.Sprintf("no lot for store %s and brand %s", sourceStoreID, brand))
	}

	lots := domain.GroupItems(constituents, domain.ViewMyStock, sourceStoreID)
	return lots[0], nil
}

// forwardUpdatesAsync pushes a batch of transitioned items to the persistence
// service, one item at a time: a failed item does not abandon the rest, and
// the failure event names only the items that actually failed.
func (s *TransferService) forwardUpdatesAsync(items []domain.Item) {
	batch := make([]domain.Item, len(items))
	copy(batch, items)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		var failed []string
		var lastErr error
		for _, it := range batch {
			if _, err := s.persister.UpdateItem(ctx, it); err != nil {
				failed = append(failed, it.ID)
				lastErr = err
			}
		}
		if len(failed) > 0 {
			perr := apperrors.NewPersistenceError("forwarding update to persistence service", lastErr)
			s.logger.Error("persistence forward failed",
				zap.String("op", "update"),
				zap.Strings("itemIds", failed),
				zap.Error(lastErr))
			s.publish(notify.EventPersistenceFailure, perr.Error(), failed, "")
		}
	}()
}

// forwardAsync pushes a mutation to the persistence service without holding up
// the caller. A failure is logged and published on the side channel; the local
// mutation stands either way.
func (s *TransferService) forwardAsync(op string, ids []string, fn func(ctx context.Context) error) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			perr := apperrors.NewPersistenceError(fmt.Sprintf("forwarding %s to persistence service", op), err)
			s.logger.Error("persistence forward failed",
				zap.String("op", op),
				zap.Strings("itemIds", ids),
				zap.Error(err))
			s.publish(notify.EventPersistenceFailure, perr.Error(), ids, "")
		}
	}()
}

func (s *TransferService) publish(eventType, message string, ids []string, storeID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(notify.Event{
		Type:    eventType,
		Message: message,
		ItemIDs: ids,
		StoreID: storeID,
	})
}

func (s *TransferService) invalidateViews(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
}

func itemIDs(items []domain.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
