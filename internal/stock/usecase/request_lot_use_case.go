package usecase

import (
	"context"

	"transferflow/internal/dto"
	apperrors "transferflow/internal/errors"

	"go.uber.org/zap"
)

type LotRequester interface {
	RequestLot(ctx context.Context, sourceStoreID, brand string, destination dto.StoreRef, selectedItemIDs []string) (*dto.RequestResult, error)
}

// RequestLotUseCase runs the pre-validations that belong outside the resolver:
// request shape, self-requests, duplicate selection ids.
type RequestLotUseCase struct {
	resolver LotRequester
	logger   *zap.Logger
}

func NewRequestLotUseCase(resolver LotRequester, logger *zap.Logger) *RequestLotUseCase {
	return &RequestLotUseCase{
		resolver: resolver,
		logger:   logger,
	}
}

func (uc *RequestLotUseCase) RequestLot(ctx context.Context, req dto.RequestLotRequest) (*dto.RequestResult, error) {
	var details []apperrors.ValidationDetail

	if req.SourceStoreID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "sourceStoreId",
			Message: "sourceStoreId is required",
		})
	}
	if req.Brand == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "brand",
			Message: "brand is required",
		})
	}
	if req.DestinationStore.ID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "destinationStore.id",
			Message: "destinationStore.id is required",
		})
	}
	if req.DestinationStore.ID != "" && req.DestinationStore.ID == req.SourceStoreID {
		details = append(details, apperrors.ValidationDetail{
			Field:   "destinationStore.id",
			Message: "a store cannot request its own lot",
		})
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	uc.logger.Info("lot request started",
		zap.String("sourceStoreId", req.SourceStoreID),
		zap.String("brand", req.Brand),
		zap.String("destinationStoreId", req.DestinationStore.ID),
		zap.Int("selectedCount", len(req.SelectedItemIDs)))

	selected := dedupe(req.SelectedItemIDs)
	return uc.resolver.RequestLot(ctx, req.SourceStoreID, req.Brand, req.DestinationStore, selected)
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
