package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"transferflow/internal/domain"
	"transferflow/internal/dto"
	apperrors "transferflow/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StockService interface {
	CreateStockLot(ctx context.Context, source dto.StoreRef, rows []dto.NewItemRow) ([]domain.Item, error)
	ListLots(ctx context.Context, view domain.ViewMode, currentStoreID string) []domain.Lot
	ConfirmLot(ctx context.Context, sourceStoreID, brand, callerStoreID string) ([]domain.Item, error)
	WithdrawItem(ctx context.Context, itemID, callerStoreID string) error
}

type RequestLotUseCase interface {
	RequestLot(ctx context.Context, req dto.RequestLotRequest) (*dto.RequestResult, error)
}

type StockController struct {
	service    StockService
	requestLot RequestLotUseCase
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewStockController(service StockService, requestLot RequestLotUseCase, logger *zap.Logger) *StockController {
	return &StockController{
		service:    service,
		requestLot: requestLot,
		validate:   validator.New(),
		logger:     logger,
	}
}

func (c *StockController) HandleCreateStockLot(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateStockLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := c.validate.Struct(req); err != nil {
		details := validationDetails(err)
		logger.Warn("stock upload validation failed", zap.Int("detailCount", len(details)))
		c.writeValidationError(w, "validation failed", details...)
		return
	}

	items, err := c.service.CreateStockLot(r.Context(), req.SourceStore, req.Rows)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, items)
}

func (c *StockController) HandleListLots(w http.ResponseWriter, r *http.Request) {
	view := domain.ViewMode(r.URL.Query().Get("view"))
	storeID := r.URL.Query().Get("storeId")

	if view != domain.ViewNetwork && view != domain.ViewMyStock {
		c.writeValidationError(w, "invalid view", apperrors.ValidationDetail{
			Field:   "view",
			Message: `view must be "network" or "my-stock"`,
		})
		return
	}
	if storeID == "" {
		c.writeValidationError(w, "storeId is required", apperrors.ValidationDetail{
			Field:   "storeId",
			Message: "storeId is required",
		})
		return
	}

	lots := c.service.ListLots(r.Context(), view, storeID)
	c.writeJSON(w, http.StatusOK, lots)
}

func (c *StockController) HandleRequestLot(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.RequestLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	result, err := c.requestLot.RequestLot(r.Context(), req)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	// A rejection is a normal outcome, not a transport error.
	c.writeJSON(w, http.StatusOK, result)
}

func (c *StockController) HandleConfirmLot(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.ConfirmLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	var details []apperrors.ValidationDetail
	if req.SourceStoreID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "sourceStoreId", Message: "sourceStoreId is required"})
	}
	if req.Brand == "" {
		details = append(details, apperrors.ValidationDetail{Field: "brand", Message: "brand is required"})
	}
	if req.StoreID == "" {
		details = append(details, apperrors.ValidationDetail{Field: "storeId", Message: "storeId is required"})
	}
	if len(details) > 0 {
		c.writeValidationError(w, "validation failed", details...)
		return
	}

	confirmed, err := c.service.ConfirmLot(r.Context(), req.SourceStoreID, req.Brand, req.StoreID)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, confirmed)
}

func (c *StockController) HandleWithdrawItem(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	itemID := chi.URLParam(r, "itemId")
	storeID := r.URL.Query().Get("storeId")
	if storeID == "" {
		c.writeValidationError(w, "storeId is required", apperrors.ValidationDetail{
			Field:   "storeId",
			Message: "storeId is required",
		})
		return
	}

	if err := c.service.WithdrawItem(r.Context(), itemID, storeID); err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *StockController) handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if _, ok := apperrors.IsInvalidTransitionError(err); ok {
		c.writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
		return
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		c.writeError(w, http.StatusConflict, "CONFLICT", err.Error())
		return
	}
	if _, ok := apperrors.IsEmptySelectionError(err); ok {
		c.writeError(w, http.StatusUnprocessableEntity, "EMPTY_SELECTION", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

func validationDetails(err error) []apperrors.ValidationDetail {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperrors.ValidationDetail{{Field: "body", Message: err.Error()}}
	}

	details := make([]apperrors.ValidationDetail, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, apperrors.ValidationDetail{
			Field:   fe.Namespace(),
			Message: "failed " + fe.Tag() + " validation",
		})
	}
	return details
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *StockController) writeError(w http.ResponseWriter, status int, code, message string) {
	c.writeJSON(w, status, errorResponse{
		Error:   code,
		Message: message,
	})
}

func (c *StockController) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *StockController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
