package stock

import (
	"database/sql"

	"go.uber.org/zap"

	"transferflow/internal/cache"
	"transferflow/internal/config"
	"transferflow/internal/notify"
	"transferflow/internal/stock/controller"
	"transferflow/internal/stock/repository"
	"transferflow/internal/stock/service"
	"transferflow/internal/stock/store"
	"transferflow/internal/stock/usecase"
)

// Module bundles the stock feature's wiring.
type Module struct {
	Service         *service.TransferService
	Controller      *controller.StockController
	StoreController *controller.StoreController
}

func NewModule(
	db *sql.DB,
	items *store.ItemStore,
	lotCache *cache.LotCache,
	hub *notify.Hub,
	cfg *config.Config,
	logger *zap.Logger,
) *Module {
	itemRepo := repository.NewMySQLItemRepository(db)
	storeRepo := repository.NewMySQLStoreRepository(db)

	transferSvc := service.NewTransferService(
		items,
		itemRepo,
		lotCache,
		hub,
		logger,
		cfg.Persistence.ForwardTimeout,
	)

	requestLotUC := usecase.NewRequestLotUseCase(transferSvc, logger)

	return &Module{
		Service:         transferSvc,
		Controller:      controller.NewStockController(transferSvc, requestLotUC, logger),
		StoreController: controller.NewStoreController(storeRepo, logger),
	}
}
