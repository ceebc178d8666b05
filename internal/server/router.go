package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"transferflow/internal/history"
	"transferflow/internal/notify"
	"transferflow/internal/stock"
)

func NewRouter(stockModule *stock.Module, historyCtrl *history.Controller, hub *notify.Hub, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/stock", func(r chi.Router) {
			r.Post("/lots", stockModule.Controller.HandleCreateStockLot)
			r.Get("/lots", stockModule.Controller.HandleListLots)
			r.Post("/lots/request", stockModule.Controller.HandleRequestLot)
			r.Post("/lots/confirm", stockModule.Controller.HandleConfirmLot)
			r.Delete("/items/{itemId}", stockModule.Controller.HandleWithdrawItem)
		})

		r.Get("/history/lots", historyCtrl.HandleListHistoryLots)
		r.Get("/stores", stockModule.StoreController.HandleListStores)
	})

	r.Get("/ws/events", hub.ServeWS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
