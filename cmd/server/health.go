package main

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ikanisa/momo-relay/pkg/delivery"
	"github.com/ikanisa/momo-relay/pkg/ingest"
	"github.com/ikanisa/momo-relay/pkg/repo"
)

type HealthHandler struct {
	repo   *repo.Gorm
	ledger *delivery.Ledger
	gate   *ingest.Gate
}

func NewHealthHandler(
	dataRepo *repo.Gorm,
	ledger *delivery.Ledger,
	gate *ingest.Gate,
) *HealthHandler {
	return &HealthHandler{
		repo:   dataRepo,
		ledger: ledger,
		gate:   gate,
	}
}

func (h *HealthHandler) ServeHTTP(
	w http.ResponseWriter,
	r *http.Request,
) {
	ctx := r.Context()

	pendingTx, err := h.repo.PendingTransactionCount(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to count pending transactions")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	pendingDeliveries, err := h.ledger.PendingCount(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to count pending deliveries")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:              "ok",
		PendingTransactions: pendingTx,
		PendingDeliveries:   pendingDeliveries,
		QueueDepth:          h.gate.QueueDepth(),
	})
}
