package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/ikanisa/momo-relay/pkg/common"
	"github.com/ikanisa/momo-relay/pkg/ingest"
	"github.com/ikanisa/momo-relay/pkg/webhook"
)

type Handler struct {
	gate   *ingest.Gate
	apiKey string
}

func NewHandler(
	gate *ingest.Gate,
	apiKey string,
) *Handler {
	return &Handler{
		gate:   gate,
		apiKey: apiKey,
	}
}

func (h *Handler) ServeHTTP(
	w http.ResponseWriter,
	r *http.Request,
) {
	key := r.URL.Query().Get("api_key")
	if key == "" {
		key = r.Header.Get(webhook.HeaderAPIKey)
	}

	if h.apiKey != key {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var sms InboundSMS

	b, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err = json.Unmarshal(b, &sms); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(err.Error()))
		return
	}

	timestamp := sms.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	accepted, err := h.gate.Accept(r.Context(), ingest.Message{
		Sender:            sms.Sender,
		Body:              sms.Message,
		ReceivedAtEpochMs: timestamp,
	})
	if errors.Is(err, common.ErrQueueFull) {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to accept message")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(InboundResponse{Accepted: accepted})
}
