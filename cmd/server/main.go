package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/imroc/req/v3"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ikanisa/momo-relay/pkg/delivery"
	"github.com/ikanisa/momo-relay/pkg/ingest"
	"github.com/ikanisa/momo-relay/pkg/parser"
	"github.com/ikanisa/momo-relay/pkg/patterns"
	"github.com/ikanisa/momo-relay/pkg/processor"
	"github.com/ikanisa/momo-relay/pkg/repo"
	"github.com/ikanisa/momo-relay/pkg/syncer"
	"github.com/ikanisa/momo-relay/pkg/webhook"
)

func main() {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx = logger.WithContext(ctx)

	db, err := repo.Open(cfg.DatabasePath)
	if err != nil {
		panic(err)
	}

	dataRepo := repo.New(db)
	registry := patterns.DefaultRegistry()

	var tiers []parser.Tier

	if cfg.OpenAIAPIKey != "" {
		tiers = append(tiers, parser.NewOpenAITier(
			req.DefaultClient(),
			cfg.OpenAIAPIKey,
			cfg.OpenAIBaseURL,
			cfg.OpenAIModel,
			cfg.ParserTimeout,
			cfg.DefaultCurrency,
		))
	}

	if cfg.GeminiAPIKey != "" {
		gemini, geminiErr := parser.NewGeminiTier(
			ctx,
			cfg.GeminiAPIKey,
			cfg.GeminiModel,
			cfg.ParserTimeout,
			cfg.DefaultCurrency,
		)
		if geminiErr != nil {
			panic(geminiErr)
		}

		defer func() {
			_ = gemini.Close()
		}()

		tiers = append(tiers, gemini)
	}

	tiers = append(tiers, parser.NewRegexTier(registry, cfg.CountryCode))

	chain := parser.NewChain(cfg.DefaultCurrency, tiers...)

	whSender := webhook.NewSender(req.DefaultClient(), cfg.DeviceID, cfg.WebhookTimeout)
	ledger := delivery.NewLedger(dataRepo, whSender, delivery.Config{
		MaxRetries: cfg.WebhookMaxRetries,
	})
	router := webhook.NewRouter(dataRepo, whSender, ledger)

	uploader := syncer.NewClient(
		req.DefaultClient(),
		cfg.BackendURL,
		cfg.BackendAPIKey,
		cfg.DeviceID,
		cfg.SyncTimeout,
	)
	coordinator := syncer.NewCoordinator(dataRepo, uploader, syncer.Config{
		SweepInterval: cfg.SyncSweepInterval,
	})

	processorSvc := processor.NewProcessor(
		dataRepo,
		chain,
		coordinator,
		router,
		cfg.DevicePhoneNumber,
	)
	gate := ingest.NewGate(registry, processorSvc, cfg.IngestQueueSize, cfg.IngestWorkers)

	go gate.Run(ctx)
	go coordinator.Run(ctx)
	go ledger.RunRetryWorker(ctx, cfg.RetryPollInterval)

	// Records left PENDING or SYNCING by a previous process pick up
	// where they stopped.
	coordinator.EnqueueNow()

	r := mux.NewRouter()
	r.Handle("/api/sms/inbound", NewHandler(gate, cfg.InboundAPIKey)).
		Methods(http.MethodPost)
	r.Handle("/api/health", NewHealthHandler(dataRepo, ledger, gate)).
		Methods(http.MethodGet)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.ListenAddr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")

	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
