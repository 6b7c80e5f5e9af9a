package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"voice-lead-pipeline/internal/callctx"
	"voice-lead-pipeline/internal/collab"
	"voice-lead-pipeline/internal/config"
	"voice-lead-pipeline/internal/dedupe"
	"voice-lead-pipeline/internal/dispatch"
	"voice-lead-pipeline/internal/notify"
	"voice-lead-pipeline/internal/observability"
	"voice-lead-pipeline/internal/observability/logging"
	"voice-lead-pipeline/internal/pipeline"
	"voice-lead-pipeline/internal/records"
	"voice-lead-pipeline/internal/retryqueue"
	"voice-lead-pipeline/internal/summary"
	"voice-lead-pipeline/internal/webhook"
)

func main() {
	cfg := config.Load()

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Observability.LogLevel
	logging.Init(logCfg)
	logger := logging.Logger()

	store, err := records.OpenSQLite(cfg.Records.SQLitePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Records.SQLitePath).Msg("failed to open record store")
	}
	defer store.Close()

	sync := records.NewSynchronizer(store, logger)
	registry := dedupe.NewRegistry(cfg.Dedupe.Capacity)
	calls := callctx.New(cfg.CallContext.TTL)

	retry := retryqueue.New(&retryqueue.Config{
		Enabled: cfg.Kafka.Enabled,
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer retry.Close()

	// Typed-nil collaborators must not reach the interface fields: the
	// dispatcher distinguishes configured from unconfigured by == nil.
	collaborators := dispatch.Collaborators{
		Tools: dispatch.ToolHandlers{
			Sheets:         collab.NewRecordSheet(sync),
			AlertRecipient: cfg.Notify.AlertRecipient,
		},
	}
	if client := collab.NewClient(cfg.Collab.BaseURL, logger); client != nil {
		collaborators.Booking = client
		collaborators.FollowUps = client
		collaborators.Leads = client
		collaborators.Tools.Calendar = client
		collaborators.Tools.Receptionist = client
	}
	if sender := notify.NewEmailSender(notify.EmailConfig{
		Host:     cfg.Notify.SMTPHost,
		Port:     cfg.Notify.SMTPPort,
		Username: cfg.Notify.SMTPUsername,
		Password: cfg.Notify.SMTPPassword,
		From:     cfg.Notify.From,
	}, logger); sender != nil {
		collaborators.Tools.Email = sender
	}
	if summarizer := summary.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger); summarizer != nil {
		collaborators.Summarizer = summarizer
	}

	dispatcher := dispatch.New(collaborators, calls, logger)
	pipe := pipeline.New(registry, sync, dispatcher, retry, calls, logger)
	handler := webhook.NewHandler(pipe, store, logger)

	obsServer := observability.NewServer(":" + cfg.Observability.MetricsPort)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      webhook.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", apiServer.Addr).Str("principal", cfg.Service.Principal).Msg("webhook server started")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("webhook server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("webhook server shutdown error")
	}
	if err := obsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("observability server shutdown error")
	}
}
