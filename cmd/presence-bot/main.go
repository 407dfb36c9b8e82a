// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the Zoom presence bot: it follows who is on a Zoom meeting
// through webhooks and mirrors that presence into Discord roles, the bot's
// activity text and channel announcements.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/discord"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/metrics"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/presence"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/service"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/pkg/utils"
)

func main() {
	logging.InitStructureLogConfig()

	env, err := parseEnv()
	if err != nil {
		slog.With(logging.ErrKey, err).Error("invalid configuration")
		os.Exit(1)
	}
	flags := parseFlags(env.Port)
	if flags.Debug {
		logging.EnableDebug()
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelConfig := utils.OTelConfigFromEnv()
	if otelConfig.ServiceVersion == "" {
		otelConfig.ServiceVersion = env.Version
	}
	otelShutdown, err := utils.SetupOTelSDKWithConfig(ctx, otelConfig)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry")
		return
	}
	if otelConfig.LogsExporter == utils.OTelExporterOTLP {
		logging.EnableOTelExport(otelConfig.ServiceName)
	}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env.NATSURL, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	repo, err := setupStateRepository(ctx, env, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up state repository")
		return
	}

	botMetrics := metrics.Default()
	store := presence.NewStore(
		presence.LoadState(ctx, repo),
		presence.WithRepository(repo),
		presence.WithVersion(env.Version),
		presence.WithMetrics(botMetrics),
	)

	fetcher, validator := setupZoom(ctx, env)

	session, err := setupDiscord(env.Discord.Token)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up Discord")
		return
	}
	platform := discord.NewPlatformFromSession(session)

	// Initialize services
	serviceConfig := env.serviceConfig()
	reconciler := service.NewPresenceReconciler(fetcher, store, serviceConfig)
	linker := service.NewAccountLinker(store)
	debugInfo := service.NewDebugInfoService(reconciler, store, serviceConfig)
	history := service.NewStatusHistoryService(store)
	welcome := service.NewWelcomeService(platform, serviceConfig)
	roleSync := service.NewRoleSynchronizer(platform, serviceConfig)
	statusSync := service.NewStatusSynchronizer(platform)
	announcer := service.NewThresholdAnnouncer(platform, store, serviceConfig)

	// Initialize handlers
	commandHandler := handlers.NewCommandHandler(reconciler, linker, debugInfo, history, platform)
	webhookHandler := handlers.NewZoomWebhookHandler(reconciler, validator, botMetrics)

	router := discord.NewEventRouter(ctx, platform, commandHandler, welcome, history)
	removeHandlers := router.Register(session)
	if err := session.Open(); err != nil {
		slog.With(logging.ErrKey, err).Error("error connecting to Discord")
		return
	}

	unsubscribers := []func(){
		botMetrics.Register(ctx, store),
		roleSync.Register(ctx, store),
		statusSync.Register(ctx, store),
	}
	if announcer.Enabled() {
		unsubscribers = append(unsubscribers, announcer.Register(ctx))
	}
	if natsConn != nil {
		publisher := service.NewPresencePublisher(messaging.NewMessageBuilder(natsConn), serviceConfig)
		unsubscribers = append(unsubscribers, publisher.Register(ctx, store))
	}

	// Correct whatever changed on the meeting while the bot was offline.
	go func() {
		if _, err := reconciler.Refresh(ctx); err != nil {
			slog.With(logging.ErrKey, err).Warn("initial meeting refresh failed")
		}
	}()

	mux := newMux(webhookHandler, debugInfo, metrics.Handler(),
		webhookHandler.HandlerReady,
		commandHandler.HandlerReady,
		repo.IsReady,
		func() bool { return natsConn == nil || natsConn.IsConnected() },
	)
	httpServer := setupHTTPServer(flags, newHandler(mux), &gracefulCloseWG)

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	for _, unsubscribe := range unsubscribers {
		unsubscribe()
	}
	removeHandlers()
	gracefulShutdown(httpServer, session, store, natsConn, otelShutdown, &gracefulCloseWG, cancel)
}

// gracefulShutdown stops accepting work, flushes the persisted state and closes every connection.
func gracefulShutdown(
	httpServer interface{ Shutdown(context.Context) error },
	session *discordgo.Session,
	store *presence.Store,
	natsConn *nats.Conn,
	otelShutdown func(context.Context) error,
	gracefulCloseWG *sync.WaitGroup,
	cancel context.CancelFunc,
) {
	slog.Info("shutting down")

	// Cancel the background context.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpShutdownPeriod)
	defer shutdownCancel()

	go func() {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.With(logging.ErrKey, err).Error("http shutdown error")
		}
		// Decrement the wait group.
		gracefulCloseWG.Done()
	}()

	if err := session.Close(); err != nil {
		slog.With(logging.ErrKey, err).Error("error closing Discord session")
	}

	if err := store.Close(shutdownCtx); err != nil {
		slog.With(logging.ErrKey, err).Error("error flushing state")
	}

	if natsConn != nil && !natsConn.IsClosed() && !natsConn.IsDraining() {
		slog.Info("draining NATS connections")
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
	}

	// Wait for the HTTP graceful shutdown and the NATS drain to complete.
	waited := make(chan struct{})
	go func() {
		gracefulCloseWG.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(natsDrainTimeout + httpShutdownPeriod):
		slog.Warn("timed out waiting for connections to close")
	}

	if err := otelShutdown(context.Background()); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry")
	}

	slog.Info("graceful shutdown complete")
}
