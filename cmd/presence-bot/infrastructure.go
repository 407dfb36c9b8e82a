// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/zoom"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/zoom/api"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/zoom/webhook"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
)

const (
	natsDrainTimeout   = 10 * time.Second
	natsReconnectWait  = 2 * time.Second
	httpShutdownPeriod = 10 * time.Second
)

// discordIntents are the gateway events the bot needs: guild and member
// lists, command messages and custom statuses.
const discordIntents = discordgo.IntentGuilds |
	discordgo.IntentGuildMembers |
	discordgo.IntentGuildMessages |
	discordgo.IntentGuildPresences |
	discordgo.IntentMessageContent

// setupNATS connects to NATS when a URL is configured. A nil connection means
// NATS is disabled.
func setupNATS(ctx context.Context, natsURL string, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	if natsURL == "" {
		slog.InfoContext(ctx, "NATS_URL not set, presence events will not be published")
		return nil, nil
	}

	gracefulCloseWG.Add(1)
	conn, err := nats.Connect(
		natsURL,
		nats.Name("lfx-zoom-presence-bot"),
		nats.DrainTimeout(natsDrainTimeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(natsReconnectWait),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection established")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.WarnContext(ctx, "NATS disconnected", logging.ErrKey, err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", c.ConnectedUrlRedacted())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.With(logging.ErrKey, err, "subject", s.Subject, "queue", s.Queue).Error("async NATS error")
			} else {
				slog.With(logging.ErrKey, err).Error("async NATS error outside subscription")
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if ctx.Err() != nil {
				// Expected graceful shutdown.
				gracefulCloseWG.Done()
				return
			}
			slog.Error("NATS connection closed unexpectedly")
			gracefulCloseWG.Done()
			done <- os.Interrupt
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// getKeyValueStore opens the state bucket, creating it on first use.
func getKeyValueStore(ctx context.Context, natsConn *nats.Conn) (jetstream.KeyValue, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, store.KVStoreNamePresenceState)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		slog.InfoContext(ctx, "creating key-value bucket", "bucket", store.KVStoreNamePresenceState)
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      store.KVStoreNamePresenceState,
			Description: "Zoom presence bot state",
			History:     5,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open key-value bucket %s: %w", store.KVStoreNamePresenceState, err)
	}
	return kv, nil
}

// setupStateRepository picks the file or NATS KV repository.
func setupStateRepository(ctx context.Context, e environment, natsConn *nats.Conn) (domain.StateRepository, error) {
	if e.StateBackend != stateBackendNATS {
		slog.InfoContext(ctx, "persisting state to file", "path", e.StateFile)
		return store.NewFileStateRepository(e.StateFile), nil
	}
	if natsConn == nil {
		return nil, errors.New("NATS state backend selected but NATS is not connected")
	}
	kv, err := getKeyValueStore(ctx, natsConn)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "persisting state to NATS key-value bucket", "bucket", store.KVStoreNamePresenceState)
	return store.NewNatsStateRepository(kv, e.Zoom.MeetingID), nil
}

// setupZoom creates the meeting snapshot fetcher and the webhook validator.
func setupZoom(ctx context.Context, e environment) (*zoom.SnapshotFetcher, *webhook.ZoomWebhookValidator) {
	config := e.zoomAPIConfig()
	client := api.NewClient(config)
	fetcher := zoom.NewSnapshotFetcher(client, e.Zoom.MeetingID)

	slog.InfoContext(ctx, "Zoom meeting integration configured",
		"meeting_id", e.Zoom.MeetingID,
		"oauth", config.UsesOAuth())

	validator := webhook.NewZoomWebhookValidator(e.Zoom.WebhookVerificationToken, e.Zoom.WebhookSecretToken)
	if e.Zoom.WebhookVerificationToken == "" && e.Zoom.WebhookSecretToken == "" {
		slog.WarnContext(ctx, "Zoom webhook validation not configured, webhook messages will not be verified")
	}
	return fetcher, validator
}

// setupDiscord creates a gateway session. It is opened once the event handlers are registered.
func setupDiscord(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordIntents
	session.StateEnabled = true
	return session, nil
}
