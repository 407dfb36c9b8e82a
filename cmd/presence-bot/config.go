// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/infrastructure/zoom/api"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/service"
)

// State backends
const (
	stateBackendFile = "file"
	stateBackendNATS = "nats"
)

// flags are the command line flags for the presence bot.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the presence bot.
type environment struct {
	Port    string `env:"PORT" envDefault:"8080"`
	Version string `env:"VERSION" envDefault:"dev"`

	Zoom    zoomEnvironment    `envPrefix:"ZOOM_"`
	Discord discordEnvironment `envPrefix:"DISCORD_"`

	// StateBackend is "file" or "nats".
	StateBackend string `env:"STATE_BACKEND" envDefault:"file"`
	StateFile    string `env:"STATE_FILE" envDefault:"state.json"`
	NATSURL      string `env:"NATS_URL"`

	GuildConcurrency int `env:"GUILD_CONCURRENCY" envDefault:"4"`
}

type zoomEnvironment struct {
	MeetingID string `env:"MEETING_ID,required,notEmpty"`

	APIKey       string `env:"API_KEY"`
	APISecret    string `env:"API_SECRET"`
	AccountID    string `env:"ACCOUNT_ID"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	WebhookVerificationToken string `env:"WEBHOOK_VERIFICATION_TOKEN"`
	// WebhookSecret is the older name of the verification token.
	WebhookSecret      string `env:"WEBHOOK_SECRET"`
	WebhookSecretToken string `env:"WEBHOOK_SECRET_TOKEN"`

	AnnouncementThreshold int     `env:"TIME_THRESHOLD" envDefault:"0"`
	AnnouncementChannel   string  `env:"TIME_ANNOUNCEMENT_CHANNEL" envDefault:"general"`
	DebounceHours         float64 `env:"TIME_DEBOUNCE_HOURS" envDefault:"12"`
}

type discordEnvironment struct {
	Token          string `env:"TOKEN,required,notEmpty"`
	ActiveRole     string `env:"ACTIVE_ROLE" envDefault:"Zoomer"`
	AdmittedRole   string `env:"ADMITTED_ROLE"`
	WelcomeChannel string `env:"WELCOME_CHANNEL"`
}

// parseFlags parses command line flags for the presence bot
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv loads an optional .env file and decodes the environment.
func parseEnv() (environment, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.With(logging.ErrKey, err).Warn("error loading .env file")
	}

	var e environment
	if err := env.Parse(&e); err != nil {
		return environment{}, fmt.Errorf("parse env: %w", err)
	}
	if e.Zoom.WebhookVerificationToken == "" {
		e.Zoom.WebhookVerificationToken = e.Zoom.WebhookSecret
	}
	if err := e.validate(); err != nil {
		return environment{}, err
	}
	return e, nil
}

func (e environment) validate() error {
	if err := e.zoomAPIConfig().Validate(); err != nil {
		return err
	}
	switch e.StateBackend {
	case stateBackendFile:
	case stateBackendNATS:
		if e.NATSURL == "" {
			return errors.New("NATS_URL is required when STATE_BACKEND is nats")
		}
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", e.StateBackend)
	}
	if e.Zoom.AnnouncementThreshold < 0 {
		return errors.New("ZOOM_TIME_THRESHOLD must not be negative")
	}
	if e.Zoom.DebounceHours < 0 {
		return errors.New("ZOOM_TIME_DEBOUNCE_HOURS must not be negative")
	}
	return nil
}

func (e environment) zoomAPIConfig() api.Config {
	return api.Config{
		APIKey:       e.Zoom.APIKey,
		APISecret:    e.Zoom.APISecret,
		AccountID:    e.Zoom.AccountID,
		ClientID:     e.Zoom.ClientID,
		ClientSecret: e.Zoom.ClientSecret,
	}
}

func (e environment) serviceConfig() service.ServiceConfig {
	return service.ServiceConfig{
		MeetingID:             e.Zoom.MeetingID,
		Version:               e.Version,
		ActiveRoleName:        e.Discord.ActiveRole,
		AnnouncementThreshold: e.Zoom.AnnouncementThreshold,
		AnnouncementChannel:   e.Zoom.AnnouncementChannel,
		AnnouncementDebounce:  time.Duration(e.Zoom.DebounceHours * float64(time.Hour)),
		AdmittedRoleName:      e.Discord.AdmittedRole,
		WelcomeChannel:        e.Discord.WelcomeChannel,
		GuildConcurrency:      e.GuildConcurrency,
	}
}
