package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/desertthunder/spotybot/internal/bot"
	"github.com/desertthunder/spotybot/internal/metrics"
	"github.com/desertthunder/spotybot/internal/registration"
	"github.com/desertthunder/spotybot/internal/repositories"
	"github.com/desertthunder/spotybot/internal/server"
	"github.com/desertthunder/spotybot/internal/services"
	"github.com/desertthunder/spotybot/internal/shared"
	"github.com/desertthunder/spotybot/internal/telegram"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Serve runs the Telegram poller and the HTTP server until the process is signalled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, store, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	spotify, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), services.SpotifyOpts{
		Store:      store,
		HTTPClient: r.httpClient,
		Timeout:    config.Credentials.Spotify.RequestTimeout,
		Metrics:    collector,
		Logger:     shared.WithLogger(r.logger, "component", "spotify"),
	})
	if err != nil {
		return err
	}

	api, err := telegram.Dial(config.Telegram.Token, config.Telegram.PollTimeout)
	if err != nil {
		return err
	}
	r.logger.Info("telegram bot connected", "username", api.Self.UserName)

	rate := config.Telegram.MessagesPerSecond
	outbox := bot.NewOutbox(telegram.NewMessenger(api), rate, int(math.Ceil(rate)), collector)

	registrar := registration.NewRegistrar(store, spotify, outbox, collector,
		shared.WithLogger(r.logger, "component", "registration"))

	dispatcher := bot.New(bot.Opts{
		Player:     spotify,
		Accounts:   store,
		Registrar:  registrar,
		Messenger:  outbox,
		Metrics:    collector,
		Logger:     shared.WithLogger(r.logger, "component", "bot"),
		PauseEvery: config.Telegram.PauseEvery,
		PauseFor:   config.Telegram.PauseDuration,
	})

	poller := telegram.NewPoller(api, dispatcher, telegram.PollerOpts{
		Commands:       dispatcher.Commands(),
		PollTimeout:    config.Telegram.PollTimeout,
		HandlerTimeout: config.Telegram.HandlerTimeout,
		Logger:         shared.WithLogger(r.logger, "component", "telegram"),
	})

	httpLogger := shared.WithLogger(r.logger, "component", "http")
	srv := server.NewServer(config.Server.Addr(), server.NewRouter(server.Opts{
		Completer: registrar,
		Gatherer:  reg,
		Logger:    httpLogger,
	}), httpLogger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return r.purgeLoop(ctx, store, config.Registration.PendingTTL) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	r.logger.Info("shutdown complete")
	return nil
}

// purgeLoop deletes expired pending claims once per TTL.
func (r *Runner) purgeLoop(ctx context.Context, store *repositories.CredentialStore, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := store.PurgeExpiredPending(ctx)
			if err != nil {
				r.logger.Warn("failed to purge expired registrations", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Info("purged expired registrations", "count", n)
			}
		}
	}
}
