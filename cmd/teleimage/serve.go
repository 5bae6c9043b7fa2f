package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"teleimage/internal/api"
	"teleimage/internal/scheduler"
	"teleimage/internal/telegram"
)

func newServeCmd() *cobra.Command {
	var (
		addr            string
		registerWebhook bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and analytics HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			if addr != "" {
				e.cfg.ListenAddr = addr
			}
			return serve(cmd.Context(), e, registerWebhook)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	cmd.Flags().BoolVar(&registerWebhook, "register-webhook", false, "point the Telegram webhook at WEBHOOK_BASE_URL on startup")
	return cmd
}

func serve(parent context.Context, e *env, registerWebhook bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := e.cfg, e.log
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	journal, err := e.openJournal(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := journal.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close log store")
		}
	}()
	logger.Info().Str("backend", cfg.LogStore).Msg("log store ready")

	images, models, err := e.imageClient()
	if err != nil {
		return err
	}

	tg, err := telegram.NewAPI(cfg.TelegramBotToken, cfg.TelegramAPIEndpoint)
	if err != nil {
		return err
	}
	logger.Info().Str("bot", tg.Self.UserName).Msg("authorized on telegram")

	messenger := telegram.NewMessenger(tg, telegram.MessengerOptions{
		ParseMode:     cfg.MessageParseMode,
		CommunityLink: cfg.CommunityLink,
		WebsiteLink:   cfg.WebsiteLink,
	}, logger)
	bot := telegram.New(messenger, images, models, journal, cfg.LogWriteTimeout, logger)
	webhooks := telegram.NewWebhooks(tg, cfg.WebhookBaseURL)

	if registerWebhook {
		if err := webhooks.Set(); err != nil {
			return err
		}
		logger.Info().Str("url", webhooks.ExpectedURL()).Msg("webhook registered")
	}

	if cfg.AdminChatID != 0 {
		sched := scheduler.New(cfg.ReportSchedule, logger)
		sched.SetReportFunction(scheduler.DailyReport(journal, messenger, cfg.AdminChatID, nil))
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	router := api.NewRouter(logger, api.Deps{
		Bot:           bot,
		Logs:          journal,
		Webhooks:      webhooks,
		UpdateTimeout: cfg.UpdateTimeout,
	})
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpdateTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.ListenAddr).
			Str("env", cfg.Env).
			Str("default_model", models.DefaultAlias()).
			Msg("starting teleimage server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	bot.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
