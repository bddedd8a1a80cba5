package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voicecoach/internal/auth"
	"voicecoach/internal/config"
	"voicecoach/internal/engine"
	"voicecoach/internal/httpapi"
	"voicecoach/internal/notify"
	"voicecoach/internal/recordapi"
	"voicecoach/internal/session"
	"voicecoach/pkg/logger"
	"voicecoach/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	httpClient := utils.NewHTTPClient(utils.HTTPClientConfig{})

	records, err := recordapi.NewClient(cfg.Vapi.BaseURL, cfg.Vapi.PrivateKey, httpClient)
	if err != nil {
		log.Error("record api init failed", "err", err)
		os.Exit(1)
	}

	notifier := notify.NewWebhook(cfg.Notify.WebhookURL, httpClient, log)

	// One engine session and one controller per signed-in user.
	registry := httpapi.NewRegistry(func(ctx context.Context, email string) (*session.Controller, error) {
		return session.New(ctx, session.Deps{
			Engine: func(h engine.Handler) (engine.Engine, error) {
				return engine.NewVapiEngine(engine.VapiOptions{
					BaseURL:    cfg.Vapi.BaseURL,
					PublicKey:  cfg.Vapi.PublicKey,
					HTTPClient: httpClient,
				}, h, log)
			},
			Records:  records,
			Notifier: notifier,
			Poll: session.PollPolicy{
				InitialDelay: cfg.Poll.InitialDelay,
				RetryDelay:   cfg.Poll.RetryDelay,
				MaxAttempts:  cfg.Poll.MaxAttempts,
			},
			Log: log,
		}, email)
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{Auth: authManager, Sessions: registry}
	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
