package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogadmin/internal/metrics"
	"catalogadmin/internal/util"
	"catalogadmin/services/console/internal/agentclient"
	"catalogadmin/services/console/internal/catalogclient"
	"catalogadmin/services/console/internal/config"
	"catalogadmin/services/console/internal/server"
)

func main() {
	config.LoadDotEnv(".env", "services/console/.env")
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	idleTTL, err := config.ParseSessionIdleTTL(cfg.SessionIdleTTL)
	if err != nil {
		log.Fatalf("failed to parse session idle TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel, cfg.LogFormat)
	m := metrics.New("console")

	catalog := catalogclient.NewClient(cfg.CatalogURL, catalogclient.WithHTTPClient(&http.Client{
		Timeout:   10 * time.Second,
		Transport: m.InstrumentTransport("catalog", nil),
	}))
	agent := agentclient.NewClient(cfg.AgentURL, m.InstrumentTransport("agent", nil))

	httpServer, err := server.New(server.Config{
		Catalog:                       catalog,
		Agent:                         agent,
		Metrics:                       m,
		RedisAddr:                     cfg.RedisAddr,
		RedisPassword:                 cfg.RedisPassword,
		AllowedOrigins:                cfg.AllowedOrigins,
		OrdersPageSize:                cfg.OrdersPageSize,
		ToastCapacity:                 cfg.ToastCapacity,
		SessionCookieName:             cfg.SessionCookieName,
		SessionCookieSecure:           cfg.SessionCookieSecure,
		SessionIdleTTL:                idleTTL,
		ChatRateLimitPerMinute:        cfg.ChatRateLimitPerMinute,
		DescriptionRateLimitPerMinute: cfg.DescriptionRateLimitPerMinute,
		MaxUploadBytes:                cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}
	defer httpServer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go httpServer.Workspaces().Run(ctx, time.Minute)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server listening", "addr", addr, "catalog", cfg.CatalogURL, "agent", cfg.AgentURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
	}
}
