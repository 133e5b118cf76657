package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/agora-ir/platform/internal/channel"
	"github.com/agora-ir/platform/internal/config"
	"github.com/agora-ir/platform/internal/handler"
	healthHandler "github.com/agora-ir/platform/internal/handler/health"
	notificationHandler "github.com/agora-ir/platform/internal/handler/notification"
	"github.com/agora-ir/platform/internal/middleware"
	"github.com/agora-ir/platform/internal/repository/cached"
	"github.com/agora-ir/platform/internal/repository/postgres"
	"github.com/agora-ir/platform/internal/router"
	dispatcherService "github.com/agora-ir/platform/internal/service/dispatcher"
	notificationService "github.com/agora-ir/platform/internal/service/notification"
	"github.com/agora-ir/platform/pkg/logger"
	"github.com/agora-ir/platform/pkg/messaging"
	redisBroker "github.com/agora-ir/platform/pkg/messaging/redis"
	"github.com/agora-ir/platform/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	var broker messaging.Broker
	var healthChecks []healthHandler.Check
	if cfg.Redis.URL != "" {
		rb, err := redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &appLogger.ZL)
		if err != nil {
			appLogger.Fatal(err, "failed to connect to Redis")
		}
		defer rb.Close()
		broker = rb
		healthChecks = append(healthChecks, healthHandler.Check{Name: "redis", Probe: rb.Ping})
	} else {
		appLogger.Warn("no Redis URL configured, desktop and mobile channels disabled")
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	prefRepo := cached.NewPreferenceRepository(postgres.NewPreferenceRepository(db), cfg.Dispatcher.PreferenceCacheTTL)
	profileRepo := cached.NewProfileRepository(postgres.NewProfileRepository(db), cfg.Dispatcher.PreferenceCacheTTL)
	logRepo := postgres.NewDeliveryLogRepository(db)

	// Channel senders
	emailSender, err := channel.NewEmailSender(cfg.Dispatcher.EmailProvider, cfg.Channels)
	if err != nil {
		appLogger.Fatal(err, "failed to configure email sender")
	}
	smsSender := channel.NewSMSSender(cfg.Channels)
	senders := channel.Registry{
		emailSender.Channel(): emailSender,
		smsSender.Channel():   smsSender,
	}
	if broker != nil {
		desktop := channel.NewDesktopSender(broker)
		mobile := channel.NewMobileSender(broker)
		senders[desktop.Channel()] = desktop
		senders[mobile.Channel()] = mobile
	}

	// Services
	m := metrics.New("agora_dispatch")
	notifSvc := notificationService.NewService(senders, logRepo, profileRepo, m, appLogger)
	dispatchSvc := dispatcherService.NewService(
		eventRepo, prefRepo, profileRepo, notifSvc,
		dispatcherService.Config{
			WindowDays:  cfg.Dispatcher.WindowDays,
			Concurrency: cfg.Dispatcher.Concurrency,
		},
		m, appLogger,
	)

	// Handlers
	h := handler.NewHandler()
	healthH := healthHandler.NewHandler(db, healthChecks...)
	notificationH := notificationHandler.NewHandler(notifSvc, dispatchSvc, logRepo)

	r := router.NewRouter(notificationH, healthH, h, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       middleware.DefaultCORSConfig(),
		MetricsPrefix:    "agora_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("API server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err, "server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error(err, "graceful shutdown failed")
	}
}
