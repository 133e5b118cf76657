package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/agora-ir/platform/internal/channel"
	"github.com/agora-ir/platform/internal/config"
	"github.com/agora-ir/platform/internal/repository/cached"
	"github.com/agora-ir/platform/internal/repository/postgres"
	dispatcherService "github.com/agora-ir/platform/internal/service/dispatcher"
	notificationService "github.com/agora-ir/platform/internal/service/notification"
	"github.com/agora-ir/platform/pkg/logger"
	"github.com/agora-ir/platform/pkg/messaging"
	redisBroker "github.com/agora-ir/platform/pkg/messaging/redis"
	"github.com/agora-ir/platform/pkg/metrics"
)

// The dispatcher binary runs scheduled notification dispatch: one full run
// per configured interval, forever, with health and metrics endpoints on
// the side.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil).WithFields(map[string]interface{}{
		"component": "dispatcher",
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	var broker messaging.Broker
	readyChecks := []func(context.Context) error{db.PingContext}
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
		readyChecks = append(readyChecks, rb.Ping)
	} else {
		appLogger.Warn("no Redis URL configured, desktop and mobile channels disabled")
	}

	eventRepo := postgres.NewEventRepository(db)
	prefRepo := cached.NewPreferenceRepository(postgres.NewPreferenceRepository(db), cfg.Dispatcher.PreferenceCacheTTL)
	profileRepo := cached.NewProfileRepository(postgres.NewProfileRepository(db), cfg.Dispatcher.PreferenceCacheTTL)
	logRepo := postgres.NewDeliveryLogRepository(db)

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

	setupHealthAndMetrics(appLogger, readyChecks...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down")
		cancel()
	}()

	runLoop(ctx, dispatchSvc, cfg.Dispatcher.Interval, appLogger)
}

func runLoop(ctx context.Context, svc *dispatcherService.Service, interval time.Duration, appLogger *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	appLogger.Info("dispatch loop started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			appLogger.Info("dispatch loop stopped")
			return
		case <-ticker.C:
			summary, err := svc.Run(ctx, false)
			if err != nil {
				// Store-unavailable runs report zero processed and wait
				// for the next tick; the loop never dies on them.
				appLogger.Error(err, "dispatch run failed")
				continue
			}
			appLogger.Info("dispatch run complete",
				"attempted", summary.Attempted,
				"sent", summary.Sent,
				"failed", summary.Failed,
			)
		}
	}
}

func setupHealthAndMetrics(appLogger *logger.Logger, readyChecks ...func(context.Context) error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, check := range readyChecks {
			if err := check(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			appLogger.ZL.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}
