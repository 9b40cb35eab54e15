package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/mdm-gateway/mdm-gateway/internal/api/http"
	appDevice "github.com/mdm-gateway/mdm-gateway/internal/application/device"
	"github.com/mdm-gateway/mdm-gateway/internal/application/dispatcher"
	"github.com/mdm-gateway/mdm-gateway/internal/application/enrollment"
	"github.com/mdm-gateway/mdm-gateway/internal/application/operations"
	appPolicy "github.com/mdm-gateway/mdm-gateway/internal/application/policy"
	appUser "github.com/mdm-gateway/mdm-gateway/internal/application/user"
	"github.com/mdm-gateway/mdm-gateway/internal/config"
	"github.com/mdm-gateway/mdm-gateway/internal/infrastructure/events"
	"github.com/mdm-gateway/mdm-gateway/internal/infrastructure/postgres"
	"github.com/mdm-gateway/mdm-gateway/internal/infrastructure/tokencache"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	deviceRepo := postgres.NewDeviceRepository(pool)
	operationRepo := postgres.NewOperationRepository(pool)
	policyRepo := postgres.NewPolicyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// infrastructure
	tokens := tokencache.New(cfg.TokenTTL)
	var sink enrollment.EventSink = events.Noop{}
	if cfg.NATSURL != "" {
		publisher, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer publisher.Close()
		sink = publisher
	}

	// services
	policySvc := appPolicy.NewService(policyRepo, deviceRepo, logger)
	enrollmentSvc := enrollment.NewService(deviceRepo, tokens, policySvc, sink, logger)
	operationsSvc := operations.NewService(operationRepo, deviceRepo, logger)
	dispatcherSvc := dispatcher.NewService(enrollmentSvc, operationsSvc, tokens, cfg.ServerURI, logger)
	deviceSvc := appDevice.NewService(deviceRepo, logger)
	userSvc := appUser.NewService(userRepo, logger)

	// API server
	apiServer := httpapi.NewServer(dispatcherSvc, deviceSvc, operationsSvc, policySvc, enrollmentSvc, userSvc)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(cfg.TokenSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			removed, err := tokens.DeleteExpired(context.Background())
			if err != nil {
				logger.Warn().Err(err).Msg("token sweep failed")
				continue
			}
			if removed > 0 {
				logger.Debug().Int("removed", removed).Msg("expired enrollment tokens evicted")
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
