package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"genesis/cmd/buildCFG"
	"genesis/internal/api/api"
	"genesis/internal/gateway"
	"genesis/internal/mailer"
	"genesis/internal/mailqueue"
	"genesis/internal/ratelimit"
	"genesis/internal/repo"
	"genesis/internal/service"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}
	pingBackoff := backoff.NewExponentialBackOff()
	pingBackoff.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(db.Master.Ping, pingBackoff); err != nil {
		log.Fatal().Msgf("DB ping failed: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	repository, err := repo.NewRepository(db, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot get working directory")
	}
	migrationPath := filepath.Join(cwd, "migrations/postgres")
	if err := repository.MigrateUp(migrationPath); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("Migrations applied successfully")

	gatewayCfg, err := buildCFG.BuildGatewayConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build gateway config")
	}
	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:    gatewayCfg.BaseURL,
		AppID:      gatewayCfg.AppID,
		SecretKey:  gatewayCfg.SecretKey,
		APIVersion: gatewayCfg.APIVersion,
		ReturnURL:  gatewayCfg.ReturnURL,
		NotifyURL:  gatewayCfg.NotifyURL,
	}, nil)

	smtpCfg, err := buildCFG.BuildSMTPConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build SMTP config")
	}
	adminCfg, err := buildCFG.BuildAdminConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build admin config")
	}
	limitsCfg := buildCFG.BuildLimitsConfig(cfg)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	sender := mailer.NewSender(mailer.Config{
		Host:     smtpCfg.Host,
		Port:     smtpCfg.Port,
		Username: smtpCfg.Username,
		Password: smtpCfg.Password,
		From:     smtpCfg.From,
	})
	queue := mailqueue.New(sender, &log)
	queue.Start(workerCtx)

	limiter := ratelimit.New()
	limiter.StartSweeper(workerCtx, limitsCfg.SweepInterval)

	serviceInstance := service.NewService(repository, &log, gatewayClient, queue, service.Config{
		CallbackSecret: gatewayCfg.CallbackSecret,
		WebhookSecret:  gatewayCfg.WebhookSecret,
		AdminPassword:  adminCfg.Password,
		AdminToken:     adminCfg.Token,
		OrderAmount:    gatewayCfg.OrderAmount,
	})
	app := api.NewRouters(&api.Routers{
		Service:    serviceInstance,
		Limiter:    limiter,
		AdminToken: adminCfg.Token,
		Limits: api.Limits{
			RegisterPerMinute: limitsCfg.RegisterPerMinute,
			ContactPerMinute:  limitsCfg.ContactPerMinute,
		},
	})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := app.Run(":" + serverCfg.Port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	queue.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer shutdownCancel()
	if closer, ok := interface{}(app).(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(shutdownCtx); err != nil {
			log.Error().Msgf("Error shutting down server: %v", err)
		}
	}

	log.Info().Msg("Shutdown complete")
}
