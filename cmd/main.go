package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	grpchandler "github.com/dtroode/cutout-server/internal/api/grpc/handler"
	grpcrouter "github.com/dtroode/cutout-server/internal/api/grpc/router"
	grpcserver "github.com/dtroode/cutout-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/cutout-server/internal/api/http/context"
	httphandler "github.com/dtroode/cutout-server/internal/api/http/handler"
	httprouter "github.com/dtroode/cutout-server/internal/api/http/router"
	httpserver "github.com/dtroode/cutout-server/internal/api/http/server"
	"github.com/dtroode/cutout-server/internal/config"
	"github.com/dtroode/cutout-server/internal/gateway/clipdrop"
	"github.com/dtroode/cutout-server/internal/google"
	"github.com/dtroode/cutout-server/internal/logger"
	"github.com/dtroode/cutout-server/internal/metrics"
	"github.com/dtroode/cutout-server/internal/model"
	"github.com/dtroode/cutout-server/internal/repository/memory"
	"github.com/dtroode/cutout-server/internal/repository/postgres"
	"github.com/dtroode/cutout-server/internal/server"
	"github.com/dtroode/cutout-server/internal/service"
	storage "github.com/dtroode/cutout-server/internal/storage/minio"
	"github.com/dtroode/cutout-server/internal/token"
	"github.com/dtroode/cutout-server/internal/webhook"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const healthInterval = 15 * time.Second

// stores groups the persistence backends selected by config.
type stores struct {
	accounts  model.AccountStore
	ledger    model.Ledger
	purchases model.PurchaseStore
	pinger    httphandler.Pinger
	close     func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer st.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(registry)

	var archive model.Storage
	if cfg.Storage.Enabled {
		resultArchive, err := storage.NewResultArchive(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to initialize result archive", "error", err)
		}
		archive = resultArchive
	}

	var webhookVerifier httphandler.WebhookVerifier = webhook.Disabled{}
	if cfg.Webhook.Secret != "" {
		verifier, err := webhook.NewVerifier(cfg.Webhook.Secret)
		if err != nil {
			logger.Fatal("failed to initialize webhook verifier", "error", err)
		}
		webhookVerifier = verifier
	} else {
		logger.Warn("webhook secret is not set, identity webhooks will be rejected")
	}

	if cfg.ClipDrop.APIKey == "" {
		logger.Warn("ClipDrop API key is not set, every job will be refunded")
	}

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	identity := service.NewIdentity(tokenManager, logger)
	gateway := clipdrop.NewClient(clipdrop.Options{
		BaseURL: cfg.ClipDrop.BaseURL,
		APIKey:  cfg.ClipDrop.APIKey,
		Timeout: cfg.ClipDrop.Timeout,
	})
	googleVerifier := google.NewVerifier(cfg.Google.Issuer, cfg.Google.ClientID, cfg.Google.JWKSURL)

	authService := service.NewAuth(st.accounts, tokenManager, googleVerifier, cfg.Credits.Initial, logger)
	accountService := service.NewAccount(st.accounts, st.ledger, st.purchases, nil, cfg.Credits.Initial, logger)
	jobService := service.NewJob(identity, st.ledger, gateway, archive, collector, logger)
	sweeper := service.NewSweeper(st.ledger, cfg.Ledger.SweepInterval, cfg.Ledger.StaleAfter, collector, logger)

	httpRouter := httprouter.New(
		httprouter.Services{
			Jobs:            jobService,
			Auth:            authService,
			Accounts:        accountService,
			Credentials:     identity,
			WebhookVerifier: webhookVerifier,
			Pinger:          st.pinger,
		},
		httprouter.Options{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
			PaymentSecret:  cfg.Payment.Secret,
		},
		collector,
		registry,
		httpctx.NewManager(),
		logger,
	)
	httpServer := httpserver.NewHTTPServer(httpRouter.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	health := grpchandler.NewHealth(st.pinger, logger)
	opsServer := grpcserver.NewGRPCServer(grpcrouter.New(health, logger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		health.Watch(ctx, healthInterval)
	}()

	start := func(s model.Server, sl model.SecurityLayer) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}()
	}
	start(httpServer, server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName))
	start(opsServer, server.NewPlainListener())

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")
	health.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer shutdownCancel()

	for _, s := range []model.Server{httpServer, opsServer} {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Ledger.Backend == config.BackendMemory {
		store := memory.NewStore()
		return &stores{
			accounts:  store,
			ledger:    store,
			purchases: store,
			close:     func() {},
		}, nil
	}

	db, err := postgres.NewConection(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	return &stores{
		accounts:  postgres.NewAccountRepository(db),
		ledger:    postgres.NewLedgerRepository(db),
		purchases: postgres.NewPurchaseRepository(db),
		pinger:    db,
		close:     func() { _ = db.Close() },
	}, nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
