package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/cashvault-backend/api/routes"
	"github.com/angelmondragon/cashvault-backend/internal/atmloading"
	"github.com/angelmondragon/cashvault-backend/internal/certificates"
	"github.com/angelmondragon/cashvault-backend/internal/clientledger"
	"github.com/angelmondragon/cashvault-backend/internal/directory"
	"github.com/angelmondragon/cashvault-backend/internal/ledger"
	"github.com/angelmondragon/cashvault-backend/internal/vault"
	"github.com/angelmondragon/cashvault-backend/pkg/config"
	"github.com/angelmondragon/cashvault-backend/pkg/db"
	"github.com/angelmondragon/cashvault-backend/pkg/logger"
	"github.com/angelmondragon/cashvault-backend/pkg/metrics"
	"github.com/angelmondragon/cashvault-backend/pkg/migrate"
	"github.com/angelmondragon/cashvault-backend/pkg/outbox"
	"github.com/angelmondragon/cashvault-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	params, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	params.Config = cfg
	params.Logger = logg
	params.DB = dbClient
	params.Redis = redisClient
	params.Idempotency = redisClient
	params.Gatherer = prometheus.DefaultGatherer

	if err := params.Vault.EnsureVault(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to ensure vault of record", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"vault_id": cfg.Ledger.VaultID,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(*params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*routes.RouterParams, error) {
	conn := dbClient.DB()
	ledgerMetrics := metrics.NewLedgerMetrics(prometheus.DefaultRegisterer)
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	dir, err := directory.NewService(directory.NewRepository(conn))
	if err != nil {
		return nil, err
	}

	clientMovements := clientledger.NewRepository(conn)
	clientPoster, err := clientledger.NewPoster(clientMovements)
	if err != nil {
		return nil, err
	}
	clientLedger, err := clientledger.NewService(clientMovements, dir)
	if err != nil {
		return nil, err
	}

	vaultRepo := vault.NewRepository(conn)
	vaultPoster, err := vault.NewPoster(vaultRepo, cfg.Ledger.VaultID)
	if err != nil {
		return nil, err
	}
	vaultSvc, err := vault.NewService(vault.ServiceParams{
		Repo:    vaultRepo,
		Tx:      dbClient,
		Poster:  vaultPoster,
		Clients: dir,
		Ledger:  clientPoster,
		Outbox:  events,
		Config:  cfg.Ledger,
		Logger:  logg,
		Metrics: ledgerMetrics,
	})
	if err != nil {
		return nil, err
	}

	loadings, err := atmloading.NewService(atmloading.ServiceParams{
		Repo:            atmloading.NewRepository(conn),
		ClientMovements: clientMovements,
		Tx:              dbClient,
		Directory:       dir,
		Vault:           vaultPoster,
		Clients:         clientPoster,
		Outbox:          events,
		Config:          cfg.Ledger,
		Logger:          logg,
		Metrics:         ledgerMetrics,
	})
	if err != nil {
		return nil, err
	}

	certs, err := certificates.NewService(dir, clientMovements)
	if err != nil {
		return nil, err
	}

	reconciler, err := ledger.NewReconciler(vaultRepo, dbClient, cfg.Ledger.VaultID)
	if err != nil {
		return nil, err
	}

	return &routes.RouterParams{
		Vault:        vaultSvc,
		Reconciler:   reconciler,
		Directory:    dir,
		ClientLedger: clientLedger,
		Certificates: certs,
		ATMLoading:   loadings,
	}, nil
}
