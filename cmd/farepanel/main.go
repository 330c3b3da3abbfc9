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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	fareapiadapter "github.com/farepanel/farepanel/internal/adapter/driven/fareapi"
	sqliteadapter "github.com/farepanel/farepanel/internal/adapter/driven/sqlite"
	httphandler "github.com/farepanel/farepanel/internal/adapter/driving/http"
	"github.com/farepanel/farepanel/internal/application"
	"github.com/farepanel/farepanel/internal/config"
	"github.com/farepanel/farepanel/internal/domain/model"
	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (file then env overrides).
	cfg, err := config.Load(os.Getenv("FAREPANEL_CONFIG"))
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"refresh_interval", cfg.RefreshInterval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire the credential store.
	secretKey, err := cfg.SecretKey()
	if err != nil {
		return err
	}
	credentialStore := sqliteadapter.NewCredentialRepo(db, secretKey)

	// 6. Resolve the credential: stored credential takes priority over config.
	var cred model.Credential
	if cfg.HasCredential() {
		cred = model.Credential{CardNumber: cfg.CardNumber, Password: cfg.Password}
	}
	if stored, err := credentialStore.Current(ctx); err == nil && stored != nil {
		cred = *stored
	} else if err != nil && !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return err
	}

	newClient := func(c model.Credential) (driven.FareClient, error) {
		return fareapiadapter.NewClient(c, cfg.APIBaseURL)
	}

	var client driven.FareClient
	if cred.IsValid() {
		client, err = newClient(cred)
		if err != nil {
			return err
		}
		slog.Info("fare client created", "card_number", cred.CardNumber)
	} else {
		slog.Info("no credential configured, refreshing disabled until one is provided via the local API")
	}

	// 7. Wire the application core.
	provider := application.NewClientProvider(client)
	fetchSvc := application.NewFetchService(provider)
	controller := application.NewAccountController(fetchSvc, provider, credentialStore, newClient)
	refreshSvc := application.NewRefreshService(controller, cfg.RefreshInterval)
	go refreshSvc.Start(ctx)

	// 8. Serve the local JSON API.
	handler := httphandler.NewHandler(controller, refreshSvc, provider, slog.Default())
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("farepanel started",
		"listen_addr", cfg.ListenAddr,
		"refresh_interval", cfg.RefreshInterval,
	)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
