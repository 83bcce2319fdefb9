package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-booking/internal/config"
	"rental-booking/internal/database"
	"rental-booking/internal/logger"
	"rental-booking/internal/messaging"
	"rental-booking/internal/notify"
	"rental-booking/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logg := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "rental-api"})

	if err := run(cfg, logg); err != nil {
		logg.Error("server exited", "error", err)
		os.Exit(1)
	}
	logg.Info("server stopped")
}

// run serves until a signal or a server error. Deferred cleanup always runs
// before it returns.
func run(cfg *config.Config, logg *slog.Logger) error {
	if err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath, logg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL, logg)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()

	notifier := notify.NewSendGridNotifier(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logg)
	// Let in-flight confirmation e-mails finish before the pool closes.
	defer notifier.Wait()

	// Create a new server instance
	srv := server.NewServer(cfg, server.Deps{
		DB:       db,
		Sender:   messaging.NewGraphSender(cfg.GraphAPIBaseURL, cfg.MetaAccessToken, logg),
		Notifier: notifier,
		Log:      logg,
	})

	// Create a listener on the desired address
	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("create listener on %s: %w", srv.Addr, err)
	}

	// Channel to receive errors from the server
	errChan := make(chan error, 1)

	go func() {
		logg.Info("server started", "addr", srv.Addr)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for an interrupt or server error
	select {
	case err := <-errChan:
		return fmt.Errorf("serve: %w", err)
	case sig := <-stop:
		logg.Info("initiating graceful shutdown", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	}
}
