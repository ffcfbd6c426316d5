package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpDelivery "github.com/sweet-meenu/urbanpulse-sub000/internal/delivery/http"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/logger"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/scheduler"
	"github.com/sweet-meenu/urbanpulse-sub000/internal/telemetry"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Listen port (default: server.port)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Named("server")
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}

	log.Infof("Starting UrbanPulse v%s", appVersion)
	log.Infow("configuration",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"geocode_ttl", cfg.Cache.GeocodeTTL,
		"search_ttl", cfg.Cache.SearchTTL,
		"storage", cfg.Storage.Enabled,
		"auth_required", cfg.Auth.Required,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warnw("flush traces", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sweeper := scheduler.New(cfg.Cache.SweepInterval, a.geocodeCache, a.searchCache)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sweeper.Stop()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(a.services)
	router := httpDelivery.SetupRouter(cfg, handler, a.verifier)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
