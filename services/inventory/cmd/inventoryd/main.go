package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hostinv/pkg/bus"
	"hostinv/pkg/db"
	"hostinv/pkg/metrics"
	"hostinv/pkg/telemetry"
	"hostinv/services/api"
	"hostinv/services/inventory"
	"hostinv/services/inventory/internal/config"
	"hostinv/services/inventory/validation"
)

func main() {
	if err := run("inventory"); err != nil {
		log.New(os.Stderr, "", log.LstdFlags).Fatal(err)
	}
}

func run(serviceName string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, middleware, logger, err := telemetry.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownTelemetry != nil {
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "%s: telemetry shutdown error: %v\n", serviceName, err)
			}
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.Open(ctx, cfg.DB.URI)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	orm, err := db.OpenORM(pool)
	if err != nil {
		return fmt.Errorf("open orm session: %w", err)
	}

	b, err := bus.New(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer b.Close()

	ingestionMetrics := metrics.NewIngestion(prometheus.DefaultRegisterer)

	hosts, err := inventory.NewHostStore(orm)
	if err != nil {
		return fmt.Errorf("init host store: %w", err)
	}

	updater, err := inventory.NewProfileUpdater(hosts, validation.NewSystemProfileSchema(), ingestionMetrics, logger)
	if err != nil {
		return fmt.Errorf("init profile updater: %w", err)
	}

	source, err := b.PullSource(cfg.NATS.ProfileTopic, cfg.NATS.ConsumerGroup)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", cfg.NATS.ProfileTopic, err)
	}
	defer source.Close()

	consumer, err := inventory.NewConsumer(source, updater, ingestionMetrics, logger)
	if err != nil {
		return fmt.Errorf("init consumer: %w", err)
	}

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumer.Run(ctx)
	}()

	emitters := func() (*inventory.EventEmitter, error) {
		return inventory.NewEventEmitter(b, cfg.NATS.EventTopic)
	}

	profiles, err := inventory.NewSystemProfileReader(pool)
	if err != nil {
		return fmt.Errorf("init profile reader: %w", err)
	}

	hostAPI, err := api.New(hosts, profiles, validation.NewHostSchema(), emitters, logger)
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}

	routes, err := hostAPI.Routes()
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/readyz", readyHandler(pool))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/v1/", routes)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: middleware(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "%s: server shutdown error: %v\n", serviceName, err)
		}
	}()

	logger.Printf("INFO listening on %s", server.Addr)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("ERROR server failed: %v", err)
		return err
	}

	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		logger.Printf("ERROR consumer did not stop in time")
	}

	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context(), pool); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
