package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/carewise/care-coordinator/internal/api"
	"github.com/carewise/care-coordinator/internal/booking"
	"github.com/carewise/care-coordinator/internal/config"
	"github.com/carewise/care-coordinator/internal/db"
	"github.com/carewise/care-coordinator/internal/form"
	"github.com/carewise/care-coordinator/internal/patient"
	redisclient "github.com/carewise/care-coordinator/internal/redis"
	"github.com/carewise/care-coordinator/internal/schedule"
	"github.com/carewise/care-coordinator/internal/visit"
)

const version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	// The availability catalog is immutable for the process lifetime.
	catalogCtx, cancelCatalog := context.WithTimeout(rootCtx, 10*time.Second)
	catalog, err := schedule.LoadCatalog(catalogCtx, pgPool)
	cancelCatalog()
	if err != nil {
		log.Fatalf("availability catalog load error: %v", err)
	}
	log.Printf("loaded availability catalog with %d providers", len(catalog.Providers()))

	directory := patient.NewCachedDirectory(patient.NewPgDirectory(pgPool), rdb, cfg.PatientCacheTTL)
	guard := redisclient.NewRedisSessionGuard(rdb, cfg.BatchGuardTTL)

	coord := booking.NewCoordinator(booking.CoordinatorConfig{
		Catalog:   catalog,
		Directory: directory,
		Submitter: booking.NewPgSubmitter(pgPool),
		Guard:     guard,
		Durations: visit.DurationTable{
			visit.TypeNew:         cfg.NewVisitMinutes,
			visit.TypeEstablished: cfg.EstablishedVisitMinutes,
		},
		IntervalMinutes: cfg.SlotIntervalMinutes,
		RequiredFields:  form.AllFields,
		SessionTTL:      cfg.SessionTTL,
	})

	go coord.RunJanitor(rootCtx, cfg.JanitorInterval)

	router := api.NewRouter(api.RouterConfig{
		Coordinator: coord,
		PgPool:      pgPool,
		Redis:       rdb,
		Env:         cfg.Env,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}
