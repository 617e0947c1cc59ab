package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yerzhan-m/utm-airspace/config"
	"github.com/yerzhan-m/utm-airspace/internal/bootstrap"
	"github.com/yerzhan-m/utm-airspace/internal/cache"
	"github.com/yerzhan-m/utm-airspace/internal/conflict"
	"github.com/yerzhan-m/utm-airspace/internal/hexgrid"
	"github.com/yerzhan-m/utm-airspace/internal/kafka"
	"github.com/yerzhan-m/utm-airspace/internal/ledger"
	"github.com/yerzhan-m/utm-airspace/internal/repository"
	"github.com/yerzhan-m/utm-airspace/internal/service/drones"
	"github.com/yerzhan-m/utm-airspace/internal/service/flights"
	"github.com/yerzhan-m/utm-airspace/internal/service/telemetry"
	"github.com/yerzhan-m/utm-airspace/internal/service/zones"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Airspace.ZonesCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	zoneRepo := repository.NewZoneRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	droneRepo := repository.NewDroneRepository(pool)
	telemetryRepo := repository.NewTelemetryRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)

	grid := hexgrid.NewGrid(cfg.Airspace.HexResolution, cfg.Airspace.PathSampleStepMeters)

	// The ledger is the single serialization point for reservations;
	// seed it from the rows the previous run persisted.
	airspaceLedger := ledger.New()
	active, err := reservationRepo.ListActive(ctx, time.Now())
	if err != nil {
		log.Fatalf("load reservations: %v", err)
	}
	airspaceLedger.Load(active)
	log.Printf("loaded %d active reservations", len(active))

	zoneService := zones.NewZoneService(zoneRepo, flightRepo, redisCache)
	detector := conflict.NewDetector(zoneService, grid, airspaceLedger)
	flightService := flights.NewFlightService(
		flightRepo,
		droneRepo,
		reservationRepo,
		detector,
		airspaceLedger,
		grid,
		redisCache,
		producer,
		cfg.Kafka.FlightEventsTopic,
		cfg.Airspace.AltitudeBandMeters,
		flights.WithApprovalLockTTL(time.Duration(cfg.Airspace.ApprovalLockTTLSeconds)*time.Second),
	)
	droneService := drones.NewDroneService(droneRepo)
	telemetryService := telemetry.NewTelemetryService(telemetryRepo, alertRepo, zoneService, grid, producer, cfg.Kafka.AlertsTopic)

	if err := bootstrap.Run(ctx, cfg, zoneService, flightService, droneService, telemetryService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
