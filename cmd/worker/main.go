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
	"github.com/yerzhan-m/utm-airspace/internal/cache"
	"github.com/yerzhan-m/utm-airspace/internal/conflict"
	"github.com/yerzhan-m/utm-airspace/internal/hexgrid"
	"github.com/yerzhan-m/utm-airspace/internal/kafka"
	"github.com/yerzhan-m/utm-airspace/internal/ledger"
	"github.com/yerzhan-m/utm-airspace/internal/notify"
	"github.com/yerzhan-m/utm-airspace/internal/repository"
	"github.com/yerzhan-m/utm-airspace/internal/service/flights"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	grid := hexgrid.NewGrid(cfg.Airspace.HexResolution, cfg.Airspace.PathSampleStepMeters)
	airspaceLedger := ledger.New()
	active, err := reservationRepo.ListActive(ctx, time.Now())
	if err != nil {
		log.Fatalf("load reservations: %v", err)
	}
	airspaceLedger.Load(active)

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
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.FlightEventsTopic)
	defer consumer.Close()

	sender := notify.NewSender()

	go func() {
		if err := consumer.ConsumeFlightEvents(ctx, sender.Send); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.CompletionSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			completed, err := flightService.CompleteOverdueFlights(ctx)
			if err != nil {
				log.Printf("complete overdue flights error: %v", err)
				continue
			}
			if len(completed) > 0 {
				log.Printf("completed %d overdue flights", len(completed))
			}
		case s := <-sig:
			log.Printf("received signal %v, shutting down", s)
			return
		}
	}
}
