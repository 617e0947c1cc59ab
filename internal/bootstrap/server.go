package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/yerzhan-m/utm-airspace/api"
	"github.com/yerzhan-m/utm-airspace/config"
	"github.com/yerzhan-m/utm-airspace/internal/service/drones"
	"github.com/yerzhan-m/utm-airspace/internal/service/flights"
	"github.com/yerzhan-m/utm-airspace/internal/service/telemetry"
	"github.com/yerzhan-m/utm-airspace/internal/service/zones"
)

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config,
	zoneSvc zones.ZoneUseCase,
	flightSvc flights.FlightUseCase,
	droneSvc drones.DroneUseCase,
	telemetrySvc telemetry.TelemetryUseCase,
) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newHandler(cfg, zoneSvc, flightSvc, droneSvc, telemetrySvc),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newHandler(cfg *config.Config,
	zoneSvc zones.ZoneUseCase,
	flightSvc flights.FlightUseCase,
	droneSvc drones.DroneUseCase,
	telemetrySvc telemetry.TelemetryUseCase,
) http.Handler {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	monitoring := api.NewMonitoringHandler(telemetrySvc)
	api.NewZoneHandler(zoneSvc).Register(engine.Group("/zones"))
	api.NewFlightHandler(flightSvc).Register(engine.Group("/flights"))
	api.NewDroneHandler(droneSvc).Register(engine.Group("/drones"))
	monitoring.RegisterTelemetry(engine.Group("/telemetry"))
	monitoring.RegisterMonitoring(engine.Group("/monitoring"))

	handler := http.NewServeMux()
	handler.Handle("/", engine)

	if cfg.HTTP.SwaggerDir != "" {
		fs := http.FileServer(http.Dir(cfg.HTTP.SwaggerDir))
		handler.Handle("/swagger/", http.StripPrefix("/swagger/", fs))
		handler.Handle("/docs/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/utm.swagger.json"),
		))
	}

	return handler
}
