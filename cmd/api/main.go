package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/navoditbharat/mapsketch/internal/adapters/http"
	"github.com/navoditbharat/mapsketch/internal/adapters/memory"
	natsadapter "github.com/navoditbharat/mapsketch/internal/adapters/nats"
	"github.com/navoditbharat/mapsketch/internal/adapters/storage"
	"github.com/navoditbharat/mapsketch/internal/core/ports"
	"github.com/navoditbharat/mapsketch/internal/core/usecases"
	"github.com/navoditbharat/mapsketch/internal/pkg/config"
	"github.com/navoditbharat/mapsketch/internal/pkg/logging"
	"github.com/navoditbharat/mapsketch/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapsketch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
	}

	// State store
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer store.Close()
	slog.Info("state store ready", "driver", store.Driver, "key", cfg.Storage.Key)

	// Events: NATS when enabled, otherwise in process.
	var (
		publisher  ports.EventPublisher
		subscriber ports.EventSubscriber
		deps       = &http.Dependencies{Store: store.Store}
	)
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			slog.Warn("nats unavailable, falling back to in-process events", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
			subscriber = natsadapter.NewSubscriber(pub.Conn(), cfg.NATS.Subject)
			deps.NATS = pub.Conn()
		}
	}
	if publisher == nil {
		bus := memory.NewBus()
		publisher, subscriber = bus, bus
	}
	deps.Events = subscriber

	// Session
	persistence := usecases.NewPersistenceService(store.Store, cfg.Storage.Key)
	deps.Map = usecases.NewMapService(persistence, publisher, cfg.Session.ClearOnDraw)

	if cfg.Session.Autoload {
		if view, ok := deps.Map.Load(ctx); ok {
			slog.Info("restored saved map state", "markers", len(view.Markers), "polygon", view.Polygon != nil)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		AppName:      "mapsketch API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		ExposeHeaders:    "Content-Disposition, Link, ETag, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
