package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jhoicas/bodegas-api/internal/bootstrap"
	httpRouter "github.com/jhoicas/bodegas-api/internal/interfaces/http"
	"github.com/jhoicas/bodegas-api/pkg/config"
	"github.com/jhoicas/bodegas-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: cfg.App.Name})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api detenida con error")
	}
	log.Info().Msg("api detenida")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info().Str("env", cfg.App.Env).Str("db_driver", cfg.DB.Driver).Bool("redis", cfg.Redis.Enabled()).Msg("iniciando")

	container, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("inicialización: %w", err)
	}
	defer container.Close()

	app := newServer(cfg, log, container)
	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(cfg.HTTP.Addr()) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("señal de apagado recibida")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newServer(cfg *config.Config, log *logger.Logger, container *bootstrap.Container) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  time.Minute,
	})
	app.Use(recover.New(), requestid.New(), httpRouter.RequestLogger(log))

	// /docs solo si el binario corre junto a docs/
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{BasePath: "/", FilePath: swaggerFile, Path: "docs", Title: "Bodegas API"}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger deshabilitado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := container.Ready(ctx); err != nil {
			log.Warn().Err(err).Msg("readiness fallida")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	var gatherer prometheus.Gatherer
	if container.Registry != nil {
		gatherer = container.Registry
	}
	httpRouter.Router(app, httpRouter.RouterDeps{
		WarehouseUC:       container.WarehouseUC,
		ItemUC:            container.ItemUC,
		MovementProcessor: container.MovementProcessor,
		StockQuery:        container.StockQuery,
		KardexQuery:       container.KardexQuery,
		Workflow:          container.Workflow,
		Policy:            container.Policy,
		JWTSecret:         cfg.JWT.Secret,
		MetricsGatherer:   gatherer,
	})
	return app
}
