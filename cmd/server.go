package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/Abraxas-365/lectio/pkg/config"
	"github.com/Abraxas-365/lectio/pkg/errx"
	"github.com/Abraxas-365/lectio/pkg/logx"
)

func main() {
	cfg := config.Load()
	logx.Configure(cfg.Server.LogLevel, cfg.Server.LogFormat)

	logx.Info("starting lectio analysis server")

	container := NewContainer(cfg)
	defer container.Cleanup()

	if err := container.Engine.Start(context.Background()); err != nil {
		logx.WithError(err).Fatal("could not start job engine")
	}

	app := fiber.New(fiber.Config{
		AppName:               "Lectio Analysis API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             10 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  getCORSOrigins(),
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Get("/health", healthHandler(container))
	container.AnalysisHandlers.RegisterRoutes(app)
	logx.Info("analysis routes registered")

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "route not found",
			"path":  c.Path(),
		})
	})

	startServer(app, cfg.Server.Port)
}

func healthHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status": "ok",
			"jobs":   container.Engine.Stats(),
		}

		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := container.DB.PingContext(ctx); err != nil {
			health["status"] = "degraded"
			health["postgres"] = err.Error()
		}
		if err := container.Redis.Ping(ctx).Err(); err != nil {
			health["status"] = "degraded"
			health["redis"] = err.Error()
		}

		code := fiber.StatusOK
		if health["status"] != "ok" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(health)
	}
}

// globalErrorHandler maps errx errors onto HTTP responses; anything else is
// an opaque 500.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("request error: %v", err)

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":  e.Message,
			"status": e.Code,
		})
	}

	var xe *errx.Error
	if errx.As(err, &xe) {
		response := fiber.Map{
			"error":  xe.Message,
			"code":   xe.Code,
			"type":   string(xe.Type),
			"status": xe.HTTPStatus,
		}
		if len(xe.Details) > 0 {
			response["details"] = xe.Details
		}
		return c.Status(xe.HTTPStatus).JSON(response)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":  "internal server error",
		"status": fiber.StatusInternalServerError,
	})
}

func startServer(app *fiber.App, port int) {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdown
		logx.Info("shutdown signal received")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			logx.WithError(err).Error("server shutdown failed")
		}
	}()

	addr := fmt.Sprintf(":%d", port)
	logx.Infof("listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		logx.WithError(err).Fatal("server stopped")
	}
	logx.Info("server stopped cleanly")
}

func getCORSOrigins() string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return origins
	}
	return "*"
}
