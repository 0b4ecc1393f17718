package main

import (
	"context"
	"errors"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"notka/docs"
	handlers "notka/internal/http/handler"
	"notka/internal/http/middleware"
	"notka/internal/otel"
	"notka/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = shutdownTracing(sctx)
	}()

	store, err := openNoteStore(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer store.close()

	files, err := openFileStore(cfg, logger)
	if err != nil {
		return err
	}

	attachments := service.NewAttachmentManager(store.repo, files, service.AttachmentOptions{
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		MaxSize:           cfg.Upload.MaxSize,
	}, logger)
	noteSvc := service.NewNoteService(store.repo, attachments, files, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit(cfg.Upload.MaxSize),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	// Register global middleware
	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORS.AllowOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Range," + middleware.RequestIDHeader,
		ExposeHeaders: strings.Join([]string{
			fiber.HeaderContentRange,
			fiber.HeaderAcceptRanges,
			fiber.HeaderContentLength,
			middleware.RequestIDHeader,
		}, ","),
	}))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(logger))
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, store.ping, noteSvc)

	if cfg.Sweep.IntervalSec > 0 {
		sweeper := service.NewSweeper(store.repo, files, time.Duration(cfg.Sweep.GraceSec)*time.Second, logger)
		go sweeper.Start(ctx, time.Duration(cfg.Sweep.IntervalSec)*time.Second)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	listenErr := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("db_driver", cfg.DBDriver),
			zap.String("storage_driver", cfg.StorageDriver),
		)
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
	}

	cancel()
	return app.ShutdownWithTimeout(10 * time.Second)
}

// bodyLimit leaves room for multipart framing around the largest accepted file.
// A non-positive maxUpload means uploads are unbounded.
func bodyLimit(maxUpload int64) int {
	const framing = 1 << 20
	if maxUpload <= 0 || maxUpload > math.MaxInt32-framing {
		return math.MaxInt32
	}
	return int(maxUpload) + framing
}
