package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-webhooks/app/controller"
	"github.com/vibast-solutions/ms-go-webhooks/app/factory"
	"github.com/vibast-solutions/ms-go-webhooks/app/gateway"
	"github.com/vibast-solutions/ms-go-webhooks/app/pricing"
	"github.com/vibast-solutions/ms-go-webhooks/app/replay"
	"github.com/vibast-solutions/ms-go-webhooks/app/repository"
	"github.com/vibast-solutions/ms-go-webhooks/app/service"
	"github.com/vibast-solutions/ms-go-webhooks/config"

	_ "github.com/go-sql-driver/mysql"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server that receives gateway webhooks and serves the admin read API.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, webhookService, cleanup := mustCreateWebhookService()
	defer cleanup()

	webhookController := controller.NewWebhookController(webhookService, cfg.Webhooks.ProcessingTimeout, cfg.App.ServiceName)

	e := setupHTTPServer(webhookController)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(webhookController *controller.WebhookController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", webhookController.Health)

	webhooks := e.Group("/webhooks/gateways")
	webhooks.Use(echomiddleware.BodyLimit("10M"))
	webhooks.POST("/:gateway", webhookController.HandleGatewayWebhook)

	transactions := e.Group("/transactions")
	transactions.GET("", webhookController.ListTransactions)
	transactions.GET("/:id", webhookController.GetTransaction)

	e.GET("/webhook-logs", webhookController.ListWebhookLogs)

	return e
}

func mustCreateWebhookService() (*config.Config, *service.WebhookService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	factory.ConfigureLogging(cfg.Log.Level)

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	store := repository.NewStore(db)

	gatewayRegistry := gateway.NewRegistry(
		gateway.NewPayU(gateway.PayUConfig{
			MerchantKey:  cfg.PayU.MerchantKey,
			MerchantSalt: cfg.PayU.MerchantSalt,
		}),
		gateway.NewEasebuzz(gateway.EasebuzzConfig{
			MerchantKey:  cfg.Easebuzz.MerchantKey,
			MerchantSalt: cfg.Easebuzz.MerchantSalt,
		}),
	)

	var redisClient *redis.Client
	var guard replay.Guard
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		guard = replay.NewRedisGuard(redisClient, cfg.Webhooks.ReplayWindow)
	} else {
		guard = replay.NewMemoryGuard(cfg.Webhooks.ReplayWindow)
	}

	var calc pricing.Calculator = pricing.Static{}
	if cfg.Pricing.BaseURL != "" {
		calc = pricing.NewClient(cfg.Pricing.BaseURL, cfg.Pricing.HTTPTimeout)
	}

	webhookService := service.NewWebhookService(
		store,
		gatewayRegistry,
		guard,
		calc,
		cfg.Webhooks,
		cfg.Notify,
		cfg.Sessions,
		factory.NewModuleLogger("webhooks-service"),
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close redis client")
			}
		}
	}

	return cfg, webhookService, cleanup
}
