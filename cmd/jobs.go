package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibast-solutions/ms-go-webhooks/app/service"
	"github.com/vibast-solutions/ms-go-webhooks/config"
)

var (
	workerMode bool
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Run downstream notification commands",
}

var notifyDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch pending terminal-status notifications to the checkout service",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"notify_dispatch",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.NotifyDispatchInterval },
			func(s *service.WebhookService, ctx context.Context) error {
				return s.RunDispatchNotificationsBatch(ctx)
			},
		)
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Run guest checkout session commands",
}

var sessionsExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Expire guest checkout sessions that outlived their TTL",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"sessions_expire",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ExpireSessionsInterval },
			func(s *service.WebhookService, ctx context.Context) error {
				return s.RunExpireSessionsBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(sessionsCmd)
	notifyCmd.AddCommand(notifyDispatchCmd)
	sessionsCmd.AddCommand(sessionsExpireCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.WebhookService, ctx context.Context) error,
) {
	cfg, webhookService, cleanup := mustCreateWebhookService()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(cfg), webhookService, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() error { return fn(webhookService, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	webhookService *service.WebhookService,
	fn func(s *service.WebhookService, ctx context.Context) error,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() error { return fn(webhookService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() error { return fn(webhookService, ctx) })
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	latency := time.Since(start)
	if err != nil {
		logrus.WithError(err).WithField("job", name).WithField("latency", latency.String()).Error("job_failed")
		return
	}
	logrus.WithField("job", name).WithField("latency", latency.String()).Info("job_completed")
}
