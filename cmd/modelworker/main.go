package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"modelworker/internal/config"
	"modelworker/internal/logging"
	"modelworker/internal/runtime"
	"modelworker/internal/s3client"
	"modelworker/internal/syncer"
	"modelworker/internal/worker"
)

var (
	portFlag  int
	syncFlag  bool
	quietFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelworker",
		Short: "Serverless inference worker that mirrors model artifacts from an S3-compatible bucket",
		RunE:  runWorker,
	}

	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Listen port (overrides WORKER_PORT)")
	rootCmd.Flags().BoolVar(&syncFlag, "sync", false, "Sync the model bucket before serving")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-error output")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the configured bucket into the local model directory and exit",
		RunE:  runSync,
	}
	rootCmd.AddCommand(syncCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	cfg := config.Load()
	if portFlag > 0 {
		cfg.Port = portFlag
	}
	if syncFlag {
		cfg.SyncOnStart = true
	}
	if quietFlag {
		cfg.LogLevel = "error"
	}
	return cfg
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Starting serverless worker")

	w := worker.New(cfg, logger)
	readiness := w.Initialize(ctx)
	fmt.Printf("Initialization result: status=%s model_path=%s\n", readiness.Status, readiness.ModelPath)

	srv := runtime.New(cfg.Port, func(job runtime.Job) any {
		return w.HandleJob(worker.Job(job))
	}, readiness, logger)

	return srv.Serve(ctx)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := s3client.NewAWSClient(ctx, s3client.Options{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
	if err != nil {
		return fmt.Errorf("create object store client: %w", err)
	}

	s := syncer.New(client, cfg.Bucket, cfg.Endpoint, cfg.ModelPath, logger,
		syncer.WithProgress(func(key string, transferred, total int64) {
			if transferred == total {
				logger.Debug().Str("key", key).Int64("bytes", transferred).Msg("transfer complete")
			}
		}),
	)

	summary := s.Sync(ctx)
	fmt.Printf("Sync %s: %d total, %d downloaded, %d already present, %d failed\n",
		summary.Outcome, summary.TotalFiles, summary.Downloaded, summary.AlreadyPresent, summary.Failed)

	if !summary.OK() {
		return fmt.Errorf("sync did not complete cleanly (%s, %d failures)", summary.Outcome, summary.Failed)
	}
	return nil
}
