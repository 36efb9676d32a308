package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vitalii2594/zip-password-app/internal/batch"
	"github.com/Vitalii2594/zip-password-app/internal/server"
	"github.com/Vitalii2594/zip-password-app/internal/store"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP archive service",
	Long: `Run the HTTP service.

Endpoints:
  POST /generate              multipart upload: "files" (one or more) and "password"
  GET  /download/{filename}   stream one archive; it is deleted after the transfer
  GET  /healthz               liveness probe
  GET  /metrics               Prometheus metrics

The listen port comes from PORT (default 3000) unless --port is given.`,
	Example: `  # Serve on the configured port
  zip-password-app serve

  # Serve on another port, keeping archives in S3
  zip-password-app serve --port 8080 --backend s3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	port, _ := cmd.Flags().GetString("port")
	if port == "" {
		port = cfg.Port
	}

	logger, err := newLogger("zip-server")
	if err != nil {
		utils.PrintError(cmd.ErrOrStderr(), err, "serve")
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cmd, logger)
	if err != nil {
		utils.PrintError(cmd.ErrOrStderr(), err, "serve")
		return err
	}
	builder, err := newBuilder()
	if err != nil {
		utils.PrintError(cmd.ErrOrStderr(), err, "serve")
		return err
	}

	orchestrator := &batch.Orchestrator{
		Builder: builder,
		Sink:    store.NewSink(st),
		Logger:  logger,
		Workers: cfg.BuildWorkers,
	}
	srv := server.New(orchestrator, st, logger, server.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RequestTimeout: cfg.RequestTimeout,
	})

	logger.Info("Starting zip-password-app",
		zap.String("port", port),
		zap.String("backend", st.Backend()),
		zap.String("location", st.Location()),
		zap.String("builder", builder.Name()),
		zap.Int("workers", cfg.BuildWorkers),
	)

	if err := srv.Run(ctx, ":"+port); err != nil {
		logger.Error("Server failure", zap.Error(err))
		utils.PrintError(cmd.ErrOrStderr(), err, "serve")
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Listen port (default: PORT from config)")
}
