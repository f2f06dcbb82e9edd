package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/surveyflow/internal/core/api"
	"github.com/solatis/surveyflow/internal/core/httpapi"
	"github.com/solatis/surveyflow/internal/core/server"
	"github.com/solatis/surveyflow/internal/logic"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP logic services",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("grpc-port", 50051, "gRPC server port")
	serveCmd.Flags().Int("http-port", 8080, "HTTP server port (0 disables HTTP)")
	serveCmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, closer, err := setup(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("grpc-port") {
		cfg.Server.GRPCPort, _ = cmd.Flags().GetInt("grpc-port")
	}
	if cmd.Flags().Changed("http-port") {
		cfg.Server.HTTPPort, _ = cmd.Flags().GetInt("http-port")
	}
	migrate, _ := cmd.Flags().GetBool("migrate")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, store, err := openStore(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer database.Close()

	service, err := api.NewLogicService(store, logic.NewEngine(), &cfg.Engine, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Server, service, logger)
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}

	var httpServer *httpapi.Server
	if cfg.Server.HTTPPort > 0 {
		httpServer, err = httpapi.NewServer(&cfg.Server, service, logger)
		if err != nil {
			return fmt.Errorf("failed to create HTTP server: %w", err)
		}
	}

	logger.Info("starting surveyflow",
		"version", Version,
		"host", cfg.Server.Host,
		"grpc_port", cfg.Server.GRPCPort,
		"http_port", cfg.Server.HTTPPort,
	)

	errChan := make(chan error, 2)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()
	if httpServer != nil {
		go func() {
			errChan <- httpServer.Start(ctx)
		}()
	}

	var serveErr error
	select {
	case serveErr = <-errChan:
		logger.Error("server stopped unexpectedly", "error", serveErr)
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
	}

	// Shutdown gets a fresh context: ctx is already cancelled by the signal.
	shutdownCtx := context.Background()
	var shutdownErr error
	if httpServer != nil {
		shutdownErr = httpServer.Shutdown(shutdownCtx)
	}
	shutdownErr = errors.Join(shutdownErr, grpcServer.Shutdown(shutdownCtx))

	return errors.Join(serveErr, shutdownErr)
}
