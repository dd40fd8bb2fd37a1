package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/lib"
	"github.com/theleywin/SyncRivo-Registry/src/middleware"
	"github.com/theleywin/SyncRivo-Registry/src/registry"
	"github.com/theleywin/SyncRivo-Registry/src/routes"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations, then serve the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the connections indexes (or table) and exit",
	RunE:  runMigrate,
}

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Mint an API token signed with JWT_SECRET",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP listen port")
	serveCmd.Flags().String("update-validation", "", "update validation policy: lenient or strict")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := registry.ParseUpdatePolicy(cfg.UpdateValidation)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := lib.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			logger.Warn("error closing store", zap.Error(err))
		}
	}()

	if err := lib.AutoMigrate(ctx, s, logger); err != nil {
		return err
	}

	metrics := middleware.NewMetrics()
	reg := registry.New(s, registry.Options{
		UpdatePolicy: policy,
		Logger:       logger,
		Observer:     metrics,
	})
	app := routes.NewApp(routes.AppConfig{
		Registry:    reg,
		Logger:      logger,
		Metrics:     metrics,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is running",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.String("update_validation", string(policy)),
			zap.Bool("auth", cfg.JWTSecret != ""))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()

	s, err := lib.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			logger.Warn("error closing store", zap.Error(err))
		}
	}()

	return lib.AutoMigrate(ctx, s, logger)
}

func runToken(cmd *cobra.Command, args []string) error {
	ttl, err := cmd.Flags().GetDuration("ttl")
	if err != nil {
		return err
	}
	token, err := lib.GenerateJWT(cfg.JWTSecret, args[0], ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
