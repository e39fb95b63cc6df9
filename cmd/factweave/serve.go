package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/factweave/factweave"
	"github.com/factweave/factweave/config"
	"github.com/factweave/factweave/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the factweave HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServer()
	},
}

func runServer() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg.Log.Level)

	fw, err := factweave.New(cfg)
	if err != nil {
		return err
	}
	logger.Info("model ready",
		"provider", fw.ModelInfo().Provider,
		"model", fw.ModelInfo().Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := server.NewHandler(server.Deps{
		Jobs:   fw.Registry(),
		Token:  cfg.Server.APIToken,
		Logger: logger,
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
