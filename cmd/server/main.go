// Command server runs the OfferDesk HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dharsanguruparan/OfferDesk/internal/config"
	"github.com/dharsanguruparan/OfferDesk/internal/server"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "offerdesk: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "offerdesk: load config: %v\n", err)
		os.Exit(1)
	}
	logger := server.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("init server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	if err := srv.Serve(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		srv.Close()
		os.Exit(1)
	}
	logger.Info("server stopped")
}
