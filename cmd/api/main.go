package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tustunkok/pc-link/internal/pkg/logger"
	"github.com/tustunkok/pc-link/internal/server"
)

// @title PC-Link API
// @version 1.0
// @description Program outcome tracking: outcome file uploads, reports and differences between semester groups

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	if err := run(context.Background()); err != nil {
		logger.Error().Err(err).Msg("PC-Link API stopped with an error")
		os.Exit(1)
	}
	logger.Info().Msg("PC-Link API stopped")
}

// run blocks until SIGINT/SIGTERM or until the HTTP server or the report
// workers fail
func run(ctx context.Context) error {
	srv, err := server.NewServer(ctx, server.ConfigPath())
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	return srv.Run(ctx)
}
