package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kiesman99/mapexport/internal/server"
	"github.com/kiesman99/mapexport/pkg/tile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the map export API",
	Long: `Start an HTTP server that provides a REST API for map exports, object
overlays, share links and signup validation.

Examples:
  # Start server on default port 8080
  mapexport serve

  # Start server on custom port
  mapexport serve --port 3000

  # Start server with custom bind address
  mapexport serve --bind 0.0.0.0 --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Int64("cache-size", 1024, "decoded tiles kept in memory (0 disables the cache)")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("tiles.cache_size", serveCmd.Flags().Lookup("cache-size"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var fetcher tile.Fetcher = newFetcher(cfg)
	if cfg.Tiles.CacheSize > 0 {
		cache := tile.NewCachedFetcher(fetcher, cfg.Tiles.CacheSize, cfg.Tiles.CacheTTL)
		defer cache.Close()
		fetcher = cache
	}

	apiServer := server.NewServer(version, cfg, fetcher, logger)

	addr := cfg.Server.Addr()
	httpServer := &http.Server{
		Addr:        addr,
		Handler:     server.NewRouter(apiServer, cfg.Server.Timeout, logger),
		ReadTimeout: cfg.Server.Timeout,
		// exports may run up to the request timeout before writing
		WriteTimeout: cfg.Server.Timeout + 5*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("Starting mapexport server",
		zap.String("addr", addr),
		zap.String("version", version),
		zap.String("health", fmt.Sprintf("http://%s/api/v1/health", addr)),
		zap.String("export", fmt.Sprintf("http://%s/api/v1/export", addr)),
		zap.String("tiles", cfg.Tiles.URL))

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
