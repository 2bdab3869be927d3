/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the cash ledger API server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment / .env
  2. Initialize SQLite store
  3. Wire ledger service and API handler
  4. Configure HTTP router
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  DB_PATH=./data/ledger.db ./server

  # Run with in-memory database
  DB_PATH=":memory:" ./server

  # Run on a different port
  ADDR=":3000" ./server

SEE ALSO:
  - config/config.go: Environment configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jonnhyortega/controlia-software-sub001/api"
	"github.com/Jonnhyortega/controlia-software-sub001/config"
	"github.com/Jonnhyortega/controlia-software-sub001/ledger"
	"github.com/Jonnhyortega/controlia-software-sub001/logger"
	"github.com/Jonnhyortega/controlia-software-sub001/store/sqlite"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("Failed to initialize database")
	}
	defer store.Close()

	service := ledger.NewService(store, log)
	handler := api.NewHandler(service, log)
	router := api.NewRouter(handler, api.RouterConfig{AllowedOrigins: cfg.CORSOrigins})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
