package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wmaslo/testgenerator/internal/bank"
	"github.com/wmaslo/testgenerator/internal/bank/sqlite"
	"github.com/wmaslo/testgenerator/internal/config"
	"github.com/wmaslo/testgenerator/internal/httpapi"
	"github.com/wmaslo/testgenerator/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	store, err := sqlite.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.Database.Path).Msg("open database")
	}
	defer store.Close()

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		log.Error().Err(err).Str("addr", cfg.Server.Addr).Msg("listen")
		return
	}

	server := &http.Server{
		Handler:           httpapi.NewRouter(bank.NewService(store), log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", listener.Addr().String()).Str("db", cfg.Database.Path).Msg("testbank-service listening")
	if err := serve(ctx, server, listener, time.Duration(cfg.Server.ShutdownTimeout)*time.Second); err != nil {
		log.Error().Err(err).Msg("server failed")
		return
	}
	log.Info().Msg("testbank-service stopped")
}

// serve runs server on listener until ctx is done, then shuts it down. It
// returns only after in-flight requests have finished or timeout expired, so
// the caller may close the store afterwards.
func serve(ctx context.Context, server *http.Server, listener net.Listener, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
