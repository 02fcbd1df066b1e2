package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/wmaslo/testgenerator/internal/bank/sqlite"
	"github.com/wmaslo/testgenerator/internal/config"
	"github.com/wmaslo/testgenerator/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	seed := flag.Bool("seed", false, "insert the demo topics and questions")
	flag.Parse()

	if err := run(*configPath, *dbPath, *seed); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run creates the schema and optionally the demo data. Both steps can be
// repeated on an existing database.
func run(configPath, dbPath string, seed bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	store, err := sqlite.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if seed {
		if err := store.SeedDemoData(context.Background()); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}
	log.Info().Str("db", cfg.Database.Path).Bool("seeded", seed).Msg("database ready")
	return nil
}
