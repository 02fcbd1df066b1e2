package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/wmaslo/testgenerator/internal/bank/sqlite"
	"github.com/wmaslo/testgenerator/internal/config"
	"github.com/wmaslo/testgenerator/internal/importer"
	"github.com/wmaslo/testgenerator/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	file := flag.String("file", "Fragenkatalog.txt", "semicolon separated catalog: id;question;topic;points")
	flag.Parse()

	if err := run(*configPath, *dbPath, *file); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, dbPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	log := logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty, Output: os.Stderr})

	in, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer in.Close()

	store, err := sqlite.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := importer.Run(context.Background(), store, in, os.Stdout, log)
	if err != nil {
		return err
	}
	log.Debug().Int("imported", result.Imported).Int("skipped", result.Skipped).Str("file", file).Msg("import finished")
	return nil
}
