package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/todo/internal/config"
	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/logging"
	"github.com/tgienger/todo/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("todo %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}

	// The terminal belongs to the UI, so logs go to a file in the data dir
	logger, err := logging.Open(cfg.DataDir, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.Info("starting", "version", version, "data_dir", cfg.DataDir, "config", cfg.ConfigFile)

	// Initialize storage
	database, err := db.New(db.Options{
		Dir:             cfg.DataDir,
		PasswordStorage: db.PasswordStorage(cfg.PasswordStorage),
		BcryptCost:      cfg.BcryptCost,
		BackupRetention: time.Duration(cfg.BackupRetentionDays) * 24 * time.Hour,
		DueSoonDays:     cfg.DueSoonDays,
		Logger:          logger.Logger,
	})
	if err != nil {
		logger.Error("open data dir", "err", err)
		fmt.Fprintf(os.Stderr, "Error initializing storage: %v\n", err)
		logger.Close()
		os.Exit(1)
	}

	// Create and run the application
	app := ui.NewApp(database, logger.Logger)
	p := tea.NewProgram(app, tea.WithAltScreen())

	_, err = p.Run()
	database.Close()
	if err != nil {
		logger.Error("ui stopped", "err", err)
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		logger.Close()
		os.Exit(1)
	}
	logger.Info("exiting")
}
