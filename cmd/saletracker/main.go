package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lefty3382/Filson-Sale-Tracker/config"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/domain"
	"github.com/lefty3382/Filson-Sale-Tracker/internal/infrastructure/storage"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand once the config is loaded
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "saletracker",
		Short:         "saletracker scrapes storefront sale listings and reports discounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: config.yaml in ., ./config or /etc/saletracker)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newScrapeCmd(a),
		newDiscountsCmd(a),
		newItemsCmd(a),
		newHistoryCmd(a),
		newSearchCmd(a),
		newStatsCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) openStore(ctx context.Context) (domain.ProductRepository, error) {
	db := a.cfg.Database
	store, err := storage.Open(ctx, storage.Config{
		Driver:   db.Driver,
		Path:     db.Path,
		DSN:      db.DSN,
		MaxConns: db.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", db.Driver, err)
	}
	return store, nil
}

// newLogger builds the process logger: tint for text output, slog's JSON
// handler otherwise
func newLogger(cfg config.LoggingConfig, verbose bool) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
