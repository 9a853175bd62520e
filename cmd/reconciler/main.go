package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/geotsn/aggeliesergasias/config"
	"github.com/geotsn/aggeliesergasias/internal/payment"
	"github.com/geotsn/aggeliesergasias/internal/reconcile"
	"github.com/geotsn/aggeliesergasias/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "reconciler",
		Short:        "Activate premium listings whose payment went through",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $"+config.EnvConfigFile+")")

	root.AddCommand(
		newSweepCommand(&configPath),
		newWatchCommand(&configPath),
		newMigrateCommand(&configPath),
	)
	return root
}

// setup loads configuration and the logger shared by every subcommand.
func setup(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := config.InitLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newReconciler(ctx context.Context, cfg *config.Config) (*reconcile.Reconciler, func() error, error) {
	if err := cfg.RequireStripe(); err != nil {
		return nil, nil, err
	}
	s, closeStore, err := config.OpenStore(ctx, cfg, config.Log)
	if err != nil {
		return nil, nil, err
	}
	provider := payment.NewStripeProvider(cfg.StripeProviderConfig(), config.Log)
	return reconcile.New(s, provider, cfg.SweepConfig(), config.Log), closeStore, nil
}

func newSweepCommand(configPath *string) *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation sweep and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			rec, closeStore, err := newReconciler(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			summary, err := rec.Sweep(cmd.Context(), window)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().DurationVar(&window, "window", 0, "Look-back window (default reconcile.window)")
	return cmd
}

func newWatchCommand(configPath *string) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sweep periodically until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = cfg.Reconcile.Interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rec, closeStore, err := newReconciler(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			rec.Watch(ctx, interval)
			config.Log.Info("Reconciler shut down gracefully")
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between sweeps (default reconcile.interval)")
	return cmd
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(*configPath)
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.DriverPostgres {
				return errors.Newf("migrate needs store.driver=%s, got %q", config.DriverPostgres, cfg.Store.Driver)
			}

			db, err := store.OpenPostgres(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			config.Log.Info("Migrations applied")
			return nil
		},
	}
}
