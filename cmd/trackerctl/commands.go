package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/config"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/storage"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

type options struct {
	snapshotPath string
	asJSON       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "trackerctl",
		Short: "Inspect supplier reliability state",
		Long: `trackerctl loads the persisted supplier state (from DATABASE_URL, or from a
snapshot file written by "trackerctl export") into a read-only tracker and prints
rankings, tiers, reports, blacklist entries and recent incidents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.snapshotPath, "snapshot", "", "Read state from a snapshot file instead of the database")

	rankings := &cobra.Command{
		Use:   "rankings",
		Short: "Suppliers ordered by composite score",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), tr.GetSupplierRankings())
			}
			renderRankings(cmd.OutOrStdout(), tr.GetSupplierRankings())
			return nil
		},
	}
	rankings.Flags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")

	tiers := &cobra.Command{
		Use:   "tiers",
		Short: "Suppliers grouped into elite, good and poor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tr.GetSuppliersByTier())
		},
	}

	report := &cobra.Command{
		Use:   "report <supplier-id>",
		Short: "Full report for one supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			r := tr.GetSupplierReport(args[0])
			if r == nil {
				return &tracker.NotFoundError{SupplierID: args[0]}
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}

	blacklist := &cobra.Command{
		Use:   "blacklist",
		Short: "Active blacklist entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tr.ListBlacklistEntries())
		},
	}

	var supplierID string
	var days int
	incidents := &cobra.Command{
		Use:   "incidents",
		Short: "Recent incidents, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tr.GetRecentIncidents(supplierID, days))
		},
	}
	incidents.Flags().StringVar(&supplierID, "supplier", "", "Only this supplier (default all)")
	incidents.Flags().IntVar(&days, "days", 7, "Look-back window in days")

	export := &cobra.Command{
		Use:   "export",
		Short: "Write the full tracker state as a snapshot file to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tr.Snapshot())
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			pool, err := storage.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := storage.RunMigrations(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	root.AddCommand(rankings, tiers, report, blacklist, incidents, export, migrate)
	return root
}

// load builds a tracker without a store, so nothing the CLI does is written back.
func (o *options) load(ctx context.Context) (*tracker.Tracker, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	snap, err := o.snapshot(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return tracker.New(cfg.Tracker, tracker.WithSnapshot(snap))
}

func (o *options) snapshot(ctx context.Context, cfg config.Config) (tracker.Snapshot, error) {
	var snap tracker.Snapshot
	if o.snapshotPath != "" {
		body, err := os.ReadFile(o.snapshotPath)
		if err != nil {
			return snap, fmt.Errorf("read snapshot: %w", err)
		}
		if err := json.Unmarshal(body, &snap); err != nil {
			return snap, fmt.Errorf("decode snapshot %s: %w", o.snapshotPath, err)
		}
		return snap, nil
	}

	if cfg.DatabaseURL == "" {
		return snap, errors.New("DATABASE_URL is required (or pass --snapshot)")
	}
	pool, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return snap, err
	}
	defer pool.Close()
	return storage.NewRepository(pool).LoadSnapshot(ctx, cfg.Tracker.IncidentRetention)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
