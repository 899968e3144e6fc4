package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/app/bootstrap"
)

// openRuntime builds the runtime without applying migrations so that only
// the migrate command touches the schema.
func openRuntime(ctx context.Context, configPath string) (*bootstrap.Runtime, error) {
	cfg, err := bootstrap.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg.RunMigrationsOnStart = false
	return bootstrap.NewRuntimeFromConfig(ctx, cfg)
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			names, err := rt.Migrate(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}

func sweepExpiredCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-expired",
		Short: "Persist the expired status of executed leases past their end date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			res, err := rt.SweepExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d expired=%d skipped=%d\n", res.Scanned, res.Expired, res.Skipped)
			return nil
		},
	}
}

func purgeCmd(configPath *string) *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "purge LEASE_ID",
		Short: "Permanently delete a lease (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			if err := rt.Purge(ctx, actor, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&actor, "as", "", "id of the admin user performing the purge")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func relayOutboxCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "relay-outbox",
		Short: "Publish one batch of pending lease events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			res, err := rt.RelayOutbox(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published=%d failed=%d\n", res.Published, res.Failed)
			return nil
		},
	}
}

func seedDirectoryCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-directory FILE",
		Short: "Upsert users and properties from a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)
			res, err := rt.SeedDirectory(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users=%d properties=%d\n", res.Users, res.Properties)
			return nil
		},
	}
}
