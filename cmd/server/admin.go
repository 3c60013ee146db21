package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/config"
	"github.com/Skotchmaster/storefront/pkg/db"
)

func openStore(ctx context.Context) (*repo.GormRepo, func(), error) {
	cfg := config.Load()
	if err := config.NonEmpty(cfg.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, nil, err
	}
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return &repo.GormRepo{DB: gdb}, func() { _ = db.Close(gdb) }, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := contextOrBackground(cmd.Context())
			store, closeFn, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := store.AutoMigrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newGrantAdminCmd() *cobra.Command {
	var (
		email  string
		revoke bool
	)
	cmd := &cobra.Command{
		Use:   "grant-admin",
		Short: "Give an existing user the admin flag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := contextOrBackground(cmd.Context())
			store, closeFn, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			svc := &service.AuthService{Repo: store}
			if err := svc.GrantAdmin(ctx, email, !revoke); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin=%t for %s\n", !revoke, email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the admin flag instead")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
