package main

import (
	"fmt"
	"os"
	"time"

	"mess-management-api/config"
	"mess-management-api/migrations"
	"mess-management-api/services"
	"mess-management-api/store"

	"github.com/spf13/cobra"
)

func migrateCmd(configPath *string) *cobra.Command {
	var (
		dir   string
		steps int
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the versioned database schema",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Read migrations from this directory instead of the embedded set")

	run := func(action func(cfg *config.Config) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return action(cfg)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: run(func(cfg *config.Config) error {
				m, err := migrations.New(cfg.Database.Driver, cfg.Database.URL, dir)
				if err != nil {
					return err
				}
				defer migrations.Close(m)
				if err := migrations.Up(m); err != nil {
					return err
				}
				fmt.Println("Database migration complete")
				return nil
			}),
		},
		func() *cobra.Command {
			down := &cobra.Command{
				Use:   "down",
				Short: "Roll back migrations",
				RunE: run(func(cfg *config.Config) error {
					m, err := migrations.New(cfg.Database.Driver, cfg.Database.URL, dir)
					if err != nil {
						return err
					}
					defer migrations.Close(m)
					return migrations.Down(m, steps)
				}),
			}
			down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back (0 for all)")
			return down
		}(),
		&cobra.Command{
			Use:   "status",
			Short: "Show the applied schema version",
			RunE: run(func(cfg *config.Config) error {
				m, err := migrations.New(cfg.Database.Driver, cfg.Database.URL, dir)
				if err != nil {
					return err
				}
				defer migrations.Close(m)
				version, dirty, err := migrations.Status(m)
				if err != nil {
					return err
				}
				fmt.Printf("version %d (dirty: %t)\n", version, dirty)
				return nil
			}),
		},
	)
	return cmd
}

func cleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired sessions and activity logs past retention, once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := config.OpenDB(cfg.Database, log)
			if err != nil {
				return err
			}
			activity := services.NewActivityService(store.NewGormStore(db), cfg.Log.Retention, log, nil)
			res, err := activity.Cleanup(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d activity logs and %d sessions\n", res.ActivityLogs, res.Sessions)
			return nil
		},
	}
}

func createAdminCmd(configPath *string) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified admin account (password read from ADMIN_PASSWORD)",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv("ADMIN_PASSWORD")
			if password == "" {
				return fmt.Errorf("ADMIN_PASSWORD must be set")
			}
			cfg, log, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := config.OpenDB(cfg.Database, log)
			if err != nil {
				return err
			}
			st := store.NewGormStore(db)
			activity := services.NewActivityService(st, cfg.Log.Retention, log, nil)
			auth := services.NewAuthService(st, nil, activity, cfg.Auth.SessionDuration, log)

			admin, err := auth.CreateAdmin(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Admin %s created with id %d\n", admin.Email, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Admin", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
