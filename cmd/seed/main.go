package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/auth"
	"github.com/entoto-dev/site-attendance/backend/internal/config"
	"github.com/entoto-dev/site-attendance/backend/internal/database"
	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/logger"
	"github.com/entoto-dev/site-attendance/backend/internal/repository"
	"github.com/entoto-dev/site-attendance/backend/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds what every command needs once the database is reachable.
type App struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *sql.DB
	repo   *repository.Repository
	ctx    context.Context
	cancel context.CancelFunc
}

var app *App

func main() {
	var migrate bool

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the attendance database",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(migrate)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&migrate, "migrate", true, "apply pending migrations first")

	rootCmd.AddCommand(demoCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		closeApp()
		os.Exit(1)
	}
}

func initApp(migrate bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrate {
		if err := database.RunMigrations(db, log); err != nil {
			_ = db.Close()
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	app = &App{
		cfg:    cfg,
		log:    log,
		db:     db,
		repo:   repository.NewRepository(cfg, db),
		ctx:    ctx,
		cancel: cancel,
	}
	return nil
}

func closeApp() {
	if app == nil {
		return
	}
	app.cancel()
	_ = app.db.Close()
	_ = app.log.Sync()
	app = nil
}

func demoCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create sites and members from YAML (built-in demo data by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data *seed.Data
				err  error
			)
			if file == "" {
				data, err = seed.Demo()
			} else {
				var f *os.File
				f, err = os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open seed file: %w", err)
				}
				defer f.Close()
				data, err = seed.Load(f)
			}
			if err != nil {
				return err
			}

			created, err := seed.Apply(app.ctx, app.repo, data, app.log)
			if err != nil {
				return err
			}

			fmt.Printf("Seeded %d of %d sites\n", created, len(data.Sites))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file")

	return cmd
}

func adminCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create an admin, or reset its password if it exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			admin := &domain.Admin{Username: username, PasswordHash: hash}
			if err := app.repo.UpsertAdmin(app.ctx, admin); err != nil {
				return fmt.Errorf("failed to save admin: %w", err)
			}

			fmt.Printf("Admin %s saved (%s)\n", admin.Username, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "admin", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
