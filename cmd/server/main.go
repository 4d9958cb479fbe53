package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/heirclark/nutricoach/internal/auth"
	"github.com/heirclark/nutricoach/internal/config"
	"github.com/heirclark/nutricoach/internal/costcontrol"
	"github.com/heirclark/nutricoach/internal/database"
	"github.com/heirclark/nutricoach/internal/ml"
	"github.com/heirclark/nutricoach/internal/server"
)

var version = "dev"

func main() {
	// A missing .env is fine; the config layer falls back to real env vars.
	_ = godotenv.Load()

	var configPath string
	var mlConfigPath string

	rootCmd := &cobra.Command{
		Use:   "nutricoach",
		Short: "Nutrition and TDEE tracking backend",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.GetConfigPath(), "path to configuration file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			db, err := database.Open(cfg.Database.Driver, cfg.Database.Path, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			model, err := ml.NewModel(cfg.ML.Type, mlConfigPath)
			if err != nil {
				return fmt.Errorf("failed to create ML model: %w", err)
			}
			if err := model.Load(context.Background()); err != nil {
				return fmt.Errorf("failed to load ML model: %w", err)
			}

			authSvc, err := auth.NewService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
			if err != nil {
				return fmt.Errorf("failed to initialize auth: %w", err)
			}
			spend := costcontrol.NewService(db, cfg.LLM.DailyCostLimit)

			srv := server.New(db, model, authSvc, spend, cfg.Server.Debug)
			return srv.Start(cfg.Server.Port)
		},
	}
	serveCmd.Flags().StringVar(&mlConfigPath, "ml-config", "", "path to model configuration file")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			db, err := database.Open(cfg.Database.Driver, cfg.Database.Path, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()
			log.Println("Migrations applied")
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
