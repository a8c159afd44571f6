// Package main is the command-line front end: take the survey, browse the
// catalog with predictions, and check the prediction service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"movie-dropoff/internal/app"
	"movie-dropoff/internal/common/config"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/session"
)

var rootCmd = &cobra.Command{
	Use:          "dropoffctl",
	Short:        "Movie dropoff survey and catalog client",
	Long:         "Collects the viewing-habits survey, stores the normalized feature vector and lists movies with completion estimates from the prediction service.",
	SilenceUsage: true,
}

var (
	configFile string
	ephemeral  bool
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep session data in memory instead of redis")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for diagnostics on stderr")
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.Load()
}

// setup loads config and wires the app. The caller closes the app.
func setup(ctx context.Context) (*app.App, logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewStructured(logLevel, "console")

	var opts []app.Option
	if ephemeral {
		opts = append(opts, app.WithStore(session.NewMemoryStore()))
	}
	a, err := app.New(ctx, cfg, log, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
