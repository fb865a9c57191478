// Package main provides the entry point for rebuilding point-in-time snapshots.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/one-spear/internal/config"
	"github.com/yourusername/one-spear/internal/logger"
	"github.com/yourusername/one-spear/internal/metrics"
	"github.com/yourusername/one-spear/internal/models"
	"github.com/yourusername/one-spear/internal/service"
)

var (
	configFile string
	persist    bool
	extended   bool
	appLog     *logrus.Logger
	cfg        *config.Config
	container  *service.Container
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().BoolVar(&persist, "persist", false, "Replace the stored snapshots in Postgres")
	rootCmd.Flags().BoolVar(&extended, "extended", true, "Also build pairing and popularity snapshots")
}

var rootCmd = &cobra.Command{
	Use:          "build-snapshots",
	Short:        "Rebuild point-in-time entity statistics",
	Long:         `Aggregates every finished performance into per-entity snapshots dated the day after each race.`,
	SilenceUsage: true,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cmd.Flags().Changed("persist") {
			cfg.Snapshot.Persist = persist
		}
		if cmd.Flags().Changed("extended") {
			cfg.Snapshot.ExtendedKinds = extended
		}
		if err := config.ApplySecretsFromEnv(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		appLog = logger.NewLogger(cfg.App.LogLevel)
		logger.SetFormat(appLog, cfg.App.LogFormat)
		metrics.InitRegistry()

		container, err = service.NewContainer(cmd.Context(), cfg, appLog)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer container.Close()

		result, err := container.Snapshots.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printResult(result *service.RefreshResult) {
	fmt.Printf("Performances read: %d\n", result.Rows)
	fmt.Printf("Snapshots built:   %d\n", result.Snapshots)
	fmt.Printf("Duration:          %s\n", result.Duration)
	if result.ByKind == nil {
		fmt.Println("Persistence:       disabled")
		return
	}

	fmt.Printf("Persisted:         %d\n", result.Persisted)
	kinds := make([]models.EntityKind, 0, len(result.ByKind))
	for kind := range result.ByKind {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, kind := range kinds {
		fmt.Printf("  %-16s %d\n", kind, result.ByKind[kind])
	}
}
