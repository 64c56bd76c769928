package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/webinar-impact/webinar-impact/internal/config"
	"github.com/webinar-impact/webinar-impact/internal/logger"
)

var (
	dbPath string
	cfg    *config.Config
	log    = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "wia",
	Short: "Webinar Impact Analyzer - measure what webinars do for your stores",
	Long: `webinar-impact compares stores that attended webinars against the rest
of the store base: conversion to first sale, GMV and seller status evolution.

Import a webinar export and a store roster, then analyze them from the
terminal or the dashboard.

Running without a subcommand starts the server (same as 'wia serve').`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("WIA_DB_PATH", "./wia.db"), "database path")
}

// loadConfig reads the environment and .env file. Flags set on the command
// line win over configured values.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	cfg = c

	if !cmd.Flags().Changed("db") {
		dbPath = cfg.DBPath
	}
	log = logger.New(logger.Options{
		ServiceName: "wia",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
		Output:      os.Stderr,
	})
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
