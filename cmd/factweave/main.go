package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "factweave",
	Short: "factweave generates fact-checked articles through an iterative writer/judge loop",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "factweave.yml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, generateCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the factweave version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Printf("factweave %s\n", version)
	},
}

// setupLogging installs a text slog handler at the configured level.
func setupLogging(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return logger
}
