package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/casechron/casechron/version"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "casechron",
	Short: "Medical chronology extraction from scanned case files",
	Long: `Casechron extracts a chronological timeline of medical events from large,
heterogeneous scanned or text PDF case files.

The pipeline includes:
  - Exhibit segmentation from PDF bookmarks
  - Text-vs-vision routing by page text density
  - Paragraph-aware chunking of oversized exhibits
  - Repair of truncated model output
  - A vision-based recovery pass for low-detail entries`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.casechron/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn, error",
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel)
	}

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging configures the process-wide slog default.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
