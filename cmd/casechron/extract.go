package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/casechron/casechron/internal/bookmarks"
	"github.com/casechron/casechron/internal/config"
	"github.com/casechron/casechron/internal/extract"
	"github.com/casechron/casechron/internal/pdfport"
	"github.com/casechron/casechron/internal/prompts"
	"github.com/casechron/casechron/internal/providers"
)

var (
	outputPath   string
	providerName string
)

var extractCmd = &cobra.Command{
	Use:   "extract <case.pdf>",
	Short: "Extract a medical chronology from a case-file PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.OnChange(func(*config.Config) {
			logger.Info("config file changed, changes apply to the next run")
		})
		cm.WatchConfig()
		cfg := cm.Get()

		doc, err := pdfport.Open(args[0], logger)
		if err != nil {
			return err
		}

		segments, err := bookmarks.Extract(args[0], doc.PageCount(), logger)
		if err != nil {
			return err
		}

		model, err := buildProvider(cfg)
		if err != nil {
			return err
		}

		store, err := prompts.NewStore(cfg.Prompts.OverrideDir, logger)
		if err != nil {
			return err
		}

		ex := cfg.Extraction
		parser := extract.NewParser(logger)
		retrier := extract.NewRetrier(extract.RetryConfig{
			MaxAttempts: uint(ex.RetryMaxAttempts),
			BaseDelay:   time.Duration(ex.RetryBaseDelayMS) * time.Millisecond,
			Jitter:      true,
		}, nil, logger)

		text := extract.NewTextStrategy(model, store, parser, retrier, ex.MaxChunkChars, logger)
		vision := extract.NewVisionStrategy(model, doc, store, parser, retrier, ex.RenderDPI, logger)
		recovery := extract.NewRecoveryPass(vision, ex.MaxRecoveryPages, logger)

		scheduler, err := extract.NewScheduler(extract.SchedulerConfig{
			Pdf:           doc,
			Router:        extract.NewRouter(ex.MinCharsPerPage),
			Text:          text,
			Vision:        vision,
			Recovery:      recovery,
			Citations:     extract.NewCitationResolver(logger),
			MaxConcurrent: ex.MaxConcurrent,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		results := scheduler.Run(cmd.Context(), segments)

		out, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}

		if outputPath == "" || outputPath == "-" {
			fmt.Println(string(out))
			return nil
		}
		if err := os.WriteFile(outputPath, out, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		logger.Info("wrote chronology", "path", outputPath, "segments", len(results))
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml to the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "-", "output path for the chronology JSON (- for stdout)")
	extractCmd.Flags().StringVar(&providerName, "provider", "", "provider to use (overrides defaults.provider)")
}

// buildProvider constructs the configured ModelPort.
func buildProvider(cfg *config.Config) (providers.ModelPort, error) {
	name := providerName
	if name == "" {
		name = cfg.Defaults.Provider
	}
	pc, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	if !pc.Enabled {
		return nil, fmt.Errorf("provider %q is disabled", name)
	}

	apiKey := config.ResolveEnvVars(pc.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("provider %q has no API key configured", name)
	}
	timeout := time.Duration(pc.TimeoutSec) * time.Second

	switch pc.Type {
	case "openrouter":
		return providers.NewOpenRouterClient(providers.OpenRouterConfig{
			APIKey:      apiKey,
			TextModel:   pc.TextModel,
			VisionModel: pc.VisionModel,
			Temperature: pc.Temperature,
			MaxTokens:   pc.MaxTokens,
			Timeout:     timeout,
			RPM:         pc.RateLimit,
		}), nil
	case "openai":
		return providers.NewOpenAIClient(providers.OpenAIConfig{
			APIKey:      apiKey,
			TextModel:   pc.TextModel,
			VisionModel: pc.VisionModel,
			Temperature: pc.Temperature,
			MaxTokens:   pc.MaxTokens,
			Timeout:     timeout,
			RPM:         pc.RateLimit,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", pc.Type)
	}
}
