package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"call-bridge/internal/bootstrap"
	"call-bridge/internal/config"
	"call-bridge/internal/extraction"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	transcriptPath string
	provider       string
	model          string
	outputFormat   string
	deliver        bool
	timeout        time.Duration
)

// runCmd runs the extraction pipeline over a saved transcript
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract customer details from a transcript file",
	Long: `Run the post-call extraction over a transcript file with one
"Caller: ..." or "Agent: ..." line per utterance. Use "-" to read stdin.

The provider key comes from OPENAI_API_KEY or GOOGLE_AI_API_KEY. With
--deliver the result is also posted to WEBHOOK_URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transcript, err := readTranscript(cmd.InOrStdin(), transcriptPath)
		if err != nil {
			return err
		}

		cfg, err := extractionConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		extractor, closeExtractor, err := bootstrap.NewExtractor(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeExtractor()

		var sink extraction.Sink = discardSink{}
		if deliver {
			url := os.Getenv("WEBHOOK_URL")
			if url == "" {
				return fmt.Errorf("WEBHOOK_URL is not set: %w", config.ErrEmptyEnvironmentVariable)
			}
			sink = extraction.NewWebhookSink(url, timeout, logger)
		}

		pipeline := extraction.NewPipeline(extractor, sink, timeout, logger)
		result, err := pipeline.Run(ctx, "offline", transcript)
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), result, outputFormat)
	},
}

func init() {
	runCmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "Transcript file, or - for stdin")
	runCmd.Flags().StringVar(&provider, "provider", "", "Extraction provider: openai or gemini (default from EXTRACTION_PROVIDER)")
	runCmd.Flags().StringVar(&model, "model", "", "Model override")
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	runCmd.Flags().BoolVar(&deliver, "deliver", false, "Post the result to WEBHOOK_URL")
	runCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Extraction and delivery timeout")
	_ = runCmd.MarkFlagRequired("transcript")
}

// discardSink keeps the result local when delivery is off.
type discardSink struct{}

func (discardSink) Deliver(ctx context.Context, result extraction.Result) error {
	return nil
}

func readTranscript(stdin io.Reader, path string) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func extractionConfig() (config.ExtractionConfig, error) {
	cfg := config.ExtractionConfig{Provider: provider, Model: model, Timeout: timeout}
	if cfg.Provider == "" {
		cfg.Provider = os.Getenv("EXTRACTION_PROVIDER")
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}

	keyVar, defaultModel := "OPENAI_API_KEY", "gpt-4o-mini"
	if cfg.Provider == "gemini" {
		keyVar, defaultModel = "GOOGLE_AI_API_KEY", "gemini-1.5-flash"
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv("EXTRACTION_MODEL")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	cfg.APIKey = os.Getenv(keyVar)
	if cfg.APIKey == "" {
		return config.ExtractionConfig{}, fmt.Errorf("%s is not set: %w", keyVar, config.ErrEmptyEnvironmentVariable)
	}
	return cfg, nil
}

func writeResult(w io.Writer, result extraction.Result, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
