package main

import (
	"errors"
	"os"

	"call-bridge/internal/observability"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	envFile string
	logger  *observability.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "extract",
	Short: "Offline tools for post-call extraction",
	Long: `Offline tools for the call bridge's post-call extraction.

Quick Start:
  extract run --transcript call.txt              # extract and print the result
  extract run --transcript call.txt --deliver    # also post it to WEBHOOK_URL
  extract events --brokers localhost:9092        # follow call lifecycle events`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		level := zapcore.WarnLevel
		if verbose {
			level = zapcore.DebugLevel
		}
		encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		logger = observability.NewLoggerWithCore(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "env.local", "Environment file to load if present")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(eventsCmd)
}
