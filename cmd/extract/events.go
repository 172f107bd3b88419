package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"call-bridge/internal/clients/kafka"

	"github.com/spf13/cobra"
)

var (
	brokers    string
	topic      string
	groupID    string
	eventTypes []string
)

// eventsCmd follows the call lifecycle topic
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print call lifecycle events from Kafka",
	Long: `Follow the call events topic and print one JSON line per event.
Stops on Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if brokers == "" {
			brokers = os.Getenv("KAFKA_BROKERS")
		}
		if brokers == "" {
			return errors.New("no brokers: pass --brokers or set KAFKA_BROKERS")
		}

		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   topic,
			GroupID: groupID,
		}, logger)
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err := consumer.ConsumeEvents(ctx, printEvents(cmd.OutOrStdout(), eventTypes))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	eventsCmd.Flags().StringVar(&brokers, "brokers", "", "Comma-separated Kafka brokers (default from KAFKA_BROKERS)")
	eventsCmd.Flags().StringVar(&topic, "topic", "call-events", "Call events topic")
	eventsCmd.Flags().StringVar(&groupID, "group", "call-bridge-cli", "Consumer group")
	eventsCmd.Flags().StringSliceVar(&eventTypes, "type", nil, "Only print these event types")
}

// printEvents writes each matching event as a JSON line.
func printEvents(w io.Writer, types []string) func(context.Context, kafka.CallEvent) error {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	enc := json.NewEncoder(w)

	return func(ctx context.Context, event kafka.CallEvent) error {
		if len(wanted) > 0 && !wanted[event.Type] {
			return nil
		}
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to print event: %w", err)
		}
		return nil
	}
}
