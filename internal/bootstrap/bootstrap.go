package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"call-bridge/internal/clients/googleai"
	kafkaClient "call-bridge/internal/clients/kafka"
	"call-bridge/internal/clients/openai"
	twilioClient "call-bridge/internal/clients/twilio"
	"call-bridge/internal/config"
	"call-bridge/internal/extraction"
	"call-bridge/internal/observability"
	"call-bridge/internal/voicecall/audio"
	voiceCallHandler "call-bridge/internal/voicecall/handler"
	"call-bridge/internal/voicecall/session"
	"call-bridge/internal/workers"
	"call-bridge/internal/workers/postcall"
)

// Dependencies holds all initialized application dependencies
type Dependencies struct {
	// Core
	Logger   *observability.Logger
	Registry *session.Registry

	// Handlers
	VoiceCallHandler *voiceCallHandler.Handler

	// Background workers
	PostCallPool workers.WorkerPool

	// Kafka producer (nil when event streaming is disabled)
	KafkaProducer *kafkaClient.Producer

	closers []func() error
}

// Initialize sets up all application dependencies
func Initialize(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Logger:   logger,
		Registry: session.NewRegistry(),
	}

	// Initialize speech client
	realtimeClient, err := openai.NewRealtimeClient(openai.RealtimeConfig{
		URL:              cfg.Speech.RealtimeURL,
		APIKey:           cfg.Speech.APIKey,
		Model:            cfg.Speech.Model,
		HandshakeTimeout: cfg.Speech.HandshakeTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create realtime client: %w", err)
	}
	dialer := session.SpeechDialerFunc(func(ctx context.Context) (session.SpeechTransport, error) {
		speech, err := realtimeClient.Dial(ctx)
		if err != nil {
			return nil, err
		}
		return speech, nil
	})

	codec, err := audio.NewCodec(cfg.Speech.AudioFormat)
	if err != nil {
		return nil, err
	}

	// Initialize extraction pipeline
	extractor, closeExtractor, err := NewExtractor(ctx, cfg.Extraction, logger)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, closeExtractor)

	sink := extraction.NewWebhookSink(cfg.Webhook.URL, cfg.Webhook.Timeout, logger)
	pipeline := extraction.NewPipeline(extractor, sink, cfg.Extraction.Timeout, logger)

	// Initialize Kafka producer when brokers are configured
	var publisher postcall.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		deps.KafkaProducer = kafkaClient.NewProducer(kafkaClient.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logger)
		publisher = deps.KafkaProducer
		deps.closers = append(deps.closers, deps.KafkaProducer.Close)
	} else {
		logger.Info(ctx, "KAFKA_BROKERS not set, call events will not be published")
	}

	// Initialize post-call worker pool
	processor := postcall.NewProcessor(pipeline, publisher, logger)
	deps.PostCallPool = workers.NewWorkerPool(workers.WorkerPoolConfig{
		NumWorkers:   cfg.Extraction.Workers,
		QueueSize:    cfg.Extraction.QueueSize,
		DrainTimeout: cfg.Server.ShutdownTimeout,
	}, processor, logger)
	if err := deps.PostCallPool.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start post-call workers: %w", err)
	}

	// Initialize Twilio clients
	var hangup session.CallHangup
	if cfg.Telephony.HangupViaREST {
		callControl, err := twilioClient.NewCallControl(cfg.Telephony.AccountSID, cfg.Telephony.AuthToken, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create twilio call control: %w", err)
		}
		hangup = callControl
	}
	var verifier voiceCallHandler.SignatureVerifier
	if cfg.Telephony.ValidateSignature {
		verifier = twilioClient.NewSignatureValidator(cfg.Telephony.AuthToken)
	}

	// Initialize voice call handler
	deps.VoiceCallHandler = voiceCallHandler.New(voiceCallHandler.Config{
		Server:            cfg.Server,
		PreConnectMessage: cfg.Telephony.PreConnectMessage,
		Session: session.Config{
			Profile:            cfg.Agent,
			AudioFormat:        cfg.Speech.AudioFormat,
			TranscriptionModel: cfg.Speech.TranscriptionModel,
			InactivityTimeout:  cfg.Session.InactivityTimeout,
			ReadyTimeout:       cfg.Session.ReadyTimeout,
			FarewellGrace:      cfg.Session.FarewellGrace,
			QuietGrace:         cfg.Session.QuietGrace,
			HandoffTimeout:     cfg.Session.HandoffTimeout,
		},
	}, voiceCallHandler.Dependencies{
		Registry: deps.Registry,
		Dialer:   dialer,
		Jobs:     deps.PostCallPool,
		Hangup:   hangup,
		Codec:    codec,
		Verifier: verifier,
		Logger:   logger,
	})

	return deps, nil
}

// NewExtractor builds the configured extraction provider. The returned
// close function releases provider resources.
func NewExtractor(ctx context.Context, cfg config.ExtractionConfig, logger *observability.Logger) (extraction.Extractor, func() error, error) {
	switch cfg.Provider {
	case "gemini":
		client, err := googleai.NewExtractionClient(ctx, cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, client.Close, nil
	case "openai", "":
		client, err := openai.NewExtractionClient(cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return client, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown extraction provider %q", cfg.Provider)
	}
}

// Cleanup releases provider clients. The worker pool must be drained first.
func (d *Dependencies) Cleanup() error {
	var errs []error
	for _, closeFn := range d.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
