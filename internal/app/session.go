package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"voicetrans/internal/config"
	"voicetrans/internal/history"
	"voicetrans/internal/logging"
	"voicetrans/internal/quota"
	"voicetrans/internal/services"
	"voicetrans/internal/services/translate"
	"voicetrans/internal/storage"
	"voicetrans/internal/transcript"
	"voicetrans/internal/usage"
)

// Session owns the components for one process.
type Session struct {
	cfg       *config.Config
	logger    *slog.Logger
	substrate storage.Substrate

	History *history.Store
	Quota   *quota.Prober
	Usage   *usage.Reporter
	Client  *translate.Client
}

// Option customizes a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	substrate     storage.Substrate
	clientOptions []translate.Option
}

// WithSubstrate uses substrate instead of opening the configured backend.
// The session still closes it.
func WithSubstrate(substrate storage.Substrate) Option {
	return func(o *sessionOptions) {
		o.substrate = substrate
	}
}

// WithClientOptions passes options through to the translation client.
func WithClientOptions(opts ...translate.Option) Option {
	return func(o *sessionOptions) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

// Open builds a Session from cfg.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "app", "open", "config required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var options sessionOptions
	for _, opt := range opts {
		opt(&options)
	}

	substrate := options.substrate
	if substrate == nil {
		var err error
		substrate, err = storage.Open(cfg.Storage, logger)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "app", "open storage", cfg.Storage.Backend, err)
		}
	}

	prober := quota.New(substrate,
		quota.WithSizes(cfg.ProbeSizes()),
		quota.WithTolerance(cfg.Quota.ToleranceBytes),
		quota.WithLogger(logger),
	)

	clientOpts := append([]translate.Option{translate.WithLogger(logger)}, options.clientOptions...)
	client := translate.NewClient(translate.Config{
		BaseURL:        cfg.API.BaseURL,
		Token:          cfg.API.Token,
		Model:          cfg.API.DefaultModel,
		TimeoutSeconds: cfg.API.TimeoutSeconds,
	}, clientOpts...)

	logger.Debug("session opened",
		logging.String("backend", cfg.Storage.Backend),
		logging.String("storage_path", cfg.Storage.Path),
	)
	return &Session{
		cfg:       cfg,
		logger:    logger,
		substrate: substrate,
		History: history.New(substrate,
			history.WithKey(cfg.History.Key),
			history.WithMaxItems(cfg.History.MaxItems),
			history.WithLogger(logger),
		),
		Quota:  prober,
		Usage:  usage.New(substrate, prober, logger),
		Client: client,
	}, nil
}

// Config returns the configuration the session was built from.
func (s *Session) Config() *config.Config { return s.cfg }

// Substrate returns the shared storage substrate.
func (s *Session) Substrate() storage.Substrate { return s.substrate }

// Close releases the substrate.
func (s *Session) Close() error {
	if s == nil || s.substrate == nil {
		return nil
	}
	return s.substrate.Close()
}

// Translation is the outcome of a Translate call.
type Translation struct {
	Result transcript.Result
	// Item is the saved history item; zero when the save was skipped.
	Item transcript.Item
	Save history.Outcome
}

// Translate sends req and records a complete result in history. Only the
// translation call can fail; the history save is reported through Save.
func (s *Session) Translate(ctx context.Context, req translate.Request) (Translation, error) {
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := s.logger.With(logging.String("request_id", requestID))

	result, err := s.Client.Translate(ctx, req)
	if err != nil {
		logging.WarnWithContext(logger, "translation failed", "translate_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, translate.UserMessage(err)),
			logging.String(logging.FieldImpact, "nothing saved to history"),
		)
		return Translation{}, err
	}

	item, outcome := s.History.Save(ctx, result)
	logger.Info("translation complete",
		logging.String(logging.FieldItemID, item.ID),
		logging.String("history", outcome.Status.String()),
	)
	return Translation{Result: result, Item: item, Save: outcome}, nil
}

// TranslateFile uploads the audio file at path.
func (s *Session) TranslateFile(ctx context.Context, path, model string) (Translation, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Translation{}, services.Wrap(services.ErrValidation, "app", "translate", "audio path required", nil)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Translation{}, services.Wrap(services.ErrValidation, "app", "translate", fmt.Sprintf("audio file %s not found", path), err)
		}
		return Translation{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()
	return s.Translate(ctx, translate.Request{Model: model, AudioName: filepath.Base(path), Audio: f})
}

// StorageUsage probes the quota if needed and reports usage. With wait false
// the probe is only started, and the report is unavailable until it finishes.
func (s *Session) StorageUsage(ctx context.Context, wait bool) (usage.Report, bool) {
	if wait {
		s.Quota.Probe(ctx)
	} else {
		s.Quota.Start(ctx)
	}
	return s.Usage.Usage(ctx)
}
