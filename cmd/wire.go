package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"storyteller/pkg/backend"
	"storyteller/pkg/config"
	"storyteller/pkg/inference"
	"storyteller/pkg/session"
	"storyteller/pkg/story"
	"storyteller/pkg/studio"
)

func newInferencer(cfg *config.Config, logger *log.Logger) (inference.Inferencer, error) {
	var inf inference.Inferencer
	switch cfg.Provider {
	case config.ProviderOpenAI:
		o := inference.NewOpenAIInferencer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if cfg.OpenAIBaseURL != "" {
			o.ChangeBaseURL(cfg.OpenAIBaseURL)
		}
		logger.Info("using openai-compatible provider", "model", o.Model(), "base_url", cfg.OpenAIBaseURL)
		inf = o
	default:
		g, err := inference.NewGeminiInferencer(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		if cfg.GeminiBaseURL != "" {
			if err := g.ChangeBaseURL(cfg.GeminiBaseURL); err != nil {
				return nil, err
			}
		}
		logger.Info("using gemini provider", "model", g.Model())
		inf = g
	}
	return inference.NewLimited(inf, cfg.GenerativeRPM), nil
}

func newExtractor(cfg *config.Config, inf inference.Inferencer, logger *log.Logger) story.Extractor {
	var ex story.Extractor = story.NewLLMExtractor(inf, logger,
		story.WithGender(cfg.ExtractGender),
		story.WithTokenLogging(cfg.LogTokens),
	)
	if cfg.ExtractionCacheTTL > 0 {
		ex = story.NewCachedExtractor(ex, cfg.ExtractionCacheTTL)
	}
	return ex
}

func newStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (session.Store, error) {
	if cfg.SessionStore != config.StoreRedis {
		return session.NewMemoryStore(cfg.SessionTTL), nil
	}
	store, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL, logger)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForConnection(ctx, 10, time.Second); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("connected to redis session store")
	return store, nil
}

// newStudio wires the workflow around store.
func newStudio(cfg *config.Config, store session.Store, logger *log.Logger) (*studio.Studio, error) {
	inf, err := newInferencer(cfg, logger)
	if err != nil {
		return nil, err
	}
	return studio.New(
		store,
		newExtractor(cfg, inf, logger),
		story.NewGenerator(inf, logger),
		backend.NewClient(cfg.BackendURL, nil),
		logger,
		studio.Options{
			MaxUploadBytes: cfg.MaxUploadBytes,
			RequestTimeout: cfg.RequestTimeout,
		},
	), nil
}
