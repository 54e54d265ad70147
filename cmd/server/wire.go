//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/mattxslv/phoenix/internal/config"
	"github.com/mattxslv/phoenix/internal/domain/chat"
	"github.com/mattxslv/phoenix/internal/domain/docstore"
	"github.com/mattxslv/phoenix/internal/domain/generation"
	"github.com/mattxslv/phoenix/internal/domain/reveal"
	"github.com/mattxslv/phoenix/internal/infrastructure/llmprovider"
	"github.com/mattxslv/phoenix/internal/infrastructure/logger"
	"github.com/mattxslv/phoenix/internal/infrastructure/ratelimit"
	"github.com/mattxslv/phoenix/internal/interfaces/httpserver"
	"github.com/mattxslv/phoenix/internal/interfaces/httpserver/handlers"
)

var conversationSet = wire.NewSet(
	newGenerator,
	wire.Bind(new(generation.Generator), new(*llmprovider.Client)),
	newQuota,
	wire.Bind(new(generation.Quota), new(*ratelimit.Limiter)),
	generation.NewGateway,
	chat.NewTurnStore,
	newSignal,
	wire.Bind(new(chat.SubmissionSignal), new(*chat.AtomicSignal)),
	newRevealScheduler,
	wire.Bind(new(chat.Revealer), new(*reveal.Scheduler)),
	wire.Bind(new(handlers.RevealSource), new(*reveal.Scheduler)),
	chat.NewController,
	wire.Bind(new(handlers.ConversationService), new(*chat.Controller)),
)

// BuildApplication demonstrates how to assemble the conversation service
// with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newStore,
		conversationSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (docstore.Store, error) {
	return newDocumentStore(ctx, cfg, log)
}

func newGenerator(cfg *config.Config) *llmprovider.Client {
	return llmprovider.NewClient(llmprovider.Config{
		BaseURL:     cfg.GenerationBaseURL,
		APIKey:      cfg.GenerationAPIKey,
		Model:       cfg.GenerationModel,
		Temperature: cfg.GenerationTemperature,
		Timeout:     cfg.GenerationTimeout,
	})
}

func newQuota(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
}

func newSignal() *chat.AtomicSignal {
	return chat.NewAtomicSignal()
}

func newRevealScheduler(cfg *config.Config, log zerolog.Logger) *reveal.Scheduler {
	return reveal.NewScheduler(reveal.Options{
		PerCharDelay: cfg.RevealPerCharDelay,
		TickInterval: cfg.RevealTickInterval,
	}, log)
}
