package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mattxslv/phoenix/internal/config"
	"github.com/mattxslv/phoenix/internal/domain/chat"
	"github.com/mattxslv/phoenix/internal/domain/docstore"
	"github.com/mattxslv/phoenix/internal/domain/generation"
	"github.com/mattxslv/phoenix/internal/domain/reveal"
	"github.com/mattxslv/phoenix/internal/infrastructure/database"
	infradocstore "github.com/mattxslv/phoenix/internal/infrastructure/docstore"
	"github.com/mattxslv/phoenix/internal/infrastructure/llmprovider"
	"github.com/mattxslv/phoenix/internal/infrastructure/logger"
	"github.com/mattxslv/phoenix/internal/infrastructure/observability"
	"github.com/mattxslv/phoenix/internal/infrastructure/ratelimit"
	"github.com/mattxslv/phoenix/internal/interfaces/httpserver"
)

// Application bundles the long-running pieces of the conversation service.
type Application struct {
	httpServer *httpserver.HttpServer
	reveals    *reveal.Scheduler
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, reveals *reveal.Scheduler, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		reveals:    reveals,
		log:        log,
	}
}

// Start runs the HTTP listener and the reveal tick loop until the context
// ends.
func (a *Application) Start(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.httpServer.Run(groupCtx)
	})
	group.Go(func() error {
		err := a.reveals.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return group.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	store, err := newDocumentStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize document store")
	}

	generator := llmprovider.NewClient(llmprovider.Config{
		BaseURL:     cfg.GenerationBaseURL,
		APIKey:      cfg.GenerationAPIKey,
		Model:       cfg.GenerationModel,
		Temperature: cfg.GenerationTemperature,
		Timeout:     cfg.GenerationTimeout,
	})
	quota := ratelimit.New(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	gateway := generation.NewGateway(generator, quota, log)

	turnStore := chat.NewTurnStore(store, log)
	reveals := reveal.NewScheduler(reveal.Options{
		PerCharDelay: cfg.RevealPerCharDelay,
		TickInterval: cfg.RevealTickInterval,
	}, log)
	controller := chat.NewController(turnStore, gateway, chat.NewAtomicSignal(), reveals, log)

	httpServer := httpserver.New(cfg, log, controller, reveals)
	app := NewApplication(httpServer, reveals, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newDocumentStore picks the persistence driver. "postgres" keeps documents
// in a JSONB table, "http" talks to a remote document API, "memory" holds
// everything in process.
func newDocumentStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (docstore.Store, error) {
	switch cfg.StoreDriver {
	case "postgres":
		db, err := database.Connect(database.Config{
			DSN:             cfg.DatabaseURL,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
			LogLevel:        gormlogger.Warn,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := infradocstore.AutoMigrate(ctx, db); err != nil {
			return nil, err
		}
		return infradocstore.NewGormStore(db), nil
	case "http":
		return infradocstore.NewHTTPStore(cfg.StoreAPIURL, cfg.StoreAPIKey), nil
	case "memory":
		log.Warn().Msg("using in-memory document store, data is not persisted")
		return infradocstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
