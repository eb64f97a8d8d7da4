// Package app initializes and holds long-lived application services, acting
// as a dependency injection container for the CLI commands.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/influenceops/creatorscout/internal/config"
	"github.com/influenceops/creatorscout/internal/discovery"
	"github.com/influenceops/creatorscout/internal/discovery/instagram"
	"github.com/influenceops/creatorscout/internal/discovery/youtube"
	"github.com/influenceops/creatorscout/internal/events"
	"github.com/influenceops/creatorscout/internal/ingest"
	"github.com/influenceops/creatorscout/internal/logging"
	"github.com/influenceops/creatorscout/internal/metrics"
	"github.com/influenceops/creatorscout/internal/recommend"
	"github.com/influenceops/creatorscout/internal/store"
	"github.com/influenceops/creatorscout/internal/store/memory"
	"github.com/influenceops/creatorscout/internal/store/postgres"
)

// App holds all the shared, long-lived services for the application. It is
// initialized once at startup and handed to the commands that need it.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    store.ProfileStore
	source   discovery.Source
	hashtag  *instagram.Scraper
	events   events.Provider
	runner   *ingest.Runner
	pipeline *recommend.Pipeline
}

// GetConfig returns the loaded service configuration.
func (a *App) GetConfig() config.Config { return a.cfg }

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger { return a.logger }

// GetStore exposes the profile store backend.
func (a *App) GetStore() store.ProfileStore { return a.store }

// GetSource returns the YouTube discovery source.
func (a *App) GetSource() discovery.Source { return a.source }

// GetHashtag returns the Instagram hashtag scraper.
func (a *App) GetHashtag() *instagram.Scraper { return a.hashtag }

// GetRunner returns the batch ingest runner.
func (a *App) GetRunner() *ingest.Runner { return a.runner }

// GetPipeline returns the recommendation pipeline.
func (a *App) GetPipeline() *recommend.Pipeline { return a.pipeline }

// NewApp creates and initializes the App from configuration. It is the
// central point for service initialization and fails fast if any critical
// service cannot be built.
func NewApp(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	logger.Info("initializing application services")

	metrics.Init()

	profileStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	keys, err := discovery.NewKeyRing(cfg.YouTube.APIKeys)
	if err != nil {
		profileStore.Close()
		return nil, fmt.Errorf("youtube credentials: %w (set SCOUT_YOUTUBE_API_KEYS)", err)
	}
	scraper := youtube.NewResultsScraper(youtube.ScrapeConfig{
		ResultsBaseURL: cfg.YouTube.ResultsBaseURL,
		Timeout:        cfg.YouTubeTimeout(),
	}, logger)
	source, err := youtube.NewSource(youtube.Config{
		APIBaseURL: cfg.YouTube.APIBaseURL,
		Timeout:    cfg.YouTubeTimeout(),
	}, keys, scraper, logger)
	if err != nil {
		profileStore.Close()
		return nil, fmt.Errorf("init youtube source: %w", err)
	}

	hashtag := instagram.NewScraper(instagram.Config{
		BaseURL:   cfg.Instagram.BaseURL,
		UserAgent: cfg.Instagram.UserAgent,
		Timeout:   cfg.InstagramTimeout(),
	}, logger)

	ev, err := buildEvents(ctx, cfg, logger)
	if err != nil {
		profileStore.Close()
		return nil, err
	}

	pipeline := recommend.NewPipeline(profileStore, source, ev, recommend.Options{
		DefaultTopN:       cfg.Recommend.DefaultTopN,
		SufficiencyCount:  cfg.Recommend.SufficiencyCount,
		DiscoveryMaxItems: cfg.Recommend.DiscoveryMaxItems,
	}, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    profileStore,
		source:   source,
		hashtag:  hashtag,
		events:   ev,
		runner:   ingest.NewRunner(profileStore, ev, logger),
		pipeline: pipeline,
	}, nil
}

func buildStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.ProfileStore, error) {
	if cfg.DB.DSN == "" {
		logger.Warn("db.dsn not configured, using in-memory profile store")
		return memory.NewProfileStore(), nil
	}
	s, err := postgres.NewProfileStore(ctx, postgres.ProfileStoreConfig{
		DSN:             cfg.DB.DSN,
		Table:           cfg.DB.Table,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.ConnLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("init postgres store: %w", err)
	}
	logger.Info("connected to postgres", zap.String("table", cfg.DB.Table))
	return s, nil
}

func buildEvents(ctx context.Context, cfg config.Config, logger *zap.Logger) (events.Provider, error) {
	switch cfg.Events.Provider {
	case "pubsub":
		ev, err := events.NewPubSubProvider(ctx, cfg.Events.ProjectID, cfg.Events.TopicID)
		if err != nil {
			return nil, fmt.Errorf("init pubsub events: %w", err)
		}
		logger.Info("publishing ingest events to pubsub",
			zap.String("project", cfg.Events.ProjectID),
			zap.String("topic", cfg.Events.TopicID),
		)
		return ev, nil
	case "", "noop":
		return events.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown events provider %q", cfg.Events.Provider)
	}
}

// Close gracefully shuts down all services held by the App.
func (a *App) Close() {
	if err := a.events.Close(); err != nil {
		a.logger.Warn("closing event provider", zap.Error(err))
	}
	a.store.Close()
	_ = a.logger.Sync()
}
