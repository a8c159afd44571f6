// Package app wires the session store, catalog chain, prediction client and
// browse service from configuration. Both binaries build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"movie-dropoff/internal/browse"
	"movie-dropoff/internal/catalog"
	"movie-dropoff/internal/common/config"
	"movie-dropoff/internal/common/database"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/models"
	"movie-dropoff/internal/prediction"
	"movie-dropoff/internal/session"
)

type App struct {
	Config       *config.Config
	Store        session.Store
	Redis        *database.RedisClient
	Prediction   *prediction.Client
	Catalog      *catalog.Chain
	Orchestrator *prediction.Orchestrator
	Browse       *browse.Service

	log logger.Logger
}

type Option func(*options)

type options struct {
	store session.Store
}

// WithStore overrides the configured session store.
func WithStore(s session.Store) Option {
	return func(o *options) { o.store = s }
}

func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, log: log}

	switch {
	case o.store != nil:
		a.Store = o.store
	case cfg.Session.Store == "memory":
		a.Store = session.NewMemoryStore()
	default:
		rc, err := database.Connect(ctx, cfg.Database.Redis)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		a.Redis = rc
		a.Store = session.NewRedisStore(rc.Cmdable(), cfg.Session.KeyPrefix, config.GetDuration(cfg.Session.TTL))
	}

	a.Prediction = prediction.NewClient(cfg.Prediction, log)

	chain, err := catalog.NewChainFromConfig(cfg, log, catalog.OnUnavailable(func(f models.FilterOptions, attempts []catalog.Attempt) {
		log.Warn("showing empty catalog", map[string]interface{}{
			"genre":    f.Genre,
			"attempts": len(attempts),
		})
	}))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Catalog = chain

	a.Orchestrator = prediction.NewOrchestrator(a.Prediction, a.Store, prediction.OrchestratorConfig{
		MaxConcurrency: cfg.Prediction.MaxConcurrency,
		PerItemTimeout: config.GetDuration(cfg.Prediction.PerItemTimeout),
	}, log)
	a.Browse = browse.NewService(a.Catalog, a.Orchestrator, log)

	return a, nil
}

// Ready checks the session store. The prediction service is optional:
// without it items get the heuristic estimate.
func (a *App) Ready(ctx context.Context) error {
	if a.Redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.Redis.Ping(ctx)
}

// ProbePrediction logs whether the prediction service answers /health.
func (a *App) ProbePrediction(ctx context.Context) bool {
	h, err := a.Prediction.Health(ctx)
	if err != nil {
		a.log.Warn("prediction service unreachable, heuristic estimates will be used", map[string]interface{}{
			"baseUrl": a.Config.Prediction.BaseURL,
			"error":   err.Error(),
		})
		return false
	}
	a.log.Info("prediction service reachable", map[string]interface{}{
		"status":      h.Status,
		"modelStatus": h.ModelStatus,
		"version":     h.Version,
	})
	return h.Healthy()
}

func (a *App) Close() error {
	if a.Redis != nil {
		return a.Redis.Close()
	}
	return nil
}
