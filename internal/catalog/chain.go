package catalog

import (
	"context"
	"fmt"
	"strings"

	"movie-dropoff/internal/common/config"
	apphttp "movie-dropoff/internal/common/http"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/metrics"
	"movie-dropoff/internal/models"
)

// Attempt records one source's outcome within a Load.
type Attempt struct {
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

// Result is what Load hands back. Unavailable is set when every source
// failed; Movies is then empty.
type Result struct {
	Movies      []models.Movie `json:"movies"`
	Source      string         `json:"source,omitempty"`
	Unavailable bool           `json:"catalogUnavailable"`
	Attempts    []Attempt      `json:"attempts"`
}

// Chain tries its sources in order and keeps the first listing that loads.
type Chain struct {
	sources       []Source
	log           logger.Logger
	onUnavailable func(filter models.FilterOptions, attempts []Attempt)
}

type ChainOption func(*Chain)

// OnUnavailable registers a hook that runs once per Load in which every
// source failed.
func OnUnavailable(fn func(filter models.FilterOptions, attempts []Attempt)) ChainOption {
	return func(c *Chain) { c.onUnavailable = fn }
}

func NewChain(log logger.Logger, sources []Source, opts ...ChainOption) *Chain {
	c := &Chain{sources: sources, log: log.Named("catalog")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewChainFromConfig builds the sources named in cfg.Catalog.Sources, in
// that order.
func NewChainFromConfig(cfg *config.Config, log logger.Logger, opts ...ChainOption) (*Chain, error) {
	sources := make([]Source, 0, len(cfg.Catalog.Sources))
	for _, name := range cfg.Catalog.Sources {
		switch name {
		case SourceTMDB:
			sources = append(sources, NewTMDBSource(cfg.Catalog.TMDB))
		case SourceService:
			client := apphttp.NewClient(
				config.GetDuration(cfg.Prediction.Timeout),
				apphttp.WithGetRetries(cfg.Prediction.GetRetries, 0),
			)
			sources = append(sources, NewServiceSource(client, cfg.Prediction.BaseURL, cfg.Catalog.Service))
		case SourceSample:
			sources = append(sources, SampleSource{})
		default:
			return nil, fmt.Errorf("unknown catalog source %q", name)
		}
	}
	return NewChain(log, sources, opts...), nil
}

// Load never returns an error. Sources are tried one after another, never
// concurrently; cancellation of ctx stops the walk without firing the
// unavailable hook.
func (c *Chain) Load(ctx context.Context, filter models.FilterOptions) Result {
	filter = filter.WithDefaults()
	res := Result{Attempts: make([]Attempt, 0, len(c.sources))}

	for _, src := range c.sources {
		if ctx.Err() != nil {
			res.Attempts = append(res.Attempts, Attempt{Source: src.Name(), Error: ctx.Err().Error()})
			res.Movies = []models.Movie{}
			return res
		}

		movies, err := src.Fetch(ctx, filter)
		if err != nil {
			metrics.CatalogSourceAttempts.WithLabelValues(src.Name(), "error").Inc()
			c.log.Warn("catalog source failed, trying next", map[string]interface{}{
				"source": src.Name(),
				"error":  err.Error(),
			})
			res.Attempts = append(res.Attempts, Attempt{Source: src.Name(), Error: err.Error()})
			continue
		}

		metrics.CatalogSourceAttempts.WithLabelValues(src.Name(), "ok").Inc()
		res.Attempts = append(res.Attempts, Attempt{Source: src.Name()})
		res.Source = src.Name()
		res.Movies = ApplyFilter(movies, filter)
		c.log.Debug("catalog loaded", map[string]interface{}{
			"source":   src.Name(),
			"fetched":  len(movies),
			"returned": len(res.Movies),
		})
		return res
	}

	res.Movies = []models.Movie{}
	res.Unavailable = true
	metrics.CatalogUnavailable.Inc()
	c.log.Error("all catalog sources failed", map[string]interface{}{
		"sources": sourceNames(c.sources),
		"genre":   filter.Genre,
	})
	if c.onUnavailable != nil {
		c.onUnavailable(filter, res.Attempts)
	}
	return res
}

func sourceNames(sources []Source) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}
