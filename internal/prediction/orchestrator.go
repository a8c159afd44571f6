package prediction

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/metrics"
	"movie-dropoff/internal/common/validation"
	"movie-dropoff/internal/models"
	"movie-dropoff/internal/session"
)

var ErrInvalidFeatureVector = &apperrors.StandardError{
	Code:    apperrors.ErrCodeInvalidFeatureVector,
	Message: "feature vector does not match schema",
}

// Predictor is the per-movie prediction call. *Client implements it.
type Predictor interface {
	PredictMovie(ctx context.Context, movieID string, v models.FeatureVector) (*MoviePrediction, error)
}

type OrchestratorConfig struct {
	MaxConcurrency int
	PerItemTimeout time.Duration
}

// Orchestrator attaches completion and dropoff estimates to catalog items.
type Orchestrator struct {
	predictor Predictor
	store     session.Store
	cfg       OrchestratorConfig
	log       logger.Logger
}

func NewOrchestrator(predictor Predictor, store session.Store, cfg OrchestratorConfig, log logger.Logger) *Orchestrator {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 8
	}
	if cfg.PerItemTimeout <= 0 {
		cfg.PerItemTimeout = 5 * time.Second
	}
	return &Orchestrator{predictor: predictor, store: store, cfg: cfg, log: log.Named("orchestrator")}
}

// Enrich returns a copy of items, same length and order, with predictions
// set. A nil vector clears them. An invalid vector is rejected as a whole
// (ErrInvalidFeatureVector) and items come back unscored. Individual
// request failures never fail the batch; those items get the heuristic.
// If ctx is cancelled the partially enriched copy is returned with ctx.Err().
func (o *Orchestrator) Enrich(ctx context.Context, items []models.Movie, vector *models.FeatureVector) ([]models.Movie, error) {
	out := make([]models.Movie, len(items))
	for i, m := range items {
		out[i] = m.WithoutPrediction()
	}
	if vector == nil || len(items) == 0 {
		return out, nil
	}

	if result := validation.ValidateFeatureVector(*vector); !result.Valid {
		metrics.PredictionBatchesRejected.Inc()
		o.log.Error("feature vector rejected, skipping enrichment", map[string]interface{}{
			"errors": result.Error(),
			"items":  len(items),
		})
		return out, apperrors.NewInvalidFeatureVectorError(result.Error())
	}
	v := *vector

	var g errgroup.Group
	g.SetLimit(o.cfg.MaxConcurrency)
	for i := range out {
		i := i
		g.Go(func() error {
			out[i] = o.enrichOne(ctx, out[i], v)
			return nil
		})
	}
	_ = g.Wait()

	return out, ctx.Err()
}

func (o *Orchestrator) enrichOne(ctx context.Context, m models.Movie, v models.FeatureVector) models.Movie {
	if ctx.Err() != nil {
		return m
	}

	itemCtx, cancel := context.WithTimeout(ctx, o.cfg.PerItemTimeout)
	defer cancel()

	p, err := o.predictor.PredictMovie(itemCtx, m.ID, v)
	if err == nil {
		metrics.ItemPredictions.WithLabelValues("success", "").Inc()
		return m.WithPrediction(
			int(math.Round(100*p.CompletionLikelihood)),
			int(math.Round(100*p.DropoffProbability)),
		)
	}
	if ctx.Err() != nil {
		// superseded or shut down; the caller discards this batch
		return m
	}

	reason := "INTERNAL_ERROR"
	if code, ok := apperrors.CodeOf(err); ok {
		reason = string(code)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "TIMEOUT"
	}
	metrics.ItemPredictions.WithLabelValues("fallback", reason).Inc()

	completion, dropoff := HeuristicPrediction(v)
	o.log.Warn("movie prediction failed, using heuristic", map[string]interface{}{
		"movieId":    m.ID,
		"reason":     reason,
		"error":      err.Error(),
		"completion": completion,
	})
	return m.WithPrediction(completion, dropoff)
}

// EnrichSession looks up the session's submitted vector and enriches items
// with it. A session without a submitted survey gets unscored items.
func (o *Orchestrator) EnrichSession(ctx context.Context, sessionID string, items []models.Movie) ([]models.Movie, error) {
	if o.store == nil || sessionID == "" {
		return o.Enrich(ctx, items, nil)
	}

	v, err := o.store.LoadVector(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return o.Enrich(ctx, items, nil)
	}
	if err != nil {
		out, _ := o.Enrich(ctx, items, nil)
		if apperrors.HasCode(err, apperrors.ErrCodeSchemaFailure) {
			return out, apperrors.NewInvalidFeatureVectorError(err.Error())
		}
		return out, err
	}
	return o.Enrich(ctx, items, &v)
}
