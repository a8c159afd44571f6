// Package browse builds the catalog page a user sees: load from the source
// chain, attach predictions for the session, then apply the requested order.
package browse

import (
	"context"
	"errors"
	"sync"

	"movie-dropoff/internal/catalog"
	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/metrics"
	"movie-dropoff/internal/models"
)

// ErrSuperseded is returned by a Refresh that was cancelled because a newer
// Refresh for the same session started.
var ErrSuperseded = errors.New("browse: refresh superseded by a newer request")

const unavailableMessage = "catalog unavailable, no movies to show"

type Loader interface {
	Load(ctx context.Context, filter models.FilterOptions) catalog.Result
}

type Enricher interface {
	EnrichSession(ctx context.Context, sessionID string, items []models.Movie) ([]models.Movie, error)
}

// Page is one rendered listing.
type Page struct {
	Movies             []models.Movie       `json:"movies"`
	Filter             models.FilterOptions `json:"filter"`
	Source             string               `json:"source,omitempty"`
	CatalogUnavailable bool                 `json:"catalogUnavailable"`
	Predicted          bool                 `json:"predicted"`
	Warning            string               `json:"warning,omitempty"`
	PredictionError    string               `json:"predictionError,omitempty"`
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

type Service struct {
	loader   Loader
	enricher Enricher
	log      logger.Logger

	mu      sync.Mutex
	gen     uint64
	running map[string]inflight
}

func NewService(loader Loader, enricher Enricher, log logger.Logger) *Service {
	return &Service{
		loader:   loader,
		enricher: enricher,
		log:      log.Named("browse"),
		running:  make(map[string]inflight),
	}
}

// Refresh loads and enriches a page for sessionID. Starting a Refresh
// cancels any Refresh still running for the same session; the older call
// returns ErrSuperseded and its results are dropped. An empty sessionID is
// never superseded.
func (s *Service) Refresh(ctx context.Context, sessionID string, filter models.FilterOptions) (*Page, error) {
	filter = filter.WithDefaults()
	if err := filter.Validate(); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	rctx, gen, done := s.begin(ctx, sessionID)
	defer done()

	res := s.loader.Load(rctx, filter)
	if err := s.interrupted(ctx, rctx, sessionID); err != nil {
		return nil, err
	}

	page := &Page{Filter: filter, Source: res.Source, Movies: res.Movies}
	if res.Unavailable {
		page.CatalogUnavailable = true
		page.Warning = unavailableMessage
		page.Movies = []models.Movie{}
		return page, nil
	}

	enriched, err := s.enricher.EnrichSession(rctx, sessionID, res.Movies)
	if ierr := s.interrupted(ctx, rctx, sessionID); ierr != nil {
		return nil, ierr
	}
	if err != nil {
		page.PredictionError = err.Error()
		s.log.Error("enrichment failed, showing movies without predictions", map[string]interface{}{
			"sessionId": sessionID,
			"gen":       gen,
			"error":     err.Error(),
		})
	}

	for _, m := range enriched {
		if m.CompletionLikelihood != nil {
			page.Predicted = true
			break
		}
	}
	// prediction order is only known after enrichment
	page.Movies = catalog.ApplyFilter(enriched, filter)
	return page, nil
}

func (s *Service) begin(ctx context.Context, sessionID string) (context.Context, uint64, func()) {
	rctx, cancel := context.WithCancel(ctx)
	if sessionID == "" {
		return rctx, 0, cancel
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if prev, ok := s.running[sessionID]; ok {
		prev.cancel()
	}
	s.running[sessionID] = inflight{gen: gen, cancel: cancel}
	s.mu.Unlock()

	return rctx, gen, func() {
		s.mu.Lock()
		if cur, ok := s.running[sessionID]; ok && cur.gen == gen {
			delete(s.running, sessionID)
		}
		s.mu.Unlock()
		cancel()
	}
}

// interrupted reports why rctx stopped, if it did. The caller's own
// cancellation wins over supersession.
func (s *Service) interrupted(parent, rctx context.Context, sessionID string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if rctx.Err() == nil {
		return nil
	}
	metrics.BrowseRefreshesSuperseded.Inc()
	s.log.Debug("refresh superseded", map[string]interface{}{"sessionId": sessionID})
	return ErrSuperseded
}

// InFlight is the number of sessions with a refresh running.
func (s *Service) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}
