package browse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-dropoff/internal/catalog"
	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/models"
	"movie-dropoff/internal/prediction"
	"movie-dropoff/internal/session"
)

type loaderFunc func(ctx context.Context, filter models.FilterOptions) catalog.Result

func (f loaderFunc) Load(ctx context.Context, filter models.FilterOptions) catalog.Result {
	return f(ctx, filter)
}

type enricherFunc func(ctx context.Context, sessionID string, items []models.Movie) ([]models.Movie, error)

func (f enricherFunc) EnrichSession(ctx context.Context, sessionID string, items []models.Movie) ([]models.Movie, error) {
	return f(ctx, sessionID, items)
}

func staticLoader(movies ...models.Movie) loaderFunc {
	return func(context.Context, models.FilterOptions) catalog.Result {
		return catalog.Result{Movies: movies, Source: catalog.SourceSample}
	}
}

func passthrough(_ context.Context, _ string, items []models.Movie) ([]models.Movie, error) {
	return items, nil
}

func movie(id, title string, rating float64) models.Movie {
	return models.Movie{ID: id, Title: title, Rating: rating, Genres: []string{"Drama"}}
}

// ==========================
// Refresh
// ==========================

func TestRefresh_SortsByPredictionAfterEnrichment(t *testing.T) {
	scores := map[string]int{"a": 40, "b": 85, "c": 60}
	enrich := func(_ context.Context, _ string, items []models.Movie) ([]models.Movie, error) {
		out := make([]models.Movie, len(items))
		for i, m := range items {
			out[i] = m.WithPrediction(scores[m.ID], 100-scores[m.ID])
		}
		return out, nil
	}
	svc := NewService(
		staticLoader(movie("a", "A", 7), movie("b", "B", 8), movie("c", "C", 9)),
		enricherFunc(enrich),
		logger.NewTestLogger(t),
	)

	page, err := svc.Refresh(context.Background(), "s1", models.FilterOptions{SortBy: models.SortByPrediction, SortOrder: models.SortDesc})
	require.NoError(t, err)
	assert.True(t, page.Predicted)
	require.Len(t, page.Movies, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{page.Movies[0].ID, page.Movies[1].ID, page.Movies[2].ID})
	assert.Equal(t, catalog.SourceSample, page.Source)
}

func TestRefresh_CatalogUnavailable(t *testing.T) {
	enrichCalled := false
	svc := NewService(
		loaderFunc(func(context.Context, models.FilterOptions) catalog.Result {
			return catalog.Result{Movies: []models.Movie{}, Unavailable: true}
		}),
		enricherFunc(func(ctx context.Context, id string, items []models.Movie) ([]models.Movie, error) {
			enrichCalled = true
			return items, nil
		}),
		logger.NewTestLogger(t),
	)

	page, err := svc.Refresh(context.Background(), "s1", models.DefaultFilter())
	require.NoError(t, err)
	assert.True(t, page.CatalogUnavailable)
	assert.NotEmpty(t, page.Warning)
	assert.Empty(t, page.Movies)
	assert.False(t, enrichCalled)
}

func TestRefresh_EnrichmentErrorIsVisibleButNotFatal(t *testing.T) {
	svc := NewService(
		staticLoader(movie("a", "A", 7)),
		enricherFunc(func(_ context.Context, _ string, items []models.Movie) ([]models.Movie, error) {
			return items, prediction.ErrInvalidFeatureVector
		}),
		logger.NewTestLogger(t),
	)

	page, err := svc.Refresh(context.Background(), "s1", models.DefaultFilter())
	require.NoError(t, err)
	assert.False(t, page.Predicted)
	assert.NotEmpty(t, page.PredictionError)
	assert.Len(t, page.Movies, 1)
}

func TestRefresh_InvalidFilter(t *testing.T) {
	svc := NewService(staticLoader(), enricherFunc(passthrough), logger.NewTestLogger(t))

	_, err := svc.Refresh(context.Background(), "s1", models.FilterOptions{SortBy: "popularity"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestRefresh_LatestRequestWins(t *testing.T) {
	firstStarted := make(chan struct{})
	loader := loaderFunc(func(ctx context.Context, filter models.FilterOptions) catalog.Result {
		if filter.Genre == "slow" {
			close(firstStarted)
			<-ctx.Done()
			return catalog.Result{Movies: []models.Movie{}}
		}
		return catalog.Result{Movies: []models.Movie{movie("x", "X", 8)}, Source: catalog.SourceSample}
	})
	svc := NewService(loader, enricherFunc(passthrough), logger.NewTestLogger(t))

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background(), "s1", models.FilterOptions{Genre: "slow"})
		firstErr <- err
	}()
	<-firstStarted

	page, err := svc.Refresh(context.Background(), "s1", models.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, page.Movies, 1)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded refresh did not return")
	}
	assert.Equal(t, 0, svc.InFlight())
}

func TestRefresh_OtherSessionsAreIndependent(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	loader := loaderFunc(func(ctx context.Context, filter models.FilterOptions) catalog.Result {
		if filter.Genre == "slow" {
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
			}
		}
		return catalog.Result{Movies: []models.Movie{movie("x", "X", 8)}}
	})
	svc := NewService(loader, enricherFunc(passthrough), logger.NewTestLogger(t))

	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background(), "s1", models.FilterOptions{Genre: "slow"})
		firstErr <- err
	}()
	<-started

	_, err := svc.Refresh(context.Background(), "s2", models.DefaultFilter())
	require.NoError(t, err)
	close(release)

	assert.NoError(t, <-firstErr)
}

func TestRefresh_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loader := loaderFunc(func(context.Context, models.FilterOptions) catalog.Result {
		cancel()
		return catalog.Result{Movies: []models.Movie{}}
	})
	svc := NewService(loader, enricherFunc(passthrough), logger.NewTestLogger(t))

	_, err := svc.Refresh(ctx, "s1", models.DefaultFilter())
	assert.True(t, errors.Is(err, context.Canceled))
}

// ==========================
// With real collaborators
// ==========================

type fixedPredictor struct{}

func (fixedPredictor) PredictMovie(context.Context, string, models.FeatureVector) (*prediction.MoviePrediction, error) {
	return &prediction.MoviePrediction{CompletionLikelihood: 0.7, DropoffProbability: 0.3}, nil
}

func TestRefresh_SampleCatalogWithStoredVector(t *testing.T) {
	log := logger.NewTestLogger(t)
	store := session.NewMemoryStore()
	chain := catalog.NewChain(log, []catalog.Source{catalog.SampleSource{}})
	orch := prediction.NewOrchestrator(fixedPredictor{}, store, prediction.OrchestratorConfig{}, log)
	svc := NewService(chain, orch, log)
	ctx := context.Background()

	page, err := svc.Refresh(ctx, "anon", models.DefaultFilter())
	require.NoError(t, err)
	assert.False(t, page.Predicted)
	assert.NotEmpty(t, page.Movies)

	var v models.FeatureVector
	for _, spec := range models.FeatureSchema() {
		v.Set(spec.Key, spec.Default)
	}
	require.NoError(t, store.SaveVector(ctx, "anon", v))

	page, err = svc.Refresh(ctx, "anon", models.DefaultFilter())
	require.NoError(t, err)
	assert.True(t, page.Predicted)
	for _, m := range page.Movies {
		require.NotNil(t, m.CompletionLikelihood)
		assert.Equal(t, 70, *m.CompletionLikelihood)
	}
}
