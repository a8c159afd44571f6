package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-dropoff/internal/common/config"
	apphttp "movie-dropoff/internal/common/http"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/models"
)

func failingSource(name string) Source {
	return SourceFunc{SourceName: name, Fn: func(context.Context, models.FilterOptions) ([]models.Movie, error) {
		return nil, errors.New(name + " is down")
	}}
}

func staticSource(name string, movies ...models.Movie) Source {
	return SourceFunc{SourceName: name, Fn: func(context.Context, models.FilterOptions) ([]models.Movie, error) {
		return models.CloneMovies(movies), nil
	}}
}

func titles(movies []models.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}

func ptr(v int) *int { return &v }

// ==========================
// ApplyFilter
// ==========================

func TestApplyFilter_ActionByRatingDesc(t *testing.T) {
	items := []models.Movie{
		{Title: "The Notebook", Genres: []string{"Romance", "Drama"}, Rating: 7.8},
		{Title: "The Matrix", Genres: []string{"Action", "Sci-Fi"}, Rating: 8.7},
		{Title: "Avengers: Endgame", Genres: []string{"Action", "Adventure"}, Rating: 8.4},
	}

	got := ApplyFilter(items, models.FilterOptions{Genre: "Action", SortBy: "rating", SortOrder: "desc"})

	require.Len(t, got, 2)
	assert.Equal(t, 8.7, got[0].Rating)
	assert.Equal(t, 8.4, got[1].Rating)
}

func TestApplyFilter_GenreIsCaseInsensitiveSubstring(t *testing.T) {
	items := []models.Movie{
		{Title: "A", Genres: []string{"Science Fiction"}},
		{Title: "B", Genres: []string{"Drama"}},
	}
	assert.Equal(t, []string{"A"}, titles(ApplyFilter(items, models.FilterOptions{Genre: "FICTION", SortBy: "title"})))
	assert.Len(t, ApplyFilter(items, models.FilterOptions{Genre: "all"}), 2)
	assert.Len(t, ApplyFilter(items, models.FilterOptions{Genre: "All"}), 2)
}

func TestApplyFilter_StableOnTies(t *testing.T) {
	items := []models.Movie{
		{Title: "first", Year: 2000},
		{Title: "second", Year: 2000},
		{Title: "third", Year: 1990},
	}

	asc := ApplyFilter(items, models.FilterOptions{SortBy: "year", SortOrder: "asc"})
	assert.Equal(t, []string{"third", "first", "second"}, titles(asc))

	desc := ApplyFilter(items, models.FilterOptions{SortBy: "year", SortOrder: "desc"})
	assert.Equal(t, []string{"first", "second", "third"}, titles(desc))
}

func TestApplyFilter_PredictionMissingCountsAsZero(t *testing.T) {
	items := []models.Movie{
		{Title: "unscored"},
		{Title: "low", CompletionLikelihood: ptr(30)},
		{Title: "high", CompletionLikelihood: ptr(80)},
	}
	got := ApplyFilter(items, models.FilterOptions{SortBy: "prediction", SortOrder: "asc"})
	assert.Equal(t, []string{"unscored", "low", "high"}, titles(got))
}

func TestApplyFilter_TitleAndDefaults(t *testing.T) {
	items := []models.Movie{{Title: "b", Rating: 9}, {Title: "a", Rating: 5}, {Title: "c", Rating: 7}}

	assert.Equal(t, []string{"a", "b", "c"}, titles(ApplyFilter(items, models.FilterOptions{SortBy: "title", SortOrder: "asc"})))
	// default is rating, desc
	assert.Equal(t, []string{"b", "c", "a"}, titles(ApplyFilter(items, models.FilterOptions{})))
	// input untouched
	assert.Equal(t, []string{"b", "a", "c"}, titles(items))
}

// ==========================
// Chain
// ==========================

func TestChain_PrimaryFailsSecondaryAnswers(t *testing.T) {
	var hookCalls int
	chain := NewChain(logger.NewTestLogger(t),
		[]Source{failingSource("tmdb"), SampleSource{}},
		OnUnavailable(func(models.FilterOptions, []Attempt) { hookCalls++ }),
	)

	res := chain.Load(context.Background(), models.DefaultFilter())

	assert.False(t, res.Unavailable)
	assert.Equal(t, SourceSample, res.Source)
	assert.Len(t, res.Movies, len(sampleMovies))
	assert.Equal(t, "Inception", res.Movies[0].Title)
	require.Len(t, res.Attempts, 2)
	assert.NotEmpty(t, res.Attempts[0].Error)
	assert.Empty(t, res.Attempts[1].Error)
	assert.Zero(t, hookCalls)
}

func TestChain_FirstSuccessShortCircuits(t *testing.T) {
	var secondCalled bool
	second := SourceFunc{SourceName: "second", Fn: func(context.Context, models.FilterOptions) ([]models.Movie, error) {
		secondCalled = true
		return nil, nil
	}}
	chain := NewChain(logger.NewNoOpLogger(), []Source{staticSource("first", models.Movie{Title: "x"}), second})

	res := chain.Load(context.Background(), models.DefaultFilter())
	assert.Equal(t, "first", res.Source)
	assert.False(t, secondCalled)
}

func TestChain_AllFailSignalsOnce(t *testing.T) {
	var hookCalls int
	chain := NewChain(logger.NewTestLogger(t),
		[]Source{failingSource("tmdb"), failingSource("service")},
		OnUnavailable(func(_ models.FilterOptions, attempts []Attempt) {
			hookCalls++
			assert.Len(t, attempts, 2)
		}),
	)

	res := chain.Load(context.Background(), models.DefaultFilter())

	assert.True(t, res.Unavailable)
	assert.NotNil(t, res.Movies)
	assert.Empty(t, res.Movies)
	assert.Equal(t, 1, hookCalls)
}

func TestChain_CancelledContextStops(t *testing.T) {
	var hookCalls int
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewChain(logger.NewNoOpLogger(), []Source{SampleSource{}},
		OnUnavailable(func(models.FilterOptions, []Attempt) { hookCalls++ }))
	res := chain.Load(ctx, models.DefaultFilter())

	assert.Empty(t, res.Movies)
	assert.False(t, res.Unavailable)
	assert.Zero(t, hookCalls)
}

func TestNewChainFromConfig_UnknownSource(t *testing.T) {
	cfg := &config.Config{Catalog: config.CatalogConfig{Sources: []string{"imdb"}}}
	_, err := NewChainFromConfig(cfg, logger.NewNoOpLogger())
	assert.Error(t, err)
}

// ==========================
// TMDBSource
// ==========================

func tmdbConfig(baseURL string) config.TMDBConfig {
	return config.TMDBConfig{
		BaseURL:      baseURL,
		APIKey:       "test-key",
		Language:     "en-US",
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		Timeout:      2000,
		MaxResults:   20,
	}
}

func TestTMDBSource_QueryAndMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "popularity.desc", q.Get("sort_by"))
		assert.Equal(t, "28", q.Get("with_genres"))
		assert.Equal(t, "7", q.Get("vote_average.gte"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"total_results": 1,
			"results": []map[string]interface{}{{
				"id":           603,
				"title":        "The Matrix",
				"release_date": "1999-03-30",
				"poster_path":  "/matrix.jpg",
				"vote_average": 8.216,
				"overview":     "",
				"genre_ids":    []int{28, 878},
			}},
		})
	}))
	defer server.Close()

	src := NewTMDBSource(tmdbConfig(server.URL))
	movies, err := src.Fetch(context.Background(), models.FilterOptions{Genre: "action", MinRating: 7})
	require.NoError(t, err)
	require.Len(t, movies, 1)

	m := movies[0]
	assert.Equal(t, "603", m.ID)
	assert.Equal(t, 1999, m.Year)
	assert.Equal(t, 8.2, m.Rating)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/matrix.jpg", m.PosterRef)
	assert.Equal(t, []string{"Action", "Science Fiction"}, m.Genres)
	assert.Equal(t, "Unknown", m.Director)
	assert.Equal(t, "PG-13", m.ContentRating)
	assert.Equal(t, "N/A", m.StarCast)
	assert.Equal(t, 120, m.Runtime)
	assert.Equal(t, "No description available.", m.Description)
}

func TestTMDBSource_UnmappedGenreIsOmitted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("with_genres"))
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	movies, err := NewTMDBSource(tmdbConfig(server.URL)).Fetch(context.Background(), models.FilterOptions{Genre: "Bollywood"})
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestTMDBSource_StatusFailureFallsThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	chain := NewChain(logger.NewNoOpLogger(), []Source{NewTMDBSource(tmdbConfig(server.URL)), SampleSource{}})
	res := chain.Load(context.Background(), models.DefaultFilter())
	assert.Equal(t, SourceSample, res.Source)
}

func TestTMDBSource_MissingKey(t *testing.T) {
	cfg := tmdbConfig("http://127.0.0.1:1")
	cfg.APIKey = ""
	_, err := NewTMDBSource(cfg).Fetch(context.Background(), models.DefaultFilter())
	assert.Error(t, err)
}

// ==========================
// ServiceSource
// ==========================

func TestServiceSource_Mapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movies", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "6", r.URL.Query().Get("min_rating"))
		assert.Equal(t, "Drama", r.URL.Query().Get("genre"))

		_, _ = w.Write([]byte(`{
			"movies": [
				{"id": 42, "title": "Parasite", "year": 2019, "imdbRating": 8.6, "genre": ["Drama", "Thriller"], "director": "Bong Joon-ho", "runtime": 132},
				{"id": "tt01", "title": "Mystery Item", "year": 2001, "imdbRating": 6.1, "genre": []}
			],
			"total": 2
		}`))
	}))
	defer server.Close()

	src := NewServiceSource(apphttp.NewClient(time.Second), server.URL+"/", config.ServiceConfig{Limit: 100, MinRating: 6.0})
	movies, err := src.Fetch(context.Background(), models.FilterOptions{Genre: "Drama"})
	require.NoError(t, err)
	require.Len(t, movies, 2)

	assert.Equal(t, "42", movies[0].ID)
	assert.Equal(t, "Bong Joon-ho", movies[0].Director)
	assert.Equal(t, "PG-13", movies[0].ContentRating)
	assert.Equal(t, "Drama", movies[0].MainGenre)

	assert.Equal(t, "tt01", movies[1].ID)
	assert.Equal(t, "Unknown", movies[1].Director)
	assert.Equal(t, []string{"Drama"}, movies[1].Genres)
}

func TestServiceSource_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"movies": [{"id": {"nested": true}}]}`))
	}))
	defer server.Close()

	src := NewServiceSource(apphttp.NewClient(time.Second), server.URL, config.ServiceConfig{Limit: 10})
	_, err := src.Fetch(context.Background(), models.DefaultFilter())
	assert.Error(t, err)
}
