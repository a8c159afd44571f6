package catalog

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"movie-dropoff/internal/common/config"
	apphttp "movie-dropoff/internal/common/http"
	"movie-dropoff/internal/models"
)

const SourceTMDB = "tmdb"

type tmdbDiscoverResponse struct {
	Page         int         `json:"page"`
	TotalResults int         `json:"total_results"`
	Results      []tmdbMovie `json:"results"`
}

type tmdbMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	Overview    string  `json:"overview"`
	GenreIDs    []int   `json:"genre_ids"`
	Runtime     int     `json:"runtime"`
}

// TMDBSource queries the content provider's discover endpoint.
type TMDBSource struct {
	client *apphttp.Client
	cfg    config.TMDBConfig
}

func NewTMDBSource(cfg config.TMDBConfig) *TMDBSource {
	opts := []apphttp.Option{apphttp.WithGetRetries(1, 0)}
	if cfg.RateLimit > 0 {
		opts = append(opts, apphttp.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.Burst, 1))))
	}
	return &TMDBSource{
		client: apphttp.NewClient(config.GetDuration(cfg.Timeout), opts...),
		cfg:    cfg,
	}
}

func (s *TMDBSource) Name() string { return SourceTMDB }

func (s *TMDBSource) Fetch(ctx context.Context, filter models.FilterOptions) ([]models.Movie, error) {
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("tmdb: api key not configured")
	}

	var resp tmdbDiscoverResponse
	if err := s.client.GetJSON(ctx, s.discoverURL(filter), &resp); err != nil {
		return nil, err
	}

	results := resp.Results
	if s.cfg.MaxResults > 0 && len(results) > s.cfg.MaxResults {
		results = results[:s.cfg.MaxResults]
	}
	movies := make([]models.Movie, 0, len(results))
	for _, r := range results {
		movies = append(movies, s.toMovie(r))
	}
	return movies, nil
}

// discoverURL drops genres the lookup table does not know instead of
// failing the request.
func (s *TMDBSource) discoverURL(filter models.FilterOptions) string {
	q := url.Values{}
	q.Set("api_key", s.cfg.APIKey)
	q.Set("language", s.cfg.Language)
	q.Set("sort_by", "popularity.desc")
	q.Set("page", "1")
	if !filter.AllGenres() {
		if id, ok := GenreID(filter.Genre); ok {
			q.Set("with_genres", strconv.Itoa(id))
		}
	}
	if filter.MinRating > 0 {
		q.Set("vote_average.gte", strconv.FormatFloat(filter.MinRating, 'f', -1, 64))
	}
	if filter.YearFrom > 0 {
		q.Set("primary_release_date.gte", fmt.Sprintf("%04d-01-01", filter.YearFrom))
	}
	if filter.YearTo > 0 {
		q.Set("primary_release_date.lte", fmt.Sprintf("%04d-12-31", filter.YearTo))
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/discover/movie?" + q.Encode()
}

func (s *TMDBSource) toMovie(r tmdbMovie) models.Movie {
	m := models.Movie{
		ID:          strconv.Itoa(r.ID),
		Title:       r.Title,
		Genres:      genreNames(r.GenreIDs),
		Year:        releaseYear(r.ReleaseDate),
		Rating:      math.Round(r.VoteAverage*10) / 10,
		Description: r.Overview,
		Runtime:     r.Runtime,
	}
	if r.PosterPath != "" {
		m.PosterRef = strings.TrimRight(s.cfg.ImageBaseURL, "/") + r.PosterPath
	}
	if m.Description == "" {
		m.Description = "No description available."
	}
	m.FillPlaceholders()
	return m
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
