package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"movie-dropoff/internal/common/config"
	apphttp "movie-dropoff/internal/common/http"
	"movie-dropoff/internal/models"
)

const SourceService = "service"

type serviceMoviesResponse struct {
	Movies         []serviceMovie         `json:"movies"`
	Total          int                    `json:"total"`
	FiltersApplied map[string]interface{} `json:"filters_applied"`
}

type serviceMovie struct {
	ID            movieID  `json:"id"`
	Title         string   `json:"title"`
	Year          int      `json:"year"`
	IMDBRating    float64  `json:"imdbRating"`
	Genre         []string `json:"genre"`
	Director      string   `json:"director"`
	Runtime       int      `json:"runtime"`
	ContentRating string   `json:"contentRating"`
	StarCast      string   `json:"starCast"`
	PosterURL     string   `json:"posterUrl"`
	Description   string   `json:"description"`
	MainGenre     string   `json:"mainGenre"`
}

// movieID accepts both numeric and string ids.
type movieID string

func (id *movieID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = movieID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("movie id: %w", err)
	}
	*id = movieID(n.String())
	return nil
}

// ServiceSource lists movies from the prediction service's own catalog.
type ServiceSource struct {
	client  *apphttp.Client
	baseURL string
	cfg     config.ServiceConfig
}

func NewServiceSource(client *apphttp.Client, baseURL string, cfg config.ServiceConfig) *ServiceSource {
	return &ServiceSource{client: client, baseURL: strings.TrimRight(baseURL, "/"), cfg: cfg}
}

func (s *ServiceSource) Name() string { return SourceService }

func (s *ServiceSource) Fetch(ctx context.Context, filter models.FilterOptions) ([]models.Movie, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(s.cfg.Limit))
	if !filter.AllGenres() {
		q.Set("genre", filter.Genre)
	}
	minRating := s.cfg.MinRating
	if filter.MinRating > 0 {
		minRating = filter.MinRating
	}
	if minRating > 0 {
		q.Set("min_rating", strconv.FormatFloat(minRating, 'f', -1, 64))
	}
	if filter.YearFrom > 0 {
		q.Set("year_from", strconv.Itoa(filter.YearFrom))
	}
	if filter.YearTo > 0 {
		q.Set("year_to", strconv.Itoa(filter.YearTo))
	}

	var resp serviceMoviesResponse
	if err := s.client.GetJSON(ctx, s.baseURL+"/movies?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	movies := make([]models.Movie, 0, len(resp.Movies))
	for _, sm := range resp.Movies {
		m := models.Movie{
			ID:            string(sm.ID),
			Title:         sm.Title,
			Genres:        sm.Genre,
			Year:          sm.Year,
			Rating:        sm.IMDBRating,
			PosterRef:     sm.PosterURL,
			Description:   sm.Description,
			Director:      sm.Director,
			Runtime:       sm.Runtime,
			ContentRating: sm.ContentRating,
			StarCast:      sm.StarCast,
			MainGenre:     sm.MainGenre,
		}
		m.FillPlaceholders()
		movies = append(movies, m)
	}
	return movies, nil
}
