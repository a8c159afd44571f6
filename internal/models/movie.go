package models

import "strings"

// Movie is a catalog entry as shown to the user. The two prediction fields
// are nil until enrichment has run.
type Movie struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Genres        []string `json:"genres"`
	Year          int      `json:"year"`
	Rating        float64  `json:"rating"`
	PosterRef     string   `json:"posterUrl,omitempty"`
	Description   string   `json:"description,omitempty"`
	Director      string   `json:"director,omitempty"`
	Runtime       int      `json:"runtime,omitempty"`
	ContentRating string   `json:"contentRating,omitempty"`
	StarCast      string   `json:"starCast,omitempty"`
	MainGenre     string   `json:"mainGenre,omitempty"`

	CompletionLikelihood *int `json:"completionLikelihood,omitempty"`
	DropoffProbability   *int `json:"dropoffProbability,omitempty"`
}

// Placeholders for catalog fields a source cannot supply.
const (
	PlaceholderDirector      = "Unknown"
	PlaceholderContentRating = "PG-13"
	PlaceholderStarCast      = "N/A"
	PlaceholderRuntime       = 120
	PlaceholderGenre         = "Drama"
)

// FillPlaceholders sets every empty display field to its placeholder.
func (m *Movie) FillPlaceholders() {
	if m.Director == "" {
		m.Director = PlaceholderDirector
	}
	if m.ContentRating == "" {
		m.ContentRating = PlaceholderContentRating
	}
	if m.StarCast == "" {
		m.StarCast = PlaceholderStarCast
	}
	if m.Runtime == 0 {
		m.Runtime = PlaceholderRuntime
	}
	if len(m.Genres) == 0 {
		m.Genres = []string{PlaceholderGenre}
	}
	if m.MainGenre == "" {
		m.MainGenre = m.Genres[0]
	}
}

func (m Movie) HasGenre(substr string) bool {
	needle := strings.ToLower(substr)
	for _, g := range m.Genres {
		if strings.Contains(strings.ToLower(g), needle) {
			return true
		}
	}
	return false
}

func (m Movie) WithoutPrediction() Movie {
	m.CompletionLikelihood = nil
	m.DropoffProbability = nil
	return m
}

func (m Movie) WithPrediction(completion, dropoff int) Movie {
	m.CompletionLikelihood = &completion
	m.DropoffProbability = &dropoff
	return m
}

// CloneMovies copies the slice and each genre list.
func CloneMovies(in []Movie) []Movie {
	out := make([]Movie, len(in))
	for i, m := range in {
		m.Genres = append([]string(nil), m.Genres...)
		out[i] = m
	}
	return out
}
