package catalog

import (
	"sort"
	"strings"

	"movie-dropoff/internal/models"
)

// ApplyFilter returns a new slice: items whose genres contain filter.Genre
// (case-insensitive substring, skipped for "all"), stably sorted by
// filter.SortBy. Desc negates the comparison, so ties keep source order
// either way.
func ApplyFilter(items []models.Movie, filter models.FilterOptions) []models.Movie {
	filter = filter.WithDefaults()

	out := make([]models.Movie, 0, len(items))
	for _, m := range items {
		if filter.AllGenres() || m.HasGenre(strings.TrimSpace(filter.Genre)) {
			out = append(out, m)
		}
	}

	sign := 1
	if filter.SortOrder == models.SortDesc {
		sign = -1
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sign*compare(out[i], out[j], filter.SortBy) < 0
	})
	return out
}

func compare(a, b models.Movie, sortBy string) int {
	switch sortBy {
	case models.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	case models.SortByYear:
		return cmpInt(a.Year, b.Year)
	case models.SortByPrediction:
		return cmpInt(intOrZero(a.CompletionLikelihood), intOrZero(b.CompletionLikelihood))
	default:
		return cmpFloat(a.Rating, b.Rating)
	}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
