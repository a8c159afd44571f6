package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	GenreAll = "all"

	SortByTitle      = "title"
	SortByYear       = "year"
	SortByRating     = "rating"
	SortByPrediction = "prediction"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// FilterOptions narrows and orders a catalog listing. MinRating, YearFrom
// and YearTo are forwarded to sources that support them; zero means unset.
type FilterOptions struct {
	Genre     string  `json:"genre"`
	SortBy    string  `json:"sortBy" validate:"omitempty,oneof=title year rating prediction"`
	SortOrder string  `json:"sortOrder" validate:"omitempty,oneof=asc desc"`
	MinRating float64 `json:"minRating,omitempty" validate:"gte=0,lte=10"`
	YearFrom  int     `json:"yearFrom,omitempty" validate:"omitempty,gte=1870,lte=2100"`
	YearTo    int     `json:"yearTo,omitempty" validate:"omitempty,gte=1870,lte=2100,gtefield=YearFrom"`
}

func DefaultFilter() FilterOptions {
	return FilterOptions{Genre: GenreAll, SortBy: SortByRating, SortOrder: SortDesc}
}

// WithDefaults fills empty fields with the listing defaults.
func (f FilterOptions) WithDefaults() FilterOptions {
	if strings.TrimSpace(f.Genre) == "" {
		f.Genre = GenreAll
	}
	if f.SortBy == "" {
		f.SortBy = SortByRating
	}
	if f.SortOrder == "" {
		f.SortOrder = SortDesc
	}
	return f
}

func (f FilterOptions) AllGenres() bool {
	return strings.EqualFold(strings.TrimSpace(f.Genre), GenreAll) || strings.TrimSpace(f.Genre) == ""
}

var validate = validator.New()

func (f FilterOptions) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	return nil
}
