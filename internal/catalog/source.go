// Package catalog loads the movie listing from an ordered list of sources
// and applies the user's genre filter and sort order.
package catalog

import (
	"context"

	"movie-dropoff/internal/models"
)

// Source is one place a movie listing can come from. Fetch returns an error
// for any transport, status or decode failure so the chain can move on.
type Source interface {
	Name() string
	Fetch(ctx context.Context, filter models.FilterOptions) ([]models.Movie, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc struct {
	SourceName string
	Fn         func(ctx context.Context, filter models.FilterOptions) ([]models.Movie, error)
}

func (s SourceFunc) Name() string { return s.SourceName }

func (s SourceFunc) Fetch(ctx context.Context, filter models.FilterOptions) ([]models.Movie, error) {
	return s.Fn(ctx, filter)
}
