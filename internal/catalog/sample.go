package catalog

import (
	"context"

	"movie-dropoff/internal/models"
)

const SourceSample = "sample"

var sampleMovies = []models.Movie{
	{
		ID: "1", Title: "The Matrix", Genres: []string{"Action", "Sci-Fi"}, Year: 1999,
		Director: "The Wachowskis", Runtime: 136, Rating: 8.7, ContentRating: "R",
		Description: "A computer hacker learns from mysterious rebels about the true nature of his reality.",
	},
	{
		ID: "2", Title: "Inception", Genres: []string{"Action", "Sci-Fi", "Thriller"}, Year: 2010,
		Director: "Christopher Nolan", Runtime: 148, Rating: 8.8, ContentRating: "PG-13",
		Description: "A thief who steals corporate secrets through dream-sharing technology.",
	},
	{
		ID: "3", Title: "The Notebook", Genres: []string{"Romance", "Drama"}, Year: 2004,
		Director: "Nick Cassavetes", Runtime: 123, Rating: 7.8, ContentRating: "PG-13",
		Description: "A poor yet passionate young man falls in love with a rich young woman.",
	},
	{
		ID: "4", Title: "Avengers: Endgame", Genres: []string{"Action", "Adventure", "Drama"}, Year: 2019,
		Director: "Anthony Russo", Runtime: 181, Rating: 8.4, ContentRating: "PG-13",
		Description: "The Avengers assemble once more to reverse Thanos' actions.",
	},
	{
		ID: "5", Title: "Parasite", Genres: []string{"Comedy", "Drama", "Thriller"}, Year: 2019,
		Director: "Bong Joon-ho", Runtime: 132, Rating: 8.6, ContentRating: "R",
		Description: "A poor family schemes to become employed by a wealthy family.",
	},
	{
		ID: "6", Title: "The Conjuring", Genres: []string{"Horror", "Mystery", "Thriller"}, Year: 2013,
		Director: "James Wan", Runtime: 112, Rating: 7.5, ContentRating: "R",
		Description: "Paranormal investigators help a family terrorized by a dark presence.",
	},
}

// SampleSource serves a small fixed catalog. It never fails.
type SampleSource struct{}

func (SampleSource) Name() string { return SourceSample }

func (SampleSource) Fetch(_ context.Context, _ models.FilterOptions) ([]models.Movie, error) {
	out := models.CloneMovies(sampleMovies)
	for i := range out {
		out[i].FillPlaceholders()
	}
	return out, nil
}
