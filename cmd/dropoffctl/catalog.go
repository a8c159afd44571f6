package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"movie-dropoff/internal/browse"
	"movie-dropoff/internal/models"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List movies with completion estimates",
	Long:  "Loads the catalog from the configured sources, filters and sorts it, and attaches completion estimates when the session has a submitted survey.",
	RunE:  runCatalog,
}

var (
	catalogSessionID string
	catalogFilter    models.FilterOptions
	catalogJSON      bool
)

func init() {
	catalogCmd.Flags().StringVarP(&catalogSessionID, "session", "s", "", "Session id whose survey drives the estimates")
	catalogCmd.Flags().StringVarP(&catalogFilter.Genre, "genre", "g", models.GenreAll, "Genre to keep, or 'all'")
	catalogCmd.Flags().StringVar(&catalogFilter.SortBy, "sort", models.SortByRating, "Sort by title, year, rating or prediction")
	catalogCmd.Flags().StringVar(&catalogFilter.SortOrder, "order", models.SortDesc, "asc or desc")
	catalogCmd.Flags().Float64Var(&catalogFilter.MinRating, "min-rating", 0, "Minimum rating (0-10)")
	catalogCmd.Flags().IntVar(&catalogFilter.YearFrom, "year-from", 0, "Earliest release year")
	catalogCmd.Flags().IntVar(&catalogFilter.YearTo, "year-to", 0, "Latest release year")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "Print the page as JSON")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, _, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.Browse.Refresh(ctx, catalogSessionID, catalogFilter)
	if err != nil {
		return err
	}
	if catalogJSON {
		return printJSON(cmd.OutOrStdout(), page)
	}
	printPage(cmd.OutOrStdout(), page)
	return nil
}

func printPage(w io.Writer, page *browse.Page) {
	if page.CatalogUnavailable {
		fmt.Fprintln(w, page.Warning)
		return
	}
	if page.PredictionError != "" {
		fmt.Fprintf(w, "Predictions unavailable: %s\n", page.PredictionError)
	}
	fmt.Fprintf(w, "%d movies from %s\n\n", len(page.Movies), page.Source)

	for _, m := range page.Movies {
		estimate := "-"
		if m.CompletionLikelihood != nil {
			estimate = fmt.Sprintf("%d%% finish / %d%% dropoff", *m.CompletionLikelihood, *m.DropoffProbability)
		}
		fmt.Fprintf(w, "%-40s %4d  %3.1f  %-28s %s\n",
			truncate(m.Title, 40), m.Year, m.Rating, truncate(strings.Join(m.Genres, ", "), 28), estimate)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
