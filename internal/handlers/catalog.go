package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/example/media-catalog/internal/platform/analytics"
	"github.com/example/media-catalog/internal/platform/api"
	"github.com/example/media-catalog/internal/platform/cache"
	"github.com/example/media-catalog/internal/platform/httpserver"
	"github.com/example/media-catalog/internal/tmdb"
)

// minSearchQueryLen gates search: shorter queries never reach the metadata
// service.
const minSearchQueryLen = 2

// CatalogClient is the slice of the metadata client the HTTP layer consumes.
type CatalogClient interface {
	ShowDetails(ctx context.Context, id int64) (*tmdb.Show, error)
	MovieDetails(ctx context.Context, id int64) (*tmdb.Movie, error)
	SeasonDetails(ctx context.Context, showID int64, season int) (*tmdb.Season, error)
	SearchShows(ctx context.Context, query string, page int) (tmdb.Page[tmdb.Show], error)
	SearchMovies(ctx context.Context, query string, page int) (tmdb.Page[tmdb.Movie], error)
	PopularShows(ctx context.Context, page int) (tmdb.Page[tmdb.Show], error)
	PopularMovies(ctx context.Context, page int) (tmdb.Page[tmdb.Movie], error)
	DiscoverShows(ctx context.Context, page int) (tmdb.Page[tmdb.Show], error)
	DiscoverMovies(ctx context.Context, page int) (tmdb.Page[tmdb.Movie], error)
	Trending(ctx context.Context, mediaType string, page int) (tmdb.Page[tmdb.TrendingEntry], error)
}

// CatalogDeps carries the catalog handlers' collaborators. Volatile holds the
// short-lived query results, Reference the near-static title details.
type CatalogDeps struct {
	Client      CatalogClient
	Volatile    cache.Cache
	Reference   cache.Cache
	Events      *analytics.Publisher
	PageCeiling int
}

// listResponse is the wire shape for every paginated listing. has_next and
// next_page already account for any page ceiling on the query kind.
type listResponse[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	NextPage   int  `json:"next_page,omitempty"`
}

func openList[T any](p tmdb.Page[T]) listResponse[T] {
	return listResponse[T]{
		Items:      p.Items,
		Page:       p.PageNumber,
		TotalPages: p.TotalPages,
		HasNext:    p.HasNext(),
		NextPage:   p.NextPage(),
	}
}

func cappedList[T any](p tmdb.Page[T], ceiling int) listResponse[T] {
	return listResponse[T]{
		Items:      p.Items,
		Page:       p.PageNumber,
		TotalPages: p.TotalPages,
		HasNext:    p.HasNextCapped(ceiling),
		NextPage:   p.NextPageCapped(ceiling),
	}
}

// GetShow handles GET /v1/shows/{show_id}
func GetShow(d CatalogDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		id, ok := pathInt64(chi.URLParam(r, "show_id"))
		if !ok {
			api.BadRequest(w, "INVALID_ID", "show_id must be a positive integer", rid, nil)
			return
		}

		key := cache.Key("ShowDetails", strconv.FormatInt(id, 10))
		var cached *tmdb.Show
		if d.Reference.Get(key, &cached) {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		show, err := d.Client.ShowDetails(r.Context(), id)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		d.Reference.Set(key, show)
		d.Events.Publish(analytics.SubjectTitleViewed, "title_viewed", userIDOrEmpty(r), map[string]any{
			"media_type": "tv", "tmdb_id": id,
		})
		api.WriteJSON(w, http.StatusOK, show)
	}
}

// GetMovie handles GET /v1/movies/{movie_id}
func GetMovie(d CatalogDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		id, ok := pathInt64(chi.URLParam(r, "movie_id"))
		if !ok {
			api.BadRequest(w, "INVALID_ID", "movie_id must be a positive integer", rid, nil)
			return
		}

		key := cache.Key("MovieDetails", strconv.FormatInt(id, 10))
		var cached *tmdb.Movie
		if d.Reference.Get(key, &cached) {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		movie, err := d.Client.MovieDetails(r.Context(), id)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		d.Reference.Set(key, movie)
		d.Events.Publish(analytics.SubjectTitleViewed, "title_viewed", userIDOrEmpty(r), map[string]any{
			"media_type": "movie", "tmdb_id": id,
		})
		api.WriteJSON(w, http.StatusOK, movie)
	}
}

// GetSeason handles GET /v1/shows/{show_id}/seasons/{season_number}
func GetSeason(d CatalogDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		id, ok := pathInt64(chi.URLParam(r, "show_id"))
		if !ok {
			api.BadRequest(w, "INVALID_ID", "show_id must be a positive integer", rid, nil)
			return
		}
		season, ok := pathInt(chi.URLParam(r, "season_number"))
		if !ok {
			api.BadRequest(w, "INVALID_SEASON", "season_number must be a positive integer", rid, nil)
			return
		}

		key := cache.Key("SeasonDetails", strconv.FormatInt(id, 10), strconv.Itoa(season))
		var cached *tmdb.Season
		if d.Reference.Get(key, &cached) {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		s, err := d.Client.SeasonDetails(r.Context(), id, season)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		d.Reference.Set(key, s)
		api.WriteJSON(w, http.StatusOK, s)
	}
}

// SearchShows handles GET /v1/search/shows?q=&page=
func SearchShows(d CatalogDeps) http.HandlerFunc {
	return searchHandler(d, "SearchShows", d.Client.SearchShows)
}

// SearchMovies handles GET /v1/search/movies?q=&page=
func SearchMovies(d CatalogDeps) http.HandlerFunc {
	return searchHandler(d, "SearchMovies", d.Client.SearchMovies)
}

func searchHandler[T any](d CatalogDeps, queryName string, fetch func(context.Context, string, int) (tmdb.Page[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if utf8.RuneCountInString(q) < minSearchQueryLen {
			api.BadRequest(w, "QUERY_TOO_SHORT", "q must be at least 2 characters", rid, nil)
			return
		}
		page := queryPage(r)

		key := cache.Key(queryName, q, strconv.Itoa(page))
		var cached listResponse[T]
		if d.Volatile.Get(key, &cached) {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		result, err := fetch(r.Context(), q, page)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		resp := openList(result)
		d.Volatile.Set(key, resp)
		d.Events.Publish(analytics.SubjectSearchPerformed, "search_performed", userIDOrEmpty(r), map[string]any{
			"query": q, "page": page, "results": len(resp.Items),
		})
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// PopularShows handles GET /v1/shows/popular?page=
func PopularShows(d CatalogDeps) http.HandlerFunc {
	return cappedListHandler(d, "PopularShows", d.Client.PopularShows)
}

// PopularMovies handles GET /v1/movies/popular?page=
func PopularMovies(d CatalogDeps) http.HandlerFunc {
	return cappedListHandler(d, "PopularMovies", d.Client.PopularMovies)
}

// DiscoverShows handles GET /v1/discover/shows?page=
func DiscoverShows(d CatalogDeps) http.HandlerFunc {
	return cappedListHandler(d, "DiscoverShows", d.Client.DiscoverShows)
}

// DiscoverMovies handles GET /v1/discover/movies?page=
func DiscoverMovies(d CatalogDeps) http.HandlerFunc {
	return cappedListHandler(d, "DiscoverMovies", d.Client.DiscoverMovies)
}

// cappedListHandler serves the open-ended feeds whose pagination stops at the
// configured ceiling no matter what total the upstream reports.
func cappedListHandler[T any](d CatalogDeps, queryName string, fetch func(context.Context, int) (tmdb.Page[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		page := queryPage(r)

		key := cache.Key(queryName, strconv.Itoa(page))
		var cached listResponse[T]
		if d.Volatile.Get(key, &cached) {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		result, err := fetch(r.Context(), page)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		resp := cappedList(result, d.PageCeiling)
		d.Volatile.Set(key, resp)
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// Trending handles GET /v1/trending/{media_type}?page=
func Trending(d CatalogDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		mediaType := strings.TrimSpace(chi.URLParam(r, "media_type"))
		switch mediaType {
		case "tv", "movie", "all":
		default:
			api.BadRequest(w, "INVALID_MEDIA_TYPE", "media_type must be tv, movie or all", rid, nil)
			return
		}
		page := queryPage(r)

		key := cache.Key("Trending", mediaType, strconv.Itoa(page))
		var cached listResponse[tmdb.TrendingEntry]
		if d.Volatile.Get(key, &cached) {
			api.WriteJSON(w, http.StatusOK, cached)
			return
		}

		result, err := d.Client.Trending(r.Context(), mediaType, page)
		if err != nil {
			writeDomainError(w, rid, err)
			return
		}
		resp := cappedList(result, d.PageCeiling)
		d.Volatile.Set(key, resp)
		api.WriteJSON(w, http.StatusOK, resp)
	}
}
