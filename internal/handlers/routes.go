package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/example/media-catalog/internal/collections"
	"github.com/example/media-catalog/internal/platform/auth"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Catalog     CatalogDeps
	Progress    ProgressDeps
	Collections collections.Store
	Reviews     ReviewDeps
	Friends     FriendDeps
	Verifier    auth.JWTVerifier
}

// Mount attaches every route to the router. Catalog browsing and review
// reading are public; everything user-scoped sits behind the JWT middleware.
func Mount(r chi.Router, d Deps) {
	r.Get("/v1/shows/popular", PopularShows(d.Catalog))
	r.Get("/v1/shows/{show_id}", GetShow(d.Catalog))
	r.Get("/v1/shows/{show_id}/seasons/{season_number}", GetSeason(d.Catalog))
	r.Get("/v1/movies/popular", PopularMovies(d.Catalog))
	r.Get("/v1/movies/{movie_id}", GetMovie(d.Catalog))
	r.Get("/v1/search/shows", SearchShows(d.Catalog))
	r.Get("/v1/search/movies", SearchMovies(d.Catalog))
	r.Get("/v1/discover/shows", DiscoverShows(d.Catalog))
	r.Get("/v1/discover/movies", DiscoverMovies(d.Catalog))
	r.Get("/v1/trending/{media_type}", Trending(d.Catalog))

	r.Get("/v1/{media_type}/{tmdb_id}/reviews", ListReviews(d.Reviews))
	r.Get("/v1/{media_type}/{tmdb_id}/reviews/summary", ReviewSummary(d.Reviews))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(d.Verifier))

		r.Get("/v1/me", Me())

		r.Put("/v1/progress/{show_id}/{season_number}/{episode_number}", MarkWatched(d.Progress))
		r.Delete("/v1/progress/{show_id}/{season_number}/{episode_number}", MarkUnwatched(d.Progress))
		r.Get("/v1/progress/{show_id}", GetShowProgress(d.Progress))
		r.Get("/v1/recently-watched", RecentlyWatched(d.Progress))

		r.Post("/v1/collections", CreateCollection(d.Collections))
		r.Get("/v1/collections", ListCollections(d.Collections))
		r.Get("/v1/collections/{collection_id}", GetCollection(d.Collections))
		r.Patch("/v1/collections/{collection_id}", RenameCollection(d.Collections))
		r.Delete("/v1/collections/{collection_id}", DeleteCollection(d.Collections))
		r.Post("/v1/collections/{collection_id}/items", AddCollectionItem(d.Collections))
		r.Delete("/v1/collections/{collection_id}/items/{media_type}/{tmdb_id}", RemoveCollectionItem(d.Collections))

		r.Put("/v1/{media_type}/{tmdb_id}/reviews", UpsertReview(d.Reviews))
		r.Delete("/v1/{media_type}/{tmdb_id}/reviews", DeleteReview(d.Reviews))

		r.Get("/v1/friends", ListFriends(d.Friends))
		r.Delete("/v1/friends/{user_id}", RemoveFriend(d.Friends))
		r.Post("/v1/friends/requests", RequestFriend(d.Friends))
		r.Get("/v1/friends/requests", PendingFriends(d.Friends))
		r.Post("/v1/friends/requests/{requester_id}/accept", AcceptFriend(d.Friends))
	})
}
