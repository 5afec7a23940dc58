// Package tmdb is the metadata-provider client. It owns the HTTP contract
// with TMDB: request shaping, rate limiting, bounded retry on transient
// failures, and strict decoding into the boundary types.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"

	// ImageBaseURL prefixes every poster_path / backdrop_path.
	ImageBaseURL = "https://image.tmdb.org/t/p"
)

// ErrNotFound reports that TMDB has no entity for the requested id.
var ErrNotFound = errors.New("tmdb: not found")

// DecodeError reports a response body that did not match the declared shape.
// Surfacing it as its own type lets the HTTP layer map it to a gateway
// failure instead of a generic 500.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("tmdb: decode %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Client struct {
	baseURL  string
	apiKey   string
	language string
	httpc    *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

type Options struct {
	APIKey   string
	BaseURL  string
	Language string
	HTTPC    *http.Client
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPC == nil {
		opts.HTTPC = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Language == "" {
		opts.Language = "en-US"
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      strings.TrimSpace(opts.APIKey),
		language:    opts.Language,
		httpc:       opts.HTTPC,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

// doGET performs an HTTP GET with rate limiting and retry with exponential
// backoff on 429/5xx. 404 maps to ErrNotFound and is never retried.
func (c *Client) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	if c.apiKey == "" {
		return errors.New("tmdb: api key not configured")
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)
	query.Set("language", c.language)
	rawURL := c.baseURL + endpoint + "?" + query.Encode()

	const maxAttempts = 3
	var lastErr error
	backoff := 300 * time.Millisecond

	for attempt := 0; attempt < maxAttempts; attempt++ {
		c.throttleMu.Lock()
		since := time.Since(c.lastRequest)
		if since < c.minInterval {
			time.Sleep(c.minInterval - since)
		}
		c.lastRequest = time.Now()
		c.throttleMu.Unlock()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("tmdb: %s: %w", endpoint, err)
			if attempt == maxAttempts-1 || !sleepBackoff(ctx, backoff) {
				return lastErr
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("tmdb: %s: %s", endpoint, resp.Status)
			if attempt == maxAttempts-1 || !sleepBackoff(ctx, backoff) {
				return lastErr
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return fmt.Errorf("tmdb: %s: %s", endpoint, resp.Status)
		}

		err = json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(v)
		resp.Body.Close()
		if err != nil {
			return &DecodeError{Endpoint: endpoint, Err: err}
		}
		return nil
	}

	return lastErr
}

// sleepBackoff waits out the retry delay, returning false when the request
// context is cancelled first.
func sleepBackoff(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ShowDetails fetches a single TV show by TMDB id.
func (c *Client) ShowDetails(ctx context.Context, id int64) (*Show, error) {
	var out Show
	if err := c.doGET(ctx, "/tv/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MovieDetails fetches a single movie by TMDB id.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*Movie, error) {
	var out Movie
	if err := c.doGET(ctx, "/movie/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SeasonDetails fetches one season of a show, episodes included.
func (c *Client) SeasonDetails(ctx context.Context, showID int64, season int) (*Season, error) {
	endpoint := fmt.Sprintf("/tv/%d/season/%d", showID, season)
	var out Season
	if err := c.doGET(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchShows queries shows by title. Search paginates to full server depth.
func (c *Client) SearchShows(ctx context.Context, query string, page int) (Page[Show], error) {
	return listGET[Show](ctx, c, "/search/tv", listQuery(page, "query", query))
}

// SearchMovies queries movies by title. Search paginates to full server depth.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (Page[Movie], error) {
	return listGET[Movie](ctx, c, "/search/movie", listQuery(page, "query", query))
}

func (c *Client) PopularShows(ctx context.Context, page int) (Page[Show], error) {
	return listGET[Show](ctx, c, "/tv/popular", listQuery(page))
}

func (c *Client) PopularMovies(ctx context.Context, page int) (Page[Movie], error) {
	return listGET[Movie](ctx, c, "/movie/popular", listQuery(page))
}

func (c *Client) DiscoverShows(ctx context.Context, page int) (Page[Show], error) {
	return listGET[Show](ctx, c, "/discover/tv", listQuery(page, "sort_by", "popularity.desc"))
}

func (c *Client) DiscoverMovies(ctx context.Context, page int) (Page[Movie], error) {
	return listGET[Movie](ctx, c, "/discover/movie", listQuery(page, "sort_by", "popularity.desc"))
}

// Trending fetches the weekly trending feed for "tv", "movie" or "all".
func (c *Client) Trending(ctx context.Context, mediaType string, page int) (Page[TrendingEntry], error) {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	switch mt {
	case "tv", "movie", "all":
	default:
		return Page[TrendingEntry]{}, fmt.Errorf("tmdb: unsupported media type %q", mediaType)
	}
	raw, err := listGET[trendingItem](ctx, c, "/trending/"+mt+"/week", listQuery(page))
	if err != nil {
		return Page[TrendingEntry]{}, err
	}
	out := Page[TrendingEntry]{PageNumber: raw.PageNumber, TotalPages: raw.TotalPages}
	out.Items = make([]TrendingEntry, 0, len(raw.Items))
	for _, it := range raw.Items {
		out.Items = append(out.Items, normalizeTrending(mt, it))
	}
	return out, nil
}

func normalizeTrending(feedType string, it trendingItem) TrendingEntry {
	e := TrendingEntry{
		ID:           it.ID,
		MediaType:    it.MediaType,
		Overview:     it.Overview,
		PosterPath:   it.PosterPath,
		BackdropPath: it.BackdropPath,
		VoteAverage:  it.VoteAverage,
		Popularity:   it.Popularity,
	}
	if e.MediaType == "" && feedType != "all" {
		e.MediaType = feedType
	}
	if it.Title != "" && (e.MediaType == "movie" || it.Name == "") {
		e.Name = it.Title
		e.Date = it.ReleaseDate
	} else {
		e.Name = it.Name
		e.Date = it.FirstAirDate
	}
	return e
}

func listGET[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (Page[T], error) {
	var env listEnvelope[T]
	if err := c.doGET(ctx, endpoint, query, &env); err != nil {
		return Page[T]{}, err
	}
	if env.Page < 1 {
		return Page[T]{}, &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("invalid page number %d", env.Page)}
	}
	return pageOf(env), nil
}

func listQuery(page int, kv ...string) url.Values {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q
}

// ImageURL joins an image path onto the TMDB image host at the given size
// (e.g. "w500"). Empty paths yield an empty URL.
func ImageURL(imagePath, size string) string {
	p := strings.TrimSpace(imagePath)
	if p == "" {
		return ""
	}
	return ImageBaseURL + "/" + size + "/" + strings.TrimPrefix(p, "/")
}
