package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{APIKey: "test-key", BaseURL: srv.URL, HTTPC: srv.Client()})
}

func TestShowDetails_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/1399" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Fatal("api_key not forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1399,"name":"Game of Thrones","poster_path":"/poster.jpg","number_of_seasons":8}`))
	})

	show, err := c.ShowDetails(context.Background(), 1399)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if show.ID != 1399 || show.Name != "Game of Thrones" {
		t.Fatalf("unexpected show: %+v", show)
	}
	if show.NumberOfSeasons != 8 {
		t.Fatalf("expected 8 seasons, got %d", show.NumberOfSeasons)
	}
}

func TestShowDetails_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.ShowDetails(context.Background(), 999999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestShowDetails_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "not-a-number"`))
	})

	_, err := c.ShowDetails(context.Background(), 1)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}

func TestSearchShows_Envelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "dark" {
			t.Fatalf("expected query 'dark', got %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Fatalf("expected page 2, got %q", got)
		}
		_, _ = w.Write([]byte(`{"page":2,"total_pages":7,"results":[{"id":70523,"name":"Dark"}]}`))
	})

	p, err := c.SearchShows(context.Background(), "dark", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PageNumber != 2 || p.TotalPages != 7 {
		t.Fatalf("unexpected page meta: %+v", p)
	}
	if len(p.Items) != 1 || p.Items[0].Name != "Dark" {
		t.Fatalf("unexpected items: %+v", p.Items)
	}
	if !p.HasNext() {
		t.Fatal("expected next page")
	}
}

func TestSearchShows_InvalidPageNumber(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":0,"total_pages":0,"results":[]}`))
	})

	_, err := c.SearchShows(context.Background(), "x", 1)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError for page 0, got %v", err)
	}
}

func TestTrending_NormalizesMovieTitles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/all/week" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"page":1,"total_pages":3,"results":[
			{"id":1,"media_type":"movie","title":"Dune","release_date":"2021-10-22"},
			{"id":2,"media_type":"tv","name":"Severance","first_air_date":"2022-02-18"}]}`))
	})

	p, err := c.Trending(context.Background(), "all", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(p.Items))
	}
	if p.Items[0].Name != "Dune" || p.Items[0].Date != "2021-10-22" {
		t.Fatalf("movie title not normalized: %+v", p.Items[0])
	}
	if p.Items[1].Name != "Severance" {
		t.Fatalf("show name not carried: %+v", p.Items[1])
	}
}

func TestTrending_RejectsUnknownMediaType(t *testing.T) {
	c := NewClient(Options{APIKey: "k"})
	if _, err := c.Trending(context.Background(), "podcast", 1); err == nil {
		t.Fatal("expected error for unsupported media type")
	}
}

func TestRetry_ServerErrorThenSuccess(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"name":"ok"}`))
	})

	show, err := c.ShowDetails(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if show.Name != "ok" || attempts != 2 {
		t.Fatalf("expected retry then success, attempts=%d", attempts)
	}
}

func TestRetry_NoSleepAfterFinalAttempt(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	start := time.Now()
	_, err := c.ShowDetails(context.Background(), 1)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected an error after exhausted retries")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	// Two backoffs (300ms + 600ms) happen between attempts; a third after the
	// last failure would push this past 2s.
	if elapsed > 1500*time.Millisecond {
		t.Fatalf("retries took %v, final attempt must not back off", elapsed)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.ShowDetails(ctx, 1)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected an error")
	}
	if elapsed > 250*time.Millisecond {
		t.Fatalf("returned after %v, cancellation must cut the backoff short", elapsed)
	}
}

func TestImageURL(t *testing.T) {
	if got := ImageURL("/abc.jpg", "w500"); got != "https://image.tmdb.org/t/p/w500/abc.jpg" {
		t.Fatalf("unexpected url: %q", got)
	}
	if got := ImageURL("", "w500"); got != "" {
		t.Fatalf("expected empty url, got %q", got)
	}
}
