package reviews

import (
	"context"
	"errors"
	"testing"
)

func TestUpsertReplacesExistingReview(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.Upsert(ctx, Review{UserID: "u1", MediaType: MediaTypeShow, TMDBID: 100, Score: 6, Body: "fine"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := s.Upsert(ctx, Review{UserID: "u1", MediaType: MediaTypeShow, TMDBID: 100, Score: 9, Body: "grew on me"})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected the same review id on replace, got %s and %s", first.ID, second.ID)
	}
	if second.Score != 9 || second.Body != "grew on me" {
		t.Fatalf("expected replaced score and body, got %+v", second)
	}

	sum, err := s.GetSummary(ctx, MediaTypeShow, 100)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalReviews != 1 || sum.AverageScore != 9 {
		t.Fatalf("expected one review averaging 9, got %+v", sum)
	}
}

func TestUpsertValidation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cases := []struct {
		name string
		r    Review
		want error
	}{
		{"missing user", Review{MediaType: MediaTypeShow, TMDBID: 1, Score: 5}, ErrUserIDRequired},
		{"bad media type", Review{UserID: "u1", MediaType: "book", TMDBID: 1, Score: 5}, ErrInvalidMediaType},
		{"score too low", Review{UserID: "u1", MediaType: MediaTypeMovie, TMDBID: 1, Score: 0}, ErrInvalidScore},
		{"score too high", Review{UserID: "u1", MediaType: MediaTypeMovie, TMDBID: 1, Score: 11}, ErrInvalidScore},
	}
	for _, tc := range cases {
		if _, err := s.Upsert(ctx, tc.r); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestDeleteMissingReview(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Delete(context.Background(), "u1", MediaTypeShow, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListForTitlePagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		user := string(rune('a' + i))
		if _, err := s.Upsert(ctx, Review{UserID: user, MediaType: MediaTypeMovie, TMDBID: 42, Score: i + 1}); err != nil {
			t.Fatalf("seed %s: %v", user, err)
		}
	}

	page1, cursor, err := s.ListForTitle(ctx, MediaTypeMovie, 42, 2, "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page1) != 2 || cursor == "" {
		t.Fatalf("expected a full first page with a cursor, got %d items cursor=%q", len(page1), cursor)
	}

	seen := map[string]bool{}
	for _, r := range page1 {
		seen[r.ID] = true
	}

	var rest []Review
	for cursor != "" {
		page, next, err := s.ListForTitle(ctx, MediaTypeMovie, 42, 2, cursor)
		if err != nil {
			t.Fatalf("page after %q: %v", cursor, err)
		}
		for _, r := range page {
			if seen[r.ID] {
				t.Fatalf("review %s returned on two pages", r.ID)
			}
			seen[r.ID] = true
		}
		rest = append(rest, page...)
		cursor = next
	}
	if len(page1)+len(rest) != 5 {
		t.Fatalf("expected all 5 reviews across pages, got %d", len(page1)+len(rest))
	}
}

func TestListForTitleBadCursor(t *testing.T) {
	s := NewMemoryStore()
	if _, _, err := s.ListForTitle(context.Background(), MediaTypeShow, 1, 10, "not-base64!"); !errors.Is(err, ErrBadCursor) {
		t.Fatalf("expected ErrBadCursor, got %v", err)
	}
}

func TestSummaryAverages(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for user, score := range map[string]int{"a": 4, "b": 6, "c": 8} {
		if _, err := s.Upsert(ctx, Review{UserID: user, MediaType: MediaTypeShow, TMDBID: 7, Score: score}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	sum, err := s.GetSummary(ctx, MediaTypeShow, 7)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalReviews != 3 || sum.AverageScore != 6 {
		t.Fatalf("expected 3 reviews averaging 6, got %+v", sum)
	}

	empty, err := s.GetSummary(ctx, MediaTypeShow, 999)
	if err != nil {
		t.Fatalf("empty summary: %v", err)
	}
	if empty.TotalReviews != 0 || empty.AverageScore != 0 {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}
