package tmdb

// Page is one page of a listing query. PageNumber starts at 1.
type Page[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"page"`
	TotalPages int `json:"total_pages"`
}

// HasNext reports whether the server has pages beyond this one.
func (p Page[T]) HasNext() bool {
	return p.PageNumber >= 1 && p.PageNumber < p.TotalPages
}

// HasNextCapped is HasNext with a page ceiling applied. Open-ended feeds
// (popular, discover, trending) stop at the ceiling no matter how deep the
// server says the listing goes; search is never capped. ceiling <= 0 means
// no cap.
func (p Page[T]) HasNextCapped(ceiling int) bool {
	if ceiling > 0 && p.PageNumber >= ceiling {
		return false
	}
	return p.HasNext()
}

// NextPage returns the next page number, or 0 when exhausted.
func (p Page[T]) NextPage() int {
	if !p.HasNext() {
		return 0
	}
	return p.PageNumber + 1
}

// NextPageCapped returns the next page number under a ceiling, or 0.
func (p Page[T]) NextPageCapped(ceiling int) int {
	if !p.HasNextCapped(ceiling) {
		return 0
	}
	return p.PageNumber + 1
}

func pageOf[T any](env listEnvelope[T]) Page[T] {
	items := env.Results
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, PageNumber: env.Page, TotalPages: env.TotalPages}
}
