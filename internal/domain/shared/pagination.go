package shared

// PageRequest carries pagination parameters. Pages are 1-indexed.
type PageRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// DefaultPageRequest returns a page request with default values
func DefaultPageRequest() PageRequest {
	return PageRequest{Page: 1, Limit: 20}
}

// Normalize clamps the request to valid values. Page and limit below 1
// are raised to 1 rather than rejected, so callers never see an error
// for sloppy parameters.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	return p
}

// Paginated represents one page of an ordered collection
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Paginate slices the given collection according to req. It is a pure
// function over the live slice: no index is maintained anywhere.
//
// A page past the end of the collection yields an empty (non-nil) Data
// slice with Total and TotalPages still populated.
func Paginate[T any](items []T, req PageRequest) Paginated[T] {
	req = req.Normalize()

	total := len(items)
	totalPages := total / req.Limit
	if total%req.Limit > 0 {
		totalPages++
	}

	start := (req.Page - 1) * req.Limit
	end := start + req.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]T, end-start)
	copy(data, items[start:end])

	return Paginated[T]{
		Data:       data,
		Total:      int64(total),
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}
}
