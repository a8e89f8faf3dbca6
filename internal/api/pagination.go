package api

import (
	"net/http"
	"strconv"
)

// Paging defaults for the list endpoints.
const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// page is a parsed ?page=&limit= pair.
type page struct {
	Number int
	Limit  int
}

// Offset is the number of rows to skip.
func (p page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// TotalPages is ceil(total/limit).
func (p page) TotalPages(total int) int {
	return (total + p.Limit - 1) / p.Limit
}

// parsePage reads page and limit. Missing, non-numeric or non-positive
// values fall back to the defaults; limit is capped at maxLimit.
func parsePage(r *http.Request) page {
	p := page{Number: defaultPage, Limit: defaultLimit}
	q := r.URL.Query()
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Number = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = min(n, maxLimit)
	}
	return p
}
