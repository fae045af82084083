package types

import "strconv"

// Sort options for recipe listings
const (
	SortPopular = "popular"
	SortRecent  = "recent"
)

const (
	defaultPage  = 1
	defaultLimit = 12
)

// PageQuery is a listing request after defaults are applied
type PageQuery struct {
	Page       int
	Limit      int
	Skip       int
	SortOption string
	Query      string
}

// ParsePageQuery applies listing defaults to raw query values.
// Non-numeric or non-positive page and limit fall back to 1 and 12.
func ParsePageQuery(page, limit, sortOption, query string) PageQuery {
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		p = defaultPage
	}
	l, err := strconv.Atoi(limit)
	if err != nil || l < 1 {
		l = defaultLimit
	}
	if sortOption == "" {
		sortOption = SortPopular
	}
	return PageQuery{
		Page:       p,
		Limit:      l,
		Skip:       (p - 1) * l,
		SortOption: sortOption,
		Query:      query,
	}
}

// TotalPages returns the page count for total items
func (q PageQuery) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(q.Limit) - 1) / int64(q.Limit))
}
