package paging

import "strings"

// PerPage is the page size used by every paginated listing.
const PerPage = 10

type Params struct {
	Search   string
	Paginate bool
	Page     int
}

func (p Params) Offset() int {
	if !p.Paginate || p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * PerPage
}

func (p Params) CurrentPage() int {
	if p.Page < 1 {
		return 1
	}
	return p.Page
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Pattern returns the ILIKE pattern for Search, or "" when there is none.
// Wildcards typed by the user match literally under the default backslash
// escape.
func (p Params) Pattern() string {
	if p.Search == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(p.Search) + "%"
}

type Page[T any] struct {
	Items       []T
	Total       int64
	CurrentPage int
	Paginated   bool
}

func (p Page[T]) LastPage() int {
	if p.Total == 0 {
		return 1
	}
	return int((p.Total + PerPage - 1) / PerPage)
}

// Meta is the pagination block merged into response metadata.
func (p Page[T]) Meta() map[string]any {
	if !p.Paginated {
		return nil
	}
	return map[string]any{
		"current_page": p.CurrentPage,
		"per_page":     PerPage,
		"total":        p.Total,
		"last_page":    p.LastPage(),
	}
}
