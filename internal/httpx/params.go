package httpx

import (
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// listParams reads ?search=, ?paginate= and ?page=. Any paginate value other
// than empty, 0 or false turns pagination on.
func listParams(r *http.Request) paging.Params {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pg := q.Get("paginate")
	return paging.Params{
		Search:   q.Get("search"),
		Paginate: pg != "" && pg != "0" && pg != "false",
		Page:     page,
	}
}

// uuidParam parses a uuid path parameter. A malformed uuid cannot name an
// existing row, so it reports notFoundErr.
func uuidParam(r *http.Request, name string, notFoundErr error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, notFoundErr
	}
	return id, nil
}

func withPage(md meta, pageMeta map[string]any) meta {
	for k, v := range pageMeta {
		md[k] = v
	}
	return md
}
