package formats

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Scc33/BuddySQL/resultset"
)

// Pagination describes the page of a table preview being returned.
type Pagination struct {
	Page      int
	Limit     int
	TotalRows int64
	// LinkURL is the request URL navigation links are derived from. When nil
	// the response carries no _links.
	LinkURL *url.URL
}

// TotalPages returns the number of pages at the current limit.
func (p Pagination) TotalPages() int {
	if p.TotalRows <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((p.TotalRows + int64(p.Limit) - 1) / int64(p.Limit))
}

type jsonPage struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalRows  int64 `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

type jsonBody struct {
	Columns    []string          `json:"columns"`
	Data       []map[string]any  `json:"data"`
	Pagination *jsonPage         `json:"pagination,omitempty"`
	Links      map[string]string `json:"_links,omitempty"`
}

// Records converts a result set into one map per row, keyed by column name.
// A NULL value stays present as a nil entry.
func Records(set resultset.ResultSet) []map[string]any {
	records := make([]map[string]any, len(set.Values))
	for r, row := range set.Values {
		record := make(map[string]any, len(set.Columns))
		for c, name := range set.Columns {
			if c < len(row) {
				record[name] = row[c]
			}
		}
		records[r] = record
	}
	return records
}

// WriteJSON writes a result set as {"columns": [...], "data": [...]}. A
// non-nil page with a positive limit adds pagination metadata, plus
// navigation links when page.LinkURL is set.
func WriteJSON(w http.ResponseWriter, set resultset.ResultSet, page *Pagination) error {
	body := jsonBody{
		Columns: set.Columns,
		Data:    Records(set),
	}
	if body.Columns == nil {
		body.Columns = []string{}
	}

	if page != nil && page.Limit > 0 {
		body.Pagination = &jsonPage{
			Page:       page.Page,
			Limit:      page.Limit,
			TotalRows:  page.TotalRows,
			TotalPages: page.TotalPages(),
		}
		if page.LinkURL != nil {
			body.Links = pageLinks(page.LinkURL, page.Page, page.Limit, body.Pagination.TotalPages)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	return json.NewEncoder(w).Encode(body)
}

// pageLinks builds self, first, last, prev and next links for a paginated
// response. Every query parameter of u other than page, limit and links is
// carried over.
func pageLinks(u *url.URL, page, limit, totalPages int) map[string]string {
	to := func(target int) string {
		q := url.Values{}
		for key, values := range u.Query() {
			switch key {
			case "page", "limit", "links":
				continue
			}
			q[key] = values
		}
		q.Set("page", strconv.Itoa(target))
		q.Set("limit", strconv.Itoa(limit))
		q.Set("links", "true")
		return u.Path + "?" + q.Encode()
	}

	links := map[string]string{
		"self":  to(page),
		"first": to(1),
	}
	if totalPages > 0 {
		links["last"] = to(totalPages)
	}
	if page > 1 {
		links["prev"] = to(page - 1)
	}
	if page < totalPages {
		links["next"] = to(page + 1)
	}
	return links
}
