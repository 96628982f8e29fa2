package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Scc33/BuddySQL/database"
)

func TestParsePreviewOptions(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
		wantPage   int
		wantLinks  bool
	}{
		{"no params", "", 100, 0, 1, false},
		{"page only", "page=3", 100, 200, 3, false},
		{"limit only", "limit=10", 10, 0, 1, false},
		{"page and limit", "page=2&limit=25", 25, 25, 2, false},
		{"limit capped", "limit=500", 100, 0, 1, false},
		{"invalid page", "page=abc", 100, 0, 1, false},
		{"negative page", "page=-1", 100, 0, 1, false},
		{"zero limit", "limit=0", 100, 0, 1, false},
		{"links true", "links=true", 100, 0, 1, true},
		{"links one", "links=1", 100, 0, 1, true},
		{"links other", "links=no", 100, 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			opts, err := parsePreviewOptions(q, 100)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if opts.Limit != tt.wantLimit {
				t.Errorf("Expected limit %d, got %d", tt.wantLimit, opts.Limit)
			}
			if opts.Offset != tt.wantOffset {
				t.Errorf("Expected offset %d, got %d", tt.wantOffset, opts.Offset)
			}
			if opts.Page != tt.wantPage {
				t.Errorf("Expected page %d, got %d", tt.wantPage, opts.Page)
			}
			if opts.Links != tt.wantLinks {
				t.Errorf("Expected links %v, got %v", tt.wantLinks, opts.Links)
			}
		})
	}
}

func TestParseSorts(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []database.Sort
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"default direction", "name", []database.Sort{{Column: "name", Direction: "asc"}}, false},
		{"multiple", "price:DESC, name:asc", []database.Sort{
			{Column: "price", Direction: "desc"},
			{Column: "name", Direction: "asc"},
		}, false},
		{"invalid direction", "name:up", nil, true},
		{"invalid column", "na me:asc", nil, true},
		{"empty column", "price,,name", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorts, err := parseSorts(tt.spec)

			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(sorts) != len(tt.want) {
				t.Fatalf("Expected %d sorts, got %d", len(tt.want), len(sorts))
			}
			for i := range sorts {
				if sorts[i] != tt.want[i] {
					t.Errorf("Sort %d: expected %+v, got %+v", i, tt.want[i], sorts[i])
				}
			}
		})
	}
}

func TestParsePreviewOptions_BadSort(t *testing.T) {
	q, _ := url.ParseQuery("sort=price:sideways")
	if _, err := parsePreviewOptions(q, 100); err == nil {
		t.Error("Expected error for invalid sort direction")
	}
}

func TestNegotiateFormat(t *testing.T) {
	tests := map[string]string{
		"":                                    "json",
		"application/json":                    "json",
		"text/csv":                            "csv",
		"application/parquet":                 "parquet",
		"application/vnd.apache.arrow.stream": "arrow",
		"text/html, text/csv;q=0.9":           "csv",
	}

	for accept, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", accept)
		if got := negotiateFormat(req); got != want {
			t.Errorf("Accept %q: expected %s, got %s", accept, want, got)
		}
	}
}

func TestCheckIdentifier(t *testing.T) {
	valid := []string{"Products", "Order_Items", "t1"}
	invalid := []string{"", "Products;", "Order Items", "a-b", `"x"`}

	for _, name := range valid {
		if err := checkIdentifier("table", name); err != nil {
			t.Errorf("Expected %q to be valid: %v", name, err)
		}
	}
	for _, name := range invalid {
		if err := checkIdentifier("table", name); err == nil {
			t.Errorf("Expected %q to be invalid", name)
		}
	}

	if err := checkIdentifier("column", ""); err == nil || !strings.Contains(err.Error(), "column name") {
		t.Errorf("Expected error naming the column, got %v", err)
	}
}

func TestSplitRunPath(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantSQL    string
		wantFormat string
		wantErr    string
	}{
		{
			name:       "json",
			path:       "/buddysql/run/SELECT%20*%20FROM%20Products/result.json",
			wantSQL:    "SELECT * FROM Products",
			wantFormat: "json",
		},
		{
			name:       "plus is kept",
			path:       "/buddysql/run/SELECT%20price%20+%201%20FROM%20Products/result.csv",
			wantSQL:    "SELECT price + 1 FROM Products",
			wantFormat: "csv",
		},
		{
			name:       "percent literal",
			path:       "/buddysql/run/SELECT%20*%20FROM%20Customers%20WHERE%20last_name%20LIKE%20'S%25'/result.parquet",
			wantSQL:    "SELECT * FROM Customers WHERE last_name LIKE 'S%'",
			wantFormat: "parquet",
		},
		{
			name:       "encoded slash",
			path:       "/buddysql/run/SELECT%2010%2F2/result.arrow",
			wantSQL:    "SELECT 10/2",
			wantFormat: "arrow",
		},
		{name: "wrong prefix", path: "/other/SELECT%201/result.json", wantErr: "must start with"},
		{name: "no result segment", path: "/buddysql/run/SELECT%201", wantErr: "/result."},
		{name: "missing sql", path: "/buddysql/run/result.json", wantErr: "missing SQL"},
		{name: "blank sql", path: "/buddysql/run/%20%20/result.json", wantErr: "cannot be empty"},
		{name: "missing format", path: "/buddysql/run/SELECT%201/result.", wantErr: "missing format"},
		{name: "unknown format", path: "/buddysql/run/SELECT%201/result.xml", wantErr: "invalid format"},
		{name: "bad escape", path: "/buddysql/run/SELECT%ZZ/result.json", wantErr: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, format, err := splitRunPath(tt.path, "/buddysql/run")

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Expected error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if sql != tt.wantSQL {
				t.Errorf("Expected SQL %q, got %q", tt.wantSQL, sql)
			}
			if format != tt.wantFormat {
				t.Errorf("Expected format %q, got %q", tt.wantFormat, format)
			}
		})
	}
}
