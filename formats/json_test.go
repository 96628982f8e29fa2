package formats

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestWriteJSON_BasicOutput(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, testResultSet(), nil); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	// Verify response
	if rec.Code != 200 {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}

	data, ok := result["data"].([]interface{})
	if !ok {
		t.Fatal("Expected 'data' array in response")
	}
	if len(data) != 3 {
		t.Errorf("Expected 3 rows, got %d", len(data))
	}

	firstRow, ok := data[0].(map[string]interface{})
	if !ok {
		t.Fatal("Expected first row to be an object")
	}
	if firstRow["name"] != "Alice" {
		t.Errorf("Expected name 'Alice', got %v", firstRow["name"])
	}
	if firstRow["score"] != 95.5 {
		t.Errorf("Expected score 95.5, got %v", firstRow["score"])
	}

	columns, ok := result["columns"].([]interface{})
	if !ok || len(columns) != 6 {
		t.Errorf("Expected 6 columns, got %v", result["columns"])
	}

	if _, ok := result["pagination"]; ok {
		t.Error("Expected no pagination without a page")
	}
}

func TestWriteJSON_WithPagination(t *testing.T) {
	rec := httptest.NewRecorder()
	page := &Pagination{Page: 2, Limit: 10, TotalRows: 25}
	if err := WriteJSON(rec, testResultSet(), page); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}

	pagination, ok := result["pagination"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected 'pagination' object in response")
	}
	if pagination["page"].(float64) != 2 {
		t.Errorf("Expected page 2, got %v", pagination["page"])
	}
	if pagination["limit"].(float64) != 10 {
		t.Errorf("Expected limit 10, got %v", pagination["limit"])
	}
	if pagination["total_rows"].(float64) != 25 {
		t.Errorf("Expected total_rows 25, got %v", pagination["total_rows"])
	}
	if pagination["total_pages"].(float64) != 3 {
		t.Errorf("Expected total_pages 3, got %v", pagination["total_pages"])
	}
	if _, ok := result["_links"]; ok {
		t.Error("Expected no _links when links are disabled")
	}
}

func TestWriteJSON_WithNavigationLinks(t *testing.T) {
	rec := httptest.NewRecorder()
	u, _ := url.Parse("/buddysql/schema/Products?limit=10&links=true")
	page := &Pagination{Page: 2, Limit: 10, TotalRows: 50, LinkURL: u}
	if err := WriteJSON(rec, testResultSet(), page); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}

	links, ok := result["_links"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected '_links' object in response")
	}

	requiredLinks := []string{"self", "first", "last", "prev", "next"}
	for _, linkName := range requiredLinks {
		if _, ok := links[linkName]; !ok {
			t.Errorf("Expected '%s' link", linkName)
		}
	}
}

func TestWriteJSON_NullValues(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, testResultSetWithNulls(), nil); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}

	data := result["data"].([]interface{})
	lastRow := data[len(data)-1].(map[string]interface{})
	if lastRow["name"] != nil {
		t.Errorf("Expected null name, got %v", lastRow["name"])
	}
	if _, ok := lastRow["name"]; !ok {
		t.Error("Expected NULL column to be present as null")
	}
}

func TestWriteJSON_EmptyResult(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, emptyResultSet(), nil); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}

	data, ok := result["data"].([]interface{})
	if !ok {
		t.Fatal("Expected 'data' to be an empty array, not null")
	}
	if len(data) != 0 {
		t.Errorf("Expected 0 rows, got %d", len(data))
	}
}

func TestPagination_TotalPages(t *testing.T) {
	tests := []struct {
		page     Pagination
		expected int
	}{
		{Pagination{Limit: 10, TotalRows: 0}, 0},
		{Pagination{Limit: 10, TotalRows: 10}, 1},
		{Pagination{Limit: 10, TotalRows: 11}, 2},
		{Pagination{Limit: 0, TotalRows: 11}, 0},
	}

	for _, tt := range tests {
		if got := tt.page.TotalPages(); got != tt.expected {
			t.Errorf("TotalPages(%+v): expected %d, got %d", tt.page, tt.expected, got)
		}
	}
}

func TestPageLinks(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		totalPages int
		wantLinks  []string
	}{
		{"first page", 1, 5, []string{"self", "first", "last", "next"}},
		{"middle page", 3, 5, []string{"self", "first", "last", "prev", "next"}},
		{"last page", 5, 5, []string{"self", "first", "last", "prev"}},
		{"single page", 1, 1, []string{"self", "first", "last"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _ := url.Parse("/buddysql/schema/Orders")
			links := pageLinks(u, tt.page, 10, tt.totalPages)

			if len(links) != len(tt.wantLinks) {
				t.Errorf("Expected %d links, got %d: %v", len(tt.wantLinks), len(links), links)
			}
			for _, linkName := range tt.wantLinks {
				if _, ok := links[linkName]; !ok {
					t.Errorf("Expected '%s' link to be present", linkName)
				}
			}
		})
	}
}

func TestPageLinks_PreservesQueryParams(t *testing.T) {
	u, _ := url.Parse("/buddysql/schema/Products?sort=name:asc&page=9&limit=3")
	links := pageLinks(u, 2, 10, 5)

	parsedURL, err := url.Parse(links["self"])
	if err != nil {
		t.Fatalf("Failed to parse self link: %v", err)
	}

	queryParams := parsedURL.Query()
	if queryParams.Get("sort") != "name:asc" {
		t.Error("Expected sort param to be preserved")
	}
	if queryParams.Get("page") != "2" {
		t.Errorf("Expected page param 2, got %s", queryParams.Get("page"))
	}
	if queryParams.Get("limit") != "10" {
		t.Errorf("Expected limit param 10, got %s", queryParams.Get("limit"))
	}
	if parsedURL.Path != "/buddysql/schema/Products" {
		t.Errorf("Expected link path to be kept, got %s", parsedURL.Path)
	}
	if queryParams.Get("links") != "true" {
		t.Error("Expected links param to be set to true")
	}
}

func BenchmarkWriteJSON(b *testing.B) {
	set := largeResultSet(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		if err := WriteJSON(rec, set, nil); err != nil {
			b.Fatalf("WriteJSON failed: %v", err)
		}
	}
}
