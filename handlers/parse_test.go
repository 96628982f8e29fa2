package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"go.uber.org/zap"
)

func TestParseHandler_POST(t *testing.T) {
	handler := NewParseHandler(zap.NewNop())

	req := postJSON(t, "/buddysql/parse", map[string]string{
		"sql": "SELECT c.first_name, o.total_amount FROM Customers c INNER JOIN Orders o ON c.customer_id = o.customer_id WHERE o.total_amount > 100 ORDER BY o.total_amount DESC LIMIT 3",
	})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	result := decodeBody(t, rec)
	if result["type"] != "SELECT" {
		t.Errorf("Expected type SELECT, got %v", result["type"])
	}

	selectClause := result["select"].(map[string]interface{})
	if len(selectClause["columns"].([]interface{})) != 2 {
		t.Errorf("Expected 2 select columns, got %v", selectClause["columns"])
	}

	joins, ok := result["join"].([]interface{})
	if !ok || len(joins) != 1 {
		t.Fatalf("Expected 1 join, got %v", result["join"])
	}
	join := joins[0].(map[string]interface{})
	if join["type"] != "INNER" || join["table"] != "Orders" {
		t.Errorf("Unexpected join: %v", join)
	}

	orderBy := result["orderBy"].(map[string]interface{})
	if orderBy["direction"] != "DESC" {
		t.Errorf("Expected DESC, got %v", orderBy["direction"])
	}
	if result["limit"].(float64) != 3 {
		t.Errorf("Expected limit 3, got %v", result["limit"])
	}
}

func TestParseHandler_GET(t *testing.T) {
	handler := NewParseHandler(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/buddysql/parse?sql="+url.QueryEscape("DELETE FROM Orders"), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, addAuthContext(req, "guest"))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if result := decodeBody(t, rec); result["type"] != "DELETE" {
		t.Errorf("Expected type DELETE, got %v", result["type"])
	}
}

func TestParseHandler_MissingSQL(t *testing.T) {
	handler := NewParseHandler(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/buddysql/parse", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestParseHandler_MethodNotAllowed(t *testing.T) {
	handler := NewParseHandler(zap.NewNop())

	req := httptest.NewRequest(http.MethodPut, "/buddysql/parse", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}
