package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func getOpenAPISpec(t *testing.T) map[string]interface{} {
	t.Helper()
	handler := NewOpenAPIHandler("/buddysql")

	req := httptest.NewRequest(http.MethodGet, "/buddysql/openapi.json", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var spec map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("Failed to parse OpenAPI spec: %v", err)
	}
	return spec
}

func TestOpenAPIHandler_ServeHTTP_GET(t *testing.T) {
	spec := getOpenAPISpec(t)

	if spec["openapi"] != "3.0.3" {
		t.Errorf("Expected openapi version 3.0.3, got %v", spec["openapi"])
	}
	info := spec["info"].(map[string]interface{})
	if info["title"] != "BuddySQL API" {
		t.Errorf("Unexpected title: %v", info["title"])
	}
}

func TestOpenAPIHandler_ServeHTTP_MethodNotAllowed(t *testing.T) {
	handler := NewOpenAPIHandler("/buddysql")

	req := httptest.NewRequest(http.MethodPost, "/buddysql/openapi.json", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestOpenAPIHandler_Spec_Servers(t *testing.T) {
	spec := getOpenAPISpec(t)

	servers := spec["servers"].([]interface{})
	if len(servers) != 1 {
		t.Fatalf("Expected 1 server, got %d", len(servers))
	}
	if url := servers[0].(map[string]interface{})["url"]; url != "/buddysql" {
		t.Errorf("Expected server url '/buddysql', got %v", url)
	}
}

func TestOpenAPIHandler_Spec_Paths(t *testing.T) {
	spec := getOpenAPISpec(t)
	paths := spec["paths"].(map[string]interface{})

	expected := map[string]string{
		"/health":                    "get",
		"/openapi.json":              "get",
		"/parse":                     "post",
		"/run":                       "post",
		"/run/{sql}/result.{format}": "get",
		"/grade":                     "post",
		"/lessons":                   "get",
		"/lessons/{lesson}":          "get",
		"/schema":                    "get",
		"/schema/{table}":            "get",
	}
	if len(paths) != len(expected) {
		t.Errorf("Expected %d paths, got %d", len(expected), len(paths))
	}
	for path, method := range expected {
		item, ok := paths[path].(map[string]interface{})
		if !ok {
			t.Errorf("Expected path %s", path)
			continue
		}
		if _, ok := item[method]; !ok {
			t.Errorf("Expected %s operation on %s", method, path)
		}
	}
}

func TestOpenAPIHandler_Spec_Security(t *testing.T) {
	spec := getOpenAPISpec(t)
	paths := spec["paths"].(map[string]interface{})

	grade := paths["/grade"].(map[string]interface{})["post"].(map[string]interface{})
	if _, ok := grade["security"]; !ok {
		t.Error("Expected /grade to require security")
	}
	if _, ok := grade["requestBody"]; !ok {
		t.Error("Expected /grade to have a request body")
	}

	health := paths["/health"].(map[string]interface{})["get"].(map[string]interface{})
	if _, ok := health["security"]; ok {
		t.Error("Expected /health to be public")
	}

	schemes := spec["components"].(map[string]interface{})["securitySchemes"].(map[string]interface{})
	apiKey := schemes["ApiKeyAuth"].(map[string]interface{})
	if apiKey["name"] != "X-API-Key" {
		t.Errorf("Expected X-API-Key header, got %v", apiKey["name"])
	}
}

func TestOpenAPIHandler_Spec_ResponseFormats(t *testing.T) {
	spec := getOpenAPISpec(t)
	paths := spec["paths"].(map[string]interface{})

	run := paths["/run"].(map[string]interface{})["post"].(map[string]interface{})
	ok200 := run["responses"].(map[string]interface{})["200"].(map[string]interface{})
	content := ok200["content"].(map[string]interface{})
	for _, mime := range []string{"application/json", "text/csv", "application/parquet", "application/vnd.apache.arrow.stream"} {
		if _, ok := content[mime]; !ok {
			t.Errorf("Expected %s response content", mime)
		}
	}
}

func TestOpenAPIHandler_Spec_Schemas(t *testing.T) {
	spec := getOpenAPISpec(t)
	schemas := spec["components"].(map[string]interface{})["schemas"].(map[string]interface{})

	for _, name := range []string{"ErrorResponse", "SQLRequest", "GradeRequest", "ResultSet", "ParsedQuery", "RunResponse", "GradeResult", "Submission", "Lesson", "PreviewResponse"} {
		if _, ok := schemas[name]; !ok {
			t.Errorf("Expected schema %s", name)
		}
	}
}

func BenchmarkOpenAPIHandler_ServeHTTP(b *testing.B) {
	handler := NewOpenAPIHandler("/buddysql")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/buddysql/openapi.json", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	}
}
