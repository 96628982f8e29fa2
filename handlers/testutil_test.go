package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Scc33/BuddySQL/auth"
	"github.com/Scc33/BuddySQL/database"
	"go.uber.org/zap"
)

const testRunPrefix = "/buddysql/run"

// setupManager creates a seeded sandbox for handler tests
func setupManager(t testing.TB) *database.Manager {
	t.Helper()
	cfg := database.Config{
		AuthDBPath:   ":memory:",
		Threads:      1,
		QueryTimeout: 30 * time.Second,
		Logger:       zap.NewNop(),
	}

	mgr, err := database.NewManagerForTesting(cfg)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

// addAuthContext adds the role and request ID to the request context
func addAuthContext(r *http.Request, role string) *http.Request {
	ctx := auth.WithCaller(r.Context(), nil, role)
	return r.WithContext(auth.WithRequestID(ctx, "test-request-id"))
}

// postJSON builds an authenticated POST request with a JSON body
func postJSON(t testing.TB, path string, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return addAuthContext(req, "learner")
}

// decodeBody decodes a JSON response body into a map
func decodeBody(t testing.TB, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v (body: %s)", err, rec.Body.String())
	}
	return result
}
