package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func setupGradeHandler(t testing.TB) *GradeHandler {
	return NewGradeHandler(setupManager(t), zap.NewNop())
}

func gradeRequest(t *testing.T, handler *GradeHandler, body map[string]interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postJSON(t, "/buddysql/grade", body))
	return rec, decodeBody(t, rec)
}

func TestGradeHandler_CorrectPractice(t *testing.T) {
	handler := setupGradeHandler(t)

	rec, result := gradeRequest(t, handler, map[string]interface{}{
		"sql":    "SELECT first_name, last_name, email FROM Customers",
		"lesson": "select-basics",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	grade := result["grade"].(map[string]interface{})
	if grade["isCorrect"] != true {
		t.Errorf("Expected correct grade, got %v", grade)
	}
	if grade["score"].(float64) != 90 {
		t.Errorf("Expected score 90, got %v", grade["score"])
	}
	if len(result["results"].([]interface{})) != 1 {
		t.Errorf("Expected 1 result set, got %v", result["results"])
	}
	if _, ok := result["error"]; ok {
		t.Errorf("Expected no error, got %v", result["error"])
	}
}

func TestGradeHandler_BrokenSQL(t *testing.T) {
	handler := setupGradeHandler(t)

	rec, result := gradeRequest(t, handler, map[string]interface{}{
		"sql":    "SELEC * FROM Customers",
		"lesson": "introduction-to-sql",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	grade := result["grade"].(map[string]interface{})
	if grade["type"] != "error" {
		t.Errorf("Expected type 'error', got %v", grade["type"])
	}
	if grade["score"].(float64) != 0 {
		t.Errorf("Expected score 0, got %v", grade["score"])
	}
	if result["error"] == "" || result["error"] == nil {
		t.Error("Expected engine error message")
	}
}

func TestGradeHandler_ChallengeMatchesReference(t *testing.T) {
	handler := setupGradeHandler(t)

	_, result := gradeRequest(t, handler, map[string]interface{}{
		"sql":       "SELECT * FROM Products ORDER BY price LIMIT 3 OFFSET 2",
		"lesson":    "offset-clause",
		"challenge": true,
	})

	grade := result["grade"].(map[string]interface{})
	if grade["score"].(float64) != 100 {
		t.Errorf("Expected score 100, got %v (%v)", grade["score"], grade["feedback"])
	}
}

func TestGradeHandler_ChallengeWrongRows(t *testing.T) {
	handler := setupGradeHandler(t)

	_, result := gradeRequest(t, handler, map[string]interface{}{
		"sql":       "SELECT * FROM Products ORDER BY price LIMIT 5",
		"lesson":    "limit-clause",
		"challenge": false,
	})
	grade := result["grade"].(map[string]interface{})
	if grade["isCorrect"] != true {
		t.Errorf("Expected practice to pass, got %v", grade)
	}

	_, result = gradeRequest(t, handler, map[string]interface{}{
		"sql":       "SELECT * FROM Products ORDER BY price DESC LIMIT 4",
		"lesson":    "limit-clause",
		"challenge": true,
	})
	grade = result["grade"].(map[string]interface{})
	if grade["score"].(float64) != 60 {
		t.Errorf("Expected score 60, got %v (%v)", grade["score"], grade["feedback"])
	}
}

func TestGradeHandler_UnknownLesson(t *testing.T) {
	handler := setupGradeHandler(t)

	rec, _ := gradeRequest(t, handler, map[string]interface{}{
		"sql":    "SELECT 1",
		"lesson": "window-functions",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGradeHandler_MissingLesson(t *testing.T) {
	handler := setupGradeHandler(t)

	rec, result := gradeRequest(t, handler, map[string]interface{}{"sql": "SELECT 1"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if result["message"] != "lesson is required" {
		t.Errorf("Unexpected message: %v", result["message"])
	}
}

func TestGradeHandler_MethodNotAllowed(t *testing.T) {
	handler := setupGradeHandler(t)

	req := addAuthContext(httptest.NewRequest(http.MethodGet, "/buddysql/grade", nil), "learner")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}
