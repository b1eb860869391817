package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/29xh24fm6r-ctrl/PulseMasterrepo-sub005/internal/middleware"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondJSON(rec, http.StatusCreated, map[string]string{"message": "hello"}, nil)

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["message"] != "hello" {
		t.Errorf("Expected message 'hello', got %v", body)
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	respondJSONError(rec, http.StatusInternalServerError, "catalog_failed", "relation missing", nil)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
	var body middleware.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Error != "catalog_failed" || body.Detail != "relation missing" {
		t.Errorf("Unexpected body %+v", body)
	}
	if body.RetryInMs != nil {
		t.Error("Expected retry_in_ms to be omitted")
	}
}
