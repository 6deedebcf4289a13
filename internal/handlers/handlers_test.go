package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"learnpulse-backend/internal/engine"
	"learnpulse-backend/internal/models"
	"learnpulse-backend/internal/services"
)

// ─── Error Mapping Tests ───

func TestHandleServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"session not found", engine.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"session terminated", engine.ErrSessionTerminated, http.StatusConflict, "SESSION_TERMINATED"},
		{"bad configuration", &engine.ConfigurationError{Message: "required_count exceeds total_count"}, http.StatusUnprocessableEntity, "INVALID_CONFIGURATION"},
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "Email is required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "Email already registered"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Activity not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid credentials"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "Admin access required"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "Too many requests"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown error", errors.New("pool exhausted"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "req-123")
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-123" {
				t.Errorf("Expected request ID to be echoed, got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()

	handleServiceError(rr, req, &services.ValidationError{Fields: map[string]string{
		"email":    "Email is required",
		"password": "Password must be at least 8 characters",
	}})

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Fields["email"] != "Email is required" {
		t.Errorf("Expected email field error, got %q", resp.Error.Fields["email"])
	}
	if resp.Error.Fields["password"] == "" {
		t.Error("Expected password field error to be present")
	}
}

// ─── JSON Response Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]interface{}{
		"message": "Created",
	})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", rr.Header().Get("Content-Type"))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["message"] != "Created" {
		t.Errorf("Expected message 'Created', got %v", result["message"])
	}
}

// ─── Session Handler Tests ───

func TestSessionHandler_Start_InvalidBody(t *testing.T) {
	h := NewSessionHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()

	h.Start(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestSessionHandler_Start_MissingActivityID(t *testing.T) {
	h := NewSessionHandler(nil)

	body, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Start(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Message != "activity_id is required" {
		t.Errorf("Expected activity_id error, got %q", resp.Error.Message)
	}
}

func TestSessionHandler_Tick_InvalidSessionID(t *testing.T) {
	h := NewSessionHandler(nil)

	body, _ := json.Marshal(models.TickRequest{DeltaSeconds: 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/not-a-uuid/tick", bytes.NewReader(body))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h.Tick(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %q", resp.Error.Code)
	}
}
