package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnpulse-backend/internal/middleware"
	"learnpulse-backend/internal/models"
	"learnpulse-backend/internal/services"
)

type ActivityHandler struct {
	activities *services.ActivityService
	video      *services.VideoService
}

func NewActivityHandler(activities *services.ActivityService, video *services.VideoService) *ActivityHandler {
	return &ActivityHandler{activities: activities, video: video}
}

// Catalog lists active activities with the caller's progress.
func (h *ActivityHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	statuses, err := h.activities.Catalog(r.Context(), userID, r.URL.Query().Get("kind"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statuses)
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := activityIDFromURL(w, r)
	if !ok {
		return
	}

	activity, err := h.activities.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

// Admin endpoints

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	activity, err := h.activities.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, activity)
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	activities, err := h.activities.List(r.Context(), r.URL.Query().Get("kind"), true)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := activityIDFromURL(w, r)
	if !ok {
		return
	}

	var req models.CreateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	activity, err := h.activities.Update(r.Context(), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, activity)
}

func (h *ActivityHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := activityIDFromURL(w, r)
	if !ok {
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.activities.SetActive(r.Context(), id, req.Active); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := activityIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.activities.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Activity deleted"})
}

// ValidateVideo resolves a YouTube URL into lesson metadata so the admin
// UI can prefill duration and thumbnail.
func (h *ActivityHandler) ValidateVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if _, err := services.ExtractVideoID(req.URL); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid YouTube URL", r))
		return
	}

	meta, err := h.video.Lookup(req.URL)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("VIDEO_UNAVAILABLE", "Could not fetch video metadata", r))
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

func activityIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid activity ID", r))
		return uuid.Nil, false
	}
	return id, true
}

func parseLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}
