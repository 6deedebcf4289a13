package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnpulse-backend/internal/middleware"
	"learnpulse-backend/internal/repository"
)

type WalletHandler struct {
	wallets *repository.WalletRepo
}

func NewWalletHandler(wallets *repository.WalletRepo) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	wallet, err := h.wallets.GetByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load wallet", r))
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	entries, err := h.wallets.Ledger(r.Context(), userID, parseLimit(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load ledger", r))
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *WalletHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	activityID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid competition ID", r))
		return
	}

	entries, err := h.wallets.Leaderboard(r.Context(), activityID, parseLimit(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load leaderboard", r))
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
