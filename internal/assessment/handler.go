package assessment

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/litmus-ai/backend/internal/apperr"
	"github.com/litmus-ai/backend/internal/middleware"
	"github.com/litmus-ai/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Questions(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load questions")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Submit accepts anonymous attempts; the result is only stored when the
// request carries a valid token.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	userID, _ := middleware.UserID(r.Context())
	resp, err := h.service.Submit(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, "Failed to score assessment")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.History(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	status := apperr.Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		msg = fallback
	}
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
