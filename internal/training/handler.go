package training

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
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

func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := h.service.Modules(r.Context(), query.Get("role"), query.Get("tier"))
	if err != nil {
		writeError(w, err, "Failed to get training modules")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Module(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "Failed to get module")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.service.Enroll(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "Failed to enroll in module")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req models.ProgressUpdateRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	resp, err := h.service.UpdateProgress(r.Context(), userID, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err, "Failed to update progress")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.service.Progress(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to get progress")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ModuleLessons(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.service.ModuleLessons(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "Failed to get lessons")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.service.OpenLesson(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "Failed to get lesson")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req models.CompleteLessonRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	resp, err := h.service.CompleteLesson(r.Context(), userID, mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, err, "Failed to complete lesson")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Recommended(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.service.Recommended(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to get recommended modules")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
	}
	return userID, ok
}

// decodeOptional decodes a JSON body, treating an empty body as {}.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
	return false
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
