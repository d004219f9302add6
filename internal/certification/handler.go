package certification

import (
	"encoding/json"
	"errors"
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

func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Catalog(r.Context())
	if err != nil {
		writeError(w, err, "Failed to get available certifications")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListEarned(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.Earned(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to get earned certifications")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	cert, err := h.service.Verify(r.Context(), code)
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, models.VerifyResponse{Valid: false, Message: "Certification not found or invalid"})
		return
	}
	if err != nil {
		writeError(w, err, "Failed to verify certification")
		return
	}
	writeJSON(w, http.StatusOK, models.VerifyResponse{Valid: true, Certification: cert})
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.Apply(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		var (
			upgrade      *apperr.UpgradeRequiredError
			requirements *apperr.RequirementsNotMetError
		)
		switch {
		case errors.As(err, &upgrade):
			writeJSON(w, http.StatusForbidden, models.UpgradeRequiredResponse{
				Error:        models.EligibilityUpgradeRequired,
				Message:      upgrade.Error(),
				RequiredTier: upgrade.Required,
				CurrentTier:  upgrade.Current,
			})
		case errors.As(err, &requirements):
			writeJSON(w, http.StatusUnprocessableEntity, models.RequirementsNotMetResponse{
				Message:             "Certification requirements not met yet.",
				Status:              models.EligibilityRequirementsNotMet,
				MissingRequirements: requirements.Reasons,
			})
		default:
			writeError(w, err, "Failed to apply for certification")
		}
		return
	}

	status := http.StatusCreated
	if resp.AlreadyIssued {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	resp, err := h.service.Eligibility(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err, "Failed to evaluate eligibility")
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
