package certification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmus-ai/backend/internal/middleware"
	"github.com/litmus-ai/backend/internal/models"
)

func applyRequest(userID, catalogID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/certifications/"+catalogID+"/apply", nil)
	req = mux.SetURLVars(req, map[string]string{"id": catalogID})
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

func TestApplyHandlerStatuses(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u-free", models.TierFree)
	f.addUser(t, "u-pro", models.TierProfessional)
	f.assessed("u-free", 40, 1)
	h := NewHandler(f.svc)

	tests := []struct {
		name      string
		userID    string
		catalogID string
		want      int
	}{
		{"anonymous", "", "ai-fundamentals", http.StatusUnauthorized},
		{"issued", "u-free", "ai-fundamentals", http.StatusCreated},
		{"reapply", "u-free", "ai-fundamentals", http.StatusOK},
		{"tier gate", "u-free", "ai-ethics-specialist", http.StatusForbidden},
		{"requirements", "u-pro", "ai-ethics-specialist", http.StatusUnprocessableEntity},
		{"unknown", "u-pro", "nothing-here", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Apply(rec, applyRequest(tt.userID, tt.catalogID))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestApplyHandlerUpgradeBody(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u-free", models.TierFree)
	h := NewHandler(f.svc)

	rec := httptest.NewRecorder()
	h.Apply(rec, applyRequest("u-free", "litmusai-professional"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	var body models.UpgradeRequiredResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "upgrade_required", body.Error)
	assert.Equal(t, "enterprise", body.RequiredTier)
	assert.Equal(t, "free", body.CurrentTier)
}

func TestVerifyHandler(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", models.TierFree)
	f.assessed("u1", 40, 1)
	issued, err := f.svc.Apply(applyRequest("u1", "ai-fundamentals").Context(), "u1", "ai-fundamentals")
	require.NoError(t, err)
	h := NewHandler(f.svc)

	tests := []struct {
		name  string
		code  string
		want  int
		valid bool
	}{
		{"known", issued.Certification.VerificationCode, http.StatusOK, true},
		{"unknown", "ZZZZ9999", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/certifications/verify/"+tt.code, nil)
			req = mux.SetURLVars(req, map[string]string{"code": tt.code})
			rec := httptest.NewRecorder()
			h.Verify(rec, req)

			require.Equal(t, tt.want, rec.Code)
			var body models.VerifyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.valid, body.Valid)
			if tt.valid {
				require.NotNil(t, body.Certification)
				assert.Equal(t, "Ada Lovelace", body.Certification.HolderName)
			} else {
				assert.Equal(t, "Certification not found or invalid", body.Message)
			}
		})
	}
}
