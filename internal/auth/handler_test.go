package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmus-ai/backend/internal/memstore"
	"github.com/litmus-ai/backend/internal/middleware"
	"github.com/litmus-ai/backend/internal/models"
)

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	store := memstore.New()
	tokens := NewTokens("test-secret", time.Hour)
	h := NewHandler(store, tokens)

	rec := post(h.Register, `{"email":" Ada@Example.com ","password":"s3cretpass","first_name":"Ada","last_name":"Lovelace","role":"Sales"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg models.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, models.TierFree, reg.User.SubscriptionTier)
	assert.NotContains(t, rec.Body.String(), "s3cretpass")

	userID, err := tokens.Verify(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"correct password", `{"email":"ada@example.com","password":"s3cretpass"}`, http.StatusOK},
		{"wrong password", `{"email":"ada@example.com","password":"nope-nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"bob@example.com","password":"s3cretpass"}`, http.StatusUnauthorized},
		{"missing fields", `{"email":"ada@example.com"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, post(h.Login, tt.body).Code)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	h := NewHandler(memstore.New(), NewTokens("test-secret", time.Hour))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing last name", `{"email":"a@b.co","password":"longenough","first_name":"A"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@b.co","password":"short","first_name":"A","last_name":"B"}`, http.StatusBadRequest},
		{"bad json", `{"email":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, post(h.Register, tt.body).Code)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := NewHandler(memstore.New(), NewTokens("test-secret", time.Hour))
	body := `{"email":"a@b.co","password":"longenough","first_name":"A","last_name":"B"}`

	require.Equal(t, http.StatusCreated, post(h.Register, body).Code)
	assert.Equal(t, http.StatusConflict, post(h.Register, body).Code)
}

func TestGetCurrentUser(t *testing.T) {
	store := memstore.New()
	h := NewHandler(store, NewTokens("test-secret", time.Hour))
	require.Equal(t, http.StatusCreated, post(h.Register, `{"email":"a@b.co","password":"longenough","first_name":"A","last_name":"B"}`).Code)
	user, err := store.UserByEmail(context.Background(), "a@b.co")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), user.ID))
	rec := httptest.NewRecorder()
	h.GetCurrentUser(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"first_name":"A"`)

	rec = httptest.NewRecorder()
	h.GetCurrentUser(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
