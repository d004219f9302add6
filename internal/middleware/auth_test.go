package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(token string) (string, error) {
	if uid, ok := s[token]; ok {
		return uid, nil
	}
	return "", errors.New("bad token")
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserID(r.Context())
	if !ok {
		uid = "anonymous"
	}
	w.Write([]byte(uid))
}

func TestAuthMiddleware(t *testing.T) {
	auth := NewAuth(stubVerifier{"good": "user-1"})

	tests := []struct {
		name       string
		optional   bool
		header     string
		wantStatus int
		wantBody   string
	}{
		{"required valid", false, "Bearer good", http.StatusOK, "user-1"},
		{"required missing", false, "", http.StatusUnauthorized, ""},
		{"required invalid", false, "Bearer bad", http.StatusUnauthorized, ""},
		{"required wrong scheme", false, "Basic good", http.StatusUnauthorized, ""},
		{"optional valid", true, "Bearer good", http.StatusOK, "user-1"},
		{"optional missing", true, "", http.StatusOK, "anonymous"},
		{"optional invalid degrades", true, "Bearer bad", http.StatusOK, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h http.Handler
			if tt.optional {
				h = auth.Optional(http.HandlerFunc(echoUser))
			} else {
				h = auth.Require(http.HandlerFunc(echoUser))
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequestLogKeepsStatus(t *testing.T) {
	h := RequestLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
