package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"teamnotes/internal/auth"
	"teamnotes/internal/httputil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoActor() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, httputil.GetUserID(r))
	})
}

func TestAuth(t *testing.T) {
	handler := Auth(auth.DevVerifier{}, discardLogger())(echoActor())

	tests := []struct {
		name       string
		method     string
		target     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"bearer header", http.MethodGet, "/api/notes/p1", "Bearer actor-1", http.StatusOK, "actor-1"},
		{"lowercase scheme", http.MethodGet, "/api/notes/p1", "bearer actor-2", http.StatusOK, "actor-2"},
		{"query token", http.MethodGet, "/api/ws?access_token=actor-3", "", http.StatusOK, "actor-3"},
		{"missing token", http.MethodGet, "/api/notes/p1", "", http.StatusUnauthorized, ""},
		{"wrong scheme", http.MethodGet, "/api/notes/p1", "Basic abc", http.StatusUnauthorized, ""},
		{"health is public", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"preflight passes", http.MethodOptions, "/api/notes/p1", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestInstrument_RecordsStatusAndFlushes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notes/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.(http.Flusher).Flush()
	})
	handler := Instrument(discardLogger())(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notes/p1", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.True(t, rec.Flushed)
}
