package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Config{Enabled: true, Token: "s3cret"})(ok)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"probe exempt", "/healthz", "", http.StatusOK},
		{"frontend exempt", "/", "", http.StatusOK},
		{"metrics exempt", "/metrics", "", http.StatusOK},
		{"missing token", "/api/v1/dashboard", "", http.StatusUnauthorized},
		{"wrong token", "/api/v1/dashboard", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "/api/v1/dashboard", "Basic s3cret", http.StatusUnauthorized},
		{"valid token", "/api/v1/dashboard", "Bearer s3cret", http.StatusOK},
		{"query token on stream", "/api/v1/stream/dashboard?access_token=s3cret", "", http.StatusOK},
		{"query token elsewhere ignored", "/api/v1/dashboard?access_token=s3cret", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	h := Middleware(Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/scene", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
