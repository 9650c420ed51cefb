package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/she-travels/payments/internal/config"
)

func TestCORS(t *testing.T) {
	cfg := &config.Config{AllowedOrigins: []string{"https://shetravels.test"}}

	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	h := CORS(cfg)(next)

	tests := []struct {
		name        string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
		wantReached bool
	}{
		{"allowed preflight", http.MethodOptions, "https://shetravels.test", true, http.StatusNoContent, "https://shetravels.test", false},
		{"rejected preflight", http.MethodOptions, "https://evil.test", true, http.StatusNoContent, "", false},
		{"allowed simple request", http.MethodPost, "https://shetravels.test", false, http.StatusOK, "https://shetravels.test", true},
		{"foreign origin still served", http.MethodPost, "https://evil.test", false, http.StatusOK, "", true},
		{"server to server", http.MethodPost, "", false, http.StatusOK, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(tc.method, "/createPaymentIntent", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}

			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.wantReached, reached)
			if tc.preflight && tc.wantAllowed != "" {
				assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
			}
		})
	}
}
