package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracing_RequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		reused bool
	}{
		{"caller id reused", "req-123", true},
		{"token characters reused", "web.1:abc_DEF-9", true},
		{"missing id generated", "", false},
		{"too long replaced", strings.Repeat("a", maxRequestIDLen+1), false},
		{"newline replaced", "req\nlevel=ERROR", false},
		{"spaces replaced", "req 123", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/stripeWebhook", nil)
			if tc.header != "" {
				req.Header[requestIDHeader] = []string{tc.header}
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, seen, w.Header().Get(requestIDHeader))
			if tc.reused {
				assert.Equal(t, tc.header, seen)
				return
			}
			_, err := uuid.Parse(seen)
			require.NoError(t, err)
		})
	}
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
