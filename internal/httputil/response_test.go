package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/opentab/gatekeeper/internal/errors"
)

func TestHandleErrorGin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		statusCode int
		errorCode  string
	}{
		{"malformed request", apperrors.ErrMalformedRequest, http.StatusBadRequest, "bad_request"},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"invalid input", apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"rate limited", apperrors.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"misconfigured", apperrors.ErrMisconfigured, http.StatusInternalServerError, "misconfigured"},
		{"unknown", assert.AnError, http.StatusInternalServerError, "internal_error"},
		{"wrapped unauthorized", apperrors.Wrap(apperrors.ErrUnauthorized, "credential expired"), http.StatusUnauthorized, "unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleErrorGin(c, tt.err, nil)

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.errorCode)
		})
	}

	t.Run("rate limit response carries retry-after header", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		HandleErrorGin(c, &apperrors.RateLimitError{RetryAfterSeconds: 42}, nil)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "42", w.Header().Get("Retry-After"))
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		HandleErrorGin(c, nil, nil)
		assert.Empty(t, w.Body.String())
	})
}

func TestClientIP(t *testing.T) {
	newRequest := func(remoteAddr, forwarded string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remoteAddr
		if forwarded != "" {
			r.Header.Set("X-Forwarded-For", forwarded)
		}
		return r
	}

	t.Run("forwarded chain takes first address", func(t *testing.T) {
		r := newRequest("10.0.0.1:4444", "203.0.113.9, 198.51.100.2, 10.0.0.1")
		assert.Equal(t, "203.0.113.9", ClientIP(r, true))
	})

	t.Run("forwarded header ignored when untrusted", func(t *testing.T) {
		r := newRequest("10.0.0.1:4444", "203.0.113.9")
		assert.Equal(t, "10.0.0.1", ClientIP(r, false))
	})

	t.Run("falls back to peer address", func(t *testing.T) {
		r := newRequest("10.0.0.1:4444", "")
		assert.Equal(t, "10.0.0.1", ClientIP(r, true))
	})

	t.Run("peer address without port", func(t *testing.T) {
		r := newRequest("10.0.0.1", "")
		assert.Equal(t, "10.0.0.1", ClientIP(r, true))
	})
}
