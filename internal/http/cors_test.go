package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(t *testing.T, enabled bool, origins string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	if middleware := createCORSMiddleware(enabled, origins, slog.Default()); middleware != nil {
		router.Use(middleware)
	}
	router.POST("/v1/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestCreateCORSMiddleware_NilCases(t *testing.T) {
	logger := slog.Default()

	assert.Nil(t, createCORSMiddleware(false, "https://backoffice.example.com", logger),
		"disabled wins over configured origins")
	assert.Nil(t, createCORSMiddleware(true, "", logger))
	assert.Nil(t, createCORSMiddleware(true, " , ,", logger),
		"whitespace-only entries do not count as origins")
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "https://backoffice.example.com", []string{"https://backoffice.example.com"}},
		{"multiple", "https://a.example.com,https://b.example.com",
			[]string{"https://a.example.com", "https://b.example.com"}},
		{"whitespace trimmed", " https://a.example.com , https://b.example.com ",
			[]string{"https://a.example.com", "https://b.example.com"}},
		{"empty entries dropped", "https://a.example.com,,", []string{"https://a.example.com"}},
		{"empty input", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOrigins(tt.input))
		})
	}
}

func TestCORS_AllowedOriginGetsHeaders(t *testing.T) {
	router := corsRouter(t, true, "https://backoffice.example.com")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/login", nil)
	req.Header.Set("Origin", "https://backoffice.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://backoffice.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisabledAddsNoHeaders(t *testing.T) {
	router := corsRouter(t, false, "https://backoffice.example.com")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/login", nil)
	req.Header.Set("Origin", "https://backoffice.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightAllowsTenantHeader(t *testing.T) {
	router := corsRouter(t, true, "https://backoffice.example.com")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/login", nil)
	req.Header.Set("Origin", "https://backoffice.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization,X-Tenant-Id")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Tenant-Id")
}
