package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// createCORSMiddleware builds a CORS middleware from the comma-separated
// origin list, or returns nil when CORS is disabled or no origins are
// configured.
//
// CORS is disabled by default: POS terminals and kiosks talk to the control
// plane server-to-server. Enable only for browser-based back-office clients.
func createCORSMiddleware(enabled bool, allowOriginsStr string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOriginsStr)
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no origins configured - CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled",
		slog.Int("origin_count", len(origins)),
		slog.Any("origins", origins))

	config := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"DELETE",
		},
		AllowHeaders: []string{
			"Authorization",
			"Content-Type",
			"X-Tenant-Id",
		},
		ExposeHeaders: []string{
			"X-Request-Id",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	return cors.New(config)
}

func parseOrigins(originsStr string) []string {
	var origins []string
	for _, part := range strings.Split(originsStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
