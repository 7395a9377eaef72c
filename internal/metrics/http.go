package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsMiddleware returns a gin middleware that counts requests and
// records their latency, labelled by method, route pattern and status code.
// The route pattern (e.g. /v1/sessions) is used instead of the raw URL so
// path parameters do not explode label cardinality. When the instruments
// cannot be created the middleware degrades to a pass-through.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	meter := meterProvider.Meter(namespace)

	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("HTTP requests by method, route and status code"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	latency, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", routeLabel(c.FullPath())),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)

		requests.Add(c.Request.Context(), 1, attrs)
		latency.Record(c.Request.Context(), time.Since(start).Seconds(), attrs)
	}
}

// routeLabel maps an unmatched request (empty route pattern) to a single
// bucket instead of the raw path.
func routeLabel(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}
