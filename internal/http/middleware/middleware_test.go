package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		return c.SendString(rid)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	header := resp.Header.Get(RequestIDHeader)
	require.NotEmpty(t, header)
	_, err = uuid.Parse(header)
	assert.NoError(t, err)
}

func TestRequestIDPreservesIncoming(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "fixed-id", resp.Header.Get(RequestIDHeader))
}

func TestLoggerEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer

	app := fiber.New()
	app.Use(RequestID())
	app.Use(LoggerTo(&buf))
	app.Get("/generate-invoice/:shipment_id", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/generate-invoice/a0B000000000001", nil))
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/generate-invoice/a0B000000000001", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
	assert.Equal(t, float64(2), entry["bytes_out"])
}

func TestPrometheusMiddlewareCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(pm.Handler())
	app.Get("/generate-invoice/:shipment_id", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/generate-invoice/a0B000000000001", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)

	count := testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", "/generate-invoice/:shipment_id", "200"))
	assert.Equal(t, float64(1), count)

	// /metrics itself is not measured
	metricsCount := testutil.ToFloat64(pm.requestCount.WithLabelValues("GET", "/metrics", "200"))
	assert.Equal(t, float64(0), metricsCount)
}

func TestPrometheusMiddlewareDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
