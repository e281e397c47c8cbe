package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func attr(attrs []attribute.KeyValue, key string) attribute.Value {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestGinMiddlewareRecordsRouteAndStatus(t *testing.T) {
	rec := useRecorder(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/attempts/:id", func(c *gin.Context) {
		_, span := Start(c.Request.Context(), "AttemptService.ViewResult")
		span.End()
		c.Status(http.StatusNotFound)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/attempts/7", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := rec.Ended()
	require.Len(t, spans, 3)

	child, notFound, boom := spans[0], spans[1], spans[2]
	assert.Equal(t, "AttemptService.ViewResult", child.Name())
	assert.Equal(t, notFound.SpanContext().SpanID(), child.Parent().SpanID())

	assert.Equal(t, "GET /api/attempts/:id", notFound.Name())
	assert.Equal(t, int64(404), attr(notFound.Attributes(), "http.status_code").AsInt64())
	assert.Equal(t, codes.Unset, notFound.Status().Code)

	assert.Equal(t, codes.Error, boom.Status().Code)
}
