package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestTraceContextHonoursTraceparent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen string
	r.GET("/api/events/next", func(c *gin.Context) {
		seen = c.GetString(ctxTraceID)
		c.Status(http.StatusOK)
	})

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/api/events/next", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	req.Header.Set(headerTraceID, "ignored")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen != traceID {
		t.Fatalf("context trace id: want=%s got=%s", traceID, seen)
	}
	if got := rec.Header().Get(headerTraceID); got != traceID {
		t.Fatalf("response trace id: want=%s got=%s", traceID, got)
	}
}

func TestTraceContextFallsBackToHeaderThenFresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerTraceID, "abc123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(headerTraceID); got != "abc123" {
		t.Fatalf("header trace id: want=abc123 got=%s", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := rec.Header().Get(headerTraceID); len(got) != 32 {
		t.Fatalf("fresh trace id: want 32 hex chars got=%q", got)
	}
}

func TestRouteOfUsesPatternOrUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var routes []string
	r.Use(func(c *gin.Context) {
		c.Next()
		routes = append(routes, routeOf(c))
	})
	r.POST("/api/events/:id/usage", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, target := range []string{"/api/events/0b0e/usage", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, target, nil))
	}
	want := []string{"/api/events/:id/usage", "unmatched"}
	if len(routes) != len(want) {
		t.Fatalf("routes: want=%v got=%v", want, routes)
	}
	for i := range want {
		if routes[i] != want[i] {
			t.Fatalf("route %d: want=%s got=%s", i, want[i], routes[i])
		}
	}
}
