package httpadapter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAPIDocumentLoads(t *testing.T) {
	router, err := loadOpenAPIRouter(context.Background())
	if err != nil {
		t.Fatalf("load openapi router: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/session/alerts/abc", nil)
	route, params, err := router.FindRoute(req)
	if err != nil {
		t.Fatalf("find route: %v", err)
	}
	if route.Operation.OperationID != "dismissAlert" || params["id"] != "abc" {
		t.Fatalf("unexpected route %s %v", route.Operation.OperationID, params)
	}
}

func TestOpenAPIValidationSkipsFormPosts(t *testing.T) {
	router, err := loadOpenAPIRouter(context.Background())
	if err != nil {
		t.Fatalf("load openapi router: %v", err)
	}
	called := false
	handler := openAPIValidationMiddleware(router, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/session/text", strings.NewReader("title=only"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if !called || res.Code != http.StatusNoContent {
		t.Fatalf("expected form post to pass through, got %d", res.Code)
	}
}

func TestOpenAPIValidationKeepsBodyReadable(t *testing.T) {
	router, err := loadOpenAPIRouter(context.Background())
	if err != nil {
		t.Fatalf("load openapi router: %v", err)
	}
	var seen string
	handler := openAPIValidationMiddleware(router, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf strings.Builder
		_, _ = io.Copy(&buf, r.Body)
		seen = buf.String()
	}))

	body := `{"text":"hello","font_size":14}`
	req := httptest.NewRequest(http.MethodPost, "/api/session/text", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != body {
		t.Fatalf("expected handler to read the original body, got %q", seen)
	}
}
