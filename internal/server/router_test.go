package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type routesHandler struct {
	routes []string
	body   string
}

func (h routesHandler) Routes() []string { return h.routes }

func (h routesHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte(h.body))
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handle", func(t *testing.T) {
		t.Run("Matching Method", func(t *testing.T) {
			router := NewBasicRouter()
			router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("pong"))
			}))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

			if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
				t.Errorf("expected 200 pong, got %d %s", rec.Code, rec.Body.String())
			}
		})

		t.Run("Other Method", func(t *testing.T) {
			router := NewBasicRouter()
			router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not run")
			}))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected 405, got %d", rec.Code)
			}
			if rec.Header().Get("Allow") != http.MethodGet {
				t.Errorf("expected Allow header, got %q", rec.Header().Get("Allow"))
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("expected JSON error body, got %s", rec.Body.String())
			}
		})
	})

	t.Run("Handler", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(routesHandler{routes: []string{"/a", "/b"}, body: "ok"})

		for _, path := range []string{"/a", "/b"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != "ok" {
				t.Errorf("%s: expected ok, got %s", path, rec.Body.String())
			}
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/a", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for DELETE, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("expected first,second,handler got %s", got)
		}
	})

	t.Run("Middleware Sees Rejected Methods", func(t *testing.T) {
		seen := 0
		router := NewBasicRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen++
				next.ServeHTTP(w, r)
			})
		})
		router.Handle(http.MethodGet, "/", http.NotFoundHandler())

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/", nil))

		if seen != 1 {
			t.Errorf("expected middleware to run once, ran %d times", seen)
		}
	})
}
