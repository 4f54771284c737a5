package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/practicelog/internal/shared"
	tu "github.com/desertthunder/practicelog/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCSRF(t *testing.T) {
	handler := CSRF("http://localhost:3000")(okHandler)

	tt := []struct {
		name    string
		method  string
		origin  string
		referer string
		want    int
	}{
		{name: "safe method", method: http.MethodGet, origin: "https://evil.example", want: http.StatusOK},
		{name: "frontend origin", method: http.MethodPost, origin: "http://localhost:3000", want: http.StatusOK},
		{name: "frontend origin trailing slash", method: http.MethodPost, origin: "http://LOCALHOST:3000/", want: http.StatusOK},
		{name: "same host", method: http.MethodDelete, origin: "http://example.com", want: http.StatusOK},
		{name: "no headers", method: http.MethodPost, want: http.StatusOK},
		{name: "foreign origin", method: http.MethodPost, origin: "https://evil.example", want: http.StatusForbidden},
		{name: "foreign referer", method: http.MethodDelete, referer: "https://evil.example/page", want: http.StatusForbidden},
		{name: "frontend referer", method: http.MethodPost, referer: "http://localhost:3000/sessions", want: http.StatusOK},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "http://example.com/api/create_piece", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.referer != "" {
				req.Header.Set("Referer", tc.referer)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusForbidden {
				body := decodeBody(t, rec)
				assert.Equal(t, "forbidden", body["kind"])
				assert.Equal(t, "CSRF validation failed: invalid origin", body["error"])
			}
		})
	}
}

func TestCORS(t *testing.T) {
	handler := CORS("http://localhost:3000")(okHandler)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/create_piece", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	})

	t.Run("foreign origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/get_pieces", nil)
		req.Header.Set("Origin", "https://evil.example")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("limits per client", func(t *testing.T) {
		handler := RateLimit(rate.Every(time.Hour), 2, time.Minute)(okHandler)

		serve := func(remote string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
			req.RemoteAddr = remote
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		assert.Equal(t, http.StatusOK, serve("10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusOK, serve("10.0.0.1:1001").Code)

		rec := serve("10.0.0.1:1002")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "rate_limited", decodeBody(t, rec)["kind"])
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))

		assert.Equal(t, http.StatusOK, serve("10.0.0.2:1000").Code)
	})

	t.Run("disabled", func(t *testing.T) {
		handler := RateLimit(0, 0, time.Minute)(okHandler)
		for range 10 {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("through server", func(t *testing.T) {
		ts := setupTestServer(t, func(c *shared.Config) {
			c.Server.AuthRateLimit = 0.001
			c.Server.AuthRateBurst = 1
		})
		c := newTestClient(t, ts)
		creds := map[string]string{"user_name": "alice", "password": "pw"}

		status, _ := c.do(http.MethodPost, "/api/login", creds)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, body := c.do(http.MethodPost, "/api/login", creds)
		assert.Equal(t, http.StatusTooManyRequests, status)
		assert.Equal(t, "Too many requests", body["error"])

		status, _ = c.do(http.MethodGet, "/api/get_pieces", nil)
		assert.Equal(t, http.StatusOK, status, "only auth routes are limited")
	})
}

func TestRecoverer(t *testing.T) {
	logger, buf := tu.NewTestLogger()

	handler := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "backend_error", body["kind"])
	assert.Equal(t, "Server error", body["error"])
	assert.Contains(t, buf.String(), "boom")
}

func TestRequestLogger(t *testing.T) {
	logger, buf := tu.NewTestLogger()

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/get_pieces", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "/api/get_pieces")
	assert.Contains(t, buf.String(), "418")
}

func TestRouter(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewBasicRouter()
	r.Use(mark("first"), mark("second"))
	r.HandleFunc(http.MethodGet, "/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		order = append(order, "handler:"+req.PathValue("id"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/7", nil))
	assert.Equal(t, []string{"first", "second", "handler:7"}, order)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/7", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler, mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tt := []struct {
		name   string
		db     Pinger
		status int
		want   string
	}{
		{name: "healthy", db: fakePinger{}, status: http.StatusOK, want: "ok"},
		{name: "database down", db: fakePinger{err: errors.New("closed")}, status: http.StatusServiceUnavailable, want: "unavailable"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHealthHandler(tc.db).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.want, decodeBody(t, rec)["status"])
		})
	}
}

func TestCookieHelper(t *testing.T) {
	helper := NewCookieHelper(shared.SessionConfig{CookieName: "sid", TTL: "1h"})

	t.Run("set", func(t *testing.T) {
		rec := httptest.NewRecorder()
		helper.Set(rec, "abc")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "sid", cookies[0].Name)
		assert.Equal(t, "abc", cookies[0].Value)
		assert.Equal(t, 3600, cookies[0].MaxAge)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	})

	t.Run("clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		helper.Clear(rec)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})

	t.Run("token", func(t *testing.T) {
		tt := []struct {
			name  string
			setup func(r *http.Request)
			want  string
		}{
			{name: "none", setup: func(r *http.Request) {}, want: ""},
			{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sid", Value: "c1"}) }, want: "c1"},
			{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer b1") }, want: "b1"},
			{name: "basic ignored", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic xyz") }, want: ""},
			{name: "cookie wins", setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "sid", Value: "c1"})
				r.Header.Set("Authorization", "Bearer b1")
			}, want: "c1"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				tc.setup(req)
				assert.Equal(t, tc.want, helper.Token(req))
			})
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	tt := []struct {
		name string
		body string
		want string
	}{
		{name: "empty", body: "", want: "Request body is required"},
		{name: "malformed", body: "{", want: "Invalid request body"},
		{name: "too large", body: `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`, want: "Request body too large"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var v createPieceRequest

			err := decodeJSON(httptest.NewRecorder(), req, &v)
			require.Error(t, err)
			assert.Equal(t, shared.KindClient, shared.KindOf(err))
			assert.Equal(t, tc.want, shared.AsError(err).Message)
		})
	}
}
