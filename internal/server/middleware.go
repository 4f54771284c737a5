package server

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/practicelog/internal/services"
	"github.com/desertthunder/practicelog/internal/shared"
	"golang.org/x/time/rate"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request with its status and duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		})
	}
}

// Recoverer turns a panic in a handler into a backend error response.
func Recoverer(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					respondError(w, r, logger, shared.BackendError(fmt.Errorf("panic: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows credentialed requests from frontendURL and answers preflight requests.
func CORS(frontendURL string) Middleware {
	allowed := normalizeOrigin(frontendURL)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed != "" && normalizeOrigin(origin) == allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRF rejects state-changing requests whose Origin (or Referer, when Origin is absent)
// is neither the frontend nor the API itself.
//
// Requests carrying neither header are let through: they do not come from a browser,
// and a browser always sends one of them on cross-site POST and DELETE.
func CSRF(frontendURL string) Middleware {
	allowed := normalizeOrigin(frontendURL)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				if referer := r.Header.Get("Referer"); referer != "" {
					origin = extractOrigin(referer)
				}
			}

			if origin != "" {
				o := normalizeOrigin(origin)
				if o != allowed && !sameHost(o, r.Host) {
					respondError(w, r, nil, shared.Forbidden("CSRF validation failed: invalid origin"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Session resolves the request's token into a user id on every request.
//
// Unauthenticated requests continue without a user id; handlers that need one are wrapped
// with requireUser. A session store failure is logged and recorded on the context, so public
// routes still answer while requireUser reports the failure.
func Session(auth *services.AuthService, cookies *CookieHelper, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookies.Token(r)

			userID, err := auth.CurrentUser(r.Context(), token)
			ctx := withSession(r.Context(), token, userID, err == nil)
			if err != nil && shared.KindOf(err) != shared.KindUnauthorized {
				logger.Warn("session lookup failed", "path", r.URL.Path, "error", err)
				ctx = withSessionError(ctx, err)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit limits requests per client IP with a token bucket. Idle clients are forgotten
// after expiresIn. A non-positive limit disables limiting.
func RateLimit(limit rate.Limit, burst int, expiresIn time.Duration) Middleware {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)

	allow := func(ip string) bool {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		for key, v := range visitors {
			if now.Sub(v.lastSeen) > expiresIn {
				delete(visitors, key)
			}
		}

		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(limit, burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter.Allow()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, errorResponse{
					Success: false,
					Kind:    "rate_limited",
					Error:   "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireUser rejects requests without an authenticated user.
func (s *Server) requireUser(next func(w http.ResponseWriter, r *http.Request, userID int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessionErrFrom(r.Context()); err != nil {
			respondError(w, r, s.logger, err)
			return
		}
		userID, ok := UserIDFrom(r.Context())
		if !ok {
			respondError(w, r, s.logger, shared.Unauthorized())
			return
		}
		next(w, r, userID)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

// extractOrigin extracts the origin (scheme://host:port) from a URL.
func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "null"
	}
	return parsed.Scheme + "://" + parsed.Host
}

func sameHost(origin, host string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, host)
}
