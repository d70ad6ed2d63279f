package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"wa-scheduler/internal/utils"
	"wa-scheduler/internal/websocket"
)

type contextKey string

const subjectKey contextKey = "subject"

type Middleware struct {
	JWTSecret      string
	AllowedOrigins []string

	rateLimiters sync.Map
}

func NewMiddleware(jwtSecret string, allowedOrigins []string) *Middleware {
	return &Middleware{
		JWTSecret:      jwtSecret,
		AllowedOrigins: allowedOrigins,
	}
}

// Subject returns the authenticated token subject stored by AuthMiddleware.
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey).(string)
	return sub
}

func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.parseToken(r.Header.Get("Authorization"))
		if err != nil {
			utils.ErrorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) parseToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization format")
	}
	return utils.ParseSubject(parts[1], m.JWTSecret)
}

func (m *Middleware) CORS(next http.Handler) http.Handler {
	allowed := m.AllowedOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && websocket.OriginAllowed(origin, allowed) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		} else if len(allowed) == 1 && allowed[0] == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// simple token bucket per IP
type limiter struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
}

func (m *Middleware) RateLimitMiddleware(next http.Handler) http.Handler {
	const (
		maxTokens    = 60
		refillPeriod = time.Minute
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		val, _ := m.rateLimiters.LoadOrStore(ip, &limiter{tokens: maxTokens, lastRefill: time.Now()})
		lim := val.(*limiter)

		lim.mu.Lock()
		now := time.Now()
		if now.Sub(lim.lastRefill) > refillPeriod {
			lim.tokens = maxTokens
			lim.lastRefill = now
		}
		allowed := lim.tokens > 0
		if allowed {
			lim.tokens--
		}
		lim.mu.Unlock()

		if !allowed {
			utils.ErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
