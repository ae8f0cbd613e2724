package httpadapter

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-Id"

type requestIDContextKey struct{}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDContextKey{}, requestID)
		r = r.WithContext(ctx)
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r)
	})
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		remoteAddr := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			remoteAddr = host
		}

		logAttrs := []any{
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.statusCode,
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes", recorder.bytesWritten,
			"remote_addr", remoteAddr,
			"user_agent", r.UserAgent(),
		}

		switch {
		case recorder.statusCode >= 500:
			slog.Error("http_request", logAttrs...)
		case recorder.statusCode >= 400:
			slog.Warn("http_request", logAttrs...)
		default:
			slog.Info("http_request", logAttrs...)
		}
	})
}

// TrafficConfig bounds the inbound request rate and the number of analysis
// requests allowed in flight at once. Zero values disable the corresponding
// control.
type TrafficConfig struct {
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxInFlight       int
	RetryAfterSeconds int
}

func rateLimitMiddleware(cfg TrafficConfig, next http.Handler) http.Handler {
	if cfg.RateLimitRPS <= 0 {
		return next
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeThrottled(w, cfg, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// backpressureMiddleware rejects analysis requests outright when the slot
// pool is exhausted. Both pipelines block on remote model calls, so queueing
// extra requests only piles latency onto clients that will time out anyway.
func backpressureMiddleware(cfg TrafficConfig, next http.Handler) http.Handler {
	if cfg.MaxInFlight <= 0 {
		return next
	}
	slots := make(chan struct{}, cfg.MaxInFlight)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isAnalysisPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		select {
		case slots <- struct{}{}:
			defer func() { <-slots }()
			next.ServeHTTP(w, r)
		default:
			writeThrottled(w, cfg, "server is at capacity")
		}
	})
}

func isAnalysisPath(path string) bool {
	return path == "/process" || path == "/find_clauses"
}

func writeThrottled(w http.ResponseWriter, cfg TrafficConfig, message string) {
	retryAfter := cfg.RetryAfterSeconds
	if retryAfter <= 0 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": message})
}
