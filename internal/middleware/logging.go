package middleware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fitness-tracker/internal/event"
)

const requestIDHeader = "X-Request-ID"

// requestInfo is filled in by inner middleware and read back when the request is logged.
// subject may be set from the goroutine http.TimeoutHandler starts.
type requestInfo struct {
	id      string
	subject atomic.Value
}

func (i *requestInfo) setSubject(subject string) {
	i.subject.Store(subject)
}

func (i *requestInfo) subjectOrEmpty() string {
	s, _ := i.subject.Load().(string)
	return s
}

type requestInfoKey struct{}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// Logging writes one line per request. Failures also carry the error code from the body.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := &requestInfo{id: r.Header.Get(requestIDHeader)}
		if info.id == "" {
			info.id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, info.id)

		ip := ClientIP(r)
		ctx := context.WithValue(event.WithClientIP(r.Context(), ip), requestInfoKey{}, info)

		started := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		attrs := []slog.Attr{
			slog.String("request_id", info.id),
			slog.String("method", r.Method),
			slog.String("route", routePattern(r)),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.status),
			slog.Int64("duration_ms", time.Since(started).Milliseconds()),
			slog.String("client_ip", ip),
		}
		if subject := info.subjectOrEmpty(); subject != "" {
			attrs = append(attrs, slog.String("subject", subject))
		}
		if wrapped.status >= http.StatusBadRequest {
			attrs = append(attrs, wrapped.errorAttrs()...)
		}

		slog.LogAttrs(r.Context(), levelFor(wrapped.status), "request", attrs...)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// routePattern is read after the handler ran so chi has filled the route context.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

type responseWriter struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if rw.wroteHeader {
		return
	}
	rw.status = statusCode
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status >= http.StatusBadRequest && rw.body.Len() < 4096 {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) errorAttrs() []slog.Attr {
	var parsed struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rw.body.Bytes(), &parsed); err != nil || parsed.Error == nil {
		return nil
	}

	attrs := []slog.Attr{
		slog.String("error_code", parsed.Error.Code),
		slog.String("error_message", parsed.Error.Message),
	}
	if parsed.Error.Details != "" {
		attrs = append(attrs, slog.String("error_details", parsed.Error.Details))
	}
	return attrs
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
