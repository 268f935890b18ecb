package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/tokengate/internal/api/shared"
	"github.com/phrazzld/tokengate/internal/platform/logger"
)

// SlowRequestThreshold is the duration above which a completed request is
// logged at WARN instead of INFO.
const SlowRequestThreshold = time.Second

// Trace assigns every request a trace ID, taken from a well-formed
// X-Request-ID header or generated, and echoes it on the response. The
// request context carries the ID and a logger tagged with it, so handlers and
// services log through logger.FromContext with the trace attached.
//
// Once the handler returns, Trace logs the request's status and duration.
// Apply it early in the middleware chain.
func Trace(base *slog.Logger) func(http.Handler) http.Handler {
	return trace(base, SlowRequestThreshold)
}

func trace(base *slog.Logger, slow time.Duration) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			traceID := shared.TraceIDFromHeader(r.Header.Get(shared.RequestIDHeader))
			w.Header().Set(shared.RequestIDHeader, traceID)

			log := base.With(slog.String("trace_id", traceID))
			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))

			ctx := shared.WithTraceID(r.Context(), traceID)
			ctx = logger.WithLogger(ctx, log)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			level := slog.LevelInfo
			msg := "request completed"
			if elapsed > slow {
				level = slog.LevelWarn
				msg = "slow request completed"
			}
			log.LogAttrs(r.Context(), level, msg,
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", elapsed))
		})
	}
}
