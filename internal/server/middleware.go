package server

import (
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				ev := log.Info()
				if status >= http.StatusInternalServerError {
					ev = log.Error()
				}
				ev.Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Float64("duration_ms", float64(time.Since(start).Microseconds())/1000).
					Int("bytes", ww.BytesWritten()).
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("remote_ip", r.RemoteAddr).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// logPanics records a panic with its stack and hands it on to the recoverer.
func logPanics(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec != http.ErrAbortHandler {
						log.Error().
							Str("method", r.Method).
							Str("path", r.URL.Path).
							Str("request_id", chimw.GetReqID(r.Context())).
							Interface("panic", rec).
							Str("stack", string(debug.Stack())).
							Msg("recovered from panic")
					}
					panic(rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// cacheControl sets the Cache-Control header for a class of static files.
func cacheControl(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
