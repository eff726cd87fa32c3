package connect

import (
	"encoding/json"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/jinglebox/internal/app/session"
)

// RouterConfig represents HTTP router configuration.
type RouterConfig struct {
	ControlToken string // Guards the AdminService; empty disables it
}

// NewRouter builds the HTTP handler serving both RPC services, a health check
// and a summary of the server at "/".
func NewRouter(sess *session.Manager, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	path, handler := NewPlaybackServiceHandler(NewPlaybackService(sess))
	r.Handle(path+"*", handler)

	path, handler = NewAdminServiceHandler(
		NewAdminService(sess),
		connect.WithInterceptors(NewControlTokenInterceptor(cfg.ControlToken)),
	)
	r.Handle(path+"*", handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		status := sess.Status()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"playlist": status.PlaylistName,
			"tracks":   status.TrackCount,
			"pages":    status.Pages,
			"services": []string{PlaybackServiceName, AdminServiceName},
		})
	})

	return r
}

// requestLogger logs each request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zlog.Debug().Msgf("http: %s %s status=%d bytes=%d duration=%s request_id=%s",
			r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
