// Package server is the HTTP transport: a chi router serving the generated
// data files and assets, with every other path handed to the app.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/expvn/explog/internal/view"
)

const (
	configCache  = "public, max-age=300, stale-while-revalidate=60"
	contentCache = "no-cache"
	assetsCache  = "public, max-age=86400"

	shutdownTimeout = 10 * time.Second
)

type Config struct {
	Addr           string
	OutputDir      string
	AllowedOrigins []string
}

type Server struct {
	*http.Server
	log zerolog.Logger
}

func New(cfg Config, app http.Handler, log zerolog.Logger) *Server {
	log = log.With().Str("component", "server").Logger()
	return &Server{
		Server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg, app, log),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: log,
	}
}

// NewRouter wires the middleware stack, the static file routes and the app.
func NewRouter(cfg Config, app http.Handler, log zerolog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(logPanics(log))
	r.Use(chimw.GetHead)

	files := fileHandler(cfg.OutputDir)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/_explog/site.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", assetsCache)
		_, _ = w.Write(view.SiteJS)
	})

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.With(cacheControl(configCache)).Handle("/config/*", files)
		r.With(cacheControl(contentCache)).Handle("/content/*", files)
	})
	r.With(cacheControl(assetsCache)).Handle("/assets/*", files)

	r.Get("/*", rootFiles(cfg.OutputDir, app))
	return r
}

// fileHandler serves regular files below dir. Directories are not listed,
// and index.html is served under its own name, unlike http.FileServer.
func fileHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, info, ok := openFile(dir, r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

func openFile(dir, urlPath string) (*os.File, os.FileInfo, bool) {
	if strings.Contains(urlPath, "\x00") {
		return nil, nil, false
	}
	clean := path.Clean("/" + urlPath)
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, nil, false
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, false
	}
	return f, info, true
}

// rootFiles serves files such as /favicon.ico straight from the output
// directory. HTML paths always go to the app, so a stray index.html in the
// output never shadows a route.
func rootFiles(dir string, app http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ext := path.Ext(r.URL.Path)
		if ext != "" && ext != ".html" && ext != ".htm" {
			if f, info, ok := openFile(dir, r.URL.Path); ok {
				defer f.Close()
				w.Header().Set("Cache-Control", assetsCache)
				http.ServeContent(w, r, info.Name(), info.ModTime(), f)
				return
			}
		}
		app.ServeHTTP(w, r)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.Addr).Msg("server started")
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("server stopped")
	return nil
}
