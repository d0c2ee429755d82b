package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	applog "github.com/ziadkadry99/itinerary/internal/log"
	"github.com/ziadkadry99/itinerary/internal/offline"
	"github.com/ziadkadry99/itinerary/internal/render"
)

// Config holds server configuration.
type Config struct {
	Port     int
	DataPath string // itinerary document, relative to the scope
	AllowAll bool   // allow all CORS origins (dev mode)
}

// Server serves the rendered itinerary and proxies everything else through
// the offline cache container.
type Server struct {
	cfg        Config
	container  *offline.Container
	storage    offline.Storage
	renderer   *render.Renderer
	scope      *url.URL
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. scope is the origin URL the cache controls; its
// path must end in a slash.
func New(cfg Config, container *offline.Container, storage offline.Storage, renderer *render.Renderer, scope *url.URL) *Server {
	if cfg.DataPath == "" {
		cfg.DataPath = "data.json"
	}
	s := &Server{
		cfg:       cfg,
		container: container,
		storage:   storage,
		renderer:  renderer,
		scope:     scope,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(applog.RequestLogger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/cache", s.handleCache)
	r.Get("/", s.handlePage)
	r.Get("/*", s.handleProxy)

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Container returns the offline cache container.
func (s *Server) Container() *offline.Container { return s.container }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type healthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache,omitempty"`
	Worker string `json:"worker,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if active := s.container.Active(); active != nil {
		resp.Cache = active.CacheName()
		resp.Worker = active.State().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

type cacheBucket struct {
	Name   string   `json:"name"`
	Active bool     `json:"active"`
	Keys   []string `json:"keys"`
}

type cacheResponse struct {
	Active  string        `json:"active,omitempty"`
	Buckets []cacheBucket `json:"buckets"`
}

func (s *Server) handleCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := cacheResponse{Buckets: []cacheBucket{}}
	if active := s.container.Active(); active != nil {
		resp.Active = active.CacheName()
	}

	names, err := s.storage.Names(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	for _, name := range names {
		b, err := s.storage.Open(ctx, name)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		keys, err := b.Keys(ctx)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		resp.Buckets = append(resp.Buckets, cacheBucket{Name: name, Active: name == resp.Active, Keys: keys})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePage renders the itinerary. A failed load still answers 200 with
// the inline error, the way the page itself would show it.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	loader := &render.Loader{
		Client:   s.container.Client(),
		BaseURL:  s.scope,
		DataPath: s.cfg.DataPath,
	}

	var buf bytes.Buffer
	err := s.renderer.Render(r.Context(), &buf, loader)
	var loadErr *render.LoadError
	if err != nil && !errors.As(err, &loadErr) {
		log.WithError(err).Error("rendering page")
		http.Error(w, "rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// target maps a request path onto the scope.
func (s *Server) target(r *http.Request) *url.URL {
	ref := &url.URL{
		Path:     strings.TrimPrefix(r.URL.Path, "/"),
		RawQuery: r.URL.RawQuery,
	}
	return s.scope.ResolveReference(ref)
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := s.target(r)

	out, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		out.Header.Set("Accept", accept)
	}

	resp, err := s.container.RoundTrip(out)
	if err != nil {
		log.WithError(err).WithField("url", target.String()).Warn("no response from network or cache")
		http.Error(w, fmt.Sprintf("offline and not cached: %s", r.URL.Path), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.WithError(err).WithField("url", target.String()).Debug("copying response")
	}
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.WithField("addr", addr).WithField("scope", s.scope.String()).Info("itinerary server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
