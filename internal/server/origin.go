package server

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "github.com/ziadkadry99/itinerary/internal/log"
)

// revalidated are files the browser must always check with the origin so
// updates to the itinerary and the app manifest show up.
var revalidated = map[string]bool{
	"data.json":     true,
	"manifest.json": true,
	"index.html":    true,
}

// Origin serves a static site directory. Directory requests are answered
// with their index.html directly instead of redirecting, so cache installs
// can fetch both "./" and "index.html".
func Origin(site fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			name = "."
		}

		info, err := fs.Stat(site, name)
		if err == nil && info.IsDir() {
			name = path.Join(name, "index.html")
			info, err = fs.Stat(site, name)
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if info.IsDir() {
			http.NotFound(w, r)
			return
		}

		f, err := site.Open(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		base := path.Base(name)
		if revalidated[base] {
			w.Header().Set("Cache-Control", "no-cache")
		}
		if strings.HasSuffix(base, ".js") {
			w.Header().Set("Service-Worker-Allowed", "/")
		}

		rs, ok := f.(io.ReadSeeker)
		if !ok {
			http.Error(w, fmt.Sprintf("%s is not seekable", name), http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, base, info.ModTime(), rs)
	})
}

// NewOriginServer returns an HTTP server for the site directory on port.
func NewOriginServer(site fs.FS, port int) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(applog.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Handle("/*", Origin(site))

	addr := fmt.Sprintf(":%d", port)
	log.WithField("addr", addr).Info("serving site as origin")
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
