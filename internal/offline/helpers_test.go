package offline

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
)

var errOffline = errors.New("dial tcp: network is unreachable")

// origin is a fake site that counts requests per path.
type origin struct {
	srv *httptest.Server

	mu     sync.Mutex
	files  map[string]string
	status map[string]int
	hits   map[string]int
}

func newOrigin(t *testing.T, files map[string]string) *origin {
	t.Helper()
	o := &origin{files: files, status: map[string]int{}, hits: map[string]int{}}
	o.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.hits[r.URL.Path]++
		body, ok := o.files[r.URL.Path]
		status := o.status[r.URL.Path]
		o.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(body))
	}))
	t.Cleanup(o.srv.Close)
	return o
}

func (o *origin) set(path, body string) {
	o.mu.Lock()
	o.files[path] = body
	o.mu.Unlock()
}

func (o *origin) fail(path string, status int) {
	o.mu.Lock()
	o.status[path] = status
	o.mu.Unlock()
}

func (o *origin) hitCount(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

func (o *origin) url(t *testing.T, path string) *url.URL {
	t.Helper()
	u, err := url.Parse(o.srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

// switchable is a transport that can be taken offline.
type switchable struct {
	offline atomic.Bool
	calls   atomic.Int32
	next    http.RoundTripper
}

func (s *switchable) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls.Add(1)
	if s.offline.Load() {
		return nil, errOffline
	}
	return s.next.RoundTrip(req)
}

func siteFiles() map[string]string {
	return map[string]string{
		"/trip/":                   "<html>shell</html>",
		"/trip/index.html":         "<html>shell</html>",
		"/trip/style.css":          "body{}",
		"/trip/data.json":          `{"title":"v1","days":[]}`,
		"/trip/icons/icon-192.png": "png",
	}
}

var siteAssets = []string{"./", "index.html", "style.css", "data.json", "icons/icon-192.png"}

func newTestWorker(t *testing.T, o *origin, net http.RoundTripper, storage Storage, version string) *Worker {
	t.Helper()
	w, err := NewWorker(Options{
		Version:      version,
		Scope:        o.url(t, "/trip/"),
		Assets:       siteAssets,
		NetworkFirst: []string{"data.json"},
		Storage:      storage,
		Network:      net,
	})
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return w
}
