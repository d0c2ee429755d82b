package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultPrefix is prepended to the version to form a bucket name.
const DefaultPrefix = "itinerary"

// State is a worker's lifecycle phase.
type State int

const (
	StateParsed State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActivated
	StateRedundant
)

var stateNames = [...]string{"parsed", "installing", "installed", "activating", "activated", "redundant"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configures a Worker.
type Options struct {
	// Prefix and Version form the bucket name "<prefix>-<version>".
	Prefix  string
	Version string
	// Scope is the absolute base URL manifest paths are resolved against.
	Scope *url.URL
	// Assets is the static manifest cached verbatim at install time.
	Assets []string
	// NetworkFirst lists path suffixes answered network-first.
	NetworkFirst []string
	Storage      Storage
	// Network performs real requests. Defaults to http.DefaultTransport.
	Network http.RoundTripper
	// OnCached, if set, is called once per manifest asset fetched during
	// install. Calls are serialized.
	OnCached func(asset string)
}

// CacheName returns the bucket name for a prefix and version.
func CacheName(prefix, version string) string {
	return prefix + "-" + version
}

// Worker is the offline cache controller for one cache version. It is
// driven through Install, Activate and HandleFetch.
type Worker struct {
	id        string
	opts      Options
	cacheName string
	policy    Policy

	mu     sync.RWMutex
	state  State
	bucket Bucket
}

// NewWorker validates opts and returns a worker in StateParsed.
func NewWorker(opts Options) (*Worker, error) {
	if opts.Version == "" {
		return nil, errors.New("cache version is required")
	}
	if opts.Scope == nil || !opts.Scope.IsAbs() {
		return nil, errors.New("scope must be an absolute URL")
	}
	if opts.Storage == nil {
		return nil, errors.New("storage is required")
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Network == nil {
		opts.Network = http.DefaultTransport
	}
	scope := *opts.Scope
	if !strings.HasSuffix(scope.Path, "/") {
		scope.Path += "/"
	}
	opts.Scope = &scope

	return &Worker{
		id:        uuid.NewString(),
		opts:      opts,
		cacheName: CacheName(opts.Prefix, opts.Version),
		policy:    Policy{NetworkFirst: opts.NetworkFirst},
	}, nil
}

// ID returns a unique identifier for log correlation.
func (w *Worker) ID() string { return w.id }

// CacheName returns the bucket this worker owns.
func (w *Worker) CacheName() string { return w.cacheName }

// Version returns the cache version string.
func (w *Worker) Version() string { return w.opts.Version }

// Scope returns the base URL the manifest resolves against.
func (w *Worker) Scope() *url.URL {
	u := *w.opts.Scope
	return &u
}

// Policy returns the request classification in use.
func (w *Worker) Policy() Policy { return w.policy }

// State returns the current lifecycle phase.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
	w.logger().WithField("state", s.String()).Debug("worker state changed")
}

func (w *Worker) logger() *log.Entry {
	return log.WithFields(log.Fields{"worker": w.id, "cache": w.cacheName})
}

// ManifestURLs resolves the asset manifest against the scope.
func (w *Worker) ManifestURLs() ([]*url.URL, error) {
	urls := make([]*url.URL, 0, len(w.opts.Assets))
	for _, asset := range w.opts.Assets {
		ref, err := url.Parse(asset)
		if err != nil {
			return nil, fmt.Errorf("parsing asset %q: %w", asset, err)
		}
		urls = append(urls, w.opts.Scope.ResolveReference(ref))
	}
	return urls, nil
}

// Install opens the worker's bucket and fills it with every manifest asset.
// Any failed fetch or non-2xx status fails the whole install and nothing is
// written; the worker then becomes redundant.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)
	if err := w.install(ctx); err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, w.cacheName, err)
	}
	w.setState(StateInstalled)
	return nil
}

func (w *Worker) install(ctx context.Context) error {
	bucket, err := w.opts.Storage.Open(ctx, w.cacheName)
	if err != nil {
		return err
	}
	urls, err := w.ManifestURLs()
	if err != nil {
		return err
	}

	var hookMu sync.Mutex
	entries := make([]*Entry, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			e, err := w.fetchAsset(gctx, u)
			if err != nil {
				return err
			}
			entries[i] = e
			if w.opts.OnCached != nil {
				hookMu.Lock()
				w.opts.OnCached(w.opts.Assets[i])
				hookMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := bucket.PutAll(ctx, entries); err != nil {
		return fmt.Errorf("storing manifest: %w", err)
	}

	w.mu.Lock()
	w.bucket = bucket
	w.mu.Unlock()
	w.logger().WithField("assets", len(entries)).Info("cache populated")
	return nil
}

func (w *Worker) fetchAsset(ctx context.Context, u *url.URL) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.opts.Network.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: unexpected status %d", u, resp.StatusCode)
	}
	return NewEntry(Key(u), resp)
}

// Activate deletes every bucket except this worker's own and returns the
// deleted names. Deletion errors are reported but do not stop activation.
func (w *Worker) Activate(ctx context.Context) ([]string, error) {
	w.setState(StateActivating)

	var (
		deleted []string
		errs    []error
	)
	names, err := w.opts.Storage.Names(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing buckets: %w", err))
	}
	for _, name := range names {
		if name == w.cacheName {
			continue
		}
		ok, err := w.opts.Storage.Delete(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("deleting bucket %s: %w", name, err))
			continue
		}
		if ok {
			deleted = append(deleted, name)
			w.logger().WithField("stale", name).Info("deleted stale cache")
		}
	}

	w.setState(StateActivated)
	return deleted, errors.Join(errs...)
}

// Complete reports whether this worker's bucket already holds every
// manifest asset, as left behind by an earlier successful install.
func (w *Worker) Complete(ctx context.Context) (bool, error) {
	_, ok, err := w.installedAt(ctx)
	return ok, err
}

// installedAt is Complete plus the time the newest manifest entry was
// stored.
func (w *Worker) installedAt(ctx context.Context) (time.Time, bool, error) {
	var newest time.Time
	ok, err := w.opts.Storage.Has(ctx, w.cacheName)
	if err != nil || !ok {
		return newest, false, err
	}
	bucket, err := w.opts.Storage.Open(ctx, w.cacheName)
	if err != nil {
		return newest, false, err
	}
	urls, err := w.ManifestURLs()
	if err != nil {
		return newest, false, err
	}
	for _, u := range urls {
		e, err := bucket.Match(ctx, Key(u))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return newest, false, nil
			}
			return newest, false, err
		}
		if e.StoredAt.After(newest) {
			newest = e.StoredAt
		}
	}
	w.mu.Lock()
	w.bucket = bucket
	w.mu.Unlock()
	return newest, true, nil
}

// adopt marks a worker whose bucket is already complete as active without
// running install.
func (w *Worker) adopt() {
	w.setState(StateActivated)
}

func (w *Worker) openBucket(ctx context.Context) (Bucket, error) {
	w.mu.RLock()
	b := w.bucket
	w.mu.RUnlock()
	if b != nil {
		return b, nil
	}
	b, err := w.opts.Storage.Open(ctx, w.cacheName)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.bucket = b
	w.mu.Unlock()
	return b, nil
}

func (w *Worker) match(ctx context.Context, key string) (*Entry, error) {
	b, err := w.openBucket(ctx)
	if err != nil {
		return nil, err
	}
	return b.Match(ctx, key)
}

// HandleFetch answers an intercepted request according to the policy.
// Only GET requests are cached; anything else goes straight to the network.
func (w *Worker) HandleFetch(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return w.opts.Network.RoundTrip(req)
	}
	key := Key(req.URL)
	if w.policy.Classify(req.URL) == NetworkFirst {
		return w.networkFirst(req, key)
	}
	return w.cacheFirst(req, key)
}

func (w *Worker) networkFirst(req *http.Request, key string) (*http.Response, error) {
	ctx := req.Context()
	l := w.logger().WithFields(log.Fields{"url": key, "strategy": NetworkFirst.String()})

	resp, netErr := w.opts.Network.RoundTrip(req)

	// The request context may be what failed the fetch; the cache is read
	// and written regardless of it.
	ctx = context.WithoutCancel(ctx)
	if netErr == nil {
		e, err := NewEntry(key, resp)
		if err == nil {
			if b, err := w.openBucket(ctx); err != nil {
				l.WithError(err).Warn("opening cache for update")
			} else if err := b.Put(ctx, e); err != nil {
				l.WithError(err).Warn("updating cached copy")
			}
			l.WithField("status", e.Status).Debug("served from network")
			return e.Response(req), nil
		}
		netErr = err
	}

	cached, err := w.match(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoResponse, key, netErr)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrNoResponse, key, errors.Join(netErr, err))
	}
	l.WithError(netErr).Info("network unavailable, served cached copy")
	return cached.Response(req), nil
}

func (w *Worker) cacheFirst(req *http.Request, key string) (*http.Response, error) {
	ctx := req.Context()
	l := w.logger().WithFields(log.Fields{"url": key, "strategy": CacheFirst.String()})

	cached, err := w.match(ctx, key)
	if err == nil {
		l.Debug("served from cache")
		return cached.Response(req), nil
	}
	if !errors.Is(err, ErrNotFound) {
		l.WithError(err).Warn("cache lookup failed")
	}

	resp, err := w.opts.Network.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoResponse, key, err)
	}
	l.WithField("status", resp.StatusCode).Debug("cache miss, served from network")
	return resp, nil
}
