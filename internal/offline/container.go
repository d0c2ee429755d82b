package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// Container hosts workers and routes intercepted requests to the active one.
// It implements http.RoundTripper so it can sit under an *http.Client.
type Container struct {
	network http.RoundTripper

	regMu sync.Mutex // serializes Register and Resume

	mu     sync.RWMutex // held for writing while a worker activates
	active *Worker
}

// NewContainer creates a Container. Requests arriving while no worker is
// active go to network (http.DefaultTransport when nil).
func NewContainer(network http.RoundTripper) *Container {
	if network == nil {
		network = http.DefaultTransport
	}
	return &Container{network: network}
}

// Active returns the worker currently handling requests, or nil.
func (c *Container) Active() *Worker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Register installs w and, only once install succeeded, activates it and
// takes over request handling immediately. On install failure w is
// discarded and the previously active worker keeps serving.
func (c *Container) Register(ctx context.Context, w *Worker) error {
	c.regMu.Lock()
	defer c.regMu.Unlock()

	if err := w.Install(ctx); err != nil {
		if prev := c.Active(); prev != nil {
			log.WithError(err).WithField("serving", prev.CacheName()).Warn("install failed, previous cache stays active")
		}
		return err
	}

	// Requests wait while the new worker activates, then go to it.
	c.mu.Lock()
	defer c.mu.Unlock()
	deleted, err := w.Activate(ctx)
	if err != nil {
		log.WithError(err).WithField("cache", w.CacheName()).Warn("activation cleanup incomplete")
	}
	prev := c.active
	c.active = w
	if prev != nil && prev != w {
		prev.setState(StateRedundant)
	}
	log.WithFields(log.Fields{
		"cache":   w.CacheName(),
		"deleted": len(deleted),
	}).Info("worker activated")
	return nil
}

// Resume makes a worker active without installing when its bucket is
// already complete from an earlier run. Otherwise it serves the complete
// bucket with the same prefix whose entries were stored most recently
// (ties go to the lexically last name), the way a browser keeps the
// previous worker until an install succeeds. It returns the worker now
// serving.
func (c *Container) Resume(ctx context.Context, w *Worker) (*Worker, error) {
	c.regMu.Lock()
	defer c.regMu.Unlock()

	ok, err := w.Complete(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		c.claim(w)
		return w, nil
	}

	names, err := w.opts.Storage.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	prefix := w.opts.Prefix + "-"
	var (
		best   *Worker
		bestAt time.Time
	)
	for _, name := range names {
		if name == w.cacheName || !strings.HasPrefix(name, prefix) {
			continue
		}
		opts := w.opts
		opts.Version = strings.TrimPrefix(name, prefix)
		prev, err := NewWorker(opts)
		if err != nil {
			return nil, err
		}
		at, complete, err := prev.installedAt(ctx)
		if err != nil {
			return nil, err
		}
		if complete && (best == nil || !at.Before(bestAt)) {
			best, bestAt = prev, at
		}
	}
	if best != nil {
		c.claim(best)
		return best, nil
	}
	return nil, fmt.Errorf("no complete cache for %s", w.cacheName)
}

func (c *Container) claim(w *Worker) {
	w.adopt()
	c.mu.Lock()
	c.active = w
	c.mu.Unlock()
	log.WithField("cache", w.CacheName()).Info("resumed cached worker")
}

// Start registers w and falls back to Resume when install fails, so a
// process starting offline still serves its last good cache. If another
// worker was already active it keeps serving and is returned together with
// the install error.
func (c *Container) Start(ctx context.Context, w *Worker) (*Worker, error) {
	regErr := c.Register(ctx, w)
	if regErr == nil {
		return w, nil
	}
	if !errors.Is(regErr, ErrInstallFailed) {
		return nil, regErr
	}
	if active := c.Active(); active != nil {
		return active, regErr
	}
	resumed, err := c.Resume(ctx, w)
	if err != nil {
		return nil, errors.Join(regErr, err)
	}
	return resumed, nil
}

// RoundTrip hands req to the active worker, or to the network when none is
// active.
func (c *Container) RoundTrip(req *http.Request) (*http.Response, error) {
	w := c.Active()
	if w == nil {
		return c.network.RoundTrip(req)
	}
	return w.HandleFetch(req)
}

// Client returns an *http.Client whose requests go through c.
func (c *Container) Client() *http.Client {
	return &http.Client{Transport: c}
}
